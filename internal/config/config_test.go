package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalYAML = `
queries:
  keywords: ["drupal"]
sources:
  - id: boardA
    kind: board_api
    enabled: true
    endpoint: https://api.boards.net/search
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 38491, cfg.App.Port)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.BaseDelayMS)
	assert.Equal(t, 64, cfg.Limits.QueueSize)
	assert.Equal(t, 10, cfg.Limits.GraceSecs)
	assert.Equal(t, 5.0, cfg.Scoring.Base)
	assert.Equal(t, 90, cfg.Retention.MaxAgeDays)
	assert.Equal(t, 20, cfg.Schedule.RunTimeoutMins)

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, 3, cfg.Sources[0].PoolSize)
	assert.Equal(t, 1.0, cfg.Sources[0].RatePerSec)
	assert.Equal(t, 1, cfg.Sources[0].Burst)
	assert.Equal(t, "INBOX", cfg.Sources[0].Mailbox)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "queries: [not: valid"))
	assert.Error(t, err)
}

func TestValidate_OK(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"duplicate source id", func(c *Config) {
			c.Sources = append(c.Sources, c.Sources[0])
		}, "duplicate source id"},
		{"missing endpoint", func(c *Config) {
			c.Sources[0].Endpoint = ""
		}, "endpoint is required"},
		{"unknown kind", func(c *Config) {
			c.Sources[0].Kind = "carrier_pigeon"
		}, "unknown kind"},
		{"no keywords", func(c *Config) {
			c.Queries.Keywords = nil
		}, "keywords is empty"},
		{"bad freshness", func(c *Config) {
			c.Queries.Freshness = "fortnight"
		}, "freshness"},
		{"pool size out of range", func(c *Config) {
			c.Sources[0].PoolSize = 99
		}, "pool_size"},
		{"bad cron spec", func(c *Config) {
			c.Schedule.DiscoveryCron = "every tuesday"
		}, "discovery_cron"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalYAML))
			require.NoError(t, err)
			tt.mutate(&cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_EmailSourceNeedsIMAP(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
queries:
  keywords: ["drupal"]
sources:
  - id: alerts
    kind: email_alert
    enabled: true
`))
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap_addr")
}

func TestEnabledSources(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
queries:
  keywords: ["drupal"]
sources:
  - id: a
    kind: board_api
    enabled: true
    endpoint: https://a.net
  - id: b
    kind: board_api
    enabled: false
    endpoint: https://b.net
`))
	require.NoError(t, err)

	enabled := cfg.EnabledSources()
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].ID)
}

func TestEnsureUserConfig_CopiesDefaultOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := writeConfig(t, minimalYAML)

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "config.yml"), userPath)

	// edits survive a second bootstrap
	require.NoError(t, os.WriteFile(userPath, []byte("queries:\n  keywords: [\"edited\"]\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)

	cfg, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, []string{"edited"}, cfg.Queries.Keywords)
}
