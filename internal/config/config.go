package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Rule is a weighted keyword rule used by scoring.
type Rule struct {
	Tag    string   `yaml:"tag"`
	Weight float64  `yaml:"weight"`
	Any    []string `yaml:"any"`
}

// SourceKind selects the provider implementation for a source entry.
type SourceKind string

const (
	KindBoardAPI   SourceKind = "board_api"
	KindBoardHTML  SourceKind = "board_html"
	KindEmailAlert SourceKind = "email_alert"
)

// Source configures one external search provider or board site.
type Source struct {
	ID         string     `yaml:"id"`
	Kind       SourceKind `yaml:"kind"`
	Enabled    bool       `yaml:"enabled"`
	PoolSize   int        `yaml:"pool_size"`    // workers per stage, default 3
	RatePerSec float64    `yaml:"rate_per_sec"` // token refill rate
	Burst      int        `yaml:"burst"`
	Trust      float64    `yaml:"trust"` // additive scoring weight

	// board_api / board_html
	Endpoint string `yaml:"endpoint"`
	AppID    string `yaml:"app_id"`
	AppKey   string `yaml:"app_key"`

	// email_alert
	IMAPAddr       string `yaml:"imap_addr"`
	IMAPUsername   string `yaml:"imap_username"`
	KeyringAccount string `yaml:"keyring_account"`
	Mailbox        string `yaml:"mailbox"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
		Debug   bool   `yaml:"debug"`
	} `yaml:"app"`

	Schedule struct {
		DiscoveryCron  string `yaml:"discovery_cron"`
		RetentionCron  string `yaml:"retention_cron"`
		RunTimeoutMins int    `yaml:"run_timeout_minutes"`
	} `yaml:"schedule"`

	Queries struct {
		Keywords  []string `yaml:"keywords"`
		Freshness string   `yaml:"freshness"` // day/week/month/year
		Location  string   `yaml:"location"`
	} `yaml:"queries"`

	Sources []Source `yaml:"sources"`

	Retry struct {
		MaxAttempts int `yaml:"max_attempts"`
		BaseDelayMS int `yaml:"base_delay_ms"`
		MaxDelayMS  int `yaml:"max_delay_ms"`
	} `yaml:"retry"`

	Limits struct {
		QueueSize          int `yaml:"queue_size"`
		AcquireTimeoutSecs int `yaml:"acquire_timeout_seconds"`
		TaskTimeoutSecs    int `yaml:"task_timeout_seconds"`
		GraceSecs          int `yaml:"grace_seconds"`
	} `yaml:"limits"`

	Validation struct {
		ProbeEnabled       bool     `yaml:"probe_enabled"`
		ProbeTimeoutSecs   int      `yaml:"probe_timeout_seconds"`
		PlaceholderDomains []string `yaml:"placeholder_domains"`
		RequiredKeywords   []string `yaml:"required_keywords"`
		ExcludeKeywords    []string `yaml:"exclude_keywords"`
	} `yaml:"validation"`

	Filters struct {
		RemoteOK       bool     `yaml:"remote_ok"`
		LocationsAllow []string `yaml:"locations_allow"`
		LocationsBlock []string `yaml:"locations_block"`
	} `yaml:"filters"`

	Scoring struct {
		Base         float64 `yaml:"base"`
		SalaryBonus  float64 `yaml:"salary_bonus"`
		RemoteBonus  float64 `yaml:"remote_bonus"`
		TitleRules   []Rule  `yaml:"title_rules"`
		KeywordRules []Rule  `yaml:"keyword_rules"`
	} `yaml:"scoring"`

	Retention struct {
		MaxAgeDays int `yaml:"max_age_days"`
	} `yaml:"retention"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 38491
	}
	if c.Schedule.RunTimeoutMins == 0 {
		c.Schedule.RunTimeoutMins = 20
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMS == 0 {
		c.Retry.BaseDelayMS = 500
	}
	if c.Retry.MaxDelayMS == 0 {
		c.Retry.MaxDelayMS = 30000
	}
	if c.Limits.QueueSize == 0 {
		c.Limits.QueueSize = 64
	}
	if c.Limits.AcquireTimeoutSecs == 0 {
		c.Limits.AcquireTimeoutSecs = 30
	}
	if c.Limits.TaskTimeoutSecs == 0 {
		c.Limits.TaskTimeoutSecs = 60
	}
	if c.Limits.GraceSecs == 0 {
		c.Limits.GraceSecs = 10
	}
	if c.Validation.ProbeTimeoutSecs == 0 {
		c.Validation.ProbeTimeoutSecs = 10
	}
	if c.Scoring.Base == 0 {
		c.Scoring.Base = 5.0
	}
	if c.Retention.MaxAgeDays == 0 {
		c.Retention.MaxAgeDays = 90
	}
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.PoolSize == 0 {
			s.PoolSize = 3
		}
		if s.RatePerSec == 0 {
			s.RatePerSec = 1
		}
		if s.Burst == 0 {
			s.Burst = 1
		}
		if s.Mailbox == "" {
			s.Mailbox = "INBOX"
		}
	}
}

func (c Config) AcquireTimeout() time.Duration {
	return time.Duration(c.Limits.AcquireTimeoutSecs) * time.Second
}

func (c Config) TaskTimeout() time.Duration {
	return time.Duration(c.Limits.TaskTimeoutSecs) * time.Second
}

func (c Config) GracePeriod() time.Duration {
	return time.Duration(c.Limits.GraceSecs) * time.Second
}

func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.Schedule.RunTimeoutMins) * time.Minute
}

// EnabledSources returns the sources that should take part in a run.
func (c Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
