package validate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Validation.ProbeEnabled = false
	cfg.Validation.RequiredKeywords = []string{"drupal", "cms", "php"}
	cfg.Validation.ExcludeKeywords = []string{"wordpress only"}
	cfg.Filters.RemoteOK = true
	cfg.Scoring.Base = 5.0
	cfg.Scoring.SalaryBonus = 1.0
	cfg.Scoring.RemoteBonus = 0.5
	cfg.Scoring.TitleRules = []config.Rule{
		{Tag: "drupal_title", Weight: 2.0, Any: []string{"drupal"}},
	}
	cfg.Scoring.KeywordRules = []config.Rule{
		{Tag: "stack", Weight: 0.5, Any: []string{"symfony", "twig"}},
	}
	cfg.Sources = []config.Source{
		{ID: "trusted", Trust: 0.5},
		{ID: "board", Trust: 0},
	}
	return cfg
}

func record() domain.RawRecord {
	return domain.RawRecord{
		SourceID:    "board",
		Title:       "Drupal Developer",
		Company:     "Acme Corp",
		Location:    "Remote",
		URL:         "https://boards.acme-jobs.net/jobs/42",
		Description: "Build Drupal sites with Symfony components.",
		FetchedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidate_Accepts(t *testing.T) {
	v := New(testConfig())

	job, rej := v.Validate(context.Background(), record())
	require.Nil(t, rej)

	assert.Equal(t, "Drupal Developer", job.Title)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, domain.StatusNotApplied, job.Status)
	assert.Len(t, job.Fingerprint, 64)
	assert.Equal(t, job.FirstSeenAt, job.LastSeenAt)
	assert.Greater(t, job.RelevanceScore, 0.0)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.RawRecord)
		want   domain.RejectReason
	}{
		{"missing title", func(r *domain.RawRecord) { r.Title = "  " }, domain.RejectMissingFields},
		{"missing company", func(r *domain.RawRecord) { r.Company = "" }, domain.RejectMissingFields},
		{"empty url", func(r *domain.RawRecord) { r.URL = "" }, domain.RejectBadURL},
		{"fragment url", func(r *domain.RawRecord) { r.URL = "#apply" }, domain.RejectBadURL},
		{"placeholder url", func(r *domain.RawRecord) { r.URL = "https://example.com/jobs/1" }, domain.RejectPlaceholderURL},
		{"off topic", func(r *domain.RawRecord) {
			r.Title = "Forklift Operator"
			r.Description = "Warehouse shifts."
		}, domain.RejectOffTopic},
		{"excluded keyword", func(r *domain.RawRecord) {
			r.Description = "WordPress only shop, drupal not used"
		}, domain.RejectExcludedKeyword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(testConfig())
			rec := record()
			tt.mutate(&rec)

			_, rej := v.Validate(context.Background(), rec)
			require.NotNil(t, rej)
			assert.Equal(t, tt.want, rej.Reason)
		})
	}
}

func TestValidate_LocationFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Filters.RemoteOK = false
	cfg.Filters.LocationsAllow = []string{"berlin"}
	cfg.Filters.LocationsBlock = []string{"onsite only"}
	v := New(cfg)

	remote := record() // location "Remote"
	_, rej := v.Validate(context.Background(), remote)
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectLocation, rej.Reason)

	berlin := record()
	berlin.Location = "Berlin, Germany"
	_, rej = v.Validate(context.Background(), berlin)
	assert.Nil(t, rej)

	blocked := record()
	blocked.Location = "Berlin"
	blocked.Description = "Drupal work, onsite only."
	_, rej = v.Validate(context.Background(), blocked)
	require.NotNil(t, rej)
	assert.Equal(t, domain.RejectLocation, rej.Reason)
}

func TestScore_Monotonic(t *testing.T) {
	v := New(testConfig())

	plain := domain.RawRecord{
		SourceID: "board",
		Title:    "Drupal engineer",
	}
	base := v.Score(plain, nil)

	withStack := plain
	withStack.Description = "Symfony and Twig daily"
	assert.Greater(t, v.Score(withStack, nil), base)

	withSalary := v.Score(plain, &domain.SalaryRange{Min: 90000, Max: 120000})
	assert.Greater(t, withSalary, base)

	remote := plain
	remote.Location = "Remote"
	assert.Greater(t, v.Score(remote, nil), base)

	trusted := plain
	trusted.SourceID = "trusted"
	assert.Greater(t, v.Score(trusted, nil), base)
}

func TestScore_Clamped(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Base = 9.0
	cfg.Scoring.SalaryBonus = 5.0
	v := New(cfg)

	rec := record()
	score := v.Score(rec, &domain.SalaryRange{Min: 1, Max: 200000})
	assert.Equal(t, 10.0, score)

	cfg.Scoring.Base = -20
	v = New(cfg)
	assert.Equal(t, 0.0, v.Score(domain.RawRecord{Title: "x"}, nil))
}

func TestScore_ScoresDifferQualityOrder(t *testing.T) {
	v := New(testConfig())

	strong := record()
	strong.Description = "Drupal 10, Symfony, Twig. Remote."
	weak := record()
	weak.Title = "Web Developer"
	weak.Description = "Some CMS work."

	assert.Greater(t, v.Score(strong, &domain.SalaryRange{Min: 90000, Max: 120000}), v.Score(weak, nil))
}
