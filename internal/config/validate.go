package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate rejects configurations the dispatcher cannot run with. It is
// called once at bootstrap; a bad config is a setup failure, not a source
// error.
func (c Config) Validate() error {
	var errs []error

	seen := map[string]bool{}
	for _, s := range c.Sources {
		if s.ID == "" {
			errs = append(errs, errors.New("source with empty id"))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate source id %q", s.ID))
		}
		seen[s.ID] = true

		switch s.Kind {
		case KindBoardAPI, KindBoardHTML:
			if s.Enabled && s.Endpoint == "" {
				errs = append(errs, fmt.Errorf("source %s: endpoint is required", s.ID))
			}
		case KindEmailAlert:
			if s.Enabled && (s.IMAPAddr == "" || s.IMAPUsername == "") {
				errs = append(errs, fmt.Errorf("source %s: imap_addr and imap_username are required", s.ID))
			}
		default:
			errs = append(errs, fmt.Errorf("source %s: unknown kind %q", s.ID, s.Kind))
		}

		if s.PoolSize < 1 || s.PoolSize > 16 {
			errs = append(errs, fmt.Errorf("source %s: pool_size %d out of range", s.ID, s.PoolSize))
		}
		if s.RatePerSec <= 0 {
			errs = append(errs, fmt.Errorf("source %s: rate_per_sec must be positive", s.ID))
		}
	}

	if len(c.Queries.Keywords) == 0 {
		errs = append(errs, errors.New("queries.keywords is empty"))
	}
	switch c.Queries.Freshness {
	case "", "day", "week", "month", "year":
	default:
		errs = append(errs, fmt.Errorf("queries.freshness %q is not day/week/month/year", c.Queries.Freshness))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, spec := range []struct{ name, val string }{
		{"schedule.discovery_cron", c.Schedule.DiscoveryCron},
		{"schedule.retention_cron", c.Schedule.RetentionCron},
	} {
		if spec.val == "" {
			continue
		}
		if _, err := parser.Parse(spec.val); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", spec.name, err))
		}
	}

	return errors.Join(errs...)
}
