// Package validate is the deterministic transform from raw extracted
// records to scored job candidates. No store access, no mutation of
// shared state: the same record and config always produce the same
// outcome, which is what keeps the pipeline testable without providers.
package validate

import (
	"context"
	"strings"
	"time"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/domain"
)

// Rejection says why a record was dropped. It is a normal outcome the run
// summary counts by reason, not an error.
type Rejection struct {
	Reason domain.RejectReason
	Detail string
}

type Validator struct {
	cfg     config.Config
	checker *URLChecker
	trust   map[string]float64 // sourceID -> additive weight
}

func New(cfg config.Config) *Validator {
	trust := make(map[string]float64, len(cfg.Sources))
	for _, s := range cfg.Sources {
		trust[s.ID] = s.Trust
	}
	return &Validator{
		cfg: cfg,
		checker: NewURLChecker(
			cfg.Validation.PlaceholderDomains,
			cfg.Validation.ProbeEnabled,
			time.Duration(cfg.Validation.ProbeTimeoutSecs)*time.Second,
		),
		trust: trust,
	}
}

// Validate checks a raw record against the full contract (required
// fields, URL validity and reachability, topical relevance, exclusions,
// location filters) and scores whatever survives. Exactly one of the
// returns is set.
func (v *Validator) Validate(ctx context.Context, rec domain.RawRecord) (domain.Job, *Rejection) {
	var job domain.Job

	if strings.TrimSpace(rec.Title) == "" || strings.TrimSpace(rec.Company) == "" {
		return job, &Rejection{Reason: domain.RejectMissingFields, Detail: "title or company empty"}
	}

	if !v.checker.WellFormed(rec.URL) {
		reason := domain.RejectBadURL
		if isPlaceholderDetail(rec.URL, v.checker.placeholders) {
			reason = domain.RejectPlaceholderURL
		}
		return job, &Rejection{Reason: reason, Detail: rec.URL}
	}

	text := strings.ToLower(rec.Title + " " + rec.Description)

	if kw := matchAny(text, v.cfg.Validation.ExcludeKeywords); kw != "" {
		return job, &Rejection{Reason: domain.RejectExcludedKeyword, Detail: kw}
	}

	if len(v.cfg.Validation.RequiredKeywords) > 0 &&
		matchAny(text, v.cfg.Validation.RequiredKeywords) == "" {
		return job, &Rejection{Reason: domain.RejectOffTopic, Detail: rec.Title}
	}

	if !v.passesLocation(rec) {
		return job, &Rejection{Reason: domain.RejectLocation, Detail: rec.Location}
	}

	// the probe goes last: it is the only check that costs a network call
	if !v.checker.Reachable(ctx, rec.URL) {
		return job, &Rejection{Reason: domain.RejectUnreachableURL, Detail: rec.URL}
	}

	salary := ParseSalary(rec.SalaryText)
	now := rec.FetchedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	job = domain.Job{
		Fingerprint:    Fingerprint(rec.Title, rec.Company, rec.Location),
		Title:          strings.TrimSpace(rec.Title),
		Company:        strings.TrimSpace(rec.Company),
		Location:       strings.TrimSpace(rec.Location),
		URL:            rec.URL,
		Description:    rec.Description,
		Source:         rec.SourceID,
		Salary:         salary,
		RelevanceScore: v.Score(rec, salary),
		FirstSeenAt:    now,
		LastSeenAt:     now,
		Status:         domain.StatusNotApplied,
	}
	return job, nil
}

// Score is a weighted sum clamped to [0,10]. Every configured factor is
// additive, so adding a positive signal can only raise the score.
func (v *Validator) Score(rec domain.RawRecord, salary *domain.SalaryRange) float64 {
	score := v.cfg.Scoring.Base

	title := strings.ToLower(rec.Title)
	text := strings.ToLower(rec.Title + " " + rec.Description)

	for _, r := range v.cfg.Scoring.TitleRules {
		if matchAny(title, r.Any) != "" {
			score += r.Weight
		}
	}
	for _, r := range v.cfg.Scoring.KeywordRules {
		if matchAny(text, r.Any) != "" {
			score += r.Weight
		}
	}

	if salary != nil {
		score += v.cfg.Scoring.SalaryBonus
	}
	if isRemote(rec) {
		score += v.cfg.Scoring.RemoteBonus
	}
	score += v.trust[rec.SourceID]

	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func (v *Validator) passesLocation(rec domain.RawRecord) bool {
	f := v.cfg.Filters
	loc := strings.ToLower(rec.Location)
	blob := strings.ToLower(rec.Location + " " + rec.Title + " " + rec.Description)

	for _, b := range f.LocationsBlock {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" && strings.Contains(blob, b) {
			return false
		}
	}

	if isRemote(rec) {
		return f.RemoteOK
	}

	if len(f.LocationsAllow) == 0 {
		return true
	}
	for _, a := range f.LocationsAllow {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" && (strings.Contains(loc, a) || strings.Contains(blob, a)) {
			return true
		}
	}
	return false
}

func isRemote(rec domain.RawRecord) bool {
	blob := strings.ToLower(rec.Location + " " + rec.Title + " " + rec.Description)
	return strings.Contains(blob, "remote") ||
		strings.Contains(blob, "work from home") ||
		strings.Contains(blob, "telecommute")
}

// matchAny returns the first needle found in text, or "".
func matchAny(text string, needles []string) string {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if strings.Contains(text, n) {
			return n
		}
	}
	return ""
}

func isPlaceholderDetail(raw string, placeholders []string) bool {
	lu := strings.ToLower(raw)
	for _, p := range placeholders {
		if strings.Contains(lu, p) {
			return true
		}
	}
	return false
}
