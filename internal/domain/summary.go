package domain

import "time"

// RejectReason codes why a raw record never became a Job. Rejections are
// normal outcomes, not errors.
type RejectReason string

const (
	RejectMissingFields   RejectReason = "missing_fields"
	RejectBadURL          RejectReason = "bad_url"
	RejectPlaceholderURL  RejectReason = "placeholder_url"
	RejectJunkURL         RejectReason = "junk_url"
	RejectUnreachableURL  RejectReason = "unreachable_url"
	RejectOffTopic        RejectReason = "off_topic"
	RejectExcludedKeyword RejectReason = "excluded_keyword"
	RejectLocation        RejectReason = "location"
	RejectNotFound        RejectReason = "not_found"
)

// RunSummary aggregates one dispatcher invocation. It always distinguishes
// "searched and found nothing" from "could not search": a run with zero new
// jobs and non-empty SourceErrors failed to search, it did not come up empty.
type RunSummary struct {
	RunID          string               `json:"runId"`
	StartedAt      time.Time            `json:"startedAt"`
	Duration       time.Duration        `json:"duration"`
	QueriesIssued  int                  `json:"queriesIssued"`
	URLsDiscovered int                  `json:"urlsDiscovered"`
	RecordsSeen    int                  `json:"recordsSeen"`
	NewJobs        int                  `json:"newJobs"`
	Duplicates     int                  `json:"duplicates"`
	Rejects        map[RejectReason]int `json:"rejects"`
	SourceErrors   map[string]int       `json:"sourceErrors"`
	Incomplete     int                  `json:"incomplete"`
}

func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:        runID,
		StartedAt:    time.Now().UTC(),
		Rejects:      make(map[RejectReason]int),
		SourceErrors: make(map[string]int),
	}
}

// TotalRejects sums rejections across all reason codes.
func (s *RunSummary) TotalRejects() int {
	n := 0
	for _, c := range s.Rejects {
		n += c
	}
	return n
}

// TotalSourceErrors sums provider failures across all sources.
func (s *RunSummary) TotalSourceErrors() int {
	n := 0
	for _, c := range s.SourceErrors {
		n += c
	}
	return n
}
