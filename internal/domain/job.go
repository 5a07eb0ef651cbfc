package domain

import "time"

// ApplicationStatus tracks where a stored job sits in the user's pipeline.
type ApplicationStatus string

const (
	StatusNotApplied   ApplicationStatus = "not_applied"
	StatusApplied      ApplicationStatus = "applied"
	StatusRejected     ApplicationStatus = "rejected"
	StatusInterviewing ApplicationStatus = "interviewing"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusNotApplied, StatusApplied, StatusRejected, StatusInterviewing:
		return true
	}
	return false
}

// SalaryRange is a parsed compensation range. Nil on a Job means the
// posting had no parsable salary.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Job is the durable entity persisted in the corpus. Fingerprint is unique
// across the store; RelevanceScore is clamped to [0,10].
type Job struct {
	ID               int64             `json:"id"`
	Fingerprint      string            `json:"fingerprint"`
	Title            string            `json:"title"`
	Company          string            `json:"company"`
	Location         string            `json:"location"`
	URL              string            `json:"url"`
	Description      string            `json:"description"`
	Source           string            `json:"source"`
	Salary           *SalaryRange      `json:"salary,omitempty"`
	RelevanceScore   float64           `json:"relevanceScore"`
	FirstSeenAt      time.Time         `json:"firstSeenAt"`
	LastSeenAt       time.Time         `json:"lastSeenAt"`
	Status           ApplicationStatus `json:"applicationStatus"`
	ApplicationNotes string            `json:"applicationNotes,omitempty"`
}
