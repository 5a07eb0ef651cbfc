package domain

import "time"

// Freshness limits how far back a search should look.
type Freshness string

const (
	FreshDay   Freshness = "day"
	FreshWeek  Freshness = "week"
	FreshMonth Freshness = "month"
	FreshYear  Freshness = "year"
)

// JobQuery is one unit of search work, created by the caller per run.
type JobQuery struct {
	SourceID  string
	Keyword   string
	Freshness Freshness
	Location  string // optional
}

// RawRecord is what an extraction worker hands back before validation.
// It is transient; only validated jobs outlive the run.
type RawRecord struct {
	SourceID    string
	Title       string
	Company     string
	Location    string
	URL         string
	Description string
	SalaryText  string     // unparsed, may be empty
	PostedAt    *time.Time // unparsed boards leave this nil
	FetchedAt   time.Time
}

// TaskKind distinguishes the two pipeline stages.
type TaskKind int

const (
	TaskSearch TaskKind = iota
	TaskExtract
)

// WorkerTask is the internal unit of dispatch. Tasks are owned by the
// dispatcher; workers never persist task state themselves.
type WorkerTask struct {
	ID       string
	Kind     TaskKind
	SourceID string
	Query    JobQuery // set for TaskSearch
	URL      string   // set for TaskExtract
}
