package events

import (
	"encoding/json"
	"time"

	"jobscout-engine/internal/domain"
)

// Event types published on the hub.
const (
	TypeJobCreated       = "job_created"
	TypeJobStatusChanged = "job_status_changed"
	TypeRunStarted       = "run_started"
	TypeRunFinished      = "run_finished"
	TypeSweepApplied     = "retention_sweep"
)

type Event struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Make serializes an event for the wire. Marshal failures degrade to an
// event with no payload rather than a dropped notification.
func Make(typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			raw = b
		}
	}
	b, _ := json.Marshal(Event{Type: typ, At: time.Now().UTC(), Data: raw})
	return string(b)
}

// JobCreated is the payload for TypeJobCreated.
func JobCreated(j domain.Job) string {
	return Make(TypeJobCreated, map[string]any{
		"id":      j.ID,
		"title":   j.Title,
		"company": j.Company,
		"score":   j.RelevanceScore,
		"source":  j.Source,
	})
}
