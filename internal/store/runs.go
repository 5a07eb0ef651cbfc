package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jobscout-engine/internal/domain"
)

// LogRun records a finished run in the history table.
func (s *Store) LogRun(ctx context.Context, sum *domain.RunSummary) error {
	rejects, _ := json.Marshal(sum.Rejects)
	srcErrs, _ := json.Marshal(sum.SourceErrors)

	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs
  (id, started_at, duration_ms, queries, urls_discovered, records_seen,
   new_jobs, duplicates, incomplete, rejects, source_errors)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		sum.RunID, sum.StartedAt.UTC().Format(time.RFC3339), sum.Duration.Milliseconds(),
		sum.QueriesIssued, sum.URLsDiscovered, sum.RecordsSeen,
		sum.NewJobs, sum.Duplicates, sum.Incomplete,
		string(rejects), string(srcErrs),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// ListRuns returns run history newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, duration_ms, queries, urls_discovered, records_seen,
       new_jobs, duplicates, incomplete, rejects, source_errors
FROM runs
ORDER BY started_at DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RunSummary
	for rows.Next() {
		var sum domain.RunSummary
		var startedAt string
		var durationMS int64
		var rejects, srcErrs string
		if err := rows.Scan(
			&sum.RunID, &startedAt, &durationMS, &sum.QueriesIssued,
			&sum.URLsDiscovered, &sum.RecordsSeen, &sum.NewJobs,
			&sum.Duplicates, &sum.Incomplete, &rejects, &srcErrs,
		); err != nil {
			return nil, err
		}
		sum.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		sum.Duration = time.Duration(durationMS) * time.Millisecond
		_ = json.Unmarshal([]byte(rejects), &sum.Rejects)
		_ = json.Unmarshal([]byte(srcErrs), &sum.SourceErrors)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Stats is an aggregate snapshot of the corpus.
type Stats struct {
	TotalJobs    int            `json:"totalJobs"`
	Applied      int            `json:"applied"`
	AvgScore     float64        `json:"avgScore"`
	TopScore     float64        `json:"topScore"`
	JobsBySource map[string]int `json:"jobsBySource"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	st := Stats{JobsBySource: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN application_status != 'not_applied' THEN 1 ELSE 0 END), 0),
       COALESCE(AVG(relevance_score), 0),
       COALESCE(MAX(relevance_score), 0)
FROM jobs;`).Scan(&st.TotalJobs, &st.Applied, &st.AvgScore, &st.TopScore)
	if err != nil {
		return st, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM jobs GROUP BY source;`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var src string
		var n int
		if err := rows.Scan(&src, &n); err != nil {
			return st, err
		}
		st.JobsBySource[src] = n
	}
	return st, rows.Err()
}
