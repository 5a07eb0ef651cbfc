package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobscout-engine/internal/domain"
)

// InsertIfNew is the atomic check-and-mark entry point: exactly one caller
// wins the insert for a fingerprint; everyone else gets isNew == false and
// the refresh applied for them. Both halves run in one transaction on the
// single write connection, so two concurrent workers can never both treat a
// fingerprint as new.
//
// On rediscovery only last_seen and relevance_score move; first_seen and
// application fields are never touched.
func (s *Store) InsertIfNew(ctx context.Context, j domain.Job) (isNew bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var salaryMin, salaryMax sql.NullFloat64
	if j.Salary != nil {
		salaryMin = sql.NullFloat64{Float64: j.Salary.Min, Valid: true}
		salaryMax = sql.NullFloat64{Float64: j.Salary.Max, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
INSERT OR IGNORE INTO jobs
  (fingerprint, title, company, location, url, description, source,
   salary_min, salary_max, relevance_score, first_seen, last_seen, application_status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		j.Fingerprint, j.Title, j.Company, j.Location, j.URL, j.Description, j.Source,
		salaryMin, salaryMax, j.RelevanceScore,
		j.FirstSeenAt.UTC().Format(time.RFC3339), j.LastSeenAt.UTC().Format(time.RFC3339),
		string(domain.StatusNotApplied),
	)
	if err != nil {
		return false, fmt.Errorf("insert job: %w", err)
	}

	var changes int
	if err := tx.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, fmt.Errorf("changes: %w", err)
	}

	if changes == 0 {
		// seen before: refresh, never touching first_seen or application state
		_, err = tx.ExecContext(ctx, `
UPDATE jobs
SET last_seen = ?, relevance_score = ?
WHERE fingerprint = ? AND last_seen < ?;`,
			j.LastSeenAt.UTC().Format(time.RFC3339), j.RelevanceScore,
			j.Fingerprint, j.LastSeenAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return false, fmt.Errorf("refresh job: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return changes > 0, nil
}

// QueryFilter narrows ListJobs. Zero values mean "no constraint".
type QueryFilter struct {
	Source   string
	Status   domain.ApplicationStatus
	MinScore float64
	Window   string // 24h | 7d | 30d | all
	Sort     string // score | last_seen | company | title
	Limit    int
}

func (s *Store) ListJobs(ctx context.Context, f QueryFilter) ([]domain.Job, error) {
	where := "WHERE 1=1"
	args := []any{}

	if f.Source != "" {
		where += " AND source = ?"
		args = append(args, f.Source)
	}
	if f.Status != "" {
		where += " AND application_status = ?"
		args = append(args, string(f.Status))
	}
	if f.MinScore > 0 {
		where += " AND relevance_score >= ?"
		args = append(args, f.MinScore)
	}
	switch f.Window {
	case "24h":
		where += " AND last_seen >= ?"
		args = append(args, time.Now().UTC().Add(-24*time.Hour).Format(time.RFC3339))
	case "7d", "":
		where += " AND last_seen >= ?"
		args = append(args, time.Now().UTC().AddDate(0, 0, -7).Format(time.RFC3339))
	case "30d":
		where += " AND last_seen >= ?"
		args = append(args, time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339))
	case "all":
	}

	// whitelist sort columns
	sortCol, order := "relevance_score", "DESC"
	switch f.Sort {
	case "", "score":
	case "last_seen":
		sortCol = "last_seen"
	case "company":
		sortCol, order = "company", "ASC"
	case "title":
		sortCol, order = "title", "ASC"
	}

	limit := f.Limit
	if limit <= 0 || limit > 2000 {
		limit = 500
	}

	query := fmt.Sprintf(`
SELECT id, fingerprint, title, company, location, url, description, source,
       salary_min, salary_max, relevance_score, first_seen, last_seen,
       application_status, application_notes
FROM jobs
%s
ORDER BY %s %s
LIMIT ?;`, where, sortCol, order)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// GetByFingerprint returns the stored job or sql.ErrNoRows.
func (s *Store) GetByFingerprint(ctx context.Context, fp string) (domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, fingerprint, title, company, location, url, description, source,
       salary_min, salary_max, relevance_score, first_seen, last_seen,
       application_status, application_notes
FROM jobs WHERE fingerprint = ?;`, fp)
	return scanJob(row)
}

// SetApplicationStatus moves a job through the application pipeline and
// records notes. Unknown statuses and unknown ids are both errors.
func (s *Store) SetApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus, notes string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid application status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET application_status = ?, application_notes = ?
WHERE id = ?;`, string(status), notes, id)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("job %d not found", id)
	}
	return nil
}

// DeleteOlderThan is the retention sweep: jobs not seen within age are
// removed. This is the only path that hard-deletes.
func (s *Store) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age).Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE last_seen < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (domain.Job, error) {
	var j domain.Job
	var salaryMin, salaryMax sql.NullFloat64
	var firstSeen, lastSeen, status string

	err := r.Scan(
		&j.ID, &j.Fingerprint, &j.Title, &j.Company, &j.Location, &j.URL,
		&j.Description, &j.Source, &salaryMin, &salaryMax, &j.RelevanceScore,
		&firstSeen, &lastSeen, &status, &j.ApplicationNotes,
	)
	if err != nil {
		return j, err
	}

	if salaryMin.Valid {
		j.Salary = &domain.SalaryRange{Min: salaryMin.Float64, Max: salaryMax.Float64}
	}
	j.FirstSeenAt, _ = time.Parse(time.RFC3339, firstSeen)
	j.LastSeenAt, _ = time.Parse(time.RFC3339, lastSeen)
	j.Status = domain.ApplicationStatus(status)
	return j, nil
}
