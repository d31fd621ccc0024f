package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/sot/pkg/models"
)

// JobStatus represents the status of a job.
type JobStatus string

const (
	// JobRunning is stored when the job starts and replaced when it ends.
	JobRunning JobStatus = "running"
	// JobCompleted means every point succeeded.
	JobCompleted JobStatus = "completed"
	// JobPartial means the answer was produced with at least one failed point.
	JobPartial JobStatus = "partial"
	// JobFailed means no answer was produced.
	JobFailed JobStatus = "failed"
	// JobInterrupted marks a job whose process exited while it was running.
	JobInterrupted JobStatus = "interrupted"
)

// Job is one answered (or attempted) query.
type Job struct {
	ID           string           `json:"id" yaml:"id"`
	Query        string           `json:"query" yaml:"query"`
	Mode         models.Mode      `json:"mode" yaml:"mode"`
	Status       JobStatus        `json:"status" yaml:"status"`
	Partial      bool             `json:"partial" yaml:"partial"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	OutputTokens int64            `json:"output_tokens" yaml:"output_tokens"`
	StartedAt    time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
	Sections     []models.Section `json:"sections,omitempty" yaml:"sections,omitempty"`
	// PointCount is the number of skeleton points, available without loading Sections.
	PointCount int `json:"point_count" yaml:"point_count"`
}

// ErrJobNotFound is returned when no job matches an ID or prefix.
var ErrJobNotFound = errors.New("job not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one job.
var ErrAmbiguousID = errors.New("job id prefix is ambiguous")

// StartJob records a job in the running state.
func (db *DB) StartJob(j *Job) error {
	if j.Status == "" {
		j.Status = JobRunning
	}
	_, err := db.Exec(`
		INSERT INTO jobs (id, query, mode, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, j.ID, j.Query, string(j.Mode), string(j.Status), formatTime(j.StartedAt))
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	return nil
}

// FinishJob stores the final state of a job and its sections, replacing any
// sections stored earlier.
func (db *DB) FinishJob(j *Job) error {
	finished := time.Now()
	if j.FinishedAt != nil {
		finished = *j.FinishedAt
	}
	pointCount := len(j.Sections)
	if pointCount == 0 {
		pointCount = j.PointCount
	}

	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE jobs SET status = ?, point_count = ?, partial = ?, error = ?,
				output_tokens = ?, finished_at = ?, duration_ms = ?
			WHERE id = ?
		`, string(j.Status), pointCount, j.Partial, nullString(j.Error), j.OutputTokens,
			formatTime(finished), j.Duration.Milliseconds(), j.ID)
		if err != nil {
			return fmt.Errorf("finish job: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("finish job %s: %w", j.ID, ErrJobNotFound)
		}

		if _, err := tx.Exec(`DELETE FROM points WHERE job_id = ?`, j.ID); err != nil {
			return fmt.Errorf("clear points: %w", err)
		}
		for _, s := range j.Sections {
			_, err := tx.Exec(`
				INSERT INTO points (job_id, idx, label, status, error_kind, body)
				VALUES (?, ?, ?, ?, ?, ?)
			`, j.ID, s.Index, s.Label, string(s.Status), nullString(string(s.ErrorKind)), s.Body)
			if err != nil {
				return fmt.Errorf("insert point %d: %w", s.Index, err)
			}
		}
		return nil
	})
}

// GetJob retrieves a job and its sections by full ID or unique ID prefix.
// The prefix is matched literally; an empty prefix matches nothing.
func (db *DB) GetJob(idOrPrefix string) (*Job, error) {
	if idOrPrefix == "" {
		return nil, ErrJobNotFound
	}
	rows, err := db.Query(`
		SELECT id, query, mode, status, point_count, partial, error, output_tokens,
			started_at, finished_at, duration_ms
		FROM jobs WHERE substr(id, 1, length(?)) = ?
		ORDER BY id = ? DESC
		LIMIT 2
	`, idOrPrefix, idOrPrefix, idOrPrefix)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	switch {
	case len(jobs) == 0:
		return nil, ErrJobNotFound
	case len(jobs) > 1 && jobs[0].ID != idOrPrefix:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, idOrPrefix)
	}

	j := &jobs[0]
	sections, err := db.listSections(j.ID)
	if err != nil {
		return nil, err
	}
	j.Sections = sections
	return j, nil
}

// ListJobs returns the most recent jobs first, without sections.
func (db *DB) ListJobs(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, query, mode, status, point_count, partial, error, output_tokens,
			started_at, finished_at, duration_ms
		FROM jobs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (db *DB) listSections(jobID string) ([]models.Section, error) {
	rows, err := db.Query(`
		SELECT idx, label, status, error_kind, body
		FROM points WHERE job_id = ? ORDER BY idx
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var s models.Section
		var kind, body sql.NullString
		if err := rows.Scan(&s.Index, &s.Label, &s.Status, &kind, &body); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		s.ErrorKind = models.ErrorKind(kind.String)
		s.Body = body.String
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var errMsg, finishedAt sql.NullString
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&j.ID, &j.Query, &j.Mode, &j.Status, &j.PointCount, &j.Partial,
			&errMsg, &j.OutputTokens, &startedAt, &finishedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Error = errMsg.String
		j.StartedAt, _ = parseTime(startedAt)
		j.FinishedAt = parseNullableTime(finishedAt)
		j.Duration = time.Duration(durationMS) * time.Millisecond
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
