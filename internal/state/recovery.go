package state

import (
	"fmt"
	"time"
)

// MarkInterrupted flags jobs still recorded as running after staleAfter as
// interrupted. A job stays running only if its process exited mid-flight.
// Returns the number of jobs updated.
func (db *DB) MarkInterrupted(staleAfter time.Duration) (int64, error) {
	cutoff := formatTime(time.Now().Add(-staleAfter))

	result, err := db.Exec(`
		UPDATE jobs SET status = ?, error = COALESCE(error, 'process exited before the job finished')
		WHERE status = ? AND started_at < ?
	`, string(JobInterrupted), string(JobRunning), cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted jobs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}
