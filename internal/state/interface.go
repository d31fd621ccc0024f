package state

import (
	"io"
	"time"
)

// JobStore handles job history persistence.
type JobStore interface {
	StartJob(j *Job) error
	FinishJob(j *Job) error
	GetJob(idOrPrefix string) (*Job, error)
	ListJobs(limit int) ([]Job, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	Migrate() error
}

// Maintainer prunes and repairs stored history.
type Maintainer interface {
	PurgeOldJobs(olderThan time.Duration) (int64, error)
	MarkInterrupted(staleAfter time.Duration) (int64, error)
}

// Store is the full history backend used by the CLI.
type Store interface {
	io.Closer
	Migrator
	JobStore
	Maintainer
}

var _ Store = (*DB)(nil)
