package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/internal/config"
	"github.com/ShayCichocki/sot/internal/state"
)

// staleJobAge is how long a job may stay running before it is assumed
// to belong to a process that exited.
const staleJobAge = time.Hour

// openHistory opens the job history database and repairs jobs left
// running by a previous process.
func openHistory(cfg *config.Config) (state.Store, error) {
	db, err := state.OpenMigrated(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if n, err := db.MarkInterrupted(staleJobAge); err != nil {
		logger.Warn("failed to mark interrupted jobs", zap.Error(err))
	} else if n > 0 {
		logger.Info("marked interrupted jobs", zap.Int64("count", n))
	}
	return db, nil
}
