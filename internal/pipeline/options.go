package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/config"
	"github.com/ShayCichocki/sot/internal/dispatch"
	"github.com/ShayCichocki/sot/internal/state"
)

// Config holds per-request parameters for each phase of a job.
type Config struct {
	// Skeleton parameters apply to the single decomposition request.
	Skeleton completion.Params
	// Point parameters apply to every point request and to the baseline request.
	Point completion.Params
	// PointTimeout bounds each point request. Zero disables it.
	PointTimeout time.Duration
	// Concurrency caps in-flight point requests. Zero means one per point.
	Concurrency int
	// Pricing turns metered usage into Outcome.EstimatedCost.
	Pricing completion.Pricing
}

// DefaultConfig returns a Config built from config.Default.
func DefaultConfig() Config {
	return FromConfig(config.Default())
}

// FromConfig maps loaded settings onto pipeline parameters.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Skeleton: completion.Params{
			Model:       cfg.Anthropic.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.SkeletonMaxTokens,
			Timeout:     cfg.Timeouts.Skeleton,
		},
		Point: completion.Params{
			Model:       cfg.Anthropic.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
		},
		PointTimeout: cfg.Timeouts.Point,
		Concurrency:  cfg.Dispatch.Concurrency,
		Pricing:      completion.DefaultPricing,
	}
}

// Option configures a Runner. Use With* functions to create Options.
type Option func(*Runner)

// WithLogger sets the logger. Each job logs with its job_id attached.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithObserver receives point events from every job the runner executes.
func WithObserver(fn dispatch.Observer) Option {
	return func(r *Runner) { r.observer = fn }
}

// WithHistory records every job in store. History errors are logged, never returned.
func WithHistory(store state.JobStore) Option {
	return func(r *Runner) { r.history = store }
}

// WithClock replaces time.Now for duration measurements.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator replaces the job ID source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}
