// Package dispatch expands every point of a skeleton concurrently.
//
// Each point gets its own completion request, bounded by a per-point timeout,
// with at most Concurrency requests in flight. A failing point is recorded as
// an error result for its index and never affects its siblings.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/pkg/models"
)

// EventType identifies a point lifecycle transition.
type EventType string

const (
	// EventStarted is emitted when a point request is issued.
	EventStarted EventType = "started"
	// EventSettled is emitted once per point with its final result.
	EventSettled EventType = "settled"
)

// Event describes a point lifecycle transition.
type Event struct {
	Type     EventType
	Point    models.Point
	Result   models.PointResult
	Duration time.Duration
}

// Observer receives point events. It is called from the dispatching
// goroutines and must be safe for concurrent use.
type Observer func(Event)

// Config contains configuration for a Dispatcher.
type Config struct {
	// Params are passed to every point request.
	Params completion.Params
	// PointTimeout bounds each point request independently. Zero disables it.
	PointTimeout time.Duration
	// Concurrency is the maximum number of requests in flight. Zero or
	// negative means one slot per point.
	Concurrency int
}

// Dispatcher fans a skeleton out into one completion request per point.
type Dispatcher struct {
	client   completion.Client
	cfg      Config
	observer Observer
	logger   *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithObserver registers fn to receive point events.
func WithObserver(fn Observer) Option {
	return func(d *Dispatcher) {
		d.observer = fn
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher over client.
func New(client completion.Client, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch expands every point of skel and returns one result per point,
// positioned as in skel. It returns only after every request has settled.
//
// Cancelling ctx cancels in-flight requests; points that had not settled,
// including those still queued for a slot, are reported as Cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, query string, skel models.Skeleton) []models.PointResult {
	results := make([]models.PointResult, len(skel))
	if len(skel) == 0 {
		return results
	}

	limit := d.cfg.Concurrency
	if limit <= 0 || limit > len(skel) {
		limit = len(skel)
	}

	outline := skel.Outline()

	// Each goroutine owns results[i]; Wait is the only synchronization needed.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range skel {
		if ctx.Err() != nil {
			results[i] = d.settle(p, cancelled(p), 0)
			continue
		}
		g.Go(func() error {
			results[i] = d.expand(ctx, query, outline, p)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// expand runs the request for a single point and converts any failure into an error result.
func (d *Dispatcher) expand(ctx context.Context, query, outline string, p models.Point) (result models.PointResult) {
	if ctx.Err() != nil {
		return d.settle(p, cancelled(p), 0)
	}

	start := time.Now()
	d.emit(Event{Type: EventStarted, Point: p})

	defer func() {
		if r := recover(); r != nil {
			result = d.settle(p, models.Failed(p.Index, models.ErrorKindTransport, fmt.Sprintf("panic: %v", r)), time.Since(start))
		}
	}()

	pctx := ctx
	if d.cfg.PointTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, d.cfg.PointTimeout)
		defer cancel()
	}

	resp, err := d.client.Complete(pctx, PointPrompt(query, outline, p), d.cfg.Params)
	elapsed := time.Since(start)
	if err != nil {
		return d.settle(p, d.failure(ctx, pctx, p, err), elapsed)
	}
	return d.settle(p, models.Succeeded(p.Index, resp.Text), elapsed)
}

// failure classifies err. Job cancellation wins over the point's own deadline,
// which wins over whatever the backend reported.
func (d *Dispatcher) failure(jobCtx, pointCtx context.Context, p models.Point, err error) models.PointResult {
	switch {
	case jobCtx.Err() != nil:
		return cancelled(p)
	case errors.Is(pointCtx.Err(), context.DeadlineExceeded):
		return models.Failed(p.Index, models.ErrorKindTimeout,
			fmt.Sprintf("point exceeded %s timeout", d.cfg.PointTimeout))
	default:
		f := completion.Classify(err)
		return models.Failed(p.Index, f.Kind, f.Message)
	}
}

func (d *Dispatcher) settle(p models.Point, r models.PointResult, elapsed time.Duration) models.PointResult {
	if r.OK() {
		d.logger.Debug("point settled",
			zap.Int("index", p.Index),
			zap.Duration("duration", elapsed))
	} else {
		d.logger.Warn("point failed",
			zap.Int("index", p.Index),
			zap.String("kind", string(r.ErrorKind)),
			zap.String("message", r.Message),
			zap.Duration("duration", elapsed))
	}
	d.emit(Event{Type: EventSettled, Point: p, Result: r, Duration: elapsed})
	return r
}

func (d *Dispatcher) emit(e Event) {
	if d.observer != nil {
		d.observer(e)
	}
}

func cancelled(p models.Point) models.PointResult {
	return models.Failed(p.Index, models.ErrorKindCancelled, "job cancelled before point settled")
}
