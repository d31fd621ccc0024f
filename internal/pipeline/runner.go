package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/internal/aggregate"
	"github.com/ShayCichocki/sot/internal/completion"
	"github.com/ShayCichocki/sot/internal/dispatch"
	"github.com/ShayCichocki/sot/internal/skeleton"
	"github.com/ShayCichocki/sot/internal/state"
	"github.com/ShayCichocki/sot/pkg/models"
)

// Outcome is the result of one job.
type Outcome struct {
	JobID string      `json:"job_id" yaml:"job_id"`
	Query string      `json:"query" yaml:"query"`
	Mode  models.Mode `json:"mode" yaml:"mode"`
	// Skeleton is empty in normal mode.
	Skeleton models.Skeleton `json:"skeleton,omitempty" yaml:"skeleton,omitempty"`
	// Answer is nil in normal mode.
	Answer *models.FinalAnswer `json:"answer,omitempty" yaml:"answer,omitempty"`
	// Text is the rendered answer in both modes.
	Text     string        `json:"text" yaml:"text"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	// OutputTokens counts tokens of the answer itself. The skeleton request
	// is reported separately in SkeletonTokens.
	OutputTokens   int64 `json:"output_tokens" yaml:"output_tokens"`
	SkeletonTokens int64 `json:"skeleton_tokens,omitempty" yaml:"skeleton_tokens,omitempty"`
	// EstimatedCost is the USD cost of every request of the job.
	EstimatedCost float64 `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
}

// Partial reports whether any point of a parallel answer failed.
func (o *Outcome) Partial() bool {
	return o.Answer != nil && o.Answer.Partial
}

// Runner executes jobs against a completion client.
type Runner struct {
	client   completion.Client
	cfg      Config
	logger   *zap.Logger
	observer dispatch.Observer
	history  state.JobStore
	now      func() time.Time
	newID    func() string
}

// NewRunner creates a Runner over client.
func NewRunner(client completion.Client, cfg Config, opts ...Option) *Runner {
	r := &Runner{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run answers query in parallel mode: decompose, expand every point
// concurrently, aggregate.
//
// The returned error is a *skeleton.DecompositionError when no skeleton
// could be produced. Point failures never fail the job; they show up as
// placeholders and Outcome.Partial reports them.
func (r *Runner) Run(ctx context.Context, query string) (*Outcome, error) {
	out := &Outcome{JobID: r.newID(), Query: query, Mode: models.ModeParallel}
	logger := r.logger.With(zap.String("job_id", out.JobID))
	start := r.now()
	job := r.startJob(logger, out, start)

	skelMeter := newMeter(r.client)
	gen := skeleton.New(skelMeter, r.cfg.Skeleton, skeleton.WithLogger(logger))
	skel, err := gen.Generate(ctx, query)
	if err != nil {
		out.Duration = r.now().Sub(start)
		logger.Error("decomposition failed", zap.Error(err), zap.Duration("duration", out.Duration))
		r.finishJob(logger, job, out, err)
		return nil, fmt.Errorf("job %s: %w", out.JobID, err)
	}
	out.Skeleton = skel
	out.SkeletonTokens = skelMeter.outputTokens()
	logger.Debug("skeleton ready", zap.Int("points", skel.Len()))

	pointMeter := newMeter(r.client)
	d := dispatch.New(pointMeter, dispatch.Config{
		Params:       r.cfg.Point,
		PointTimeout: r.cfg.PointTimeout,
		Concurrency:  r.cfg.Concurrency,
	}, dispatch.WithObserver(r.observer), dispatch.WithLogger(logger))
	results := d.Dispatch(ctx, query, skel)

	answer := aggregate.Aggregate(skel, results)
	out.Answer = &answer
	out.Text = answer.Text()
	out.OutputTokens = pointMeter.outputTokens()
	out.EstimatedCost = skelMeter.cost(r.cfg.Pricing) + pointMeter.cost(r.cfg.Pricing)
	out.Duration = r.now().Sub(start)

	logger.Info("job finished",
		zap.Int("points", skel.Len()),
		zap.Int("failed", len(answer.Failures())),
		zap.Bool("partial", answer.Partial),
		zap.Duration("duration", out.Duration))
	r.finishJob(logger, job, out, nil)
	return out, nil
}

// RunNormal answers query with a single request, bounded by the point timeout.
// It is the baseline parallel mode is measured against.
func (r *Runner) RunNormal(ctx context.Context, query string) (*Outcome, error) {
	out := &Outcome{JobID: r.newID(), Query: query, Mode: models.ModeNormal}
	logger := r.logger.With(zap.String("job_id", out.JobID))
	start := r.now()
	job := r.startJob(logger, out, start)

	params := r.cfg.Point
	params.Timeout = r.cfg.PointTimeout
	m := newMeter(r.client)
	resp, err := m.Complete(ctx, query, params)
	out.Duration = r.now().Sub(start)
	if err != nil {
		f := completion.Classify(err)
		logger.Error("normal request failed", zap.String("kind", string(f.Kind)), zap.Error(err))
		r.finishJob(logger, job, out, f)
		return nil, fmt.Errorf("job %s: %w", out.JobID, f)
	}

	out.Text = resp.Text
	out.OutputTokens = resp.OutputTokens
	out.EstimatedCost = m.cost(r.cfg.Pricing)
	logger.Info("job finished", zap.Duration("duration", out.Duration))
	r.finishJob(logger, job, out, nil)
	return out, nil
}

func (r *Runner) startJob(logger *zap.Logger, out *Outcome, start time.Time) *state.Job {
	if r.history == nil {
		return nil
	}
	job := &state.Job{ID: out.JobID, Query: out.Query, Mode: out.Mode, StartedAt: start}
	if err := r.history.StartJob(job); err != nil {
		logger.Warn("failed to record job start", zap.Error(err))
		return nil
	}
	return job
}

func (r *Runner) finishJob(logger *zap.Logger, job *state.Job, out *Outcome, runErr error) {
	if job == nil {
		return
	}
	finished := job.StartedAt.Add(out.Duration)
	job.FinishedAt = &finished
	job.Duration = out.Duration
	job.OutputTokens = out.OutputTokens

	switch {
	case runErr != nil:
		job.Status = state.JobFailed
		job.Error = runErr.Error()
	case out.Partial():
		job.Status = state.JobPartial
		job.Partial = true
	default:
		job.Status = state.JobCompleted
	}

	if out.Answer != nil {
		job.Sections = out.Answer.Sections
	} else if runErr == nil {
		job.Sections = []models.Section{{Index: 1, Label: "answer", Status: models.StatusSuccess, Body: out.Text}}
	}

	if err := r.history.FinishJob(job); err != nil {
		logger.Warn("failed to record job result", zap.Error(err))
	}
}
