package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/sot/pkg/models"
)

// Measurement is the timing of one benchmark run.
type Measurement struct {
	Iteration       int           `json:"iteration" yaml:"iteration"`
	Mode            models.Mode   `json:"mode" yaml:"mode"`
	JobID           string        `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
	OutputTokens    int64         `json:"output_tokens" yaml:"output_tokens"`
	TokensPerSecond float64       `json:"tokens_per_second" yaml:"tokens_per_second"`
	Partial         bool          `json:"partial,omitempty" yaml:"partial,omitempty"`
	// Err is set when the run produced no answer. Such runs are left out of summaries.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the run produced an answer.
func (m Measurement) OK() bool {
	return m.Err == ""
}

// ModeSummary aggregates the successful runs of one mode.
type ModeSummary struct {
	Mode   models.Mode `json:"mode" yaml:"mode"`
	Count  int         `json:"count" yaml:"count"`
	Failed int         `json:"failed" yaml:"failed"`
	// Tokens per second statistics over successful runs.
	Mean float64 `json:"mean" yaml:"mean"`
	Min  float64 `json:"min" yaml:"min"`
	Max  float64 `json:"max" yaml:"max"`
}

// BenchReport holds every measurement of a benchmark and the per-mode summaries.
type BenchReport struct {
	Query        string        `json:"query" yaml:"query"`
	Measurements []Measurement `json:"measurements" yaml:"measurements"`
	Summaries    []ModeSummary `json:"summaries" yaml:"summaries"`
}

// ErrNoIterations is returned by Bench when asked for fewer than one iteration.
var ErrNoIterations = errors.New("benchmark needs at least one iteration")

var benchModes = []models.Mode{models.ModeParallel, models.ModeNormal}

// Bench runs query iterations times in each mode, alternating parallel and
// normal runs so both see the same backend conditions. A failed run is
// recorded and the benchmark continues. Cancelling ctx stops the benchmark
// and returns the measurements taken so far along with ctx's error.
func (r *Runner) Bench(ctx context.Context, query string, iterations int) (*BenchReport, error) {
	if iterations < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoIterations, iterations)
	}

	report := &BenchReport{Query: query}
	for i := range iterations {
		for _, mode := range benchModes {
			if err := ctx.Err(); err != nil {
				report.Summaries = Summarize(report.Measurements)
				return report, err
			}
			m := r.measure(ctx, query, mode)
			m.Iteration = i + 1
			r.logger.Debug("benchmark run",
				zap.Int("iteration", m.Iteration),
				zap.String("mode", string(mode)),
				zap.Duration("duration", m.Duration),
				zap.Float64("tokens_per_second", m.TokensPerSecond),
				zap.String("error", m.Err))
			report.Measurements = append(report.Measurements, m)
		}
	}

	report.Summaries = Summarize(report.Measurements)
	return report, nil
}

func (r *Runner) measure(ctx context.Context, query string, mode models.Mode) Measurement {
	run := r.Run
	if mode == models.ModeNormal {
		run = r.RunNormal
	}

	m := Measurement{Mode: mode}
	out, err := run(ctx, query)
	if err != nil {
		m.Err = err.Error()
		return m
	}
	m.JobID = out.JobID
	m.Duration = out.Duration
	m.OutputTokens = out.OutputTokens
	m.Partial = out.Partial()
	m.TokensPerSecond = tokensPerSecond(out.OutputTokens, out.Duration)
	return m
}

func tokensPerSecond(tokens int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(tokens) / d.Seconds()
}

// Summarize groups measurements by mode, parallel first.
// Modes with no measurements are omitted.
func Summarize(ms []Measurement) []ModeSummary {
	var out []ModeSummary
	for _, mode := range benchModes {
		s := ModeSummary{Mode: mode}
		seen := false
		var sum float64
		for _, m := range ms {
			if m.Mode != mode {
				continue
			}
			seen = true
			if !m.OK() {
				s.Failed++
				continue
			}
			tps := m.TokensPerSecond
			if s.Count == 0 || tps < s.Min {
				s.Min = tps
			}
			if s.Count == 0 || tps > s.Max {
				s.Max = tps
			}
			sum += tps
			s.Count++
		}
		if !seen {
			continue
		}
		if s.Count > 0 {
			s.Mean = sum / float64(s.Count)
		}
		out = append(out, s)
	}
	return out
}
