package pipeline

import (
	"context"

	"github.com/ShayCichocki/sot/internal/completion"
)

// meter counts the tokens reported by one phase of one job.
type meter struct {
	inner   completion.Client
	tracker *completion.TokenTracker
}

func newMeter(inner completion.Client) *meter {
	return &meter{inner: inner, tracker: completion.NewTokenTracker()}
}

func (m *meter) Complete(ctx context.Context, prompt string, params completion.Params) (*completion.Response, error) {
	resp, err := m.inner.Complete(ctx, prompt, params)
	if err != nil {
		return nil, err
	}
	m.tracker.Add(resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

func (m *meter) outputTokens() int64 {
	_, out := m.tracker.Total()
	return out
}

func (m *meter) cost(p completion.Pricing) float64 {
	return m.tracker.Cost(p)
}
