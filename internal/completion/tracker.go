package completion

import "sync"

// Pricing is the per-million-token price of a model in USD.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPricing approximates Sonnet list prices.
var DefaultPricing = Pricing{InputPerMillion: 3.0, OutputPerMillion: 15.0}

// TokenTracker accumulates token usage reported by completion responses.
// It is safe for concurrent use.
type TokenTracker struct {
	mu     sync.Mutex
	input  int64
	output int64
}

// NewTokenTracker creates an empty tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records the usage of one response.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input += input
	t.output += output
}

// Total returns the accumulated input and output tokens.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input, t.output
}

// Cost estimates the USD cost of the tracked usage under p.
func (t *TokenTracker) Cost(p Pricing) float64 {
	in, out := t.Total()
	return float64(in)/1_000_000*p.InputPerMillion + float64(out)/1_000_000*p.OutputPerMillion
}
