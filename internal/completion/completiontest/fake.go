// Package completiontest provides a scripted completion.Client for tests.
package completiontest

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ShayCichocki/sot/internal/completion"
)

// Reply is the scripted outcome for a prompt.
type Reply struct {
	// Text is returned on success.
	Text string
	// Err is returned instead of Text when set.
	Err error
	// Delay is how long the call blocks before replying; ctx cancellation ends it early.
	Delay time.Duration
	// OutputTokens is reported in the response usage.
	OutputTokens int64
}

// Fake is a completion.Client that answers from a rule list.
// Rules are matched in order by substring of the prompt; the first match wins.
type Fake struct {
	mu       sync.Mutex
	rules    []rule
	fallback Reply
	prompts  []string

	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

type rule struct {
	contains string
	reply    Reply
}

// NewFake returns a Fake that answers unmatched prompts with fallback.
func NewFake(fallback Reply) *Fake {
	return &Fake{fallback: fallback}
}

// On adds a rule: prompts containing substr get reply.
func (f *Fake) On(substr string, reply Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule{contains: substr, reply: reply})
	return f
}

// Complete implements completion.Client.
func (f *Fake) Complete(ctx context.Context, prompt string, params completion.Params) (*completion.Response, error) {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	reply := f.fallback
	for _, r := range f.rules {
		if strings.Contains(prompt, r.contains) {
			reply = r.reply
			break
		}
	}
	f.mu.Unlock()

	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	if reply.Delay > 0 {
		timer := time.NewTimer(reply.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, completion.Classify(ctx.Err())
		}
	}

	if reply.Err != nil {
		return nil, reply.Err
	}
	return &completion.Response{Text: reply.Text, OutputTokens: reply.OutputTokens}, nil
}

// Calls returns the number of Complete calls made.
func (f *Fake) Calls() int {
	return int(f.calls.Load())
}

// PeakInFlight returns the highest number of concurrent Complete calls observed.
func (f *Fake) PeakInFlight() int {
	return int(f.peak.Load())
}

// Prompts returns a copy of every prompt received, in arrival order.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.prompts))
	copy(out, f.prompts)
	return out
}
