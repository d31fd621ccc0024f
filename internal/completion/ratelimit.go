package completion

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ShayCichocki/sot/pkg/models"
)

// RateLimited throttles requests to a Client with a token bucket.
// It only paces outbound calls; it does not queue or retry failures.
type RateLimited struct {
	inner  Client
	bucket *rate.Limiter
}

// NewRateLimited wraps inner so that at most rps requests per second start,
// with bursts up to burst. A non-positive rps disables throttling.
func NewRateLimited(inner Client, rps float64, burst int) *RateLimited {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:  inner,
		bucket: rate.NewLimiter(limit, burst),
	}
}

// Complete waits for a token and forwards the request.
func (r *RateLimited) Complete(ctx context.Context, prompt string, params Params) (*Response, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	if err := r.bucket.Wait(ctx); err != nil {
		if f := contextFailure(ctx, err); f != nil {
			return nil, f
		}
		// Wait fails early when the deadline would pass before a token is available.
		return nil, NewFailure(models.ErrorKindTimeout, err)
	}
	return r.inner.Complete(ctx, prompt, params)
}
