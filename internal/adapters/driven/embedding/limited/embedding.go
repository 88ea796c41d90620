// Package limited wraps an embedder with a per-call timeout and a token bucket.
package limited

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
	"github.com/custodia-labs/onboard-rag/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder bounds calls to another embedder.
type Embedder struct {
	next    driven.Embedder
	bucket  *rate.Limiter // nil when unlimited
	timeout time.Duration // zero when unbounded
}

// Option configures the limited embedder.
type Option func(*Embedder)

// WithTimeout bounds each Embed call.
func WithTimeout(d time.Duration) Option {
	return func(e *Embedder) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithRequestsPerSecond throttles calls to the wrapped embedder.
// Zero or negative means unlimited.
func WithRequestsPerSecond(rps float64) Option {
	return func(e *Embedder) {
		if rps > 0 {
			e.bucket = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// New wraps next.
func New(next driven.Embedder, opts ...Option) *Embedder {
	e := &Embedder{next: next}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed waits for a token, then calls the wrapped embedder under the timeout.
// An expired deadline is reported as a retryable *domain.IOError.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	if e.bucket != nil {
		if err := e.bucket.Wait(ctx); err != nil {
			return nil, &domain.IOError{Op: "embedding rate limit", Err: err}
		}
	}

	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrIO) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &domain.IOError{Op: "embed", Err: context.DeadlineExceeded}
		}
		return nil, err
	}
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

// ModelName returns the wrapped embedder's model name.
func (e *Embedder) ModelName() string {
	return e.next.ModelName()
}
