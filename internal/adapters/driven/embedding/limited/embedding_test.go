package limited

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

// stubEmbedder returns a fixed vector after an optional delay.
type stubEmbedder struct {
	delay time.Duration
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0}, nil
}

func (s *stubEmbedder) Dimensions() int   { return 2 }
func (s *stubEmbedder) ModelName() string { return "stub" }

func TestEmbed_PassThrough(t *testing.T) {
	stub := &stubEmbedder{}
	e := New(stub, WithTimeout(time.Second), WithRequestsPerSecond(1000))

	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, 2, e.Dimensions())
	assert.Equal(t, "stub", e.ModelName())
	assert.Equal(t, 1, stub.calls)
}

func TestEmbed_TimeoutIsRetryableIOError(t *testing.T) {
	e := New(&stubEmbedder{delay: time.Second}, WithTimeout(10*time.Millisecond))

	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, domain.IsRetryable(err))
}

func TestEmbed_ProviderErrorPassesThrough(t *testing.T) {
	cause := errors.New("bad input")
	e := New(&stubEmbedder{err: cause})

	_, err := e.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, cause)
	assert.False(t, domain.IsRetryable(err))
}

func TestEmbed_RateLimitWaitCancelled(t *testing.T) {
	e := New(&stubEmbedder{}, WithRequestsPerSecond(0.001))

	// first call consumes the only token
	_, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = e.Embed(ctx, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIO))
}

func TestOptions_IgnoreNonPositive(t *testing.T) {
	e := New(&stubEmbedder{}, WithTimeout(0), WithRequestsPerSecond(0))
	assert.Nil(t, e.bucket)
	assert.Zero(t, e.timeout)
}
