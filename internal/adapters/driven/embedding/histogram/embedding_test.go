package histogram

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/onboard-rag/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	assert.Equal(t, domain.DefaultDimensions, New(0).Dimensions())
	assert.Equal(t, 16, New(16).Dimensions())
	assert.Equal(t, ModelName, New(8).ModelName())
}

func TestEmbed_Deterministic(t *testing.T) {
	e := New(128)
	ctx := context.Background()

	a, err := e.Embed(ctx, "Welcome to the onboarding handbook")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "Welcome to the onboarding handbook")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestEmbed_UnitLength(t *testing.T) {
	vec, err := New(32).Embed(context.Background(), "héllo wörld 🚀")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(0))
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestEmbed_EmptyIsZeroVector(t *testing.T) {
	vec, err := New(10).Embed(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, 10)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbed_Buckets(t *testing.T) {
	// 'a' (97) and 'e' (101) share bucket 1 when D = 4
	vec, err := New(4).Embed(context.Background(), "ae")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0}, vec)
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(4).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
