package localembed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/simconfig"
)

func vectorMagnitude(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return math.Sqrt(sumSq)
}

func TestEmbed_ReturnsConfiguredDimensions(t *testing.T) {
	e := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 128})
	v, err := e.Embed(context.Background(), "mountain lodge with a fireplace")
	require.NoError(t, err)
	assert.Len(t, v, 128)
}

func TestEmbed_VectorIsNormalized(t *testing.T) {
	e := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 256})
	v, err := e.Embed(context.Background(), "beachfront resort with a pool")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorMagnitude(v), 0.001)
}

func TestEmbed_IsDeterministic(t *testing.T) {
	e := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 256})
	a, err := e.Embed(context.Background(), "mountain lodge")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "mountain lodge")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmbed_EmptyTextReturnsZeroVector(t *testing.T) {
	e := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 256})
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, x := range v {
		assert.Zero(t, x)
	}
}

func TestEmbed_AfterCloseReturnsError(t *testing.T) {
	e := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 256})
	require.NoError(t, e.Close())
	_, err := e.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestCached_ReturnsSameVectorWithoutRecomputing(t *testing.T) {
	inner := New(simconfig.LocalEmbeddingConfig{MaximumTokens: 64})
	cached := NewCached(inner, 10)

	a, err := cached.Embed(context.Background(), "mountain lodge")
	require.NoError(t, err)
	b, err := cached.Embed(context.Background(), "mountain lodge")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
