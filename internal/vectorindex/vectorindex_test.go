package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func TestEngine_EmptyIndexReturnsEmpty(t *testing.T) {
	e := NewEngine()
	matches, err := e.Search(context.Background(), "hotels", "embedding", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestEngine_ZeroKReturnsEmpty(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Add(context.Background(), "hotels", "embedding", "d1", []float32{1, 0}))
	matches, err := e.Search(context.Background(), "hotels", "embedding", []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestEngine_NaNVectorRejected(t *testing.T) {
	e := NewEngine()
	err := e.Add(context.Background(), "hotels", "embedding", "d1", []float32{float32(nan())})
	require.Error(t, err)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestEngine_AddThenSearchTopResultIsSelf(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	vectors := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0, 1, 0},
		"c": {0, 0, 1},
	}
	for k, v := range vectors {
		require.NoError(t, e.Add(ctx, "hotels", "embedding", k, v))
	}
	for k, v := range vectors {
		matches, err := e.Search(ctx, "hotels", "embedding", v, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		require.Equal(t, k, matches[0].Key)
	}
}

func TestEngine_RemoveTombstonesKey(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "a", []float32{1, 0}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "b", []float32{0, 1}))
	require.NoError(t, e.Remove(ctx, "hotels", "embedding", "a"))

	matches, err := e.Search(ctx, "hotels", "embedding", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "b", matches[0].Key)
}

func TestEngine_RemoveNonexistentKeySucceedsSilently(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Remove(context.Background(), "hotels", "embedding", "nope"))
}

func TestEngine_DimensionMismatchRejected(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "a", []float32{1, 0, 0}))
	err := e.Add(ctx, "hotels", "embedding", "a2", []float32{1, 0})
	require.Error(t, err)
}

func TestEngine_SaveLoadRoundTripPreservesTopK(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	e := NewEngine()
	e.EnsureField("hotels", "embedding", DefaultProfile(2, model.MetricCosine))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d1", []float32{1, 0}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d2", []float32{0.9, 0.1}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d3", []float32{0, 1}))

	query := []float32{1, 0}
	before, err := e.Search(ctx, "hotels", "embedding", query, 3)
	require.NoError(t, err)

	require.NoError(t, e.Save(dir, "hotels", "embedding"))

	reopened := NewEngine()
	require.NoError(t, reopened.Load(dir, "hotels", "embedding"))
	after, err := reopened.Search(ctx, "hotels", "embedding", query, 3)
	require.NoError(t, err)

	require.Equal(t, len(before), len(after))
	for i := range before {
		require.Equal(t, before[i].Key, after[i].Key)
	}
}

// TestEngine_HNSWFilterScenario mirrors the S6 filtered-search behavior:
// three vectors where a filter restricts candidates to two of them, and
// the nearer of the two survivors ranks first.
func TestEngine_HNSWFilterScenario(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d1", []float32{1, 0}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d2", []float32{0.9, 0.1}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d3", []float32{0.8, 0.2}))

	allowed := map[string]struct{}{"d2": {}, "d3": {}}
	matches, err := e.SearchWithFilter(ctx, "hotels", "embedding", []float32{1, 0}, 2, allowed)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.NotEqual(t, "d1", m.Key)
	}
	require.Equal(t, "d2", matches[0].Key)
	require.Equal(t, "d3", matches[1].Key)
}

func TestEngine_SearchWithFilterEmptyAllowedSetReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "d1", []float32{1, 0}))
	matches, err := e.SearchWithFilter(ctx, "hotels", "embedding", []float32{1, 0}, 5, map[string]struct{}{})
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestEngine_CosineScoreIsWithinUnitRange(t *testing.T) {
	ctx := context.Background()
	e := NewEngine()
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "a", []float32{1, 0}))
	require.NoError(t, e.Add(ctx, "hotels", "embedding", "b", []float32{-1, 0}))

	matches, err := e.Search(ctx, "hotels", "embedding", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.GreaterOrEqual(t, m.Score, 0.0)
		require.LessOrEqual(t, m.Score, 1.0)
	}
	require.Equal(t, "a", matches[0].Key)
}
