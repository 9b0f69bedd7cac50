package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRF_HybridScenario(t *testing.T) {
	text := []TextHit{{Key: "a", Score: 4.2}}
	vector := []VectorHit{{Key: "a", Score: 0.98}, {Key: "b", Score: 0.95}}

	results := RRF(text, vector, 60)
	require.Len(t, results, 2)

	assert.Equal(t, "a", results[0].Key)
	assert.InDelta(t, 2.0/61.0, results[0].FusedScore, 1e-9)
	assert.True(t, results[0].InBothStreams)

	assert.Equal(t, "b", results[1].Key)
	assert.InDelta(t, 1.0/62.0, results[1].FusedScore, 1e-9)
	assert.False(t, results[1].InBothStreams)
}

func TestRRF_EmptyStreamsReturnsEmptySlice(t *testing.T) {
	results := RRF(nil, nil, 60)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRRF_DefaultsKWhenNonPositive(t *testing.T) {
	text := []TextHit{{Key: "a", Score: 1}}
	results := RRF(text, nil, 0)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0/61.0, results[0].FusedScore, 1e-9)
}

func TestRRF_MonotonicInK(t *testing.T) {
	text := []TextHit{{Key: "a", Score: 1}, {Key: "b", Score: 1}}

	small := RRF(text, nil, 1)
	large := RRF(text, nil, 1000)

	gapSmall := small[0].FusedScore - small[1].FusedScore
	gapLarge := large[0].FusedScore - large[1].FusedScore
	assert.Greater(t, gapSmall, gapLarge)
}

func TestWeighted_MinMaxNormalizationAndMissingStreamContributesZero(t *testing.T) {
	text := []TextHit{{Key: "a", Score: 10}, {Key: "b", Score: 0}}
	vector := []VectorHit{{Key: "a", Score: 0.5}}

	results := Weighted(text, vector, Weights{Text: 1, Vector: 1})
	require.Len(t, results, 2)

	var a, b Result
	for _, r := range results {
		switch r.Key {
		case "a":
			a = r
		case "b":
			b = r
		}
	}
	assert.InDelta(t, 2.0, a.FusedScore, 1e-9) // norm_text=1.0, norm_vector=1.0 (only entry)
	assert.InDelta(t, 0.0, b.FusedScore, 1e-9) // norm_text=0.0, absent from vector stream
}

func TestWeighted_EqualScoresMapToOne(t *testing.T) {
	text := []TextHit{{Key: "a", Score: 3}, {Key: "b", Score: 3}}
	results := Weighted(text, nil, Weights{Text: 1, Vector: 1})
	for _, r := range results {
		assert.InDelta(t, 1.0, r.FusedScore, 1e-9)
	}
}
