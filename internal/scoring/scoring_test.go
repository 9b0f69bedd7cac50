package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func magnitudeProfile() model.ScoringProfile {
	return model.ScoringProfile{
		Name: "ratingBoost",
		Functions: []model.BoostingFunction{
			{
				Kind:                model.BoostMagnitude,
				Field:               "rating",
				Boost:               2.0,
				Interpolation:       model.InterpolationLinear,
				RangeStart:          0,
				RangeEnd:            10,
				ConstantBeyondRange: false,
			},
		},
		Aggregation: model.AggregateSum,
	}
}

func TestDocumentBoost_MagnitudeScenario(t *testing.T) {
	profile := magnitudeProfile()
	now := time.Now()

	boost := DocumentBoost(profile, map[string]any{"rating": 5.0}, nil, now)
	assert.InDelta(t, 2.0, boost, 1e-9)

	boost = DocumentBoost(profile, map[string]any{"rating": 10.0}, nil, now)
	assert.InDelta(t, 3.0, boost, 1e-9)

	boost = DocumentBoost(profile, map[string]any{}, nil, now)
	assert.InDelta(t, 1.0, boost, 1e-9)
}

func TestResolveProfile_OrderAndCaseInsensitivity(t *testing.T) {
	idx := model.Index{
		DefaultScoringProfile: "Default",
		ScoringProfiles: []model.ScoringProfile{
			{Name: "Default"},
			{Name: "Premium"},
		},
	}

	p, ok := ResolveProfile(idx, "premium")
	require.True(t, ok)
	assert.Equal(t, "Premium", p.Name)

	p, ok = ResolveProfile(idx, "")
	require.True(t, ok)
	assert.Equal(t, "Default", p.Name)

	_, ok = ResolveProfile(idx, "unknown")
	assert.False(t, ok)
}

func TestParseScoringParameters_PreservesEmbeddedDashes(t *testing.T) {
	params := ParseScoringParameters([]string{"loc--47.6,-122.3", "tags-beach,family", "", "nodash"})
	assert.Equal(t, "-47.6,-122.3", params["loc"])
	assert.Equal(t, "beach,family", params["tags"])
	assert.Len(t, params, 2)
}

func TestDocumentBoost_FreshnessInformalDaysForm(t *testing.T) {
	profile := model.ScoringProfile{
		Functions: []model.BoostingFunction{
			{Kind: model.BoostFreshness, Field: "published", Boost: 1.0, BoostingDuration: "365D"},
		},
		Aggregation: model.AggregateSum,
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	published := now.Add(-180 * 24 * time.Hour).Format(time.RFC3339)

	boost := DocumentBoost(profile, map[string]any{"published": published}, nil, now)
	assert.Greater(t, boost, 1.0)
	assert.Less(t, boost, 2.0)
}

func TestDocumentBoost_DistanceMissingParameterIsSkippedNotZero(t *testing.T) {
	profile := model.ScoringProfile{
		Functions: []model.BoostingFunction{
			{Kind: model.BoostDistance, Field: "loc", Boost: 1.0, ReferencePointParameter: "userLocation", BoostingDistanceKm: 10},
			{Kind: model.BoostMagnitude, Field: "rating", Boost: 1.0, RangeStart: 0, RangeEnd: 10},
		},
		Aggregation: model.AggregateSum,
	}
	boost := DocumentBoost(profile, map[string]any{"rating": 10.0}, nil, time.Now())
	assert.InDelta(t, 2.0, boost, 1e-9) // distance skipped entirely, only magnitude contributes
}

func TestDocumentBoost_TagOverlap(t *testing.T) {
	profile := model.ScoringProfile{
		Functions: []model.BoostingFunction{
			{Kind: model.BoostTag, Field: "amenities", Boost: 1.0, TagsParameter: "wantedTags"},
		},
		Aggregation: model.AggregateSum,
	}
	boost := DocumentBoost(profile, map[string]any{"amenities": []string{"Pool", "Spa"}}, map[string]string{"wantedtags": "spa,gym"}, time.Now())
	assert.InDelta(t, 2.0, boost, 1e-9)

	boost = DocumentBoost(profile, map[string]any{"amenities": []string{"Pool"}}, map[string]string{"wantedtags": "spa,gym"}, time.Now())
	assert.InDelta(t, 1.0, boost, 1e-9)
}

func TestDocumentBoost_FirstMatchingAggregation(t *testing.T) {
	profile := model.ScoringProfile{
		Functions: []model.BoostingFunction{
			{Kind: model.BoostMagnitude, Field: "missing", Boost: 5.0, RangeStart: 0, RangeEnd: 10},
			{Kind: model.BoostMagnitude, Field: "rating", Boost: 2.0, RangeStart: 0, RangeEnd: 10},
		},
		Aggregation: model.AggregateFirstMatching,
	}
	boost := DocumentBoost(profile, map[string]any{"rating": 10.0}, nil, time.Now())
	assert.InDelta(t, 3.0, boost, 1e-9) // first function contributes 0, second contributes 2.0
}

func TestDocumentBoost_AllZeroFirstMatchingYieldsBaseline(t *testing.T) {
	profile := model.ScoringProfile{
		Functions: []model.BoostingFunction{
			{Kind: model.BoostMagnitude, Field: "missing", Boost: 5.0, RangeStart: 0, RangeEnd: 10},
		},
		Aggregation: model.AggregateFirstMatching,
	}
	boost := DocumentBoost(profile, map[string]any{}, nil, time.Now())
	assert.InDelta(t, 1.0, boost, 1e-9)
}

func TestParseBoostingDuration_ISO8601(t *testing.T) {
	d, ok := parseBoostingDuration("P30D")
	require.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, d)

	d, ok = parseBoostingDuration("PT6H")
	require.True(t, ok)
	assert.Equal(t, 6*time.Hour, d)
}
