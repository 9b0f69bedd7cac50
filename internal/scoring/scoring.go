// Package scoring evaluates scoring profiles — per-field text weights
// plus boosting functions (freshness/magnitude/distance/tag) — into a
// per-document multiplicative boost, per spec §4.6.
package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/localsearch/simulator/internal/model"
)

// ResolveProfile implements the profile-selection order: explicit request
// name wins, else the index default, else none. Matching is
// case-insensitive; an unknown name resolves to none.
func ResolveProfile(idx model.Index, requested string) (model.ScoringProfile, bool) {
	name := requested
	if name == "" {
		name = idx.DefaultScoringProfile
	}
	if name == "" {
		return model.ScoringProfile{}, false
	}
	for _, p := range idx.ScoringProfiles {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return model.ScoringProfile{}, false
}

// TextWeights returns the profile's per-field weights, or nil when the
// profile carries none (callers fall back to unit weights).
func TextWeights(profile model.ScoringProfile) map[string]float64 {
	if len(profile.TextWeights) == 0 {
		return nil
	}
	return profile.TextWeights
}

// ParseScoringParameters implements the "name-value" scoring-parameter
// grammar: the first "-" separates name from value, embedded dashes in
// the value are preserved (so negative geo-coordinates like
// "loc--47.6,-122.3" parse correctly). Empty or malformed entries are
// skipped. Lookup keys are lower-cased for case-insensitive access.
func ParseScoringParameters(raw []string) map[string]string {
	params := make(map[string]string, len(raw))
	for _, entry := range raw {
		idx := strings.Index(entry, "-")
		if idx <= 0 || idx == len(entry)-1 {
			continue
		}
		name := strings.ToLower(entry[:idx])
		value := entry[idx+1:]
		params[name] = value
	}
	return params
}

// DocumentBoost evaluates every boosting function in profile against doc
// and params, aggregates per the profile's mode, and returns 1.0 + the
// aggregated contribution.
func DocumentBoost(profile model.ScoringProfile, doc map[string]any, params map[string]string, now time.Time) float64 {
	var contributions []float64
	for _, fn := range profile.Functions {
		v, ok := evaluate(fn, doc, params, now)
		if !ok {
			continue // missing parameter: function is skipped entirely
		}
		contributions = append(contributions, v)
	}
	return 1.0 + aggregate(profile.Aggregation, contributions)
}

func aggregate(mode model.AggregationMode, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch mode {
	case model.AggregateAverage:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case model.AggregateMinimum:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case model.AggregateMaximum:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	case model.AggregateFirstMatching:
		for _, v := range values {
			if v != 0 {
				return v
			}
		}
		return 0
	default: // sum
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum
	}
}

// evaluate runs one boosting function, returning (contribution, ok). ok
// is false only when a required request parameter is missing or cannot be
// parsed — a missing document field still yields a (0, true) contribution.
func evaluate(fn model.BoostingFunction, doc map[string]any, params map[string]string, now time.Time) (float64, bool) {
	switch fn.Kind {
	case model.BoostFreshness:
		return evaluateFreshness(fn, doc, now)
	case model.BoostMagnitude:
		return evaluateMagnitude(fn, doc)
	case model.BoostDistance:
		return evaluateDistance(fn, doc, params)
	case model.BoostTag:
		return evaluateTag(fn, doc, params)
	default:
		return 0, true
	}
}

func evaluateFreshness(fn model.BoostingFunction, doc map[string]any, now time.Time) (float64, bool) {
	duration, ok := parseBoostingDuration(fn.BoostingDuration)
	if !ok || duration <= 0 {
		return 0, true
	}
	t, ok := fieldTime(doc[fn.Field])
	if !ok {
		return interpolate(0, fn.Interpolation) * fn.Boost, true
	}
	age := now.Sub(t)
	normalized := 1 - age.Seconds()/duration.Seconds()
	if normalized < 0 {
		normalized = 0
	}
	return interpolate(normalized, fn.Interpolation) * fn.Boost, true
}

func evaluateMagnitude(fn model.BoostingFunction, doc map[string]any) (float64, bool) {
	v, ok := fieldFloat(doc[fn.Field])
	if !ok {
		return interpolate(0, fn.Interpolation) * fn.Boost, true
	}
	span := fn.RangeEnd - fn.RangeStart
	if span == 0 {
		return 0, true
	}
	normalized := (v - fn.RangeStart) / span
	if normalized < 0 || normalized > 1 {
		if !fn.ConstantBeyondRange {
			return 0, true
		}
		if normalized < 0 {
			normalized = 0
		} else {
			normalized = 1
		}
	}
	return interpolate(normalized, fn.Interpolation) * fn.Boost, true
}

func evaluateDistance(fn model.BoostingFunction, doc map[string]any, params map[string]string) (float64, bool) {
	raw, ok := params[strings.ToLower(fn.ReferencePointParameter)]
	if !ok {
		return 0, false // missing parameter: function skipped
	}
	refLat, refLon, ok := parseGeoPoint(raw)
	if !ok {
		return 0, false
	}

	lat, lon, ok := fieldGeoPoint(doc[fn.Field])
	if !ok {
		return interpolate(0, fn.Interpolation) * fn.Boost, true
	}

	distance := haversineKm(lat, lon, refLat, refLon)
	if fn.BoostingDistanceKm <= 0 {
		return 0, true
	}
	normalized := 1 - distance/fn.BoostingDistanceKm
	if normalized < 0 {
		normalized = 0
	}
	return interpolate(normalized, fn.Interpolation) * fn.Boost, true
}

func evaluateTag(fn model.BoostingFunction, doc map[string]any, params map[string]string) (float64, bool) {
	raw, ok := params[strings.ToLower(fn.TagsParameter)]
	if !ok {
		return 0, false // missing parameter: function skipped
	}
	requested := splitTags(raw)

	fieldTags, ok := fieldTags(doc[fn.Field])
	if !ok {
		return interpolate(0, fn.Interpolation) * fn.Boost, true
	}

	for _, want := range requested {
		for _, have := range fieldTags {
			if strings.EqualFold(want, have) {
				return interpolate(1, fn.Interpolation) * fn.Boost, true
			}
		}
	}
	return interpolate(0, fn.Interpolation) * fn.Boost, true
}

func interpolate(normalized float64, curve model.Interpolation) float64 {
	switch curve {
	case model.InterpolationConstant:
		if normalized > 0 {
			return 1
		}
		return 0
	case model.InterpolationQuadratic:
		return normalized * normalized
	case model.InterpolationLogarithmic:
		if normalized <= 0 {
			return 0
		}
		return math.Log1p(normalized*(math.E-1)) // maps [0,1] -> [0,1] logarithmically
	default: // linear
		return normalized
	}
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func fieldFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func fieldTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}

// fieldGeoPoint reads a geo.point field value, stored either as a
// [2]float64-shaped slice ([lon, lat], GeoJSON order) or a "lat,lon"
// string.
func fieldGeoPoint(v any) (lat, lon float64, ok bool) {
	switch t := v.(type) {
	case string:
		return parseGeoPoint(t)
	case []float64:
		if len(t) == 2 {
			return t[1], t[0], true
		}
	case []any:
		if len(t) == 2 {
			lonF, ok1 := fieldFloat(t[0])
			latF, ok2 := fieldFloat(t[1])
			if ok1 && ok2 {
				return latF, lonF, true
			}
		}
	}
	return 0, 0, false
}

// parseGeoPoint parses a "lat,lon" scoring-parameter string.
func parseGeoPoint(s string) (lat, lon float64, ok bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	latF, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lonF, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return latF, lonF, true
}

func fieldTags(v any) ([]string, bool) {
	switch t := v.(type) {
	case string:
		return []string{t}, true
	case []string:
		return t, true
	case []any:
		tags := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags, true
	default:
		return nil, false
	}
}

const earthRadiusKm = 6371.0088

// haversineKm computes the great-circle distance between two lat/lon
// points in kilometers.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
