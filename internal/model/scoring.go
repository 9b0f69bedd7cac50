package model

// AggregationMode combines multiple boosting-function results into one
// document boost, per spec §4.6.
type AggregationMode string

const (
	AggregateSum          AggregationMode = "sum"
	AggregateAverage      AggregationMode = "average"
	AggregateMinimum      AggregationMode = "minimum"
	AggregateMaximum      AggregationMode = "maximum"
	AggregateFirstMatching AggregationMode = "firstMatching"
)

// Interpolation reshapes a function's normalized [0,1] value before it is
// multiplied by the boost coefficient.
type Interpolation string

const (
	InterpolationLinear      Interpolation = "linear"
	InterpolationConstant    Interpolation = "constant"
	InterpolationQuadratic   Interpolation = "quadratic"
	InterpolationLogarithmic Interpolation = "logarithmic"
)

// ScoringProfile bundles per-field text weights and boosting functions,
// per spec §3/§4.6.
type ScoringProfile struct {
	Name        string              `json:"name"`
	TextWeights map[string]float64  `json:"text,omitempty"`
	Functions   []BoostingFunction  `json:"functions,omitempty"`
	Aggregation AggregationMode     `json:"functionAggregation,omitempty"`
}

// BoostKind discriminates a BoostingFunction's shape.
type BoostKind string

const (
	BoostFreshness BoostKind = "freshness"
	BoostMagnitude BoostKind = "magnitude"
	BoostDistance  BoostKind = "distance"
	BoostTag       BoostKind = "tag"
)

// BoostingFunction is a discriminated boosting-function declaration, per
// spec §3/§4.6. Only the fields relevant to Kind are populated.
type BoostingFunction struct {
	Kind          BoostKind     `json:"type"`
	Field         string        `json:"fieldName"`
	Boost         float64       `json:"boost"`
	Interpolation Interpolation `json:"interpolation,omitempty"`

	// Freshness
	BoostingDuration string `json:"boostingDuration,omitempty"` // ISO-8601 duration, e.g. "P30D" or the informal "365D"

	// Magnitude
	RangeStart          float64 `json:"rangeStart,omitempty"`
	RangeEnd            float64 `json:"rangeEnd,omitempty"`
	ConstantBeyondRange bool    `json:"constantBoostBeyondRange,omitempty"`

	// Distance
	ReferencePointParameter string  `json:"referencePointParameter,omitempty"`
	BoostingDistanceKm      float64 `json:"boostingDistance,omitempty"`

	// Tag
	TagsParameter string `json:"tagsParameter,omitempty"`
}
