package model

// Document is a field-name to value mapping plus its derived key. Values
// for multi-valued fields are ordered sequences; order is preserved on
// retrieval.
type Document struct {
	Key    string
	Fields map[string]any
}

// Vector is a dense float32 sequence attached to a vector field of a
// document. Its length must equal the field's declared Dimensions.
type Vector []float32

// PostingEntry is one (document key, field positions) pair inside an
// inverted-index posting list, per §3.
type PostingEntry struct {
	Key       string
	Positions []int
}
