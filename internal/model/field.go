// Package model defines the typed schema and document shapes shared across
// the text index, vector index, filter evaluator, and indexer orchestrator.
package model

import "fmt"

// FieldType is the logical type of a field's scalar values.
type FieldType string

const (
	FieldTypeString     FieldType = "string"
	FieldTypeInt32      FieldType = "int32"
	FieldTypeInt64      FieldType = "int64"
	FieldTypeDouble     FieldType = "double"
	FieldTypeBoolean    FieldType = "boolean"
	FieldTypeDateOffset FieldType = "dateTimeOffset"
	FieldTypeGeoPoint   FieldType = "geographyPoint"
)

// IsCollectionType reports whether a field type string denotes a collection,
// e.g. "Collection(Edm.String)".
func IsCollectionType(t FieldType) bool {
	return len(t) > len(collectionPrefix) && string(t)[:len(collectionPrefix)] == collectionPrefix
}

const collectionPrefix = "Collection("

// CollectionOf builds the collection type name for an element type.
func CollectionOf(elem FieldType) FieldType {
	return FieldType(fmt.Sprintf("%s%s)", collectionPrefix, elem))
}

// ElementType strips the Collection(...) wrapper, returning the element type.
// If t is not a collection type, t is returned unchanged.
func ElementType(t FieldType) FieldType {
	if !IsCollectionType(t) {
		return t
	}
	return FieldType(string(t)[len(collectionPrefix) : len(t)-1])
}

// Field describes one column of an index's schema.
type Field struct {
	Name          string    `json:"name"`
	Type          FieldType `json:"type"`
	Key           bool      `json:"key,omitempty"`
	Searchable    bool      `json:"searchable,omitempty"`
	Filterable    bool      `json:"filterable,omitempty"`
	Sortable      bool      `json:"sortable,omitempty"`
	Facetable     bool      `json:"facetable,omitempty"`
	Retrievable   bool      `json:"retrievable,omitempty"`
	Analyzer      string    `json:"analyzer,omitempty"`
	Normalizer    string    `json:"normalizer,omitempty"`
	Dimensions    int       `json:"dimensions,omitempty"`    // vector fields only
	VectorProfile string    `json:"vectorSearchProfile,omitempty"` // vector fields only: name of the HNSW/algorithm profile
}

// IsVector reports whether the field carries dense vector data.
func (f Field) IsVector() bool {
	return f.Dimensions > 0
}

// Validate checks the invariants from the data model: a string key field,
// collections are not sortable, and only string fields carry
// analyzer/normalizer names.
func (f Field) Validate() error {
	if f.Key && f.Type != FieldTypeString {
		return fmt.Errorf("field %q: key field must be of type string", f.Name)
	}
	if IsCollectionType(f.Type) && f.Sortable {
		return fmt.Errorf("field %q: collection fields are not sortable", f.Name)
	}
	if (f.Analyzer != "" || f.Normalizer != "") && ElementType(f.Type) != FieldTypeString {
		return fmt.Errorf("field %q: analyzer/normalizer only apply to string fields", f.Name)
	}
	return nil
}
