package filterexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func testFields() map[string]model.Field {
	return map[string]model.Field{
		"rating":   {Name: "rating", Type: model.FieldTypeDouble, Filterable: true, Facetable: true},
		"category": {Name: "category", Type: model.FieldTypeString, Filterable: true, Facetable: true},
		"tags":     {Name: "tags", Type: model.CollectionOf(model.FieldTypeString), Filterable: true},
	}
}

func TestFilterExpr_SimpleComparison(t *testing.T) {
	expr, err := Parse("rating gt 4")
	require.NoError(t, err)

	ok, err := Evaluate(expr, map[string]any{"rating": 4.5}, testFields(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(expr, map[string]any{"rating": 3.0}, testFields(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterExpr_AndOrNot(t *testing.T) {
	expr, err := Parse("rating gt 3 and (category eq 'luxury' or category eq 'spa')")
	require.NoError(t, err)

	ok, err := Evaluate(expr, map[string]any{"rating": 4.0, "category": "spa"}, testFields(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(expr, map[string]any{"rating": 4.0, "category": "budget"}, testFields(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterExpr_CollectionLambdaAny(t *testing.T) {
	expr, err := Parse("tags/any(t: t eq 'pool')")
	require.NoError(t, err)

	ok, err := Evaluate(expr, map[string]any{"tags": []any{"spa", "pool"}}, testFields(), nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Evaluate(expr, map[string]any{"tags": []any{"spa"}}, testFields(), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterExpr_SearchIn(t *testing.T) {
	expr, err := Parse(`search.in(category, 'luxury|spa|budget', '|')`)
	require.NoError(t, err)

	ok, err := Evaluate(expr, map[string]any{"category": "spa"}, testFields(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFilterExpr_MalformedExpressionFails(t *testing.T) {
	_, err := Parse("rating gt")
	assert.Error(t, err)
}

func TestFilterExpr_GeoDistance(t *testing.T) {
	expr, err := Parse(`geo.distance(loc, geography'POINT(-122.3 47.6)') le 5`)
	require.NoError(t, err)

	fields := testFields()
	ok, err := Evaluate(expr, map[string]any{"loc": []float64{-122.31, 47.61}}, fields, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderBy_FieldDescThenKeyTieBreak(t *testing.T) {
	clauses, err := ParseOrderBy("rating desc")
	require.NoError(t, err)

	docs := []Sortable{
		{Key: "b", Fields: map[string]any{"rating": 4.0}},
		{Key: "a", Fields: map[string]any{"rating": 4.0}},
		{Key: "c", Fields: map[string]any{"rating": 5.0}},
	}
	SortResults(docs, clauses)
	require.Equal(t, []string{"c", "a", "b"}, []string{docs[0].Key, docs[1].Key, docs[2].Key})
}

func TestOrderBy_NullsLastOnAsc(t *testing.T) {
	clauses, err := ParseOrderBy("rating asc")
	require.NoError(t, err)

	docs := []Sortable{
		{Key: "a", Fields: map[string]any{"rating": 3.0}},
		{Key: "b", Fields: map[string]any{}},
	}
	SortResults(docs, clauses)
	assert.Equal(t, "a", docs[0].Key)
	assert.Equal(t, "b", docs[1].Key)
}

func TestFacet_ValueFacetDefaultSortAndCount(t *testing.T) {
	spec, err := ParseFacetSpec("category")
	require.NoError(t, err)
	assert.Equal(t, 10, spec.Count)
	assert.Equal(t, "-count", spec.Sort)

	docs := []map[string]any{
		{"category": "luxury"},
		{"category": "luxury"},
		{"category": "budget"},
	}
	buckets, err := ComputeFacet(spec, docs, testFields())
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "luxury", buckets[0].Value)
	assert.Equal(t, 2, buckets[0].Count)
}

func TestFacet_NonFacetableFieldFails(t *testing.T) {
	spec, err := ParseFacetSpec("name")
	require.NoError(t, err)
	fields := map[string]model.Field{"name": {Name: "name", Facetable: false}}
	_, err = ComputeFacet(spec, nil, fields)
	assert.Error(t, err)
}

func TestFacet_IntervalBareNumericIsDays(t *testing.T) {
	spec, err := ParseFacetSpec("rating,interval:1")
	require.NoError(t, err)
	assert.Equal(t, "day", spec.Unit)
}

func TestHighlight_RestrictsToRequestedFieldsOnly(t *testing.T) {
	doc := map[string]any{
		"title":       "Luxury Spa Resort",
		"description": "luxury amenities and pool",
		"category":    "Luxury",
	}
	opts := DefaultHighlightOptions()
	opts.Fields = []string{"description"}

	result := Highlight(doc, []string{"luxury"}, opts)
	require.Contains(t, result, "description")
	assert.NotContains(t, result, "title")
	assert.NotContains(t, result, "category")
	assert.Contains(t, result["description"][0], "<em>")
}

func TestHighlight_FieldWithNoMatchIsOmitted(t *testing.T) {
	doc := map[string]any{"description": "nothing relevant here"}
	opts := DefaultHighlightOptions()
	opts.Fields = []string{"description"}

	result := Highlight(doc, []string{"luxury"}, opts)
	assert.Nil(t, result)
}
