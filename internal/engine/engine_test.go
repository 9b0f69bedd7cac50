package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/catalog"
	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/vectorindex"
)

type fakeEmbedder struct {
	vector []float32
}

func (f fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, nil
}

func testIndexDef() model.Index {
	return model.Index{
		Name: "hotels",
		Fields: []model.Field{
			{Name: "id", Type: model.FieldTypeString, Key: true},
			{Name: "description", Type: model.FieldTypeString, Searchable: true},
			{Name: "category", Type: model.FieldTypeString, Filterable: true, Facetable: true},
			{Name: "rating", Type: model.FieldTypeDouble, Filterable: true, Sortable: true},
			{Name: "embedding", Type: model.CollectionOf(model.FieldTypeDouble), Dimensions: 3, VectorProfile: "default-profile"},
		},
		VectorSearch: &model.VectorSearchConfig{
			Profiles: map[string]model.HNSWProfile{
				"default-profile": {M: 4, EfConstruction: 100, EfSearch: 50, Metric: model.MetricCosine},
			},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	root := t.TempDir()
	cat := catalog.New(root)
	docs := docstore.NewStore(root)
	vectors := vectorindex.NewEngine()
	eng := New(root, cat, docs, vectors, fakeEmbedder{vector: []float32{1, 0, 0}})

	idx := testIndexDef()
	require.NoError(t, cat.PutIndex(idx))
	require.NoError(t, eng.ProvisionIndex(idx))

	t.Cleanup(func() { _ = eng.Close(); _ = docs.Close() })
	return eng
}

func upload(t *testing.T, eng *Engine, ctx context.Context, key string, fields map[string]any) {
	t.Helper()
	_, err := eng.docs.Upload(ctx, "hotels", key, fields)
	require.NoError(t, err)
	doc := model.Document{Key: key, Fields: fields}
	require.NoError(t, eng.textIndexes["hotels"].IndexDocuments(ctx, []model.Document{doc}))
	if v, ok := fields["embedding"].([]float32); ok {
		require.NoError(t, eng.vectors.Add(ctx, "hotels", "embedding", key, v))
	}
}

func TestEngine_PlainTextSearchReturnsMatchingDocument(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	upload(t, eng, ctx, "1", map[string]any{
		"id": "1", "description": "mountain lodge with a fireplace", "category": "budget", "rating": 3.5,
	})
	upload(t, eng, ctx, "2", map[string]any{
		"id": "2", "description": "beachfront resort with a pool", "category": "luxury", "rating": 4.8,
	})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "fireplace", Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	require.Equal(t, "1", resp.Value[0].Fields["id"])
}

func TestEngine_FilterExcludesNonMatchingDocuments(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "lodge", "category": "budget", "rating": 3.5})
	upload(t, eng, ctx, "2", map[string]any{"id": "2", "description": "resort", "category": "luxury", "rating": 4.8})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{
		Search: "", Filter: "category eq 'luxury'", Top: 10, Count: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	require.Equal(t, "2", resp.Value[0].Fields["id"])
	require.NotNil(t, resp.Count)
	require.EqualValues(t, 1, *resp.Count)
}

func TestEngine_OrderByRatingDescending(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "lodge", "category": "budget", "rating": 3.5})
	upload(t, eng, ctx, "2", map[string]any{"id": "2", "description": "resort", "category": "luxury", "rating": 4.8})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "", OrderBy: "rating desc", Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 2)
	require.Equal(t, "2", resp.Value[0].Fields["id"])
	require.Equal(t, "1", resp.Value[1].Fields["id"])
}

func TestEngine_FacetCountsCategoryValues(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "lodge", "category": "budget", "rating": 3.5})
	upload(t, eng, ctx, "2", map[string]any{"id": "2", "description": "resort", "category": "luxury", "rating": 4.8})
	upload(t, eng, ctx, "3", map[string]any{"id": "3", "description": "inn", "category": "budget", "rating": 2.0})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "", Facets: []string{"category"}, Top: 10})
	require.NoError(t, err)
	buckets, ok := resp.Facets["category"]
	require.True(t, ok)
	var budgetCount int
	for _, b := range buckets {
		if b.Value == "budget" {
			budgetCount = b.Count
		}
	}
	require.Equal(t, 2, budgetCount)
}

func TestEngine_HybridSearchFusesTextAndVectorMatches(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	upload(t, eng, ctx, "1", map[string]any{
		"id": "1", "description": "mountain lodge", "category": "budget", "rating": 3.5,
		"embedding": []float32{1, 0, 0},
	})
	upload(t, eng, ctx, "2", map[string]any{
		"id": "2", "description": "beach resort", "category": "luxury", "rating": 4.8,
		"embedding": []float32{0, 1, 0},
	})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{
		Search: "mountain",
		VectorQueries: []VectorQuery{
			{Text: "mountain vibes", Fields: []string{"embedding"}, K: 5},
		},
		Top: 10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Value)
	require.Equal(t, "1", resp.Value[0].Fields["id"])
}

func TestEngine_DebugBlockPopulatedOnlyWhenRequested(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "lodge", "category": "budget", "rating": 3.5})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "lodge", Top: 10})
	require.NoError(t, err)
	require.Nil(t, resp.Debug)

	resp, err = eng.Search(ctx, "hotels", SearchRequest{Search: "lodge", Top: 10, Debug: []string{"all"}})
	require.NoError(t, err)
	require.NotNil(t, resp.Debug)
	require.Equal(t, "lodge", resp.Debug.ParsedQuery)
	require.False(t, resp.Debug.IsHybridSearch)
	require.Equal(t, 1, resp.Debug.TextMatchCount)
}

func TestEngine_HighlightReturnsFragmentsForRequestedField(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "mountain lodge with a fireplace", "category": "budget", "rating": 3.5})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{
		Search: "fireplace", Highlight: []string{"description"}, Top: 10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	require.Contains(t, resp.Value[0].Highlights, "description")
}

func TestEngine_SelectProjectsOnlyRequestedFields(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)
	upload(t, eng, ctx, "1", map[string]any{"id": "1", "description": "lodge", "category": "budget", "rating": 3.5})

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "lodge", Select: []string{"id"}, Top: 10})
	require.NoError(t, err)
	require.Len(t, resp.Value, 1)
	require.Equal(t, map[string]any{"id": "1"}, resp.Value[0].Fields)
}

func TestEngine_SearchAgainstUnknownIndexReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	_, err := eng.Search(ctx, "missing", SearchRequest{Search: "x"})
	require.Error(t, err)
}

func TestEngine_PagingAppliesSkipAndTop(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	for i, rating := range []float64{1.0, 2.0, 3.0, 4.0} {
		key := string(rune('1' + i))
		upload(t, eng, ctx, key, map[string]any{"id": key, "description": "lodge", "category": "budget", "rating": rating})
	}

	resp, err := eng.Search(ctx, "hotels", SearchRequest{Search: "", OrderBy: "rating desc", Skip: 1, Top: 2})
	require.NoError(t, err)
	require.Len(t, resp.Value, 2)
	require.Equal(t, "3", resp.Value[0].Fields["id"])
	require.Equal(t, "2", resp.Value[1].Fields["id"])
}
