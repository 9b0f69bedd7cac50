package textindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func testIndex() model.Index {
	return model.Index{
		Name: "hotels",
		Fields: []model.Field{
			{Name: "id", Type: model.FieldTypeString, Key: true},
			{Name: "title", Type: model.FieldTypeString, Searchable: true},
			{Name: "description", Type: model.FieldTypeString, Searchable: true},
		},
	}
}

func TestTextIndex_SearchSimpleMode(t *testing.T) {
	ctx := context.Background()
	ti, err := Open("", testIndex())
	require.NoError(t, err)
	defer ti.Close()

	require.NoError(t, ti.IndexDocuments(ctx, []model.Document{
		{Key: "a", Fields: map[string]any{"title": "luxury spa resort"}},
		{Key: "b", Fields: map[string]any{"title": "budget hotel"}},
	}))

	hits, _, err := ti.Search(ctx, "luxury", SearchOptions{QueryType: QuerySimple, Mode: ModeAny, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a", hits[0].Key)
}

func TestTextIndex_EmptyQueryMatchesAll(t *testing.T) {
	ctx := context.Background()
	ti, err := Open("", testIndex())
	require.NoError(t, err)
	defer ti.Close()

	require.NoError(t, ti.IndexDocuments(ctx, []model.Document{
		{Key: "a", Fields: map[string]any{"title": "one"}},
		{Key: "b", Fields: map[string]any{"title": "two"}},
	}))

	hits, _, err := ti.Search(ctx, "", SearchOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.Equal(t, 1.0, h.Score)
	}
}

func TestTextIndex_RequiredAndExcludedTerms(t *testing.T) {
	ctx := context.Background()
	ti, err := Open("", testIndex())
	require.NoError(t, err)
	defer ti.Close()

	require.NoError(t, ti.IndexDocuments(ctx, []model.Document{
		{Key: "a", Fields: map[string]any{"title": "luxury spa resort"}},
		{Key: "b", Fields: map[string]any{"title": "luxury budget motel"}},
	}))

	hits, _, err := ti.Search(ctx, "+luxury -budget", SearchOptions{QueryType: QuerySimple, Mode: ModeAny, Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "a", hits[0].Key)
}

func TestTextIndex_DeleteDocuments(t *testing.T) {
	ctx := context.Background()
	ti, err := Open("", testIndex())
	require.NoError(t, err)
	defer ti.Close()

	require.NoError(t, ti.IndexDocuments(ctx, []model.Document{
		{Key: "a", Fields: map[string]any{"title": "luxury spa"}},
	}))
	require.NoError(t, ti.DeleteDocuments(ctx, []string{"a"}))

	hits, _, err := ti.Search(ctx, "luxury", SearchOptions{QueryType: QuerySimple, Mode: ModeAny, Limit: 10})
	require.NoError(t, err)
	require.Empty(t, hits)
}
