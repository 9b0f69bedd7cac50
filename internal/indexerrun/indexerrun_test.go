package indexerrun

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/model"
)

type fakeSource struct {
	docs []SourceDocument
}

func (f *fakeSource) Enumerate(ctx context.Context, since string) ([]SourceDocument, error) {
	var out []SourceDocument
	for _, d := range f.docs {
		if since == "" || d.HighWaterMarkValue > since {
			out = append(out, d)
		}
	}
	return out, nil
}

func jsonDoc(key, hwm string, fields map[string]any) SourceDocument {
	body, _ := json.Marshal(fields)
	return SourceDocument{
		Key:                key,
		HighWaterMarkValue: hwm,
		FetchBody: func(ctx context.Context) ([]byte, error) {
			return body, nil
		},
	}
}

func newTestRunner(t *testing.T, source DataSource) (*Runner, *docstore.Store, string) {
	t.Helper()
	root := t.TempDir()
	store := docstore.NewStore(root)
	runner := NewRunner(root, Dependencies{
		DataSource:  source,
		DocStore:    store,
		IndexExists: func(name string) bool { return true },
	})
	return runner, store, root
}

func TestRunner_BulkCommitsAllDocumentsAsMergeOrUpload(t *testing.T) {
	source := &fakeSource{docs: []SourceDocument{
		jsonDoc("1", "2026-01-01T00:00:00Z", map[string]any{"name": "Regency"}),
		jsonDoc("2", "2026-01-02T00:00:00Z", map[string]any{"name": "Seaside"}),
	}}
	runner, store, _ := newTestRunner(t, source)

	def := model.IndexerDefinition{
		Name:            "hotels-indexer",
		TargetIndexName: "hotels",
		ParsingMode:     "json",
		BatchSize:       10,
		MaxFailedItems:  -1,
		MaxFailedItemsPerBatch: -1,
	}

	result, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionSuccess, result.Status)
	assert.Equal(t, 2, result.ItemsProcessed)
	assert.Equal(t, "2026-01-02T00:00:00Z", result.FinalTrackingState)

	got, ok, err := store.Get(context.Background(), "hotels", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Regency", got["name"])
}

func TestRunner_DisabledIndexerFailsWithInvalidOperation(t *testing.T) {
	runner, _, _ := newTestRunner(t, &fakeSource{})
	def := model.IndexerDefinition{Name: "x", TargetIndexName: "hotels", Disabled: true}

	_, err := runner.Run(context.Background(), def, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRunner_SecondRunOnlySeesDocumentsAfterHighWaterMark(t *testing.T) {
	source := &fakeSource{docs: []SourceDocument{
		jsonDoc("1", "2026-01-01T00:00:00Z", map[string]any{"name": "Regency"}),
	}}
	runner, _, _ := newTestRunner(t, source)
	def := model.IndexerDefinition{
		Name: "hotels-indexer", TargetIndexName: "hotels", ParsingMode: "json",
		BatchSize: 10, MaxFailedItems: -1, MaxFailedItemsPerBatch: -1,
	}

	result, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsProcessed)

	result, err = runner.Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ItemsProcessed)
	assert.Equal(t, 0, result.ItemsSkipped)
}

func TestRunner_MaxFailedItemsPerBatchStopsTheRun(t *testing.T) {
	docs := []SourceDocument{
		{Key: "1", HighWaterMarkValue: "2026-01-01T00:00:00Z", FetchBody: func(ctx context.Context) ([]byte, error) {
			return nil, assert.AnError
		}},
		jsonDoc("2", "2026-01-02T00:00:00Z", map[string]any{"name": "ok"}),
	}
	source := &fakeSource{docs: docs}
	runner, _, _ := newTestRunner(t, source)
	def := model.IndexerDefinition{
		Name: "hotels-indexer", TargetIndexName: "hotels", ParsingMode: "json",
		BatchSize: 10, MaxFailedItems: -1, MaxFailedItemsPerBatch: 0,
	}

	result, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionTransientFailure, result.Status)
	assert.Equal(t, 1, result.ItemsFailed)
}

func TestRunner_ResetClearsHighWaterMarkWithoutTouchingDocuments(t *testing.T) {
	source := &fakeSource{docs: []SourceDocument{
		jsonDoc("1", "2026-01-01T00:00:00Z", map[string]any{"name": "Regency"}),
	}}
	runner, store, _ := newTestRunner(t, source)
	def := model.IndexerDefinition{
		Name: "hotels-indexer", TargetIndexName: "hotels", ParsingMode: "json",
		BatchSize: 10, MaxFailedItems: -1, MaxFailedItemsPerBatch: -1,
	}

	_, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)

	require.NoError(t, runner.Reset("hotels-indexer"))

	state, err := runner.status.Load("hotels-indexer")
	require.NoError(t, err)
	assert.Equal(t, "", state.HighWaterMark)
	assert.Equal(t, model.ExecutionReset, state.LastResult.Status)

	_, ok, err := store.Get(context.Background(), "hotels", "1")
	require.NoError(t, err)
	assert.True(t, ok, "reset must not delete already-indexed documents")

	result, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemsProcessed, "reset rewinds the high-water mark so documents are reprocessed")
}

func TestRunner_HistoryCappedAtTenEntries(t *testing.T) {
	source := &fakeSource{}
	runner, _, _ := newTestRunner(t, source)
	def := model.IndexerDefinition{
		Name: "empty-indexer", TargetIndexName: "hotels",
		BatchSize: 10, MaxFailedItems: -1, MaxFailedItemsPerBatch: -1,
	}

	for i := 0; i < 15; i++ {
		_, err := runner.Run(context.Background(), def, nil)
		require.NoError(t, err)
	}

	state, err := runner.status.Load("empty-indexer")
	require.NoError(t, err)
	assert.Len(t, state.ExecutionHistory, 10)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("abc-123_ABC="))
	assert.False(t, ValidKey("has space"))
	assert.False(t, ValidKey(""))
}

func TestSanitizeKey_EscapesIllegalCharacters(t *testing.T) {
	sanitized := SanitizeKey("a/b c")
	assert.True(t, ValidKey(sanitized))
}
