package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UploadNewThenExisting(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	wasNew, err := s.Upload(ctx, "hotels", "1", map[string]any{"name": "Regency"})
	require.NoError(t, err)
	assert.True(t, wasNew)

	wasNew, err = s.Upload(ctx, "hotels", "1", map[string]any{"name": "Regency Suites"})
	require.NoError(t, err)
	assert.False(t, wasNew)

	got, ok, err := s.Get(ctx, "hotels", "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Regency Suites", got["name"])
}

func TestStore_MergeMissingReturnsErrNotFound(t *testing.T) {
	s := NewStore(t.TempDir())
	err := s.Merge(context.Background(), "hotels", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MergeOverwritesFieldWholesale(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	_, err := s.Upload(ctx, "hotels", "1", map[string]any{
		"name": "Regency",
		"tags": []any{"spa", "pool"},
	})
	require.NoError(t, err)

	err = s.Merge(ctx, "hotels", "1", map[string]any{"tags": []any{"gym"}})
	require.NoError(t, err)

	got, _, err := s.Get(ctx, "hotels", "1")
	require.NoError(t, err)
	assert.Equal(t, "Regency", got["name"])
	assert.Equal(t, []any{"gym"}, got["tags"])
}

func TestStore_MergeOrUploadCreatesWhenMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	wasNew, err := s.MergeOrUpload(ctx, "hotels", "2", map[string]any{"name": "Lodge"})
	require.NoError(t, err)
	assert.True(t, wasNew)

	wasNew, err = s.MergeOrUpload(ctx, "hotels", "2", map[string]any{"name": "Lodge & Spa"})
	require.NoError(t, err)
	assert.False(t, wasNew)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, s.Delete(ctx, "hotels", "never-existed"))

	_, err := s.Upload(ctx, "hotels", "3", map[string]any{"name": "x"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, "hotels", "3"))
	require.NoError(t, s.Delete(ctx, "hotels", "3"))

	_, ok, err := s.Get(ctx, "hotels", "3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListAndCount(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	_, err := s.Upload(ctx, "hotels", "1", map[string]any{"name": "a"})
	require.NoError(t, err)
	_, err = s.Upload(ctx, "hotels", "2", map[string]any{"name": "b"})
	require.NoError(t, err)

	all, err := s.List(ctx, "hotels")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	n, err := s.Count(ctx, "hotels")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestStore_DropIndexRemovesFile(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()
	_, err := s.Upload(ctx, "hotels", "1", map[string]any{"name": "a"})
	require.NoError(t, err)
	require.NoError(t, s.DropIndex("hotels"))

	n, err := s.Count(ctx, "hotels")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
