package docstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_StatusCodeTable(t *testing.T) {
	s := NewStore(t.TempDir())
	ctx := context.Background()

	r := s.Apply(ctx, "hotels", ActionUpload, "1", map[string]any{"name": "a"})
	assert.True(t, r.Status)
	assert.Equal(t, 201, r.StatusCode)
	assert.Nil(t, r.ErrorMessage)

	r = s.Apply(ctx, "hotels", ActionUpload, "1", map[string]any{"name": "b"})
	assert.Equal(t, 200, r.StatusCode)

	r = s.Apply(ctx, "hotels", ActionMerge, "1", map[string]any{"name": "c"})
	assert.Equal(t, 200, r.StatusCode)
	assert.True(t, r.Status)

	r = s.Apply(ctx, "hotels", ActionMerge, "missing", map[string]any{"name": "c"})
	assert.Equal(t, 404, r.StatusCode)
	assert.False(t, r.Status)
	require.NotNil(t, r.ErrorMessage)

	r = s.Apply(ctx, "hotels", ActionMergeOrUpload, "2", map[string]any{"name": "d"})
	assert.Equal(t, 201, r.StatusCode)

	r = s.Apply(ctx, "hotels", ActionMergeOrUpload, "2", map[string]any{"name": "e"})
	assert.Equal(t, 200, r.StatusCode)

	r = s.Apply(ctx, "hotels", ActionDelete, "2", nil)
	assert.Equal(t, 200, r.StatusCode)
	assert.True(t, r.Status)

	r = s.Apply(ctx, "hotels", ActionDelete, "never-existed", nil)
	assert.Equal(t, 200, r.StatusCode)
}

func TestApply_ErrorMessageAlwaysSerializedEvenWhenNil(t *testing.T) {
	s := NewStore(t.TempDir())
	r := s.Apply(context.Background(), "hotels", ActionUpload, "1", map[string]any{"name": "a"})
	// ErrorMessage is a *string so json.Marshal always emits the key,
	// "null" on success, matching §6.2's "errorMessage is always
	// serialized even when null".
	assert.Nil(t, r.ErrorMessage)
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"errorMessage":null`)
}
