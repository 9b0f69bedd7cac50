package indexerrun

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func TestApplyFieldMappings_RenamesAndLeavesUnmappedFieldsAlone(t *testing.T) {
	record := map[string]any{"hotel_name": "Regency", "rating": 4}
	mappings := []model.FieldMapping{
		{SourceFieldName: "hotel_name", TargetFieldName: "name"},
	}

	out, err := ApplyFieldMappings(record, mappings)
	require.NoError(t, err)
	assert.Equal(t, "Regency", out["name"])
	assert.Equal(t, 4, out["rating"])
	_, stillPresent := out["hotel_name"]
	assert.False(t, stillPresent)
}

func TestApplyFieldMappings_Base64EncodeThenDecodeRoundTrips(t *testing.T) {
	record := map[string]any{"raw": "a/b c"}
	encoded, err := ApplyFieldMappings(record, []model.FieldMapping{
		{SourceFieldName: "raw", TargetFieldName: "encoded", MappingFunction: "base64Encode"},
	})
	require.NoError(t, err)

	decoded, err := ApplyFieldMappings(map[string]any{"encoded": encoded["encoded"]}, []model.FieldMapping{
		{SourceFieldName: "encoded", TargetFieldName: "raw", MappingFunction: "base64Decode"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a/b c", decoded["raw"])
}

func TestApplyFieldMappings_ExtractTokenAtPosition(t *testing.T) {
	record := map[string]any{"path": "docs/2026/report.pdf"}
	out, err := ApplyFieldMappings(record, []model.FieldMapping{
		{
			SourceFieldName: "path",
			TargetFieldName: "year",
			MappingFunction: "extractTokenAtPosition",
			FunctionParams:  map[string]string{"delimiter": "/", "position": "1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "2026", out["year"])
}

func TestApplyFieldMappings_UnknownFunctionErrors(t *testing.T) {
	_, err := ApplyFieldMappings(map[string]any{"x": "y"}, []model.FieldMapping{
		{SourceFieldName: "x", MappingFunction: "doesNotExist"},
	})
	assert.Error(t, err)
}

func TestSanitizeKey_IsIdempotentOnAlreadyValidKeys(t *testing.T) {
	assert.Equal(t, "already-valid_KEY=1", SanitizeKey("already-valid_KEY=1"))
}
