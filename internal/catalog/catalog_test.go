package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsearch/simulator/internal/model"
)

func testIndex(name string) model.Index {
	return model.Index{
		Name: name,
		Fields: []model.Field{
			{Name: "id", Type: model.FieldTypeString, Key: true},
			{Name: "name", Type: model.FieldTypeString, Searchable: true},
		},
	}
}

func TestCatalog_PutIndexRejectsMissingKeyField(t *testing.T) {
	c := New(t.TempDir())
	err := c.PutIndex(model.Index{Name: "bad", Fields: []model.Field{{Name: "x", Type: model.FieldTypeString}}})
	assert.Error(t, err)
}

func TestCatalog_IndexSurvivesReload(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	require.NoError(t, c.PutIndex(testIndex("hotels")))

	reloaded := New(root)
	require.NoError(t, reloaded.Load())

	idx, ok := reloaded.GetIndex("hotels")
	require.True(t, ok)
	assert.Equal(t, "hotels", idx.Name)
	assert.Len(t, idx.Fields, 2)
}

func TestCatalog_DeleteIndexRemovesFromListAndDisk(t *testing.T) {
	root := t.TempDir()
	c := New(root)
	require.NoError(t, c.PutIndex(testIndex("hotels")))
	require.NoError(t, c.DeleteIndex("hotels"))

	_, ok := c.GetIndex("hotels")
	assert.False(t, ok)

	reloaded := New(root)
	require.NoError(t, reloaded.Load())
	assert.Empty(t, reloaded.ListIndexes())
}

func TestCatalog_IndexerDataSourceSkillsetRoundTrip(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	require.NoError(t, c.PutDataSource(model.DataSourceDefinition{Name: "hotels-ds", Type: "filesystem"}))
	require.NoError(t, c.PutSkillset(model.Skillset{Name: "hotels-skillset"}))
	require.NoError(t, c.PutIndexer(model.IndexerDefinition{
		Name: "hotels-indexer", DataSourceName: "hotels-ds",
		TargetIndexName: "hotels", SkillsetName: "hotels-skillset",
	}))

	reloaded := New(root)
	require.NoError(t, reloaded.Load())

	_, ok := reloaded.GetDataSource("hotels-ds")
	assert.True(t, ok)
	_, ok = reloaded.GetSkillset("hotels-skillset")
	assert.True(t, ok)
	def, ok := reloaded.GetIndexer("hotels-indexer")
	require.True(t, ok)
	assert.Equal(t, "hotels", def.TargetIndexName)
}
