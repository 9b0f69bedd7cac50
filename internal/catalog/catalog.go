// Package catalog stores the control-plane object definitions — indexes,
// indexers, data sources, skillsets — that the HTTP surface's CRUD
// resources (§6.1) and the indexer orchestrator operate on. Each
// collection is held in memory and mirrored to one JSON file per object,
// using the same write-to-temp-then-rename pattern the vector index and
// indexer status store use for crash-safe persistence.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

// Catalog holds the four named collections of control-plane objects.
type Catalog struct {
	root string

	mu          sync.RWMutex
	indexes     map[string]model.Index
	indexers    map[string]model.IndexerDefinition
	dataSources map[string]model.DataSourceDefinition
	skillsets   map[string]model.Skillset
}

// New creates an empty catalog persisting under root.
func New(root string) *Catalog {
	return &Catalog{
		root:        root,
		indexes:     make(map[string]model.Index),
		indexers:    make(map[string]model.IndexerDefinition),
		dataSources: make(map[string]model.DataSourceDefinition),
		skillsets:   make(map[string]model.Skillset),
	}
}

// Load populates the catalog from root's on-disk collections. Missing
// collection directories are treated as empty, matching a fresh install.
func (c *Catalog) Load() error {
	if err := loadCollection(c.root, "indexes", &c.indexes); err != nil {
		return err
	}
	if err := loadCollection(c.root, "indexers", &c.indexers); err != nil {
		return err
	}
	if err := loadCollection(c.root, "datasources", &c.dataSources); err != nil {
		return err
	}
	if err := loadCollection(c.root, "skillsets", &c.skillsets); err != nil {
		return err
	}
	return nil
}

func loadCollection[T any](root, collection string, out *map[string]T) error {
	dir := filepath.Join(root, "catalog", collection)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to read %s catalog", collection), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return simerrors.NewConfiguration(fmt.Sprintf("failed to read %s", path), err)
		}
		var obj T
		if err := json.Unmarshal(data, &obj); err != nil {
			return simerrors.NewConfiguration(fmt.Sprintf("failed to decode %s", path), err)
		}
		name := nameOf(obj)
		(*out)[name] = obj
	}
	return nil
}

func nameOf(v any) string {
	switch t := v.(type) {
	case model.Index:
		return t.Name
	case model.IndexerDefinition:
		return t.Name
	case model.DataSourceDefinition:
		return t.Name
	case model.Skillset:
		return t.Name
	default:
		return ""
	}
}

func saveObject(root, collection, name string, obj any) error {
	dir := filepath.Join(root, "catalog", collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to create %s catalog directory", collection), err)
	}
	path := filepath.Join(dir, name+".json")
	tmp := path + ".tmp"

	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to encode %s/%s", collection, name), err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to write %s/%s", collection, name), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return simerrors.NewConfiguration(fmt.Sprintf("failed to commit %s/%s", collection, name), err)
	}
	return nil
}

func deleteObject(root, collection, name string) error {
	path := filepath.Join(root, "catalog", collection, name+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return simerrors.NewConfiguration(fmt.Sprintf("failed to delete %s/%s", collection, name), err)
	}
	return nil
}

// --- Indexes ---

func (c *Catalog) PutIndex(idx model.Index) error {
	if err := idx.Validate(); err != nil {
		return simerrors.NewValidation(err.Error(), err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := saveObject(c.root, "indexes", idx.Name, idx); err != nil {
		return err
	}
	c.indexes[idx.Name] = idx
	return nil
}

func (c *Catalog) GetIndex(name string) (model.Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.indexes[name]
	return idx, ok
}

func (c *Catalog) ListIndexes() []model.Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Index, 0, len(c.indexes))
	for _, idx := range c.indexes {
		out = append(out, idx)
	}
	return out
}

func (c *Catalog) DeleteIndex(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := deleteObject(c.root, "indexes", name); err != nil {
		return err
	}
	delete(c.indexes, name)
	return nil
}

// --- Indexers ---

func (c *Catalog) PutIndexer(def model.IndexerDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := saveObject(c.root, "indexers", def.Name, def); err != nil {
		return err
	}
	c.indexers[def.Name] = def
	return nil
}

func (c *Catalog) GetIndexer(name string) (model.IndexerDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.indexers[name]
	return def, ok
}

func (c *Catalog) ListIndexers() []model.IndexerDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.IndexerDefinition, 0, len(c.indexers))
	for _, d := range c.indexers {
		out = append(out, d)
	}
	return out
}

func (c *Catalog) DeleteIndexer(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := deleteObject(c.root, "indexers", name); err != nil {
		return err
	}
	delete(c.indexers, name)
	return nil
}

// --- Data sources ---

func (c *Catalog) PutDataSource(def model.DataSourceDefinition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := saveObject(c.root, "datasources", def.Name, def); err != nil {
		return err
	}
	c.dataSources[def.Name] = def
	return nil
}

func (c *Catalog) GetDataSource(name string) (model.DataSourceDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.dataSources[name]
	return def, ok
}

func (c *Catalog) ListDataSources() []model.DataSourceDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.DataSourceDefinition, 0, len(c.dataSources))
	for _, d := range c.dataSources {
		out = append(out, d)
	}
	return out
}

func (c *Catalog) DeleteDataSource(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := deleteObject(c.root, "datasources", name); err != nil {
		return err
	}
	delete(c.dataSources, name)
	return nil
}

// --- Skillsets ---

func (c *Catalog) PutSkillset(set model.Skillset) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := saveObject(c.root, "skillsets", set.Name, set); err != nil {
		return err
	}
	c.skillsets[set.Name] = set
	return nil
}

func (c *Catalog) GetSkillset(name string) (model.Skillset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.skillsets[name]
	return set, ok
}

func (c *Catalog) ListSkillsets() []model.Skillset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Skillset, 0, len(c.skillsets))
	for _, s := range c.skillsets {
		out = append(out, s)
	}
	return out
}

func (c *Catalog) DeleteSkillset(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := deleteObject(c.root, "skillsets", name); err != nil {
		return err
	}
	delete(c.skillsets, name)
	return nil
}
