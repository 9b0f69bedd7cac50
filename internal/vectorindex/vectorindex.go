// Package vectorindex implements the HNSW + brute-force vector engine of
// spec §4.4: one approximate nearest-neighbor graph per (index, field),
// tombstone-based removal, and cosine/Euclidean/dot-product metrics.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

// Match is one scored nearest-neighbor result.
type Match struct {
	Key      string
	Distance float32
	Score    float64
}

// Profile carries the tunable HNSW parameters for one (index, field) graph,
// plus the brute-force fallback threshold.
type Profile struct {
	Dimensions      int
	Metric          model.VectorMetric
	M               int
	EfConstruction  int
	EfSearch        int
	RandomSeed      int64
	BruteForceBelow int // vector count below which search scans linearly
	UseHNSW         bool
}

// DefaultProfile returns sensible HNSW parameters, matching the magnitudes
// named for the graph-degree and candidate-list knobs.
func DefaultProfile(dims int, metric model.VectorMetric) Profile {
	return Profile{
		Dimensions:      dims,
		Metric:          metric,
		M:               16,
		EfConstruction:  200,
		EfSearch:        100,
		RandomSeed:      -1,
		BruteForceBelow: 64,
		UseHNSW:         true,
	}
}

// fieldIndex owns one (index, field) graph: the HNSW structure (when
// enabled) plus the brute-force vector set used as a fallback and as the
// vectors-below-threshold path. The bidirectional id<->label mapping and
// tombstoning follow the same two-map, one-lock shape used for the
// teacher's single global vector store, just scoped per field.
type fieldIndex struct {
	mu      sync.RWMutex
	profile Profile

	graph  *hnsw.Graph[uint64]
	idMap  map[string]uint64 // document key -> graph label
	keyMap map[uint64]string // graph label -> document key (absent = tombstoned)
	nextID uint64

	vectors map[string][]float32 // brute-force source of truth, always maintained
}

func newFieldIndex(profile Profile) *fieldIndex {
	fi := &fieldIndex{
		profile: profile,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
		vectors: make(map[string][]float32),
	}
	fi.graph = newGraph(profile)
	return fi
}

func newGraph(profile Profile) *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	switch profile.Metric {
	case model.MetricEuclidean:
		g.Distance = hnsw.EuclideanDistance
	default:
		// Dot-product graphs still need a metric geometry for graph
		// construction; cosine distance on raw vectors is the closest
		// proxy and the engine re-derives the reported score itself.
		g.Distance = hnsw.CosineDistance
	}
	if profile.M > 0 {
		g.M = profile.M
	}
	if profile.EfSearch > 0 {
		g.EfSearch = profile.EfSearch
	}
	g.Ml = 0.25
	return g
}

// Engine owns every (index, field) vector graph in the simulator.
type Engine struct {
	mu     sync.RWMutex
	fields map[string]*fieldIndex // key: index + "\x00" + field
}

// NewEngine constructs an empty vector engine.
func NewEngine() *Engine {
	return &Engine{fields: make(map[string]*fieldIndex)}
}

func fieldKey(index, field string) string {
	return index + "\x00" + field
}

// EnsureField registers the HNSW profile for a vector field; a field that
// is already registered keeps its existing profile. A field never
// registered explicitly is created with DefaultProfile (cosine) and the
// first added vector's dimensions.
func (e *Engine) EnsureField(index, field string, profile Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := fieldKey(index, field)
	if _, ok := e.fields[k]; ok {
		return
	}
	e.fields[k] = newFieldIndex(profile)
}

func (e *Engine) getOrCreate(index, field string, dims int) *fieldIndex {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := fieldKey(index, field)
	fi, ok := e.fields[k]
	if !ok {
		fi = newFieldIndex(DefaultProfile(dims, model.MetricCosine))
		e.fields[k] = fi
	}
	return fi
}

func (e *Engine) get(index, field string) (*fieldIndex, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fi, ok := e.fields[fieldKey(index, field)]
	return fi, ok
}

// Add inserts or replaces the vector for key in (index, field), per §4.4's
// add operation: auto-initialize on first use, reject dimension mismatch,
// tombstone-and-reassign on re-add.
func (e *Engine) Add(ctx context.Context, index, field, key string, v []float32) error {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return simerrors.NewValidation(fmt.Sprintf("vector for document %q contains a non-finite component", key), nil)
		}
	}

	fi := e.getOrCreate(index, field, len(v))

	fi.mu.Lock()
	defer fi.mu.Unlock()

	if fi.profile.Dimensions == 0 {
		fi.profile.Dimensions = len(v)
	}
	if len(v) != fi.profile.Dimensions {
		return simerrors.NewValidation(
			fmt.Sprintf("vector dimension mismatch for document %q: expected %d, got %d", key, fi.profile.Dimensions, len(v)),
			nil,
		)
	}

	stored := append([]float32(nil), v...)
	if fi.profile.Metric == model.MetricCosine {
		normalizeInPlace(stored)
	}

	if existing, ok := fi.idMap[key]; ok {
		delete(fi.keyMap, existing)
	}

	label := fi.nextID
	fi.nextID++
	fi.idMap[key] = label
	fi.keyMap[label] = key
	fi.vectors[key] = stored

	if fi.profile.UseHNSW {
		fi.graph.Add(hnsw.MakeNode(label, stored))
	}
	return nil
}

// Remove tombstones key's vector in (index, field). Non-existent keys
// succeed silently.
func (e *Engine) Remove(ctx context.Context, index, field, key string) error {
	fi, ok := e.get(index, field)
	if !ok {
		return nil
	}
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if label, ok := fi.idMap[key]; ok {
		delete(fi.idMap, key)
		delete(fi.keyMap, label)
	}
	delete(fi.vectors, key)
	return nil
}

// RemoveDocument removes key from every vector field declared on index.
func (e *Engine) RemoveDocument(ctx context.Context, index, key string, fields []string) error {
	for _, f := range fields {
		if err := e.Remove(ctx, index, f, key); err != nil {
			return err
		}
	}
	return nil
}

// Search returns up to k nearest neighbors to query in (index, field),
// ordered by score descending, per §4.4.
func (e *Engine) Search(ctx context.Context, index, field string, query []float32, k int) ([]Match, error) {
	fi, ok := e.get(index, field)
	if !ok || k <= 0 {
		return nil, nil
	}
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.search(query, k, nil)
}

// SearchWithFilter restricts candidates to allowedKeys, per §4.4's
// searchWithFilter contract: an empty allowed set returns empty.
func (e *Engine) SearchWithFilter(ctx context.Context, index, field string, query []float32, k int, allowedKeys map[string]struct{}) ([]Match, error) {
	if len(allowedKeys) == 0 {
		return nil, nil
	}
	fi, ok := e.get(index, field)
	if !ok || k <= 0 {
		return nil, nil
	}
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.search(query, k, allowedKeys)
}

// search runs either brute-force (below threshold, HNSW disabled, or a
// small allowed-set filter) or graph search, then converts distances to
// the [0,1]-normalized score contract.
func (fi *fieldIndex) search(query []float32, k int, allowed map[string]struct{}) ([]Match, error) {
	if len(query) != fi.profile.Dimensions && fi.profile.Dimensions != 0 {
		return nil, simerrors.NewValidation(
			fmt.Sprintf("query vector dimension mismatch: expected %d, got %d", fi.profile.Dimensions, len(query)), nil)
	}

	q := append([]float32(nil), query...)
	if fi.profile.Metric == model.MetricCosine {
		normalizeInPlace(q)
	}

	activeCount := len(fi.keyMap)
	useBruteForce := !fi.profile.UseHNSW || activeCount < fi.profile.BruteForceBelow || (allowed != nil && len(allowed) < fi.profile.BruteForceBelow)

	if useBruteForce {
		return fi.bruteForceSearch(q, k, allowed), nil
	}

	oversample := k
	if allowed != nil {
		oversample = k * 4
		if oversample < k {
			oversample = k
		}
	}

	results := fi.graph.Search(q, oversample)
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		key, ok := fi.keyMap[r.Key]
		if !ok {
			continue // tombstoned label
		}
		if allowed != nil {
			if _, permitted := allowed[key]; !permitted {
				continue
			}
		}
		dist := distance(fi.profile.Metric, q, r.Value)
		matches = append(matches, Match{Key: key, Distance: dist, Score: scoreFromDistance(fi.profile.Metric, dist, q, r.Value)})
	}

	if allowed != nil && len(matches) < k {
		// Oversampled graph search still came up short against the filter;
		// fall back to a brute-force scan of just the allowed set.
		return fi.bruteForceSearch(q, k, allowed), nil
	}

	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (fi *fieldIndex) bruteForceSearch(query []float32, k int, allowed map[string]struct{}) []Match {
	matches := make([]Match, 0, len(fi.vectors))
	for key, v := range fi.vectors {
		if allowed != nil {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}
		dist := distance(fi.profile.Metric, query, v)
		matches = append(matches, Match{Key: key, Distance: dist, Score: scoreFromDistance(fi.profile.Metric, dist, query, v)})
	}
	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Key < matches[j].Key
	})
}

func distance(metric model.VectorMetric, a, b []float32) float32 {
	switch metric {
	case model.MetricEuclidean:
		return hnsw.EuclideanDistance(a, b)
	default:
		return hnsw.CosineDistance(a, b)
	}
}

// scoreFromDistance implements the binding Open Question resolution: pure
// cosine similarity is always reported as (1+cos)/2 clamped to [0,1],
// Euclidean as 1/(1+d), and dot-product raw and unnormalized.
func scoreFromDistance(metric model.VectorMetric, dist float32, a, b []float32) float64 {
	switch metric {
	case model.MetricEuclidean:
		return 1.0 / (1.0 + float64(dist))
	case model.MetricDotProduct:
		return dotProduct(a, b)
	default:
		cos := 1 - float64(dist)
		score := (1 + cos) / 2
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		return score
	}
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalizeInPlace(v []float32) {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// Stats reports the reconciliation counters used to decide when a (index,
// field) graph needs a rebuild.
type Stats struct {
	ValidIDs   int
	GraphNodes int
	Orphans    int
}

// FieldStats returns Stats for (index, field), or the zero value if the
// field has never been used.
func (e *Engine) FieldStats(index, field string) Stats {
	fi, ok := e.get(index, field)
	if !ok {
		return Stats{}
	}
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	nodes := 0
	if fi.profile.UseHNSW {
		nodes = fi.graph.Len()
	}
	return Stats{
		ValidIDs:   len(fi.keyMap),
		GraphNodes: nodes,
		Orphans:    nodes - len(fi.keyMap),
	}
}

// Count returns the number of live vectors in (index, field).
func (e *Engine) Count(index, field string) int {
	fi, ok := e.get(index, field)
	if !ok {
		return 0
	}
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.vectors)
}
