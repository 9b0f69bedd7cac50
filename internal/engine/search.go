package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/localsearch/simulator/internal/fusion"
	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/scoring"
	"github.com/localsearch/simulator/internal/simerrors"
	"github.com/localsearch/simulator/internal/textindex"

	"github.com/localsearch/simulator/internal/filterexpr"
)

// VectorQuery is one `vectorQueries[]` entry, §6.3: either an already
// embedded vector, or text the engine embeds via its TextEmbedder.
type VectorQuery struct {
	Vector []float32
	Text   string
	Fields []string
	K      int
}

// HybridOptions configures fusion across the text and vector streams.
type HybridOptions struct {
	FusionMethod string // "rrf" (default) | "weighted"
	TextWeight   float64
	VectorWeight float64
	RRFK         int
}

// SearchRequest is one parsed search operation, §6.3.
type SearchRequest struct {
	Search    string
	Mode      textindex.SearchMode
	QueryType textindex.QueryType

	Filter  string
	OrderBy string
	Select  []string
	Top     int
	Skip    int
	Count   bool
	Facets  []string

	Highlight       []string
	HighlightPreTag string
	HighlightPostTag string

	ScoringProfile    string
	ScoringParameters []string

	VectorQueries []VectorQuery
	Hybrid        HybridOptions

	Debug []string // subset of disabled|semantic|vector|queryRewrites|innerHits|all
}

// ResultDocument is one entry of the response's value[] array.
type ResultDocument struct {
	Score      float64
	Highlights map[string][]string
	Fields     map[string]any
}

// DebugInfo is the simulator-specific debug namespace of §6.3.
type DebugInfo struct {
	ParsedQuery        string
	ParsedFilter       string
	IsHybridSearch     bool
	TextSearchTimeMs   int64
	VectorSearchTimeMs int64
	TotalTimeMs        int64
	TextMatchCount     int
	VectorMatchCount   int
	ScoreFusionMethod  string
	SearchableFields   []string
}

// SearchResponse is the full shaped response of §6.3.
type SearchResponse struct {
	Value    []ResultDocument
	Count    *int64
	Facets   map[string][]filterexpr.FacetBucket
	Coverage float64
	Debug    *DebugInfo
}

// Search executes one search operation against indexName.
func (e *Engine) Search(ctx context.Context, indexName string, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	idx, ok := e.catalog.GetIndex(indexName)
	if !ok {
		return nil, simerrors.NewNotFound("index "+indexName+" does not exist", nil)
	}
	ti, err := e.textIndexFor(indexName)
	if err != nil {
		return nil, err
	}

	fieldsByName := make(map[string]model.Field, len(idx.Fields))
	for _, f := range idx.Fields {
		fieldsByName[f.Name] = f
	}

	var filterExpr filterexpr.Expr
	if strings.TrimSpace(req.Filter) != "" {
		filterExpr, err = filterexpr.Parse(req.Filter)
		if err != nil {
			return nil, simerrors.NewValidation("malformed filter: "+err.Error(), err)
		}
	}

	profile, hasProfile := scoring.ResolveProfile(idx, req.ScoringProfile)
	scoringParams := scoring.ParseScoringParameters(req.ScoringParameters)

	textWeights := map[string]float64{}
	if hasProfile {
		for k, v := range scoring.TextWeights(profile) {
			textWeights[k] = v
		}
	}

	textStart := time.Now()
	hits, _, err := ti.Search(ctx, req.Search, textindex.SearchOptions{
		QueryType: req.QueryType,
		Mode:      req.Mode,
		Weights:   textWeights,
		Limit:     maxCandidates(req),
	})
	if err != nil {
		return nil, err
	}
	textElapsed := time.Since(textStart)

	textHits := make([]fusion.TextHit, len(hits))
	for i, h := range hits {
		textHits[i] = fusion.TextHit{Key: h.Key, Score: h.Score}
	}

	var vectorHits []fusion.VectorHit
	var vectorElapsed time.Duration
	isHybrid := len(req.VectorQueries) > 0
	if isHybrid {
		vectorStart := time.Now()
		vectorHits, err = e.runVectorQueries(ctx, indexName, req.VectorQueries)
		if err != nil {
			return nil, err
		}
		vectorElapsed = time.Since(vectorStart)
	}

	fusionMethod := req.Hybrid.FusionMethod
	if fusionMethod == "" {
		fusionMethod = "rrf"
	}
	var fused []fusion.Result
	if fusionMethod == "weighted" {
		weights := fusion.Weights{Text: req.Hybrid.TextWeight, Vector: req.Hybrid.VectorWeight}
		if weights.Text == 0 && weights.Vector == 0 {
			weights = fusion.DefaultWeights()
		}
		fused = fusion.Weighted(textHits, vectorHits, weights)
	} else {
		fused = fusion.RRF(textHits, vectorHits, req.Hybrid.RRFK)
	}

	now := time.Now()
	type candidate struct {
		key    string
		score  float64
		fields map[string]any
	}
	candidates := make([]candidate, 0, len(fused))
	for _, f := range fused {
		fields, ok, err := e.docs.Get(ctx, indexName, f.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if filterExpr != nil {
			match, err := filterexpr.Evaluate(filterExpr, fields, fieldsByName, nil)
			if err != nil {
				return nil, simerrors.NewValidation("filter evaluation failed: "+err.Error(), err)
			}
			if !match {
				continue
			}
		}
		score := f.FusedScore
		if hasProfile {
			score *= scoring.DocumentBoost(profile, fields, scoringParams, now)
		}
		candidates = append(candidates, candidate{key: f.Key, score: score, fields: fields})
	}

	orderClauses, err := filterexpr.ParseOrderBy(req.OrderBy)
	if err != nil {
		return nil, simerrors.NewValidation("malformed orderby: "+err.Error(), err)
	}
	sortables := make([]filterexpr.Sortable, len(candidates))
	for i, c := range candidates {
		sortables[i] = filterexpr.Sortable{Key: c.key, Score: c.score, Fields: c.fields}
	}
	filterexpr.SortResults(sortables, orderClauses)

	byKey := make(map[string]candidate, len(candidates))
	for _, c := range candidates {
		byKey[c.key] = c
	}

	total := int64(len(sortables))

	facetResults := make(map[string][]filterexpr.FacetBucket)
	if len(req.Facets) > 0 {
		docsForFacets := make([]map[string]any, len(sortables))
		for i, s := range sortables {
			docsForFacets[i] = s.Fields
		}
		for _, raw := range req.Facets {
			spec, err := filterexpr.ParseFacetSpec(raw)
			if err != nil {
				return nil, simerrors.NewValidation(err.Error(), err)
			}
			buckets, err := filterexpr.ComputeFacet(spec, docsForFacets, fieldsByName)
			if err != nil {
				return nil, err
			}
			facetResults[spec.Field] = buckets
		}
	}

	skip, top := req.Skip, req.Top
	if top <= 0 {
		top = 50
	}
	page := pageOf(sortables, skip, top)

	highlightOpts := filterexpr.HighlightOptions{
		Fields:       req.Highlight,
		PreTag:       orDefault(req.HighlightPreTag, "<em>"),
		PostTag:      orDefault(req.HighlightPostTag, "</em>"),
		MaxFragments: 5,
		FragmentSize: 120,
	}
	terms := queryTerms(req.Search)

	value := make([]ResultDocument, len(page))
	for i, s := range page {
		c := byKey[s.Key]
		fields := selectFields(c.fields, req.Select)
		var highlights map[string][]string
		if len(req.Highlight) > 0 {
			highlights = filterexpr.Highlight(c.fields, terms, highlightOpts)
		}
		value[i] = ResultDocument{Score: c.score, Highlights: highlights, Fields: fields}
	}

	resp := &SearchResponse{Value: value, Coverage: 100.0, Facets: facetResults}
	if req.Count {
		resp.Count = &total
	}

	if wantsDebug(req.Debug) {
		searchableFields := make([]string, 0, len(idx.Fields))
		for _, f := range idx.Fields {
			if f.Searchable {
				searchableFields = append(searchableFields, f.Name)
			}
		}
		sort.Strings(searchableFields)
		resp.Debug = &DebugInfo{
			ParsedQuery:        req.Search,
			ParsedFilter:       req.Filter,
			IsHybridSearch:     isHybrid,
			TextSearchTimeMs:   textElapsed.Milliseconds(),
			VectorSearchTimeMs: vectorElapsed.Milliseconds(),
			TotalTimeMs:        time.Since(start).Milliseconds(),
			TextMatchCount:     len(hits),
			VectorMatchCount:   len(vectorHits),
			ScoreFusionMethod:  fusionMethod,
			SearchableFields:   searchableFields,
		}
	}

	return resp, nil
}

func (e *Engine) runVectorQueries(ctx context.Context, indexName string, queries []VectorQuery) ([]fusion.VectorHit, error) {
	byKey := make(map[string]fusion.VectorHit)
	for _, vq := range queries {
		vector := vq.Vector
		if len(vector) == 0 && vq.Text != "" {
			if e.embedder == nil {
				return nil, simerrors.NewValidation("vectorQueries: no embedder configured for text queries", nil)
			}
			embedded, err := e.embedder.Embed(ctx, vq.Text)
			if err != nil {
				return nil, err
			}
			vector = embedded
		}
		k := vq.K
		if k <= 0 {
			k = 50
		}
		for _, field := range vq.Fields {
			matches, err := e.vectors.Search(ctx, indexName, field, vector, k)
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				if existing, ok := byKey[m.Key]; !ok || m.Score > existing.Score {
					byKey[m.Key] = fusion.VectorHit{Key: m.Key, Score: m.Score}
				}
			}
		}
	}
	out := make([]fusion.VectorHit, 0, len(byKey))
	for _, h := range byKey {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func maxCandidates(req SearchRequest) int {
	n := req.Skip + req.Top
	if n <= 0 {
		n = 1000
	}
	if n < 1000 {
		n = 1000
	}
	return n
}

func pageOf(sortables []filterexpr.Sortable, skip, top int) []filterexpr.Sortable {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(sortables) {
		return nil
	}
	end := skip + top
	if end > len(sortables) {
		end = len(sortables)
	}
	return sortables[skip:end]
}

func selectFields(fields map[string]any, sel []string) map[string]any {
	if len(sel) == 0 {
		return fields
	}
	out := make(map[string]any, len(sel))
	for _, name := range sel {
		if v, ok := fields[name]; ok {
			out[name] = v
		}
	}
	return out
}

func queryTerms(search string) []string {
	return strings.Fields(search)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func wantsDebug(debug []string) bool {
	return len(debug) > 0
}
