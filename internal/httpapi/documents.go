package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/localsearch/simulator/internal/docstore"
	"github.com/localsearch/simulator/internal/engine"
	"github.com/localsearch/simulator/internal/indexerrun"
	"github.com/localsearch/simulator/internal/simerrors"
	"github.com/localsearch/simulator/internal/textindex"
)

// searchRequestBody is the POST /indexes/{name}/docs/search wire
// shape, per §6.3.
type searchRequestBody struct {
	Search            string        `json:"search"`
	QueryType         string        `json:"queryType"`
	SearchMode        string        `json:"searchMode"`
	Filter            string        `json:"filter"`
	OrderBy           string        `json:"orderby"`
	Select            string        `json:"select"`
	Top               int           `json:"top"`
	Skip              int           `json:"skip"`
	Count             bool          `json:"count"`
	Facets            []string      `json:"facets"`
	Highlight         string        `json:"highlight"`
	HighlightPreTag   string        `json:"highlightPreTag"`
	HighlightPostTag  string        `json:"highlightPostTag"`
	ScoringProfile    string        `json:"scoringProfile"`
	ScoringParameters []string      `json:"scoringParameters"`
	VectorQueries     []vectorQuery `json:"vectorQueries"`
	VectorFilterMode  string        `json:"vectorFilterMode"`
	FusionMethod      string        `json:"fusionMethod"`
	TextWeight        float64       `json:"textWeight"`
	VectorWeight      float64       `json:"vectorWeight"`
	RRFK              int           `json:"rrfK"`
	Debug             string        `json:"debug"`
}

type vectorQuery struct {
	Vector []float32 `json:"vector"`
	Text   string    `json:"text"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if r.Method == http.MethodPost {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, err)
			return
		}
	} else {
		body = searchRequestBodyFromQuery(r)
	}

	req := engine.SearchRequest{
		Search:            body.Search,
		Mode:              textindex.SearchMode(orDefault(body.SearchMode, "any")),
		QueryType:         textindex.QueryType(orDefault(body.QueryType, "simple")),
		Filter:            body.Filter,
		OrderBy:           body.OrderBy,
		Select:            splitCSV(body.Select),
		Top:               body.Top,
		Skip:              body.Skip,
		Count:             body.Count,
		Facets:            body.Facets,
		Highlight:         splitCSV(body.Highlight),
		HighlightPreTag:   body.HighlightPreTag,
		HighlightPostTag:  body.HighlightPostTag,
		ScoringProfile:    body.ScoringProfile,
		ScoringParameters: body.ScoringParameters,
		Hybrid: engine.HybridOptions{
			FusionMethod: body.FusionMethod,
			TextWeight:   body.TextWeight,
			VectorWeight: body.VectorWeight,
			RRFK:         body.RRFK,
		},
		Debug: splitCSV(body.Debug),
	}
	for _, vq := range body.VectorQueries {
		req.VectorQueries = append(req.VectorQueries, engine.VectorQuery{
			Vector: vq.Vector,
			Text:   vq.Text,
			Fields: splitCSV(vq.Fields),
			K:      vq.K,
		})
	}

	resp, err := s.engine.Search(r.Context(), pathValue(r, "name"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func searchRequestBodyFromQuery(r *http.Request) searchRequestBody {
	q := r.URL.Query()
	top, _ := strconv.Atoi(q.Get("$top"))
	skip, _ := strconv.Atoi(q.Get("$skip"))
	count := q.Get("$count") == "true"
	var facets []string
	for _, f := range q["facet"] {
		facets = append(facets, f)
	}
	return searchRequestBody{
		Search:           q.Get("search"),
		QueryType:        q.Get("queryType"),
		SearchMode:       q.Get("searchMode"),
		Filter:           q.Get("$filter"),
		OrderBy:          q.Get("$orderby"),
		Select:           q.Get("$select"),
		Top:              top,
		Skip:             skip,
		Count:            count,
		Facets:           facets,
		Highlight:        q.Get("highlight"),
		HighlightPreTag:  q.Get("highlightPreTag"),
		HighlightPostTag: q.Get("highlightPostTag"),
		ScoringProfile:   q.Get("scoringProfile"),
		Debug:            q.Get("debug"),
	}
}

// bulkDocuments commits a batch of upload/merge/mergeOrUpload/delete
// actions, per §6.2's per-item status-code contract.
func (s *Server) bulkDocuments(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Value []map[string]any `json:"value"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	index := pathValue(r, "name")
	idx, ok := s.catalog.GetIndex(index)
	if !ok {
		writeError(w, simerrors.NewNotFound("index "+index+" does not exist", nil))
		return
	}
	keyField, err := idx.KeyField()
	if err != nil {
		writeError(w, simerrors.NewConfiguration(err.Error(), err))
		return
	}

	results := make([]docstore.ActionResult, 0, len(body.Value))
	for _, item := range body.Value {
		action, _ := item["@search.action"].(string)
		if action == "" {
			action = "upload"
		}
		fields := make(map[string]any, len(item))
		for k, v := range item {
			if k == "@search.action" {
				continue
			}
			fields[k] = v
		}
		key, _ := fields[keyField.Name].(string)
		if !indexerrun.ValidKey(key) {
			msg := "document key is missing or contains invalid characters"
			results = append(results, docstore.ActionResult{Key: key, Status: false, ErrorMessage: &msg, StatusCode: 400})
			continue
		}
		results = append(results, s.engine.Apply(r.Context(), index, docstore.Action(action), key, fields))
	}

	writeJSON(w, http.StatusOK, map[string]any{"value": results})
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
