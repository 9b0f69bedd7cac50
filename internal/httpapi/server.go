// Package httpapi exposes the simulator's control-plane and data-plane
// operations over HTTP, per spec §6.1: index/indexer/data-source/skillset
// CRUD, document search and bulk upload, and indexer run/reset/status.
// There is no third-party router in the example corpus attested for a
// project of this shape, so routing uses the standard library's
// net/http.ServeMux with Go's method+wildcard patterns (see DESIGN.md).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/localsearch/simulator/internal/catalog"
	"github.com/localsearch/simulator/internal/engine"
	"github.com/localsearch/simulator/internal/indexerrun"
	"github.com/localsearch/simulator/internal/simconfig"
	"github.com/localsearch/simulator/internal/simerrors"
)

// Server is the composition root for the HTTP surface: it wires the
// catalog, search engine, and indexer runner to one set of routes.
type Server struct {
	catalog *catalog.Catalog
	engine  *engine.Engine
	runner  *indexerrun.Runner
	auth    *authenticator
	log     *slog.Logger
}

// NewServer builds a Server over already-constructed collaborators.
func NewServer(cat *catalog.Catalog, eng *engine.Engine, runner *indexerrun.Runner, cfg *simconfig.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{catalog: cat, engine: eng, runner: runner, auth: newAuthenticator(cfg), log: log}
}

// Routes builds the handler tree for §6.1's resource/verb table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /indexes", s.requireLevel(LevelDataReader, s.listIndexes))
	mux.HandleFunc("POST /indexes", s.requireLevel(LevelServiceContributor, s.createIndex))
	mux.HandleFunc("GET /indexes/{name}", s.requireLevel(LevelDataReader, s.getIndex))
	mux.HandleFunc("PUT /indexes/{name}", s.requireLevel(LevelServiceContributor, s.putIndex))
	mux.HandleFunc("DELETE /indexes/{name}", s.requireLevel(LevelServiceContributor, s.deleteIndex))

	mux.HandleFunc("GET /indexes/{name}/docs", s.requireLevel(LevelDataReader, s.search))
	mux.HandleFunc("POST /indexes/{name}/docs/search", s.requireLevel(LevelDataReader, s.search))
	mux.HandleFunc("POST /indexes/{name}/docs/index", s.requireLevel(LevelDataContributor, s.bulkDocuments))

	mux.HandleFunc("GET /indexers", s.requireLevel(LevelServiceContributor, s.listIndexers))
	mux.HandleFunc("POST /indexers", s.requireLevel(LevelServiceContributor, s.createIndexer))
	mux.HandleFunc("GET /indexers/{name}", s.requireLevel(LevelServiceContributor, s.getIndexer))
	mux.HandleFunc("PUT /indexers/{name}", s.requireLevel(LevelServiceContributor, s.putIndexer))
	mux.HandleFunc("DELETE /indexers/{name}", s.requireLevel(LevelServiceContributor, s.deleteIndexer))
	mux.HandleFunc("POST /indexers/{name}/run", s.requireLevel(LevelServiceContributor, s.runIndexer))
	mux.HandleFunc("POST /indexers/{name}/reset", s.requireLevel(LevelServiceContributor, s.resetIndexer))
	mux.HandleFunc("GET /indexers/{name}/status", s.requireLevel(LevelDataReader, s.indexerStatus))

	mux.HandleFunc("GET /datasources", s.requireLevel(LevelServiceContributor, s.listDataSources))
	mux.HandleFunc("POST /datasources", s.requireLevel(LevelServiceContributor, s.createDataSource))
	mux.HandleFunc("GET /datasources/{name}", s.requireLevel(LevelServiceContributor, s.getDataSource))
	mux.HandleFunc("PUT /datasources/{name}", s.requireLevel(LevelServiceContributor, s.putDataSource))
	mux.HandleFunc("DELETE /datasources/{name}", s.requireLevel(LevelServiceContributor, s.deleteDataSource))

	mux.HandleFunc("GET /skillsets", s.requireLevel(LevelServiceContributor, s.listSkillsets))
	mux.HandleFunc("POST /skillsets", s.requireLevel(LevelServiceContributor, s.createSkillset))
	mux.HandleFunc("GET /skillsets/{name}", s.requireLevel(LevelServiceContributor, s.getSkillset))
	mux.HandleFunc("PUT /skillsets/{name}", s.requireLevel(LevelServiceContributor, s.putSkillset))
	mux.HandleFunc("DELETE /skillsets/{name}", s.requireLevel(LevelServiceContributor, s.deleteSkillset))

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps a SimError (or any error, as a 500) to the §7 status
// code and a {"error":{"code","message"}} body.
func writeError(w http.ResponseWriter, err error) {
	status := simerrors.GetHTTPStatus(err)
	code := string(simerrors.GetKind(err))
	if code == "" {
		code = "Internal"
	}
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
		},
	})
}

func pathValue(r *http.Request, name string) string {
	return r.PathValue(name)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		return simerrors.NewValidation("malformed request body: "+err.Error(), err)
	}
	return nil
}
