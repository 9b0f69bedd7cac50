package httpapi

import (
	"net/http"

	"github.com/localsearch/simulator/internal/filedatasource"
	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

func (s *Server) listIndexers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"value": s.catalog.ListIndexers()})
}

func (s *Server) getIndexer(w http.ResponseWriter, r *http.Request) {
	def, ok := s.catalog.GetIndexer(pathValue(r, "name"))
	if !ok {
		writeError(w, simerrors.NewNotFound("indexer not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) createIndexer(w http.ResponseWriter, r *http.Request) {
	var def model.IndexerDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, err)
		return
	}
	if _, exists := s.catalog.GetIndexer(def.Name); exists {
		writeError(w, simerrors.NewConflict("indexer already exists", nil))
		return
	}
	if err := s.catalog.PutIndexer(def); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) putIndexer(w http.ResponseWriter, r *http.Request) {
	var def model.IndexerDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, err)
		return
	}
	def.Name = pathValue(r, "name")
	_, existed := s.catalog.GetIndexer(def.Name)
	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	if err := s.catalog.PutIndexer(def); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, def)
}

func (s *Server) deleteIndexer(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteIndexer(pathValue(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runIndexer(w http.ResponseWriter, r *http.Request) {
	name := pathValue(r, "name")
	def, ok := s.catalog.GetIndexer(name)
	if !ok {
		writeError(w, simerrors.NewNotFound("indexer not found", nil))
		return
	}
	var set *model.Skillset
	if def.SkillsetName != "" {
		if ss, ok := s.catalog.GetSkillset(def.SkillsetName); ok {
			set = &ss
		}
	}
	ctx := filedatasource.WithIndexerName(r.Context(), name)
	result, err := s.runner.Run(ctx, def, set)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (s *Server) resetIndexer(w http.ResponseWriter, r *http.Request) {
	name := pathValue(r, "name")
	if _, ok := s.catalog.GetIndexer(name); !ok {
		writeError(w, simerrors.NewNotFound("indexer not found", nil))
		return
	}
	if err := s.runner.Reset(name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) indexerStatus(w http.ResponseWriter, r *http.Request) {
	name := pathValue(r, "name")
	if _, ok := s.catalog.GetIndexer(name); !ok {
		writeError(w, simerrors.NewNotFound("indexer not found", nil))
		return
	}
	state, err := s.runner.Status(name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
