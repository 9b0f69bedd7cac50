package httpapi

import (
	"net/http"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

func (s *Server) listIndexes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"value": s.catalog.ListIndexes()})
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	idx, ok := s.catalog.GetIndex(pathValue(r, "name"))
	if !ok {
		writeError(w, simerrors.NewNotFound("index not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) createIndex(w http.ResponseWriter, r *http.Request) {
	var idx model.Index
	if err := decodeJSON(r, &idx); err != nil {
		writeError(w, err)
		return
	}
	if _, exists := s.catalog.GetIndex(idx.Name); exists {
		writeError(w, simerrors.NewConflict("index already exists", nil))
		return
	}
	s.provisionAndRespond(w, idx, http.StatusCreated)
}

func (s *Server) putIndex(w http.ResponseWriter, r *http.Request) {
	var idx model.Index
	if err := decodeJSON(r, &idx); err != nil {
		writeError(w, err)
		return
	}
	idx.Name = pathValue(r, "name")
	_, existed := s.catalog.GetIndex(idx.Name)
	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	s.provisionAndRespond(w, idx, status)
}

func (s *Server) provisionAndRespond(w http.ResponseWriter, idx model.Index, status int) {
	if err := s.catalog.PutIndex(idx); err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.ProvisionIndex(idx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, idx)
}

func (s *Server) deleteIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteIndex(pathValue(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
