package httpapi

import (
	"net/http"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

func (s *Server) listDataSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"value": s.catalog.ListDataSources()})
}

func (s *Server) getDataSource(w http.ResponseWriter, r *http.Request) {
	def, ok := s.catalog.GetDataSource(pathValue(r, "name"))
	if !ok {
		writeError(w, simerrors.NewNotFound("data source not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) createDataSource(w http.ResponseWriter, r *http.Request) {
	var def model.DataSourceDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, err)
		return
	}
	if _, exists := s.catalog.GetDataSource(def.Name); exists {
		writeError(w, simerrors.NewConflict("data source already exists", nil))
		return
	}
	if err := s.catalog.PutDataSource(def); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, def)
}

func (s *Server) putDataSource(w http.ResponseWriter, r *http.Request) {
	var def model.DataSourceDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeError(w, err)
		return
	}
	def.Name = pathValue(r, "name")
	_, existed := s.catalog.GetDataSource(def.Name)
	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	if err := s.catalog.PutDataSource(def); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, def)
}

func (s *Server) deleteDataSource(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteDataSource(pathValue(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
