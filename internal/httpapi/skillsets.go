package httpapi

import (
	"net/http"

	"github.com/localsearch/simulator/internal/model"
	"github.com/localsearch/simulator/internal/simerrors"
)

func (s *Server) listSkillsets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"value": s.catalog.ListSkillsets()})
}

func (s *Server) getSkillset(w http.ResponseWriter, r *http.Request) {
	set, ok := s.catalog.GetSkillset(pathValue(r, "name"))
	if !ok {
		writeError(w, simerrors.NewNotFound("skillset not found", nil))
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) createSkillset(w http.ResponseWriter, r *http.Request) {
	var set model.Skillset
	if err := decodeJSON(r, &set); err != nil {
		writeError(w, err)
		return
	}
	if _, exists := s.catalog.GetSkillset(set.Name); exists {
		writeError(w, simerrors.NewConflict("skillset already exists", nil))
		return
	}
	if err := s.catalog.PutSkillset(set); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) putSkillset(w http.ResponseWriter, r *http.Request) {
	var set model.Skillset
	if err := decodeJSON(r, &set); err != nil {
		writeError(w, err)
		return
	}
	set.Name = pathValue(r, "name")
	_, existed := s.catalog.GetSkillset(set.Name)
	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	if err := s.catalog.PutSkillset(set); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, set)
}

func (s *Server) deleteSkillset(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteSkillset(pathValue(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
