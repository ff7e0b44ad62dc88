package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	templates, err := s.recurring.List(r.Context(), owner)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if templates == nil {
		templates = []core.RecurringTemplate{}
	}
	respondJSON(w, http.StatusOK, templates)
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	template, err := s.recurring.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, template)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	var template core.RecurringTemplate
	if err := decodeJSON(r, &template); err != nil {
		respondError(w, r, err)
		return
	}
	template.OwnerID = owner

	created, err := s.recurring.Create(r.Context(), template)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	var template core.RecurringTemplate
	if err := decodeJSON(r, &template); err != nil {
		respondError(w, r, err)
		return
	}
	template.ID = chi.URLParam(r, "id")
	template.OwnerID = owner

	updated, err := s.recurring.Update(r.Context(), template)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	if err := s.recurring.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleApplyRecurring(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	month, err := requiredMonth(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.recurring.Apply(r.Context(), owner, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
