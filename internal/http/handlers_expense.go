package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	expenses, err := s.expenses.List(r.Context(), owner, r.URL.Query().Get("month"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	expense, err := s.expenses.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	var expense core.Expense
	if err := decodeJSON(r, &expense); err != nil {
		respondError(w, r, err)
		return
	}
	expense.OwnerID = owner

	created, err := s.expenses.Create(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	var expense core.Expense
	if err := decodeJSON(r, &expense); err != nil {
		respondError(w, r, err)
		return
	}
	// Path wins over any id in the body.
	expense.ID = chi.URLParam(r, "id")
	expense.OwnerID = owner

	updated, err := s.expenses.Update(r.Context(), expense)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	if err := s.expenses.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func requiredMonth(r *http.Request) (string, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return "", fmt.Errorf("%w: month parameter required", core.ErrInvalidArgument)
	}
	return month, nil
}
