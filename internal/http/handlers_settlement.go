package http

import (
	"net/http"

	"tally/internal/core"
)

type settlementResponse struct {
	Month string `json:"month"`
	core.Settlement
	Summary string `json:"summary"`
}

func (s *Server) handleSettlement(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFromContext(r.Context())

	month, err := requiredMonth(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	settlement, err := s.settlement.ForMonth(r.Context(), owner, month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, settlementResponse{
		Month:      month,
		Settlement: settlement,
		Summary:    settlement.Summary(),
	})
}
