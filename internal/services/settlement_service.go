package services

import (
	"context"
	"fmt"

	"tally/internal/core"
)

// SettlementService computes who-owes-whom summaries over stored expenses.
type SettlementService struct {
	store   ExpenseStore
	parties core.Parties
}

func NewSettlementService(store ExpenseStore, parties core.Parties) *SettlementService {
	return &SettlementService{
		store:   store,
		parties: parties,
	}
}

// ForMonth settles one month of the owner's ledger.
func (s *SettlementService) ForMonth(ctx context.Context, ownerID, monthStr string) (core.Settlement, error) {
	month, err := core.ParseMonth(monthStr)
	if err != nil {
		return core.Settlement{}, err
	}

	expenses, err := s.store.ListExpenses(ctx, ownerID, month.String())
	if err != nil {
		return core.Settlement{}, fmt.Errorf("list month expenses: %w", err)
	}

	return core.ComputeSettlement(s.parties, expenses), nil
}
