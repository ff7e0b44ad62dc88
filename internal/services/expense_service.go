package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	applog "tally/internal/log"
)

// ExpenseService orchestrates expense operations across storage and the
// event stream.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	parties   core.Parties
	newID     func() string
	metrics   Metrics
}

func NewExpenseService(store ExpenseStore, publisher EventPublisher, parties core.Parties) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		parties:   parties,
		newID:     uuid.NewString,
	}
}

// SetMetrics attaches service counters. Call during startup, before the
// service handles traffic.
func (s *ExpenseService) SetMetrics(m Metrics) {
	s.metrics = m
}

// List returns the owner's expenses, optionally narrowed to one month.
func (s *ExpenseService) List(ctx context.Context, ownerID, month string) ([]core.Expense, error) {
	if month != "" {
		if _, err := core.ParseMonth(month); err != nil {
			return nil, err
		}
	}
	return s.store.ListExpenses(ctx, ownerID, month)
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, ownerID, id)
}

// Create saves a new expense. A missing id is generated server-side;
// client-supplied ids are kept so retried requests stay deduplicable.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	if err := e.Validate(s.parties); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, &e, amqp.ActionCreated)
	return e, nil
}

// Update replaces an existing expense in full.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(s.parties); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.ReplaceExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, &e, amqp.ActionUpdated)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}

	s.publish(ctx, &core.Expense{ID: id, OwnerID: ownerID}, amqp.ActionDeleted)
	return nil
}

// publish emits a change event. Failures are logged, never surfaced: the
// write already succeeded and the mirror catches up later.
func (s *ExpenseService) publish(ctx context.Context, e *core.Expense, action string) {
	if s.publisher == nil {
		return
	}

	month := ""
	if !e.Date.IsZero() {
		month = e.Date.MonthPrefix()
	}
	msg := amqp.NewExpenseEventMessage(e.OwnerID, e.ID, action, month)
	if err := s.publisher.PublishExpenseEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			applog.FieldOwner, e.OwnerID,
			applog.FieldExpenseID, e.ID,
			applog.FieldAction, action,
			applog.FieldError, err)
		return
	}
	if s.metrics != nil {
		s.metrics.EventPublished(action)
	}
}
