package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"tally/internal/amqp"
	"tally/internal/core"
	applog "tally/internal/log"
)

// ApplyResult reports one materialization pass.
type ApplyResult struct {
	Applied  int            `json:"applied"`
	Expenses []core.Expense `json:"expenses"`
}

// RecurringService manages recurring templates and materializes them into
// monthly expenses.
type RecurringService struct {
	templates TemplateStore
	expenses  ExpenseStore
	publisher EventPublisher
	parties   core.Parties
	newID     func() string
	metrics   Metrics

	// Collapses concurrent applies for the same owner and month; the
	// database unique index is the correctness backstop, this just avoids
	// redundant work.
	applies singleflight.Group
}

func NewRecurringService(templates TemplateStore, expenses ExpenseStore, publisher EventPublisher, parties core.Parties) *RecurringService {
	return &RecurringService{
		templates: templates,
		expenses:  expenses,
		publisher: publisher,
		parties:   parties,
		newID:     uuid.NewString,
	}
}

// SetMetrics attaches service counters. Call during startup, before the
// service handles traffic.
func (s *RecurringService) SetMetrics(m Metrics) {
	s.metrics = m
}

func (s *RecurringService) List(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	return s.templates.ListTemplates(ctx, ownerID)
}

func (s *RecurringService) Get(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	return s.templates.GetTemplate(ctx, ownerID, id)
}

func (s *RecurringService) Create(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if t.ID == "" {
		t.ID = s.newID()
	}
	if err := t.Validate(s.parties); err != nil {
		return core.RecurringTemplate{}, err
	}

	if err := s.templates.CreateTemplate(ctx, t); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

func (s *RecurringService) Update(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if err := t.Validate(s.parties); err != nil {
		return core.RecurringTemplate{}, err
	}

	if err := s.templates.ReplaceTemplate(ctx, t); err != nil {
		return core.RecurringTemplate{}, err
	}
	return t, nil
}

// Delete removes a template. Expenses already materialized from it keep
// their recurringId reference.
func (s *RecurringService) Delete(ctx context.Context, ownerID, id string) error {
	return s.templates.DeleteTemplate(ctx, ownerID, id)
}

// Apply materializes all of the owner's templates into the given month.
// Applying the same month again is a no-op for templates that already
// produced an expense there; conditional inserts keep the guarantee under
// concurrent requests.
func (s *RecurringService) Apply(ctx context.Context, ownerID, monthStr string) (ApplyResult, error) {
	month, err := core.ParseMonth(monthStr)
	if err != nil {
		return ApplyResult{}, err
	}

	key := ownerID + "|" + month.String()
	v, err, _ := s.applies.Do(key, func() (any, error) {
		return s.apply(ctx, ownerID, month)
	})
	if err != nil {
		return ApplyResult{}, err
	}
	return v.(ApplyResult), nil
}

func (s *RecurringService) apply(ctx context.Context, ownerID string, month core.Month) (ApplyResult, error) {
	templates, err := s.templates.ListTemplates(ctx, ownerID)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("list templates: %w", err)
	}

	existing, err := s.expenses.ListExpenses(ctx, ownerID, month.String())
	if err != nil {
		return ApplyResult{}, fmt.Errorf("list month expenses: %w", err)
	}

	candidates := core.MaterializeMonth(templates, existing, month, s.newID)

	result := ApplyResult{Expenses: []core.Expense{}}
	for _, e := range candidates {
		inserted, err := s.expenses.InsertMaterialized(ctx, e)
		if err != nil {
			return ApplyResult{}, fmt.Errorf("materialize template %s: %w", e.RecurringID, err)
		}
		if !inserted {
			// A concurrent apply won the race for this template.
			continue
		}
		result.Applied++
		result.Expenses = append(result.Expenses, e)
		if s.metrics != nil {
			s.metrics.TemplateApplied()
		}
		s.publishApplied(ctx, e, month)
	}

	slog.InfoContext(ctx, "Applied recurring templates",
		applog.FieldOwner, ownerID,
		applog.FieldMonth, month.String(),
		applog.FieldApplied, result.Applied)

	return result, nil
}

func (s *RecurringService) publishApplied(ctx context.Context, e core.Expense, month core.Month) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseEventMessage(e.OwnerID, e.ID, amqp.ActionApplied, month.String())
	if err := s.publisher.PublishExpenseEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish apply event",
			applog.FieldOwner, e.OwnerID,
			applog.FieldExpenseID, e.ID,
			applog.FieldError, err)
		return
	}
	if s.metrics != nil {
		s.metrics.EventPublished(amqp.ActionApplied)
	}
}
