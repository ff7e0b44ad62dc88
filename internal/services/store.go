package services

import (
	"context"

	"tally/internal/amqp"
	"tally/internal/core"
)

// ExpenseStore is the persistence surface the expense and settlement
// services need. *storage.SQLiteRepository satisfies it.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, ownerID string, month string) ([]core.Expense, error)
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) error
	ReplaceExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, ownerID, id string) error
	InsertMaterialized(ctx context.Context, e core.Expense) (bool, error)
}

// TemplateStore is the persistence surface for recurring templates.
type TemplateStore interface {
	ListTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error)
	GetTemplate(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error)
	CreateTemplate(ctx context.Context, t core.RecurringTemplate) error
	ReplaceTemplate(ctx context.Context, t core.RecurringTemplate) error
	DeleteTemplate(ctx context.Context, ownerID, id string) error
}

// EventPublisher emits expense change events. A nil publisher disables
// eventing without changing service behavior.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error
}

// Metrics receives service-level counters. *metrics.Metrics satisfies it;
// a nil value disables instrumentation.
type Metrics interface {
	TemplateApplied()
	EventPublished(action string)
}
