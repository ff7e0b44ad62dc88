package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/sheets"
)

// ExpenseGetter fetches a single expense. *storage.SQLiteRepository
// satisfies it.
type ExpenseGetter interface {
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
}

// MirrorWorker copies expense changes into an external spreadsheet. It is
// append-only: updates land as a fresh row and deletions are skipped, the
// mirror is an audit trail rather than a replica.
type MirrorWorker struct {
	store    ExpenseGetter
	appender sheets.RowAppender
}

func NewMirrorWorker(store ExpenseGetter, appender sheets.RowAppender) *MirrorWorker {
	return &MirrorWorker{
		store:    store,
		appender: appender,
	}
}

// HandleEvent processes one expense event from the queue.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if msg.Action == amqp.ActionDeleted {
		slog.InfoContext(ctx, "Skipping deleted expense",
			applog.FieldOwner, msg.OwnerID,
			applog.FieldExpenseID, msg.ExpenseID)
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.OwnerID, msg.ExpenseID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume; nothing to mirror.
		slog.WarnContext(ctx, "Expense vanished before mirroring",
			applog.FieldOwner, msg.OwnerID,
			applog.FieldExpenseID, msg.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.appender.AppendExpenseRow(ctx, expense)
	if err != nil {
		return fmt.Errorf("append expense row: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored expense",
		applog.FieldOwner, msg.OwnerID,
		applog.FieldExpenseID, msg.ExpenseID,
		applog.FieldAction, msg.Action,
		"row_ref", ref)

	return nil
}

// Run consumes events until the context is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeExpenseEvents(ctx, func(msg *amqp.ExpenseEventMessage) error {
		return w.HandleEvent(ctx, msg)
	})
}
