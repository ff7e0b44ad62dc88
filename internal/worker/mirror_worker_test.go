package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets/memory"
)

type fakeGetter struct {
	expenses map[string]core.Expense
}

func (f *fakeGetter) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	e, ok := f.expenses[ownerID+"/"+id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func testExpense() core.Expense {
	return core.Expense{
		ID:          "exp-1",
		OwnerID:     "owner-1",
		Date:        core.NewDate(2026, 1, 15),
		Description: "groceries",
		Amount:      core.Money{Cents: 4200},
		Category:    "Groceries",
		PaidBy:      "Sean",
		Shared:      true,
	}
}

func TestMirrorWorker_AppendsRow(t *testing.T) {
	store := &fakeGetter{expenses: map[string]core.Expense{
		"owner-1/exp-1": testExpense(),
	}}
	mirror := memory.New()
	w := NewMirrorWorker(store, mirror)

	msg := amqp.NewExpenseEventMessage("owner-1", "exp-1", amqp.ActionCreated, "2026-01")
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	rows := mirror.Rows()
	if len(rows) != 1 {
		t.Fatalf("mirrored %d rows, want 1", len(rows))
	}
	if rows[0].ID != "exp-1" || rows[0].Amount.Cents != 4200 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestMirrorWorker_SkipsDeletedAction(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(&fakeGetter{}, mirror)

	msg := amqp.NewExpenseEventMessage("owner-1", "exp-1", amqp.ActionDeleted, "2026-01")
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(mirror.Rows()) != 0 {
		t.Error("deleted expenses should not be mirrored")
	}
}

func TestMirrorWorker_SkipsVanishedExpense(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(&fakeGetter{expenses: map[string]core.Expense{}}, mirror)

	msg := amqp.NewExpenseEventMessage("owner-1", "gone", amqp.ActionCreated, "2026-01")
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleEvent should tolerate vanished expenses, got %v", err)
	}
	if len(mirror.Rows()) != 0 {
		t.Error("vanished expense should not be mirrored")
	}
}

type failingAppender struct{}

func (failingAppender) AppendExpenseRow(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestMirrorWorker_SurfacesAppendFailure(t *testing.T) {
	store := &fakeGetter{expenses: map[string]core.Expense{
		"owner-1/exp-1": testExpense(),
	}}
	w := NewMirrorWorker(store, failingAppender{})

	msg := amqp.NewExpenseEventMessage("owner-1", "exp-1", amqp.ActionCreated, "2026-01")
	if err := w.HandleEvent(context.Background(), msg); err == nil {
		t.Error("append failures should surface so the delivery is requeued")
	}
}
