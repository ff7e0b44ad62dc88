package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
)

func validTemplate(id string, day int) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:          id,
		OwnerID:     "owner-1",
		Description: "rent",
		Amount:      core.Money{Cents: 120000},
		Category:    "Housing",
		PaidBy:      "Buffy",
		Shared:      true,
		DayOfMonth:  day,
	}
}

func TestRecurringService_CRUD(t *testing.T) {
	svc := NewRecurringService(newFakeStore(), newFakeStore(), nil, testParties)
	ctx := context.Background()

	created, err := svc.Create(ctx, validTemplate("", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create should generate an id")
	}

	created.Amount.Cents = 125000
	if _, err := svc.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := svc.Get(ctx, "owner-1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Amount.Cents != 125000 {
		t.Errorf("Get = %+v", got)
	}

	list, err := svc.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List has %d templates, want 1", len(list))
	}

	if err := svc.Delete(ctx, "owner-1", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "owner-1", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestRecurringService_CreateRejectsInvalid(t *testing.T) {
	svc := NewRecurringService(newFakeStore(), newFakeStore(), nil, testParties)

	tpl := validTemplate("", 0)
	if _, err := svc.Create(context.Background(), tpl); !errors.Is(err, core.ErrInvalidDayOfMonth) {
		t.Errorf("Create = %v, want ErrInvalidDayOfMonth", err)
	}
}

func TestRecurringService_Apply(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewRecurringService(store, store, pub, testParties)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, validTemplate("tpl-2", 15)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Apply(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Applied != 2 || len(result.Expenses) != 2 {
		t.Fatalf("Apply = %+v, want 2 applied", result)
	}

	stored, err := store.ListExpenses(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("stored %d expenses, want 2", len(stored))
	}

	events := pub.published()
	if len(events) != 2 {
		t.Fatalf("published %d events, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Action != amqp.ActionApplied || ev.Month != "2026-01" {
			t.Errorf("event = %+v", ev)
		}
	}
}

func TestRecurringService_ApplyCountsMetrics(t *testing.T) {
	store := newFakeStore()
	m := newFakeMetrics()
	svc := NewRecurringService(store, store, &fakePublisher{}, testParties)
	svc.SetMetrics(m)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, validTemplate("tpl-2", 15)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Apply(ctx, "owner-1", "2026-01"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	applied, published := m.counts()
	if applied != 2 {
		t.Errorf("applied counter = %d, want 2", applied)
	}
	if published[amqp.ActionApplied] != 2 {
		t.Errorf("published[%s] = %d, want 2", amqp.ActionApplied, published[amqp.ActionApplied])
	}

	// A repeated apply materializes nothing and counts nothing.
	if _, err := svc.Apply(ctx, "owner-1", "2026-01"); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	applied, published = m.counts()
	if applied != 2 || published[amqp.ActionApplied] != 2 {
		t.Errorf("counters after idempotent apply = (%d, %v), want unchanged", applied, published)
	}
}

func TestRecurringService_ApplyIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewRecurringService(store, store, nil, testParties)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.Apply(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	if first.Applied != 1 {
		t.Fatalf("first Apply = %+v, want 1 applied", first)
	}

	second, err := svc.Apply(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if second.Applied != 0 || len(second.Expenses) != 0 {
		t.Errorf("second Apply = %+v, want 0 applied", second)
	}

	stored, _ := store.ListExpenses(ctx, "owner-1", "2026-01")
	if len(stored) != 1 {
		t.Errorf("stored %d expenses, want 1", len(stored))
	}
}

func TestRecurringService_ApplyConcurrent(t *testing.T) {
	store := newFakeStore()
	svc := NewRecurringService(store, store, nil, testParties)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Apply(ctx, "owner-1", "2026-01"); err != nil {
				t.Errorf("Apply: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := store.ListExpenses(ctx, "owner-1", "2026-01")
	if len(stored) != 1 {
		t.Errorf("stored %d expenses after concurrent applies, want 1", len(stored))
	}
}

func TestRecurringService_ApplyDifferentMonths(t *testing.T) {
	store := newFakeStore()
	svc := NewRecurringService(store, store, nil, testParties)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 31)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	jan, err := svc.Apply(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("january Apply: %v", err)
	}
	feb, err := svc.Apply(ctx, "owner-1", "2026-02")
	if err != nil {
		t.Fatalf("february Apply: %v", err)
	}
	if jan.Applied != 1 || feb.Applied != 1 {
		t.Fatalf("applied = (%d, %d), want (1, 1)", jan.Applied, feb.Applied)
	}
	if feb.Expenses[0].Date.String() != "2026-02-28" {
		t.Errorf("february date = %s, want clamped 2026-02-28", feb.Expenses[0].Date)
	}
}

func TestRecurringService_ApplyInvalidMonth(t *testing.T) {
	svc := NewRecurringService(newFakeStore(), newFakeStore(), nil, testParties)

	if _, err := svc.Apply(context.Background(), "owner-1", ""); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("Apply = %v, want ErrInvalidMonth", err)
	}
	if _, err := svc.Apply(context.Background(), "owner-1", "2026/01"); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("Apply = %v, want ErrInvalidMonth", err)
	}
}

func TestRecurringService_ApplyStoreFailure(t *testing.T) {
	store := newFakeStore()
	svc := NewRecurringService(store, store, nil, testParties)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validTemplate("tpl-1", 1)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	store.failInsert = true
	if _, err := svc.Apply(ctx, "owner-1", "2026-01"); err == nil {
		t.Error("Apply should surface insert failures")
	}

	// A later retry converges once the store recovers.
	store.failInsert = false
	result, err := svc.Apply(ctx, "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("retry Apply: %v", err)
	}
	if result.Applied != 1 {
		t.Errorf("retry Apply = %+v, want 1 applied", result)
	}
}

func TestRecurringService_ApplyEmptyResultShape(t *testing.T) {
	svc := NewRecurringService(newFakeStore(), newFakeStore(), nil, testParties)

	result, err := svc.Apply(context.Background(), "owner-1", "2026-01")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Applied != 0 {
		t.Errorf("Applied = %d, want 0", result.Applied)
	}
	if result.Expenses == nil {
		t.Error("Expenses should be an empty slice, not nil")
	}
}
