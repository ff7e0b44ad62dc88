package services

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/amqp"
	"tally/internal/core"
)

var testParties = core.Parties{A: "Sean", B: "Buffy"}

// fakeStore is an in-memory ExpenseStore and TemplateStore.
type fakeStore struct {
	mu        sync.Mutex
	expenses  map[string]core.Expense
	templates map[string]core.RecurringTemplate

	failInsert bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		expenses:  make(map[string]core.Expense),
		templates: make(map[string]core.RecurringTemplate),
	}
}

func key(ownerID, id string) string { return ownerID + "/" + id }

func (f *fakeStore) ListExpenses(_ context.Context, ownerID, month string) ([]core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Expense
	for _, e := range f.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if month != "" && e.Date.MonthPrefix() != month {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeStore) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.expenses[key(ownerID, id)]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (f *fakeStore) CreateExpense(_ context.Context, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses[key(e.OwnerID, e.ID)] = e
	return nil
}

func (f *fakeStore) ReplaceExpense(_ context.Context, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[key(e.OwnerID, e.ID)]; !ok {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	f.expenses[key(e.OwnerID, e.ID)] = e
	return nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.expenses[key(ownerID, id)]; !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(f.expenses, key(ownerID, id))
	return nil
}

func (f *fakeStore) InsertMaterialized(_ context.Context, e core.Expense) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return false, fmt.Errorf("disk full")
	}
	for _, existing := range f.expenses {
		if existing.OwnerID == e.OwnerID &&
			existing.RecurringID == e.RecurringID &&
			existing.Date.MonthPrefix() == e.Date.MonthPrefix() {
			return false, nil
		}
	}
	f.expenses[key(e.OwnerID, e.ID)] = e
	return true, nil
}

func (f *fakeStore) ListTemplates(_ context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.RecurringTemplate
	for _, t := range f.templates {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTemplate(_ context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[key(ownerID, id)]
	if !ok {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (f *fakeStore) CreateTemplate(_ context.Context, t core.RecurringTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.templates[key(t.OwnerID, t.ID)] = t
	return nil
}

func (f *fakeStore) ReplaceTemplate(_ context.Context, t core.RecurringTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[key(t.OwnerID, t.ID)]; !ok {
		return fmt.Errorf("recurring template %s: %w", t.ID, core.ErrNotFound)
	}
	f.templates[key(t.OwnerID, t.ID)] = t
	return nil
}

func (f *fakeStore) DeleteTemplate(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[key(ownerID, id)]; !ok {
		return fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	delete(f.templates, key(ownerID, id))
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.ExpenseEventMessage
	err    error
}

func (p *fakePublisher) PublishExpenseEvent(_ context.Context, msg *amqp.ExpenseEventMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, msg)
	return nil
}

func (p *fakePublisher) published() []*amqp.ExpenseEventMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.ExpenseEventMessage(nil), p.events...)
}

// fakeMetrics counts instrumentation calls.
type fakeMetrics struct {
	mu        sync.Mutex
	applied   int
	published map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{published: make(map[string]int)}
}

func (m *fakeMetrics) TemplateApplied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied++
}

func (m *fakeMetrics) EventPublished(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[action]++
}

func (m *fakeMetrics) counts() (int, map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	published := make(map[string]int, len(m.published))
	for k, v := range m.published {
		published[k] = v
	}
	return m.applied, published
}

func mustDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
