package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

// Store is an in-memory RowAppender for tests and local development.
type Store struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ ports.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendExpenseRow stores the expense and returns a synthetic row
// reference.
func (s *Store) AppendExpenseRow(_ context.Context, e core.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, e)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.rows...)
}
