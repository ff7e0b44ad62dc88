package sheets

import (
	"context"

	"tally/internal/core"
)

// RowAppender mirrors an expense into an external spreadsheet row.
type RowAppender interface {
	AppendExpenseRow(ctx context.Context, e core.Expense) (rowRef string, err error)
}
