package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping reports whether the database connection is still usable.
func (r *SQLiteRepository) Ping() error {
	return r.db.Ping()
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = "id, owner_id, date, description, amount_cents, category, paid_by, shared, recurring_id"

// ListExpenses returns the owner's expenses, newest date first. An empty
// month lists everything; otherwise only expenses dated inside that month
// are returned.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string, month string) ([]core.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE owner_id = ?"
	args := []any{ownerID}
	if month != "" {
		query += " AND substr(date, 1, 7) = ?"
		args = append(args, month)
	}
	query += " ORDER BY date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE owner_id = ? AND id = ?",
		ownerID, id)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner_id, id, date, description, amount_cents, category, paid_by, shared, recurring_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.ID, e.Date.String(), e.Description, e.Amount.Cents,
		e.Category, e.PaidBy, e.Shared, nullable(e.RecurringID))
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// ReplaceExpense overwrites an existing expense in place. The row must
// already exist; creation goes through CreateExpense. An edit that would
// give a template a second materialized expense in one month trips the
// unique index and is rejected as an invalid argument.
func (r *SQLiteRepository) ReplaceExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET date = ?, description = ?, amount_cents = ?, category = ?, paid_by = ?, shared = ?, recurring_id = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE owner_id = ? AND id = ?`,
		e.Date.String(), e.Description, e.Amount.Cents, e.Category, e.PaidBy, e.Shared,
		nullable(e.RecurringID), e.OwnerID, e.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: template %s already has an expense in %s", core.ErrInvalidArgument, e.RecurringID, e.Date.MonthPrefix())
		}
		return fmt.Errorf("replace expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// InsertMaterialized writes a materialized recurring expense with an
// at-most-once guarantee per (owner, template, month). The partial unique
// index on expenses absorbs concurrent applies: the loser's INSERT OR
// IGNORE affects zero rows and the function reports false.
func (r *SQLiteRepository) InsertMaterialized(ctx context.Context, e core.Expense) (bool, error) {
	if e.RecurringID == "" {
		return false, fmt.Errorf("%w: materialized expense needs a recurring id", core.ErrInvalidArgument)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO expenses (owner_id, id, date, description, amount_cents, category, paid_by, shared, recurring_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.ID, e.Date.String(), e.Description, e.Amount.Cents,
		e.Category, e.PaidBy, e.Shared, e.RecurringID)
	if err != nil {
		return false, fmt.Errorf("insert materialized expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert materialized expense: %w", err)
	}
	return n > 0, nil
}

const templateColumns = "id, owner_id, description, amount_cents, category, paid_by, shared, day_of_month"

func (r *SQLiteRepository) ListTemplates(ctx context.Context, ownerID string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+templateColumns+" FROM recurring_templates WHERE owner_id = ? ORDER BY day_of_month, id",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return templates, nil
}

func (r *SQLiteRepository) GetTemplate(ctx context.Context, ownerID, id string) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM recurring_templates WHERE owner_id = ? AND id = ?",
		ownerID, id)

	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTemplate(ctx context.Context, t core.RecurringTemplate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (owner_id, id, description, amount_cents, category, paid_by, shared, day_of_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, t.ID, t.Description, t.Amount.Cents, t.Category, t.PaidBy, t.Shared, t.DayOfMonth)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ReplaceTemplate(ctx context.Context, t core.RecurringTemplate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates
		 SET description = ?, amount_cents = ?, category = ?, paid_by = ?, shared = ?, day_of_month = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE owner_id = ? AND id = ?`,
		t.Description, t.Amount.Cents, t.Category, t.PaidBy, t.Shared, t.DayOfMonth,
		t.OwnerID, t.ID)
	if err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring template %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTemplate(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM recurring_templates WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e           core.Expense
		date        string
		recurringID sql.NullString
	)
	err := row.Scan(&e.ID, &e.OwnerID, &date, &e.Description, &e.Amount.Cents,
		&e.Category, &e.PaidBy, &e.Shared, &recurringID)
	if err != nil {
		return core.Expense{}, err
	}

	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	e.RecurringID = recurringID.String
	return e, nil
}

func scanTemplate(row rowScanner) (core.RecurringTemplate, error) {
	var t core.RecurringTemplate
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Amount.Cents,
		&t.Category, &t.PaidBy, &t.Shared, &t.DayOfMonth)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	return t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
