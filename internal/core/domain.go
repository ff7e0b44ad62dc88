package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")

	ErrInvalidAmount     = fmt.Errorf("%w: amount must not be negative", ErrInvalidArgument)
	ErrInvalidDate       = fmt.Errorf("%w: date must be a valid YYYY-MM-DD date", ErrInvalidArgument)
	ErrInvalidMonth      = fmt.Errorf("%w: month must be in YYYY-MM format", ErrInvalidArgument)
	ErrEmptyDescription  = fmt.Errorf("%w: empty description", ErrInvalidArgument)
	ErrInvalidCategory   = fmt.Errorf("%w: unknown category", ErrInvalidArgument)
	ErrInvalidPayer      = fmt.Errorf("%w: paidBy must be one of the two configured parties", ErrInvalidArgument)
	ErrInvalidDayOfMonth = fmt.Errorf("%w: dayOfMonth must be between 1 and 31", ErrInvalidArgument)
)

// Parties holds the two fixed party names the whole ledger is scoped to.
// The settlement formula is symmetric over the pair; nothing below hardcodes
// the actual names.
type Parties struct {
	A string
	B string
}

func (p Parties) Validate() error {
	if strings.TrimSpace(p.A) == "" || strings.TrimSpace(p.B) == "" {
		return fmt.Errorf("%w: both party names must be set", ErrInvalidArgument)
	}
	if p.A == p.B {
		return fmt.Errorf("%w: party names must differ", ErrInvalidArgument)
	}
	return nil
}

// Contains reports whether name is one of the two parties.
func (p Parties) Contains(name string) bool {
	return name == p.A || name == p.B
}

// Other returns the counterpart of name. The caller must pass one of the two
// configured names.
func (p Parties) Other(name string) string {
	if name == p.A {
		return p.B
	}
	return p.A
}

// Categories is the fixed expense taxonomy.
var Categories = []string{
	"Housing",
	"Utilities",
	"Credit Cards / Bills",
	"Groceries",
	"Dining",
	"Transportation",
	"Entertainment",
	"Other",
}

func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Date is a calendar day without time-of-day. The wire and storage format is
// YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. time.Parse rejects impossible days
// (e.g. 2026-02-30), so no extra range checks are needed.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthPrefix returns the date's YYYY-MM prefix.
func (d Date) MonthPrefix() string {
	return d.Format("2006-01")
}

// InMonth reports whether the date falls inside m.
func (d Date) InMonth(m Month) bool {
	return d.Year() == m.Year && int(d.Time.Month()) == m.Month
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Month identifies one settlement period.
type Month struct {
	Year  int
	Month int
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: t.Year(), Month: int(t.Month())}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// Days returns the number of days in the month, leap-year aware.
func (m Month) Days() int {
	return time.Date(m.Year, time.Month(m.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateAt returns the given day within the month, clamped to the month's
// actual length (day 31 in February becomes the 28th or 29th).
func (m Month) DateAt(day int) Date {
	if max := m.Days(); day > max {
		day = max
	}
	if day < 1 {
		day = 1
	}
	return NewDate(m.Year, m.Month, day)
}

// Expense is one dated expense record, owned by a single account.
// RecurringID back-references the template that materialized it; it survives
// template deletion as an orphaned reference.
type Expense struct {
	ID          string `json:"id"`
	OwnerID     string `json:"-"`
	Date        Date   `json:"date"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	Category    string `json:"category"`
	PaidBy      string `json:"paidBy"`
	Shared      bool   `json:"shared"`
	RecurringID string `json:"recurringId,omitempty"`
}

func (e Expense) Validate(p Parties) error {
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidArgument)
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !ValidCategory(e.Category) {
		return ErrInvalidCategory
	}
	if !p.Contains(e.PaidBy) {
		return ErrInvalidPayer
	}
	return nil
}

// RecurringTemplate is a reusable monthly expense pattern. DayOfMonth is
// clamped to the target month's length at materialization time, not here.
type RecurringTemplate struct {
	ID          string `json:"id"`
	OwnerID     string `json:"-"`
	Description string `json:"description"`
	Amount      Money  `json:"amount"`
	Category    string `json:"category"`
	PaidBy      string `json:"paidBy"`
	Shared      bool   `json:"shared"`
	DayOfMonth  int    `json:"dayOfMonth"`
}

func (t RecurringTemplate) Validate(p Parties) error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidArgument)
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if !p.Contains(t.PaidBy) {
		return ErrInvalidPayer
	}
	if t.DayOfMonth < 1 || t.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	return nil
}
