package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// UncategorizedLabel is substituted when a transaction's category
// reference cannot be resolved.
const UncategorizedLabel = "Uncategorized"

// DefaultCategoryColor is the neutral fallback color for unresolved or
// colorless categories.
const DefaultCategoryColor = "#9ca3af"

// MaxNotesLen bounds the free-text notes on a transaction.
const MaxNotesLen = 200

type (
	// TxType is the polarity of a transaction or category.
	TxType string

	// Date is the calendar date a transaction is attributed to. It carries
	// no meaningful time-of-day component.
	Date struct {
		time.Time
	}

	// Category is a user-defined label with a fixed income/expense
	// polarity. Polarity is set at creation and never changes.
	Category struct {
		ID    string
		Name  string
		Type  TxType
		Color string
		Icon  Icon
	}

	// CategorySnapshot is the one-level join projection embedded in a
	// transaction row at read time (nil when the reference is dangling).
	CategorySnapshot struct {
		Name  string
		Type  TxType
		Color string
	}

	// Transaction is a single dated money movement. Date is user-editable
	// and distinct from CreatedAt, which only breaks display-order ties.
	Transaction struct {
		ID         string
		Type       TxType
		Amount     Money
		CategoryID string
		Category   *CategorySnapshot
		Date       Date
		Notes      string
		CreatedAt  time.Time
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrMissingCategory = errors.New("missing category")
	ErrNotesTooLong    = errors.New("notes too long (max 200 characters)")
	ErrEmptyName       = errors.New("empty category name")
	ErrEmptyColor      = errors.New("empty category color")
)

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Color) == "" {
		return ErrEmptyColor
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Notes) > MaxNotesLen {
		return ErrNotesTooLong
	}
	return nil
}
