// Package sheets defines the outbound port for the transaction ledger export
// and its row format.
package sheets

import (
	"context"
	"time"

	"myfinance/internal/core"
)

// ExportRow is one appended ledger line. Amounts are pre-formatted so the
// sheet reads like a statement.
type ExportRow struct {
	Date     core.Date
	Type     core.TxType
	Amount   string
	Category string
	Notes    string
	Action   string
	Exported time.Time
}

// RowFromTransaction flattens a transaction into its ledger line. A missing
// category snapshot degrades to the uncategorized label.
func RowFromTransaction(t *core.Transaction, action string) ExportRow {
	category := core.UncategorizedLabel
	if t.Category != nil {
		category = t.Category.Name
	}
	amount := t.Amount.Units
	if t.Type == core.Expense {
		amount = -amount
	}
	return ExportRow{
		Date:     t.Date,
		Type:     t.Type,
		Amount:   core.FormatRupiah(amount),
		Category: category,
		Notes:    t.Notes,
		Action:   action,
		Exported: time.Now(),
	}
}

// RowAppender appends rows to the export ledger.
type RowAppender interface {
	Append(ctx context.Context, row ExportRow) (rowRef string, err error)
}
