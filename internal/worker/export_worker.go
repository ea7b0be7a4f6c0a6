// Package worker consumes transaction export events and appends ledger rows
// to the configured sheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"myfinance/internal/amqp"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/sheets"
	"myfinance/internal/storage"
)

// ExportWorker turns broker events into ledger rows. Each event carries only
// identifiers; the worker reloads the row so the export reflects current
// state. A transaction that disappeared between publish and consume is logged
// and acked, never retried forever.
type ExportWorker struct {
	store    storage.Store
	appender sheets.RowAppender
	logger   *log.Logger
}

func NewExportWorker(store storage.Store, appender sheets.RowAppender) *ExportWorker {
	return &ExportWorker{
		store:    store,
		appender: appender,
		logger:   log.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one export event. Returned errors cause a requeue.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "processing export event",
		log.FieldTxID, event.TransactionID,
		"action", event.Action)

	var row sheets.ExportRow
	switch event.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		tx, err := w.store.GetTransaction(ctx, event.UserID, event.TransactionID)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted (or re-owned) since the event was published. The delete
			// event will carry the tombstone.
			w.logger.WarnContext(ctx, "transaction vanished before export",
				log.FieldTxID, event.TransactionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %s: %w", event.TransactionID, err)
		}
		row = sheets.RowFromTransaction(tx, event.Action)
	case amqp.ActionDeleted:
		row = tombstoneRow(event)
	default:
		w.logger.WarnContext(ctx, "unknown event action dropped", "action", event.Action)
		return nil
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append export row: %w", err)
	}

	w.logger.InfoContext(ctx, "exported transaction",
		log.FieldTxID, event.TransactionID,
		"action", event.Action,
		"row_ref", ref)
	return nil
}

// tombstoneRow records a deletion. The row data is gone, so the line carries
// the identifier instead of amounts.
func tombstoneRow(event *amqp.TransactionEvent) sheets.ExportRow {
	ts := event.Timestamp
	return sheets.ExportRow{
		Date:     core.NewDate(ts.Year(), ts.Month(), ts.Day()),
		Notes:    "transaction " + event.TransactionID,
		Action:   amqp.ActionDeleted,
		Exported: ts,
	}
}

// Run consumes events until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeTransactionEvents(ctx, func(event *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, event)
	})
}
