// Package worker turns finance events into refreshed monthly insight exports.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/store"
)

// ExportWorker recomputes the monthly insight touched by a transaction event
// and hands it to the exporter.
type ExportWorker struct {
	txs        store.TransactionStore
	categories store.CategoryStore
	exporter   sheets.InsightExporter
	logger     *applog.Logger
	structured *applog.StructuredLogger
}

func NewExportWorker(txs store.TransactionStore, categories store.CategoryStore, exporter sheets.InsightExporter, logger *applog.Logger) *ExportWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentWorker)
	return &ExportWorker{
		txs:        txs,
		categories: categories,
		exporter:   exporter,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
	}
}

// HandleEvent processes one event. Returned errors are retryable.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.FinanceEvent) error {
	switch ev.Kind {
	case amqp.TransactionRecorded, amqp.TransactionDeleted:
		if ev.Month < 1 || ev.Month > 12 || ev.Year < 1 {
			w.logger.WarnContext(ctx, "Transaction event without a valid month, skipping",
				applog.FieldEntityID, ev.EntityID,
				applog.FieldYear, ev.Year,
				applog.FieldMonth, ev.Month)
			return nil
		}
		_, err := w.ExportMonth(ctx, ev.UserID, ev.Year, ev.Month)
		return err
	case amqp.ProfileRecomputed:
		// Profiles do not feed the monthly insight.
		w.logger.DebugContext(ctx, "Ignoring profile event", applog.FieldUserID, ev.UserID)
		return nil
	default:
		w.logger.WarnContext(ctx, "Unknown event kind", applog.FieldEventKind, ev.Kind)
		return nil
	}
}

// ExportMonth recomputes and exports one user's month, returning the export reference.
func (w *ExportWorker) ExportMonth(ctx context.Context, userID string, year, month int) (string, error) {
	start := core.NewDate(year, month, 1)
	txs, err := w.txs.ListTransactions(ctx, userID, store.TransactionFilter{
		Range: &core.DateRange{From: start.AddMonths(-1), To: start.AddMonths(1).AddDays(-1)},
	})
	if err != nil {
		return "", fmt.Errorf("list transactions: %w", err)
	}
	cats, err := w.categories.ListCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}

	insight := insights.Monthly(txs, year, month, store.CategoryNames(cats))
	ref, err := w.exporter.ExportMonthlyInsight(ctx, userID, insight)
	if err != nil {
		w.structured.LogError(ctx, "Monthly insight export failed", err, applog.ComponentSheets, applog.OpExport,
			applog.NewFields().WithUser(userID).WithPeriod(year, month).WithErrorType(applog.ErrorTypeNetwork))
		return "", fmt.Errorf("export insight %s: %w", insight.Period(), err)
	}

	w.logger.InfoContext(ctx, "Monthly insight refreshed",
		applog.FieldUserID, userID,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		applog.FieldSheetsRef, ref)
	return ref, nil
}
