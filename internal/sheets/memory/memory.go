// Package memory is the insight exporter used when no spreadsheet is
// configured. It keeps the latest export per user and month and logs it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

var _ ports.InsightExporter = (*Exporter)(nil)

type Exporter struct {
	logger *applog.Logger

	mu      sync.Mutex
	exports map[string]core.MonthlyInsight
	count   int
}

func New(logger *applog.Logger) *Exporter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Exporter{
		logger:  logger.WithComponent(applog.ComponentSheets),
		exports: make(map[string]core.MonthlyInsight),
	}
}

func key(userID, period string) string {
	return userID + "/" + period
}

// ExportMonthlyInsight stores a copy of the insight and returns a synthetic reference.
func (e *Exporter) ExportMonthlyInsight(ctx context.Context, userID string, insight core.MonthlyInsight) (string, error) {
	if insight.Month < 1 || insight.Month > 12 {
		return "", fmt.Errorf("invalid month: %d", insight.Month)
	}
	insight.CategoryBreakdown = append([]core.CategoryAmount(nil), insight.CategoryBreakdown...)

	e.mu.Lock()
	e.exports[key(userID, insight.Period())] = insight
	e.count++
	ref := fmt.Sprintf("mem:%d", e.count)
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "Monthly insight exported",
		applog.FieldUserID, userID,
		applog.FieldYear, insight.Year,
		applog.FieldMonth, insight.Month,
		applog.FieldSheetsRef, ref,
		"net_balance", core.FormatAmount(insight.NetBalance),
		"categories", len(insight.CategoryBreakdown))
	return ref, nil
}

// Latest returns the last export for the user and month, if any.
func (e *Exporter) Latest(userID string, year, month int) (core.MonthlyInsight, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.exports[key(userID, core.MonthlyInsight{Year: year, Month: month}.Period())]
	return m, ok
}

// Periods lists the exported "user/YYYY-MM" keys in order.
func (e *Exporter) Periods() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.exports))
	for k := range e.exports {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
