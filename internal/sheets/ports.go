// Package sheets declares the outbound port used to publish monthly insights
// to a spreadsheet. Adapters live in sheets/google and sheets/memory.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// InsightExporter writes one user's monthly insight, replacing any rows
// previously exported for the same user and month.
type InsightExporter interface {
	ExportMonthlyInsight(ctx context.Context, userID string, insight core.MonthlyInsight) (ref string, err error)
}
