package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// Column layout of the insights sheet.
var header = []any{
	"Period", "User", "Category ID", "Category", "Amount", "Transactions", "Share",
	"Total Income", "Total Expenses", "Net", "Change",
}

const lastColumn = "K"

// insightRows renders one row per expense category. A month without expenses
// still gets a single row so its income and net are visible.
func insightRows(userID string, m core.MonthlyInsight) [][]any {
	totals := []any{
		core.FormatAmount(m.TotalIncome),
		core.FormatAmount(m.TotalExpenses),
		core.FormatAmount(m.NetBalance),
		core.FormatAmount(m.ChangeFromPreviousMonth),
	}
	period := m.Period()

	if len(m.CategoryBreakdown) == 0 {
		row := []any{period, userID, "", "", "0.00", 0, "0.0000"}
		return [][]any{append(row, totals...)}
	}

	rows := make([][]any, 0, len(m.CategoryBreakdown))
	for _, c := range m.CategoryBreakdown {
		row := []any{
			period,
			userID,
			c.CategoryID,
			c.CategoryName,
			core.FormatAmount(c.Amount),
			c.TransactionCount,
			c.PercentOfTotal.StringFixed(4),
		}
		rows = append(rows, append(row, totals...))
	}
	return rows
}

// mergeRows replaces the rows of (period, userID) in existing with fresh and
// returns the full sheet contents, header first, ordered by period then user.
func mergeRows(existing [][]any, period, userID string, fresh [][]any) [][]any {
	kept := make([][]any, 0, len(existing)+len(fresh))
	for i, row := range existing {
		if i == 0 && isHeader(row) {
			continue
		}
		if len(row) == 0 {
			continue
		}
		if cell(row, 0) == period && cell(row, 1) == userID {
			continue
		}
		kept = append(kept, row)
	}
	kept = append(kept, fresh...)

	sort.SliceStable(kept, func(i, j int) bool {
		if pi, pj := cell(kept[i], 0), cell(kept[j], 0); pi != pj {
			return pi < pj
		}
		return cell(kept[i], 1) < cell(kept[j], 1)
	})

	return append([][]any{header}, kept...)
}

func isHeader(row []any) bool {
	return strings.EqualFold(cell(row, 0), fmt.Sprint(header[0]))
}

func cell(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
