// Package goals evaluates progress and pacing of budget and savings goals.
//
// Progress is always derived from the transactions passed in and the explicit
// "today"; nothing here reads the clock or caches results.
package goals

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

// Evaluate computes the progress of a validated goal as of today. A budget
// goal with an unknown Period panics; Goal.Validate rejects those.
func Evaluate(g core.Goal, txs []core.Transaction, today core.Date) core.GoalProgress {
	if g.Type == core.BudgetGoal {
		return evaluateBudget(g, txs, today)
	}
	return evaluateSavings(g, txs, today)
}

// EvaluateAll evaluates every goal against the same transactions, in input order.
func EvaluateAll(goals []core.Goal, txs []core.Transaction, today core.Date) []core.GoalProgress {
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, Evaluate(g, txs, today))
	}
	return out
}

func evaluateBudget(g core.Goal, txs []core.Transaction, today core.Date) core.GoalProgress {
	w := period.Containing(g.Period, today, g.StartDate)

	current := decimal.Zero
	for _, tx := range txs {
		if tx.Type == core.TxExpense && tx.CategoryID == g.CategoryID && w.Contains(tx.Date) {
			current = current.Add(tx.Amount)
		}
	}

	windowDays := w.Days()
	elapsedDays := windowDays
	if windowDays > 0 {
		elapsedDays = clamp(core.DaysBetween(w.Start, today)+1, 0, windowDays)
	}

	var onTrack bool
	if elapsedDays == 0 {
		onTrack = current.LessThanOrEqual(g.TargetAmount)
	} else {
		// current/target <= elapsed/window, cross-multiplied.
		lhs := current.Mul(decimal.NewFromInt(int64(windowDays)))
		rhs := g.TargetAmount.Mul(decimal.NewFromInt(int64(elapsedDays)))
		onTrack = lhs.LessThanOrEqual(rhs)
	}

	label := period.Label(g.Period, w)
	start, end := w.Start, w.End
	p := progress(g, current, onTrack)
	p.PeriodLabel = &label
	p.PeriodStart = &start
	p.PeriodEnd = &end
	if windowDays > 0 {
		expected := core.RoundCents(g.TargetAmount.
			Mul(decimal.NewFromInt(int64(elapsedDays))).
			Div(decimal.NewFromInt(int64(windowDays))))
		p.ExpectedAmount = &expected
	}
	return p
}

func evaluateSavings(g core.Goal, txs []core.Transaction, today core.Date) core.GoalProgress {
	current := decimal.Zero
	for _, tx := range txs {
		if tx.Type == core.TxContribution && tx.GoalID == g.ID && !tx.Date.BeforeDate(g.StartDate) {
			current = current.Add(tx.Amount)
		}
	}

	var expected *decimal.Decimal
	switch {
	case g.Deadline != nil:
		totalDays := core.DaysBetween(g.StartDate, *g.Deadline) + 1
		if totalDays < 1 {
			totalDays = 1
		}
		elapsedDays := clamp(core.DaysBetween(g.StartDate, today), 0, totalDays)
		e := g.TargetAmount.
			Mul(decimal.NewFromInt(int64(elapsedDays))).
			Div(decimal.NewFromInt(int64(totalDays)))
		expected = &e
	case g.PlannedContribution != nil:
		months := core.MonthsBetween(g.StartDate, today)
		e := g.PlannedContribution.Mul(decimal.NewFromInt(int64(months)))
		expected = &e
	}

	onTrack := true
	if expected != nil {
		onTrack = current.GreaterThanOrEqual(*expected)
	}

	p := progress(g, current, onTrack)
	if expected != nil {
		rounded := core.RoundCents(*expected)
		p.ExpectedAmount = &rounded
	}
	if g.Deadline != nil {
		label := g.Deadline.String()
		p.PeriodLabel = &label
	}
	return p
}

func progress(g core.Goal, current decimal.Decimal, onTrack bool) core.GoalProgress {
	remaining := g.TargetAmount.Sub(current)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	percent := decimal.Zero
	if g.TargetAmount.IsPositive() {
		percent = current.Div(g.TargetAmount)
	}
	return core.GoalProgress{
		GoalID:          g.ID,
		CurrentAmount:   current,
		RemainingAmount: remaining,
		PercentComplete: percent,
		IsOnTrack:       onTrack,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
