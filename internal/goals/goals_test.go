package goals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

func expense(date core.Date, category, amount string) core.Transaction {
	return core.Transaction{Date: date, Merchant: "m", CategoryID: category, Amount: d(amount), Type: core.TxExpense}
}

func contribution(date core.Date, goalID, amount string) core.Transaction {
	return core.Transaction{Date: date, Merchant: "m", GoalID: goalID, Amount: d(amount), Type: core.TxContribution}
}

func budgetGoal(period core.Granularity, target string, start core.Date) core.Goal {
	return core.Goal{
		ID:           "budget-1",
		Type:         core.BudgetGoal,
		TargetAmount: d(target),
		CategoryID:   "groceries",
		Period:       period,
		StartDate:    start,
		IsActive:     true,
	}
}

func TestEvaluate_BudgetPacingBoundary(t *testing.T) {
	g := budgetGoal(core.Monthly, "1000", core.NewDate(2025, 1, 1))
	today := core.NewDate(2025, 9, 15) // day 15 of a 30-day month

	tests := []struct {
		name    string
		spent   string
		onTrack bool
	}{
		{"spent exactly the pro-rata share", "500", true},
		{"one over the pro-rata share", "501", false},
		{"nothing spent", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []core.Transaction{
				expense(core.NewDate(2025, 9, 3), "groceries", tt.spent),
				// Outside the window or category: ignored.
				expense(core.NewDate(2025, 8, 31), "groceries", "900"),
				expense(core.NewDate(2025, 9, 4), "rent", "900"),
				{Date: core.NewDate(2025, 9, 5), Merchant: "x", CategoryID: "groceries", Amount: d("900"), Type: core.TxIncome},
			}
			if tt.spent == "0" {
				txs = txs[1:]
			}

			p := Evaluate(g, txs, today)
			if p.IsOnTrack != tt.onTrack {
				t.Errorf("IsOnTrack = %v, want %v (current %s)", p.IsOnTrack, tt.onTrack, p.CurrentAmount)
			}
			if !p.CurrentAmount.Equal(d(tt.spent)) {
				t.Errorf("CurrentAmount = %s, want %s", p.CurrentAmount, tt.spent)
			}
		})
	}
}

func TestEvaluate_BudgetFields(t *testing.T) {
	g := budgetGoal(core.Monthly, "400", core.NewDate(2025, 1, 1))
	txs := []core.Transaction{
		expense(core.NewDate(2025, 9, 1), "groceries", "300"),
		expense(core.NewDate(2025, 9, 10), "groceries", "200"),
	}

	p := Evaluate(g, txs, core.NewDate(2025, 9, 15))

	assert.Equal(t, "budget-1", p.GoalID)
	assert.True(t, p.CurrentAmount.Equal(d("500")))
	assert.True(t, p.RemainingAmount.IsZero(), "remaining never goes negative")
	assert.True(t, p.PercentComplete.Equal(d("1.25")), "percent is uncapped")
	assert.False(t, p.IsOnTrack)
	require.NotNil(t, p.PeriodLabel)
	assert.Equal(t, "September 2025", *p.PeriodLabel)
	require.NotNil(t, p.PeriodStart)
	require.NotNil(t, p.PeriodEnd)
	assert.Equal(t, core.NewDate(2025, 9, 1), *p.PeriodStart)
	assert.Equal(t, core.NewDate(2025, 10, 1), *p.PeriodEnd)
	require.NotNil(t, p.ExpectedAmount)
	assert.True(t, p.ExpectedAmount.Equal(d("200")))
}

func TestEvaluate_BudgetWeeklyAnchoredOnStart(t *testing.T) {
	// Starts on a Wednesday; windows run Wednesday to Tuesday.
	g := budgetGoal(core.Weekly, "70", core.NewDate(2025, 1, 1))
	today := core.NewDate(2025, 1, 14) // Tuesday, last day of the second window

	txs := []core.Transaction{
		expense(core.NewDate(2025, 1, 7), "groceries", "50"), // previous window
		expense(core.NewDate(2025, 1, 8), "groceries", "30"),
		expense(core.NewDate(2025, 1, 13), "groceries", "40"),
	}

	p := Evaluate(g, txs, today)
	assert.True(t, p.CurrentAmount.Equal(d("70")), "current = %s", p.CurrentAmount)
	assert.True(t, p.IsOnTrack, "whole window elapsed, spent exactly the target")
	require.NotNil(t, p.PeriodLabel)
	assert.Equal(t, "2025-01-08 – 2025-01-14", *p.PeriodLabel)
}

func TestEvaluate_BudgetDaily(t *testing.T) {
	g := budgetGoal(core.Daily, "20", core.NewDate(2025, 1, 1))
	today := core.NewDate(2025, 3, 3)

	p := Evaluate(g, []core.Transaction{
		expense(today, "groceries", "20"),
		expense(today.AddDays(-1), "groceries", "20"),
	}, today)

	assert.True(t, p.CurrentAmount.Equal(d("20")))
	assert.True(t, p.IsOnTrack)
	assert.Equal(t, "2025-03-03", *p.PeriodLabel)
}

func TestEvaluate_BudgetYearlyAnniversary(t *testing.T) {
	g := budgetGoal(core.Yearly, "3650", core.NewDate(2024, 3, 15))
	today := core.NewDate(2025, 3, 14)

	p := Evaluate(g, []core.Transaction{
		expense(core.NewDate(2024, 3, 15), "groceries", "3000"),
		expense(core.NewDate(2024, 3, 14), "groceries", "3000"),
	}, today)

	assert.True(t, p.CurrentAmount.Equal(d("3000")))
	assert.True(t, p.IsOnTrack)
	assert.Equal(t, "2024-03-15 – 2025-03-14", *p.PeriodLabel)
}

func TestEvaluate_SavingsDeadlinePacing(t *testing.T) {
	g := core.Goal{
		ID:           "save-1",
		Type:         core.SavingsGoal,
		TargetAmount: d("1200"),
		Deadline:     ptr(core.NewDate(2025, 12, 31)),
		StartDate:    core.NewDate(2025, 1, 1),
		IsActive:     true,
	}
	today := core.NewDate(2025, 7, 1) // 181 of 365 days elapsed

	tests := []struct {
		name    string
		saved   string
		onTrack bool
	}{
		{"ahead of pace", "600", true},
		{"behind pace", "590", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs := []core.Transaction{
				contribution(core.NewDate(2025, 3, 1), "save-1", tt.saved),
				contribution(core.NewDate(2024, 12, 31), "save-1", "1000"), // before start
				contribution(core.NewDate(2025, 3, 1), "other", "1000"),
			}

			p := Evaluate(g, txs, today)
			assert.Equal(t, tt.onTrack, p.IsOnTrack)
			assert.True(t, p.CurrentAmount.Equal(d(tt.saved)), "current = %s", p.CurrentAmount)
			require.NotNil(t, p.ExpectedAmount)
			assert.Equal(t, "595.07", p.ExpectedAmount.StringFixed(2))
			require.NotNil(t, p.PeriodLabel)
			assert.Equal(t, "2025-12-31", *p.PeriodLabel)
			assert.Nil(t, p.PeriodStart)
		})
	}
}

func TestEvaluate_SavingsDeadlineEdges(t *testing.T) {
	start := core.NewDate(2025, 1, 1)
	g := core.Goal{
		ID:           "save-1",
		Type:         core.SavingsGoal,
		TargetAmount: d("100"),
		Deadline:     ptr(start),
		StartDate:    start,
	}

	// Deadline equal to start: one-day total, nothing elapsed yet.
	p := Evaluate(g, nil, start)
	assert.True(t, p.IsOnTrack)
	assert.True(t, p.ExpectedAmount.IsZero())

	// Long past the deadline: elapsed clamps to the total.
	p = Evaluate(g, []core.Transaction{contribution(start, "save-1", "99")}, core.NewDate(2030, 1, 1))
	assert.False(t, p.IsOnTrack)
	assert.True(t, p.ExpectedAmount.Equal(d("100")))

	// Before the start date nothing is expected.
	p = Evaluate(g, nil, start.AddDays(-10))
	assert.True(t, p.IsOnTrack)
}

func TestEvaluate_SavingsPlannedContribution(t *testing.T) {
	g := core.Goal{
		ID:                  "save-2",
		Type:                core.SavingsGoal,
		TargetAmount:        d("5000"),
		PlannedContribution: ptr(d("250")),
		StartDate:           core.NewDate(2025, 1, 15),
	}
	today := core.NewDate(2025, 4, 20) // three whole months

	tests := []struct {
		saved   string
		onTrack bool
	}{
		{"750", true},
		{"749.99", false},
	}
	for _, tt := range tests {
		t.Run(tt.saved, func(t *testing.T) {
			p := Evaluate(g, []core.Transaction{contribution(core.NewDate(2025, 2, 1), "save-2", tt.saved)}, today)
			assert.Equal(t, tt.onTrack, p.IsOnTrack)
			require.NotNil(t, p.ExpectedAmount)
			assert.True(t, p.ExpectedAmount.Equal(d("750")))
			assert.Nil(t, p.PeriodLabel)
		})
	}
}

func TestEvaluate_SavingsWithoutPacing(t *testing.T) {
	g := core.Goal{
		ID:           "save-3",
		Type:         core.SavingsGoal,
		TargetAmount: d("1000"),
		StartDate:    core.NewDate(2025, 1, 1),
	}

	p := Evaluate(g, nil, core.NewDate(2026, 1, 1))
	assert.True(t, p.IsOnTrack)
	assert.Nil(t, p.ExpectedAmount)
	assert.Nil(t, p.PeriodLabel)
	assert.True(t, p.PercentComplete.IsZero())
	assert.True(t, p.RemainingAmount.Equal(d("1000")))
}

func TestEvaluate_Idempotent(t *testing.T) {
	g := budgetGoal(core.Monthly, "1000", core.NewDate(2025, 1, 1))
	txs := []core.Transaction{expense(core.NewDate(2025, 9, 3), "groceries", "123.45")}
	today := core.NewDate(2025, 9, 15)

	first := Evaluate(g, txs, today)
	second := Evaluate(g, txs, today)
	assert.Equal(t, first, second)
}

func TestEvaluateAll(t *testing.T) {
	start := core.NewDate(2025, 1, 1)
	goals := []core.Goal{
		budgetGoal(core.Monthly, "100", start),
		{ID: "save", Type: core.SavingsGoal, TargetAmount: d("10"), StartDate: start},
	}
	txs := []core.Transaction{
		expense(core.NewDate(2025, 2, 2), "groceries", "5"),
		contribution(core.NewDate(2025, 2, 2), "save", "5"),
	}

	got := EvaluateAll(goals, txs, core.NewDate(2025, 2, 10))
	require.Len(t, got, 2)
	assert.Equal(t, "budget-1", got[0].GoalID)
	assert.Equal(t, "save", got[1].GoalID)
	assert.True(t, got[1].PercentComplete.Equal(d("0.5")))

	assert.Empty(t, EvaluateAll(nil, txs, core.NewDate(2025, 2, 10)))
}

func TestEvaluate_TimeOfDayIgnored(t *testing.T) {
	g := budgetGoal(core.Daily, "10", core.NewDate(2025, 1, 1))
	tx := expense(core.NewDate(2025, 1, 2), "groceries", "5")
	tx.TimeOfDay = ptr(23 * time.Hour)

	p := Evaluate(g, []core.Transaction{tx}, core.NewDate(2025, 1, 2))
	assert.True(t, p.CurrentAmount.Equal(d("5")))
}
