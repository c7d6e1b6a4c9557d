package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalProgress is recomputed on every read and never persisted.
type GoalProgress struct {
	GoalID          string
	CurrentAmount   decimal.Decimal
	RemainingAmount decimal.Decimal
	PercentComplete decimal.Decimal
	IsOnTrack       bool
	PeriodLabel     *string
	// PeriodStart and PeriodEnd bound the budget window [start, end).
	PeriodStart *Date
	PeriodEnd   *Date
	// ExpectedAmount is the pacing target as of today, nil without a pacing signal.
	ExpectedAmount *decimal.Decimal
}

// Bucket is one contiguous window of a flow series.
type Bucket struct {
	Label    string
	Start    Date
	End      Date // exclusive
	Income   decimal.Decimal
	Spending decimal.Decimal
}

// Net returns income minus spending for the bucket.
func (b Bucket) Net() decimal.Decimal {
	return b.Income.Sub(b.Spending)
}

type FlowSeries struct {
	Granularity Granularity
	DataPoints  []Bucket
}

type DashboardSummary struct {
	AsOf               Date
	CurrentBalance     decimal.Decimal
	BalanceChange      decimal.Decimal
	RecentTransactions []Transaction
	MonthlyFlow        []Bucket
}

// CategoryAmount is one row of a monthly category breakdown.
type CategoryAmount struct {
	CategoryID       string
	CategoryName     string
	Amount           decimal.Decimal
	TransactionCount int
	PercentOfTotal   decimal.Decimal
}

// MonthlyInsight is a compact summary for a specific year+month.
type MonthlyInsight struct {
	Year                    int
	Month                   int // 1-12
	TotalIncome             decimal.Decimal
	TotalExpenses           decimal.Decimal
	NetBalance              decimal.Decimal
	ChangeFromPreviousMonth decimal.Decimal
	CategoryBreakdown       []CategoryAmount
}

// Period returns the insight's month formatted as YYYY-MM.
func (m MonthlyInsight) Period() string {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
