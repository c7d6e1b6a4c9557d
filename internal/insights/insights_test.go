package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(id string, date core.Date, typ core.TransactionType, category, amount string) core.Transaction {
	return core.Transaction{ID: id, Date: date, Merchant: "m", CategoryID: category, Amount: d(amount), Type: typ}
}

func at(t core.Transaction, hm time.Duration) core.Transaction {
	t.TimeOfDay = &hm
	return t
}

func TestBucketize_MonthlyGapFilling(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2025, 3, 10), core.TxExpense, "food", "40"),
		tx("2", core.NewDate(2025, 1, 5), core.TxIncome, "salary", "1000"),
		tx("3", core.NewDate(2025, 1, 20), core.TxExpense, "food", "60"),
		tx("4", core.NewDate(2025, 2, 14), core.TxContribution, "", "500"),
	}

	got := Bucketize(txs, core.Monthly, nil)
	require.Len(t, got, 3)

	want := []struct {
		label    string
		income   string
		spending string
	}{
		{"2025-01", "1000", "60"},
		{"2025-02", "0", "0"},
		{"2025-03", "0", "40"},
	}
	for i, w := range want {
		assert.Equal(t, w.label, got[i].Label)
		assert.Truef(t, got[i].Income.Equal(d(w.income)), "%s income = %s", w.label, got[i].Income)
		assert.Truef(t, got[i].Spending.Equal(d(w.spending)), "%s spending = %s", w.label, got[i].Spending)
	}
	assert.Equal(t, core.NewDate(2025, 2, 1), got[1].Start)
	assert.Equal(t, core.NewDate(2025, 3, 1), got[1].End)
	assert.True(t, got[0].Net().Equal(d("940")))
}

func TestBucketize_Granularities(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2024, 12, 31), core.TxExpense, "food", "1"),
		tx("2", core.NewDate(2025, 1, 7), core.TxIncome, "salary", "2"),
	}

	tests := []struct {
		name   string
		g      core.Granularity
		labels []string
	}{
		{
			name:   "daily",
			g:      core.Daily,
			labels: []string{"2024-12-31", "2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06", "2025-01-07"},
		},
		{
			// 2024-12-30 is the Monday of ISO week 2025-W01.
			name:   "weekly monday aligned",
			g:      core.Weekly,
			labels: []string{"2025-W01", "2025-W02"},
		},
		{
			name:   "monthly",
			g:      core.Monthly,
			labels: []string{"2024-12", "2025-01"},
		},
		{
			name:   "yearly",
			g:      core.Yearly,
			labels: []string{"2024", "2025"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bucketize(txs, tt.g, nil)
			labels := make([]string, len(got))
			for i, b := range got {
				labels[i] = b.Label
			}
			assert.Equal(t, tt.labels, labels)
			for i := 1; i < len(got); i++ {
				assert.Equal(t, got[i-1].End, got[i].Start, "buckets must be contiguous")
			}
		})
	}
}

func TestBucketize_WeeklyStartsOnMonday(t *testing.T) {
	got := Bucketize([]core.Transaction{tx("1", core.NewDate(2025, 10, 19), core.TxExpense, "x", "5")}, core.Weekly, nil)
	require.Len(t, got, 1)
	assert.Equal(t, time.Monday, got[0].Start.Weekday())
	assert.Equal(t, core.NewDate(2025, 10, 13), got[0].Start)
}

func TestBucketize_ExplicitRange(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2025, 1, 15), core.TxIncome, "salary", "100"),
		tx("2", core.NewDate(2025, 4, 15), core.TxIncome, "salary", "100"),
		tx("3", core.NewDate(2025, 3, 2), core.TxExpense, "food", "25"),
	}
	rng := &core.DateRange{From: core.NewDate(2025, 2, 10), To: core.NewDate(2025, 3, 5)}

	got := Bucketize(txs, core.Monthly, rng)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-02", got[0].Label)
	assert.True(t, got[0].Income.IsZero())
	assert.True(t, got[1].Spending.Equal(d("25")))

	// A range with no transactions still yields a gap-free series.
	empty := Bucketize(nil, core.Monthly, rng)
	assert.Len(t, empty, 2)
}

func TestBucketize_Empty(t *testing.T) {
	assert.Empty(t, Bucketize(nil, core.Monthly, nil))
	onlyContributions := []core.Transaction{tx("1", core.NewDate(2025, 1, 1), core.TxContribution, "", "10")}
	assert.Empty(t, Bucketize(onlyContributions, core.Daily, nil))
}

func TestBucketize_UnknownGranularity(t *testing.T) {
	txs := []core.Transaction{tx("1", core.NewDate(2025, 1, 1), core.TxExpense, "food", "10")}
	assert.NotPanics(t, func() {
		assert.Empty(t, Bucketize(txs, "hourly", nil))
		assert.Empty(t, Flow(txs, "", nil).DataPoints)
	})
}

func TestBucketCount(t *testing.T) {
	tests := []struct {
		name     string
		g        core.Granularity
		from, to core.Date
		want     int
	}{
		{"daily", core.Daily, core.NewDate(2025, 9, 1), core.NewDate(2025, 9, 7), 7},
		{"weekly from midweek", core.Weekly, core.NewDate(2025, 9, 3), core.NewDate(2025, 9, 15), 3},
		{"monthly across year", core.Monthly, core.NewDate(2024, 11, 15), core.NewDate(2025, 2, 1), 4},
		{"yearly", core.Yearly, core.NewDate(2023, 6, 1), core.NewDate(2025, 1, 1), 3},
		{"single day", core.Daily, core.NewDate(2025, 9, 1), core.NewDate(2025, 9, 1), 1},
		{"inverted", core.Daily, core.NewDate(2025, 9, 7), core.NewDate(2025, 9, 1), 0},
		{"unknown granularity", "hourly", core.NewDate(2025, 9, 1), core.NewDate(2025, 9, 7), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketCount(tt.g, tt.from, tt.to))
			if tt.want > 0 {
				assert.Len(t, Bucketize(nil, tt.g, &core.DateRange{From: tt.from, To: tt.to}), tt.want)
			}
		})
	}
}

func TestBucketize_KeepsLatestBuckets(t *testing.T) {
	latest := core.NewDate(2025, 6, 30)
	txs := []core.Transaction{
		tx("1", core.NewDate(1990, 1, 1), core.TxIncome, "salary", "100"),
		tx("2", latest, core.TxExpense, "food", "40"),
	}

	daily := Bucketize(txs, core.Daily, nil)
	require.Len(t, daily, MaxBuckets)
	assert.Equal(t, latest.AddDays(-(MaxBuckets - 1)), daily[0].Start)
	assert.Equal(t, "2025-06-30", daily[len(daily)-1].Label)
	assert.True(t, daily[len(daily)-1].Spending.Equal(d("40")))
	for _, b := range daily {
		assert.True(t, b.Income.IsZero(), b.Label)
	}

	monthly := Bucketize(txs, core.Monthly, nil)
	assert.Len(t, monthly, 2025*12+6-(1990*12+1)+1)

	wide := &core.DateRange{From: core.NewDate(1700, 1, 1), To: latest}
	capped := Bucketize(txs, core.Monthly, wide)
	require.Len(t, capped, MaxBuckets)
	assert.Equal(t, "2025-06", capped[len(capped)-1].Label)
	assert.Equal(t, core.NewDate(2025, 6, 1).AddMonths(-(MaxBuckets - 1)), capped[0].Start)
}

func TestFlow(t *testing.T) {
	series := Flow([]core.Transaction{tx("1", core.NewDate(2025, 5, 5), core.TxIncome, "s", "10")}, core.Yearly, nil)
	assert.Equal(t, core.Yearly, series.Granularity)
	require.Len(t, series.DataPoints, 1)
	assert.Equal(t, "2025", series.DataPoints[0].Label)
}

func TestDashboard(t *testing.T) {
	today := core.NewDate(2025, 10, 19)
	txs := []core.Transaction{
		tx("old-income", core.NewDate(2025, 6, 1), core.TxIncome, "salary", "3000"),
		tx("old-rent", core.NewDate(2025, 9, 30), core.TxExpense, "rent", "1200"),
		tx("salary", core.NewDate(2025, 10, 1), core.TxIncome, "salary", "3000"),
		tx("groceries", core.NewDate(2025, 10, 5), core.TxExpense, "food", "150.25"),
		tx("saving", core.NewDate(2025, 10, 6), core.TxContribution, "", "500"),
		tx("future", core.NewDate(2025, 10, 25), core.TxExpense, "rent", "1200"),
	}

	s := Dashboard(txs, today, DashboardOptions{})

	assert.Equal(t, today, s.AsOf)
	assert.True(t, s.CurrentBalance.Equal(d("4649.75")), "balance = %s", s.CurrentBalance)
	assert.True(t, s.BalanceChange.Equal(d("2849.75")), "change = %s", s.BalanceChange)

	require.Len(t, s.RecentTransactions, 5)
	assert.Equal(t, "saving", s.RecentTransactions[0].ID)
	assert.Equal(t, "old-income", s.RecentTransactions[4].ID)

	require.Len(t, s.MonthlyFlow, DefaultTrailingMonths)
	assert.Equal(t, "2025-05", s.MonthlyFlow[0].Label)
	assert.Equal(t, "2025-10", s.MonthlyFlow[5].Label)
	assert.True(t, s.MonthlyFlow[5].Spending.Equal(d("150.25")), "future expenses are excluded")
}

func TestDashboard_Options(t *testing.T) {
	today := core.NewDate(2025, 3, 31)
	var txs []core.Transaction
	for day := 1; day <= 20; day++ {
		txs = append(txs, tx("", core.NewDate(2025, 3, day), core.TxExpense, "food", "1"))
	}

	s := Dashboard(txs, today, DashboardOptions{RecentCount: 3, TrailingMonths: 12})
	assert.Len(t, s.RecentTransactions, 3)
	assert.Equal(t, core.NewDate(2025, 3, 20), s.RecentTransactions[0].Date)
	require.Len(t, s.MonthlyFlow, 12)
	assert.Equal(t, "2024-04", s.MonthlyFlow[0].Label)
}

func TestRecent_Ordering(t *testing.T) {
	day := core.NewDate(2025, 10, 19)
	txs := []core.Transaction{
		tx("no-time-a", day, core.TxExpense, "x", "1"),
		at(tx("morning", day, core.TxExpense, "x", "1"), 9*time.Hour),
		tx("yesterday", day.AddDays(-1), core.TxExpense, "x", "1"),
		at(tx("evening", day, core.TxExpense, "x", "1"), 20*time.Hour),
		tx("no-time-b", day, core.TxExpense, "x", "1"),
	}

	got := Recent(txs, 10)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"evening", "morning", "no-time-a", "no-time-b", "yesterday"}, ids)
	assert.Equal(t, "no-time-a", txs[0].ID, "input slice is not reordered")
}

func TestMonthly(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2025, 9, 1), core.TxIncome, "salary", "3000"),
		tx("2", core.NewDate(2025, 9, 3), core.TxExpense, "rent", "1000"),
		tx("3", core.NewDate(2025, 9, 4), core.TxExpense, "food", "250"),
		tx("4", core.NewDate(2025, 9, 20), core.TxExpense, "food", "250"),
		tx("5", core.NewDate(2025, 9, 21), core.TxExpense, "fun", "500"),
		tx("6", core.NewDate(2025, 9, 22), core.TxContribution, "", "400"),
		tx("7", core.NewDate(2025, 8, 10), core.TxIncome, "salary", "2000"),
		tx("8", core.NewDate(2025, 8, 11), core.TxExpense, "rent", "1000"),
		tx("9", core.NewDate(2025, 10, 1), core.TxExpense, "rent", "1000"),
	}
	names := map[string]string{"rent": "Rent", "food": "Groceries"}

	m := Monthly(txs, 2025, 9, names)

	assert.Equal(t, "2025-09", m.Period())
	assert.True(t, m.TotalIncome.Equal(d("3000")))
	assert.True(t, m.TotalExpenses.Equal(d("2000")))
	assert.True(t, m.NetBalance.Equal(d("1000")))
	assert.True(t, m.ChangeFromPreviousMonth.IsZero(), "change = %s", m.ChangeFromPreviousMonth)

	require.Len(t, m.CategoryBreakdown, 3)
	// food and fun tie at 500; ties order by category ID.
	assert.Equal(t, "rent", m.CategoryBreakdown[0].CategoryID)
	assert.Equal(t, "Rent", m.CategoryBreakdown[0].CategoryName)
	assert.Equal(t, "food", m.CategoryBreakdown[1].CategoryID)
	assert.Equal(t, 2, m.CategoryBreakdown[1].TransactionCount)
	assert.Equal(t, "fun", m.CategoryBreakdown[2].CategoryID)
	assert.Equal(t, "fun", m.CategoryBreakdown[2].CategoryName, "unknown names fall back to the ID")

	sum := decimal.Zero
	for _, c := range m.CategoryBreakdown {
		sum = sum.Add(c.PercentOfTotal)
	}
	assert.True(t, sum.Sub(decimal.NewFromInt(1)).Abs().LessThan(d("0.000001")), "sum = %s", sum)
	assert.True(t, m.CategoryBreakdown[0].PercentOfTotal.Equal(d("0.5")))
}

func TestMonthly_NoExpenses(t *testing.T) {
	txs := []core.Transaction{tx("1", core.NewDate(2025, 1, 1), core.TxIncome, "salary", "100")}

	m := Monthly(txs, 2025, 1, nil)
	assert.Empty(t, m.CategoryBreakdown)
	assert.True(t, m.TotalExpenses.IsZero())
	assert.True(t, m.ChangeFromPreviousMonth.Equal(d("100")), "empty previous month counts as zero")
}

func TestMonthly_YearBoundary(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2024, 12, 31), core.TxExpense, "food", "30"),
		tx("2", core.NewDate(2025, 1, 1), core.TxExpense, "food", "10"),
	}
	m := Monthly(txs, 2025, 1, nil)
	assert.True(t, m.ChangeFromPreviousMonth.Equal(d("20")), "change = %s", m.ChangeFromPreviousMonth)
	require.Len(t, m.CategoryBreakdown, 1)
	assert.True(t, m.CategoryBreakdown[0].PercentOfTotal.Equal(decimal.NewFromInt(1)))
}

func TestIdempotence(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.NewDate(2025, 1, 5), core.TxIncome, "salary", "1000"),
		tx("2", core.NewDate(2025, 3, 1), core.TxExpense, "food", "33.33"),
		tx("3", core.NewDate(2025, 3, 1), core.TxExpense, "rent", "66.67"),
	}
	today := core.NewDate(2025, 3, 15)

	assert.Equal(t, Bucketize(txs, core.Weekly, nil), Bucketize(txs, core.Weekly, nil))
	assert.Equal(t, Dashboard(txs, today, DashboardOptions{}), Dashboard(txs, today, DashboardOptions{}))
	assert.Equal(t, Monthly(txs, 2025, 3, nil), Monthly(txs, 2025, 3, nil))
}
