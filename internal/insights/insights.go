// Package insights aggregates transactions into flow series, the dashboard
// summary and monthly category insights.
package insights

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

const (
	DefaultRecentCount    = 10
	DefaultTrailingMonths = 6

	// MaxBuckets bounds a flow series: ten years of daily buckets.
	MaxBuckets = 3660
)

// Weekly buckets start on Mondays and yearly buckets on January 1st.
// 2024-01-01 is both.
var bucketAnchor = core.NewDate(2024, 1, 1)

// DashboardOptions bounds the dashboard lists. Zero values select the defaults.
type DashboardOptions struct {
	RecentCount    int
	TrailingMonths int
}

func (o DashboardOptions) withDefaults() DashboardOptions {
	if o.RecentCount <= 0 {
		o.RecentCount = DefaultRecentCount
	}
	if o.TrailingMonths <= 0 {
		o.TrailingMonths = DefaultTrailingMonths
	}
	return o
}

// BucketLabel renders the chart label of the bucket starting at start.
func BucketLabel(g core.Granularity, start core.Date) string {
	switch g {
	case core.Weekly:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case core.Monthly:
		return start.Format("2006-01")
	case core.Yearly:
		return start.Format("2006")
	default:
		return start.Format(core.DateLayout)
	}
}

func countsTowardFlow(t core.TransactionType) bool {
	return t == core.TxIncome || t == core.TxExpense
}

// BucketCount returns how many buckets of granularity g cover from..to.
// Unknown granularities and inverted ranges count zero.
func BucketCount(g core.Granularity, from, to core.Date) int {
	if !g.Valid() || to.BeforeDate(from) {
		return 0
	}
	first := period.Containing(g, from, bucketAnchor).Start
	switch g {
	case core.Weekly:
		return core.DaysBetween(first, to)/7 + 1
	case core.Monthly:
		return (to.Year()-first.Year())*12 + to.Month() - first.Month() + 1
	case core.Yearly:
		return to.Year() - first.Year() + 1
	default:
		return core.DaysBetween(first, to) + 1
	}
}

// latestStart returns the start of the bucket n-1 buckets before the one
// containing to.
func latestStart(g core.Granularity, to core.Date, n int) core.Date {
	last := period.Containing(g, to, bucketAnchor).Start
	switch g {
	case core.Weekly:
		return last.AddDays(-7 * (n - 1))
	case core.Monthly:
		return last.AddMonths(-(n - 1))
	case core.Yearly:
		return core.NewDate(last.Year()-(n-1), 1, 1)
	default:
		return last.AddDays(-(n - 1))
	}
}

// Bucketize groups income and expense transactions into contiguous buckets of
// granularity g. Contributions are excluded. With a nil range the series spans
// the earliest to the latest transaction; otherwise it spans rng and
// transactions outside rng are ignored. Spans longer than MaxBuckets keep the
// latest MaxBuckets buckets. An unknown granularity yields an empty series.
func Bucketize(txs []core.Transaction, g core.Granularity, rng *core.DateRange) []core.Bucket {
	if !g.Valid() {
		return []core.Bucket{}
	}
	var from, to core.Date
	if rng != nil {
		from, to = rng.From, rng.To
	} else {
		found := false
		for _, tx := range txs {
			if !countsTowardFlow(tx.Type) {
				continue
			}
			if !found || tx.Date.BeforeDate(from) {
				from = tx.Date
			}
			if !found || tx.Date.AfterDate(to) {
				to = tx.Date
			}
			found = true
		}
		if !found {
			return []core.Bucket{}
		}
	}
	if to.BeforeDate(from) {
		return []core.Bucket{}
	}
	if BucketCount(g, from, to) > MaxBuckets {
		from = latestStart(g, to, MaxBuckets)
	}

	buckets := make([]core.Bucket, 0, BucketCount(g, from, to))
	index := make(map[string]int)
	for w := period.Containing(g, from, bucketAnchor); !w.Start.AfterDate(to); w = period.Containing(g, w.End, bucketAnchor) {
		index[w.Start.String()] = len(buckets)
		buckets = append(buckets, core.Bucket{
			Label:    BucketLabel(g, w.Start),
			Start:    w.Start,
			End:      w.End,
			Income:   decimal.Zero,
			Spending: decimal.Zero,
		})
	}

	for _, tx := range txs {
		if !countsTowardFlow(tx.Type) {
			continue
		}
		if rng != nil && !rng.Contains(tx.Date) {
			continue
		}
		i, ok := index[period.Containing(g, tx.Date, bucketAnchor).Start.String()]
		if !ok {
			continue
		}
		if tx.Type == core.TxIncome {
			buckets[i].Income = buckets[i].Income.Add(tx.Amount)
		} else {
			buckets[i].Spending = buckets[i].Spending.Add(tx.Amount)
		}
	}
	return buckets
}

// Flow wraps Bucketize into a series tagged with its granularity.
func Flow(txs []core.Transaction, g core.Granularity, rng *core.DateRange) core.FlowSeries {
	return core.FlowSeries{Granularity: g, DataPoints: Bucketize(txs, g, rng)}
}

// Dashboard summarizes the transaction history as of today. Transactions
// dated after today are ignored.
func Dashboard(txs []core.Transaction, today core.Date, opts DashboardOptions) core.DashboardSummary {
	opts = opts.withDefaults()
	monthStart := today.StartOfMonth()

	past := make([]core.Transaction, 0, len(txs))
	balance, change := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.Date.AfterDate(today) {
			continue
		}
		past = append(past, tx)
		delta := signedFlow(tx)
		balance = balance.Add(delta)
		if !tx.Date.BeforeDate(monthStart) {
			change = change.Add(delta)
		}
	}

	return core.DashboardSummary{
		AsOf:               today,
		CurrentBalance:     balance,
		BalanceChange:      change,
		RecentTransactions: Recent(past, opts.RecentCount),
		MonthlyFlow: Bucketize(past, core.Monthly, &core.DateRange{
			From: monthStart.AddMonths(-(opts.TrailingMonths - 1)),
			To:   today,
		}),
	}
}

// Recent returns the n most recent transactions, newest first. Ties on date
// are broken by time of day with unknown times last; full ties keep input order.
// A non-positive n returns every transaction.
func Recent(txs []core.Transaction, n int) []core.Transaction {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return core.NewestFirst(sorted[i], sorted[j])
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Monthly builds the insight for one calendar month. names maps category IDs
// to display names; missing entries fall back to the ID.
func Monthly(txs []core.Transaction, year, month int, names map[string]string) core.MonthlyInsight {
	start := core.NewDate(year, month, 1)
	current := period.Window{Start: start, End: start.AddMonths(1)}
	previous := period.Window{Start: start.AddMonths(-1), End: start}

	insight := core.MonthlyInsight{
		Year:          start.Year(),
		Month:         start.Month(),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	prevNet := decimal.Zero
	byCategory := make(map[string]*core.CategoryAmount)

	for _, tx := range txs {
		switch {
		case previous.Contains(tx.Date):
			prevNet = prevNet.Add(signedFlow(tx))
		case current.Contains(tx.Date):
			switch tx.Type {
			case core.TxIncome:
				insight.TotalIncome = insight.TotalIncome.Add(tx.Amount)
			case core.TxExpense:
				insight.TotalExpenses = insight.TotalExpenses.Add(tx.Amount)
				c, ok := byCategory[tx.CategoryID]
				if !ok {
					c = &core.CategoryAmount{CategoryID: tx.CategoryID, CategoryName: categoryName(names, tx.CategoryID)}
					byCategory[tx.CategoryID] = c
				}
				c.Amount = c.Amount.Add(tx.Amount)
				c.TransactionCount++
			}
		}
	}

	insight.NetBalance = insight.TotalIncome.Sub(insight.TotalExpenses)
	insight.ChangeFromPreviousMonth = insight.NetBalance.Sub(prevNet)

	breakdown := make([]core.CategoryAmount, 0, len(byCategory))
	for _, c := range byCategory {
		if insight.TotalExpenses.IsPositive() {
			c.PercentOfTotal = c.Amount.Div(insight.TotalExpenses)
		}
		breakdown = append(breakdown, *c)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Amount.Equal(breakdown[j].Amount) {
			return breakdown[i].Amount.GreaterThan(breakdown[j].Amount)
		}
		return breakdown[i].CategoryID < breakdown[j].CategoryID
	})
	insight.CategoryBreakdown = breakdown
	return insight
}

func categoryName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id
}

// signedFlow is the transaction's effect on balance.
func signedFlow(tx core.Transaction) decimal.Decimal {
	switch tx.Type {
	case core.TxIncome:
		return tx.Amount
	case core.TxExpense:
		return tx.Amount.Neg()
	}
	return decimal.Zero
}
