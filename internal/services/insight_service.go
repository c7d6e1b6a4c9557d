package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/insights"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// InsightService builds dashboards, monthly insights and flow series from
// stored transactions.
type InsightService struct {
	txs        store.TransactionStore
	categories *CategoryService
	opts       insights.DashboardOptions
	logger     *applog.Logger
}

func NewInsightService(txs store.TransactionStore, categories *CategoryService, opts insights.DashboardOptions, logger *applog.Logger) *InsightService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &InsightService{
		txs:        txs,
		categories: categories,
		opts:       opts,
		logger:     logger.WithComponent(applog.ComponentInsights),
	}
}

// Dashboard summarizes the user's history as of today.
func (s *InsightService) Dashboard(ctx context.Context, userID string, today core.Date) (core.DashboardSummary, error) {
	txs, err := s.txs.ListTransactions(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	return insights.Dashboard(txs, today, s.opts), nil
}

// Monthly builds the insight for year/month. The previous month is loaded too
// so the change can be computed.
func (s *InsightService) Monthly(ctx context.Context, userID string, year, month int) (core.MonthlyInsight, error) {
	if month < 1 || month > 12 {
		return core.MonthlyInsight{}, core.Invalid("month", core.ErrInvalidMonth)
	}
	if year < 1 || year > 9999 {
		return core.MonthlyInsight{}, core.Invalid("year", fmt.Errorf("year %d out of range", year))
	}

	start := core.NewDate(year, month, 1)
	var (
		txs   []core.Transaction
		names map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(gctx, userID, store.TransactionFilter{
			Range: &core.DateRange{From: start.AddMonths(-1), To: start.AddMonths(1).AddDays(-1)},
		})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		names, err = s.categories.Names(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthlyInsight{}, err
	}

	insight := insights.Monthly(txs, year, month, names)
	s.logger.DebugContext(ctx, "Monthly insight computed",
		applog.FieldUserID, userID,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"categories", len(insight.CategoryBreakdown))
	return insight, nil
}

// Flow buckets the user's income and spending. A nil range spans all history
// and keeps the latest insights.MaxBuckets buckets; an explicit range longer
// than that is rejected.
func (s *InsightService) Flow(ctx context.Context, userID string, g core.Granularity, rng *core.DateRange) (core.FlowSeries, error) {
	if !g.Valid() {
		return core.FlowSeries{}, core.Invalid("granularity", core.ErrInvalidPeriod)
	}
	f := store.TransactionFilter{}
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return core.FlowSeries{}, err
		}
		if insights.BucketCount(g, rng.From, rng.To) > insights.MaxBuckets {
			return core.FlowSeries{}, core.Invalid("from", core.ErrRangeTooLarge)
		}
		f.Range = rng
	}
	txs, err := s.txs.ListTransactions(ctx, userID, f)
	if err != nil {
		return core.FlowSeries{}, fmt.Errorf("list transactions: %w", err)
	}
	return insights.Flow(txs, g, rng), nil
}
