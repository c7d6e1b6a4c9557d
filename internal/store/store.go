// Package store declares the persistence ports used by the service layer.
// Adapters live in store/memory and storage (SQLite).
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a record does not exist for the caller.
var ErrNotFound = errors.New("not found")

// Ports for persistence adapters.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go
type (
	ProfileStore interface {
		GetProfile(ctx context.Context, userID string) (core.IncomeProfile, error)
		// SaveProfile inserts or replaces the user's profile.
		SaveProfile(ctx context.Context, p core.IncomeProfile) error
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		UpdateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		// ListGoals returns goals ordered by start date then ID.
		ListGoals(ctx context.Context, userID string, activeOnly bool) ([]core.Goal, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
		// ListTransactions returns matching transactions newest first (see
		// core.NewestFirst), ties broken by ID.
		ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		ProfileStore
		GoalStore
		TransactionStore
		CategoryStore
		Ping(ctx context.Context) error
		Close() error
	}
)

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Range  *core.DateRange
	Type   core.TransactionType
	GoalID string
}

// Matches reports whether t passes the filter.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if f.Range != nil && !f.Range.Contains(t.Date) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.GoalID != "" && t.GoalID != f.GoalID {
		return false
	}
	return true
}

// MonthFilter selects every transaction of a calendar month.
func MonthFilter(year, month int) TransactionFilter {
	start := core.NewDate(year, month, 1)
	return TransactionFilter{Range: &core.DateRange{From: start, To: start.AddMonths(1).AddDays(-1)}}
}

// DefaultCategories is the category taxonomy every backend starts with.
// The SQLite migration seeds the same rows.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "salary", Name: "Salary", Kind: core.TxIncome},
		{ID: "freelance", Name: "Freelance", Kind: core.TxIncome},
		{ID: "investments", Name: "Investments", Kind: core.TxIncome},
		{ID: "other-income", Name: "Other income", Kind: core.TxIncome},
		{ID: "housing", Name: "Housing", Kind: core.TxExpense},
		{ID: "utilities", Name: "Utilities", Kind: core.TxExpense},
		{ID: "groceries", Name: "Groceries", Kind: core.TxExpense},
		{ID: "dining", Name: "Dining out", Kind: core.TxExpense},
		{ID: "transport", Name: "Transport", Kind: core.TxExpense},
		{ID: "health", Name: "Health", Kind: core.TxExpense},
		{ID: "entertainment", Name: "Entertainment", Kind: core.TxExpense},
		{ID: "shopping", Name: "Shopping", Kind: core.TxExpense},
		{ID: "travel", Name: "Travel", Kind: core.TxExpense},
		{ID: "education", Name: "Education", Kind: core.TxExpense},
		{ID: "other-expense", Name: "Other expenses", Kind: core.TxExpense},
	}
}

// CategoryNames indexes category display names by ID.
func CategoryNames(cats []core.Category) map[string]string {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}
