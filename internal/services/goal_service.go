package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/goals"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// GoalWithProgress pairs a stored goal with its progress as of a given day.
type GoalWithProgress struct {
	Goal     core.Goal
	Progress core.GoalProgress
}

// GoalService manages goals. Progress is evaluated on every read and never stored.
type GoalService struct {
	goals  store.GoalStore
	txs    store.TransactionStore
	logger *applog.Logger
}

func NewGoalService(goalStore store.GoalStore, txs store.TransactionStore, logger *applog.Logger) *GoalService {
	if logger == nil {
		logger = applog.Discard()
	}
	return &GoalService{
		goals:  goalStore,
		txs:    txs,
		logger: logger.WithComponent(applog.ComponentGoals),
	}
}

// List evaluates the user's goals as of today. Goals and transactions are
// fetched concurrently.
func (s *GoalService) List(ctx context.Context, userID string, activeOnly bool, today core.Date) ([]GoalWithProgress, error) {
	var (
		gs  []core.Goal
		txs []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gs, err = s.goals.ListGoals(gctx, userID, activeOnly)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.txs.ListTransactions(gctx, userID, store.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := goals.EvaluateAll(gs, txs, today)
	out := make([]GoalWithProgress, len(gs))
	for i := range gs {
		out[i] = GoalWithProgress{Goal: gs[i], Progress: progress[i]}
	}
	return out, nil
}

// Get returns one goal with its progress as of today.
func (s *GoalService) Get(ctx context.Context, userID, id string, today core.Date) (GoalWithProgress, error) {
	goal, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalWithProgress{}, fmt.Errorf("get goal: %w", err)
	}
	txs, err := s.txs.ListTransactions(ctx, userID, relevantFilter(goal))
	if err != nil {
		return GoalWithProgress{}, fmt.Errorf("list transactions: %w", err)
	}
	return GoalWithProgress{Goal: goal, Progress: goals.Evaluate(goal, txs, today)}, nil
}

// relevantFilter narrows the transactions a single goal can count.
func relevantFilter(g core.Goal) store.TransactionFilter {
	if g.Type == core.SavingsGoal {
		return store.TransactionFilter{Type: core.TxContribution, GoalID: g.ID}
	}
	return store.TransactionFilter{Type: core.TxExpense}
}

// Create assigns an ID, defaults the start date to today and stores the goal
// as active.
func (s *GoalService) Create(ctx context.Context, userID string, goal core.Goal, today core.Date) (core.Goal, error) {
	goal.ID = core.NewID()
	goal.UserID = userID
	goal.IsActive = true
	if goal.StartDate.IsEmpty() {
		goal.StartDate = today
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.goals.CreateGoal(ctx, goal); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	fields := applog.NewFields().
		WithUser(userID).
		WithGoal(goal.ID, string(goal.Type)).
		WithOperation(applog.OpCreate)
	fields[applog.FieldAmount] = goal.TargetAmount.StringFixed(2)
	s.logger.InfoContext(ctx, "Goal created", fields.ToSlice()...)
	return goal, nil
}

// Update replaces the editable fields of an existing goal. The goal type and
// active flag are kept.
func (s *GoalService) Update(ctx context.Context, userID string, goal core.Goal) (core.Goal, error) {
	existing, err := s.goals.GetGoal(ctx, userID, goal.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	if goal.Type == "" {
		goal.Type = existing.Type
	}
	if goal.Type != existing.Type {
		return core.Goal{}, core.Invalid("type", errors.New("goal type cannot change"))
	}
	goal.UserID = userID
	goal.IsActive = existing.IsActive
	if goal.StartDate.IsEmpty() {
		goal.StartDate = existing.StartDate
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal updated", applog.FieldUserID, userID, applog.FieldGoalID, goal.ID)
	return goal, nil
}

// Deactivate marks a goal inactive. History is kept.
func (s *GoalService) Deactivate(ctx context.Context, userID, id string) error {
	goal, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get goal: %w", err)
	}
	if !goal.IsActive {
		return nil
	}
	goal.IsActive = false
	if err := s.goals.UpdateGoal(ctx, goal); err != nil {
		return fmt.Errorf("deactivate goal: %w", err)
	}
	s.logger.InfoContext(ctx, "Goal deactivated", applog.FieldUserID, userID, applog.FieldGoalID, id)
	return nil
}
