package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// TransactionService records and removes transactions, announcing each change
// so the export worker can refresh the affected month.
type TransactionService struct {
	txs    store.TransactionStore
	goals  store.GoalStore
	events EventPublisher
	logger *applog.Logger
	audit  *applog.StructuredLogger
}

func NewTransactionService(txs store.TransactionStore, goalStore store.GoalStore, events EventPublisher, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentTransaction)
	return &TransactionService{
		txs:    txs,
		goals:  goalStore,
		events: events,
		logger: logger,
		audit:  applog.NewStructuredLogger(logger),
	}
}

// Record validates and stores a new transaction for userID. Contributions
// must reference one of the user's savings goals.
func (s *TransactionService) Record(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	tx.ID = core.NewID()
	tx.UserID = userID
	if tx.Type != core.TxContribution {
		tx.GoalID = ""
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if tx.Type == core.TxContribution {
		goal, err := s.goals.GetGoal(ctx, userID, tx.GoalID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return core.Transaction{}, core.Invalid("goalId", ErrContributionTarget)
		case err != nil:
			return core.Transaction{}, fmt.Errorf("get goal: %w", err)
		case goal.Type != core.SavingsGoal:
			return core.Transaction{}, core.Invalid("goalId", ErrContributionTarget)
		}
	}

	if err := s.txs.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.audit.LogTransactionRecorded(ctx, userID, tx.ID, string(tx.Type), tx.Amount.StringFixed(2), tx.CategoryID)
	publish(ctx, s.events, s.logger,
		amqp.NewTransactionEvent(amqp.TransactionRecorded, userID, tx.ID, tx.Date.Year(), tx.Date.Month()))
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := s.txs.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// List returns the user's transactions matching f, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, f store.TransactionFilter) ([]core.Transaction, error) {
	if f.Range != nil {
		if err := f.Range.Validate(); err != nil {
			return nil, err
		}
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.Invalid("type", core.ErrInvalidTransactionType)
	}
	txs, err := s.txs.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool { return core.NewestFirst(txs[i], txs[j]) })
	return txs, nil
}

// Delete removes a transaction and announces the change for its month.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	tx, err := s.txs.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.txs.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldUserID, userID,
		applog.FieldTxID, id,
		applog.FieldOperation, applog.OpDelete)
	publish(ctx, s.events, s.logger,
		amqp.NewTransactionEvent(amqp.TransactionDeleted, userID, id, tx.Date.Year(), tx.Date.Month()))
	return nil
}
