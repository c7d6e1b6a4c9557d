package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

func TestNewFromFiles_SeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != len(store.DefaultCategories()) {
		t.Fatalf("expected default categories when file missing, got %d", len(cats))
	}

	content := "# id,name,kind\nrent,Rent,expense\npay,Pay,income\nrent,Duplicate,expense\nbad line\nx,X,transfer\n"
	if err := os.WriteFile(filepath.Join(dir, "categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write categories: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Rent" || cats[1].Kind != core.TxIncome {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := New(store.DefaultCategories())

	add := func(id, user string, date core.Date, typ core.TransactionType) {
		t.Helper()
		err := s.CreateTransaction(ctx, core.Transaction{
			ID: id, UserID: user, Date: date, Merchant: "m", CategoryID: "groceries",
			Amount: decimal.NewFromInt(1), Type: typ,
		})
		if err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}
	add("b", "u1", core.NewDate(2025, 2, 1), core.TxExpense)
	add("a", "u1", core.NewDate(2025, 2, 1), core.TxIncome)
	add("c", "u1", core.NewDate(2025, 1, 1), core.TxExpense)
	add("d", "u2", core.NewDate(2025, 2, 1), core.TxExpense)

	all, err := s.ListTransactions(ctx, "u1", store.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Fatalf("want newest first, got %+v", all)
	}

	feb, _ := s.ListTransactions(ctx, "u1", store.MonthFilter(2025, 2))
	if len(feb) != 2 {
		t.Errorf("month filter returned %d transactions, want 2", len(feb))
	}
	expenses, _ := s.ListTransactions(ctx, "u1", store.TransactionFilter{Type: core.TxExpense})
	if len(expenses) != 2 {
		t.Errorf("type filter returned %d transactions, want 2", len(expenses))
	}

	if err := s.DeleteTransaction(ctx, "u2", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleting another user's transaction: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", "a"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", "a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetTransaction after delete: got %v, want ErrNotFound", err)
	}
}

func TestStore_GoalsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	deadline := core.NewDate(2025, 12, 31)
	g := core.Goal{ID: "g1", UserID: "u1", Type: core.SavingsGoal, TargetAmount: decimal.NewFromInt(10),
		StartDate: core.NewDate(2025, 1, 1), Deadline: &deadline, IsActive: true}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	deadline = core.NewDate(2030, 1, 1)

	got, err := s.GetGoal(ctx, "u1", "g1")
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if *got.Deadline != core.NewDate(2025, 12, 31) {
		t.Errorf("stored goal aliased caller memory: %v", got.Deadline)
	}

	got.IsActive = false
	if err := s.UpdateGoal(ctx, got); err != nil {
		t.Fatalf("UpdateGoal: %v", err)
	}
	active, _ := s.ListGoals(ctx, "u1", true)
	if len(active) != 0 {
		t.Errorf("expected no active goals, got %d", len(active))
	}
	if err := s.UpdateGoal(ctx, core.Goal{ID: "missing", UserID: "u1"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateGoal missing: got %v", err)
	}
}

func TestStore_Profile(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	if _, err := s.GetProfile(ctx, "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetProfile on empty store: got %v", err)
	}
	salary := decimal.NewFromInt(50000)
	p := core.IncomeProfile{UserID: "u1", EarningMethod: core.Salaried, AnnualSalary: &salary}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	got, err := s.GetProfile(ctx, "u1")
	if err != nil || !got.AnnualSalary.Equal(salary) {
		t.Fatalf("GetProfile = %+v, %v", got, err)
	}
}

func TestListTransactions_TimeOfDayOrder(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	evening, morning := 20*time.Hour, 8*time.Hour
	day := core.NewDate(2025, 3, 10)
	for _, tx := range []core.Transaction{
		{ID: "untimed", Date: day},
		{ID: "morning", Date: day, TimeOfDay: &morning},
		{ID: "evening", Date: day, TimeOfDay: &evening},
	} {
		tx.UserID, tx.Merchant, tx.CategoryID = "u1", "m", "groceries"
		tx.Amount, tx.Type = decimal.NewFromInt(1), core.TxExpense
		if err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	list, _ := s.ListTransactions(ctx, "u1", store.TransactionFilter{})
	if len(list) != 3 || list[0].ID != "evening" || list[1].ID != "morning" || list[2].ID != "untimed" {
		t.Fatalf("unexpected order: %+v", list)
	}
}
