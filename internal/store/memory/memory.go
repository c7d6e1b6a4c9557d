// Package memory is the in-process store used for local development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	cats     []core.Category
	profiles map[string]core.IncomeProfile
	goals    map[string]core.Goal
	txs      map[string]core.Transaction
}

// New returns an empty store with the given categories. Duplicate IDs keep
// the first occurrence.
func New(cats []core.Category) *Store {
	return &Store{
		cats:     dedupe(cats),
		profiles: make(map[string]core.IncomeProfile),
		goals:    make(map[string]core.Goal),
		txs:      make(map[string]core.Transaction),
	}
}

// NewFromFiles seeds categories from base/categories.txt, one "id,name,kind"
// per line. Falls back to store.DefaultCategories when the file is missing.
func NewFromFiles(base string) *Store {
	cats := readCategories(filepath.Join(base, "categories.txt"))
	if len(cats) == 0 {
		cats = store.DefaultCategories()
	}
	return New(cats)
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (core.IncomeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return core.IncomeProfile{}, store.ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *Store) SaveProfile(_ context.Context, p core.IncomeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = cloneProfile(p)
	return nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = cloneGoal(g)
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.goals[g.ID]; !ok || existing.UserID != g.UserID {
		return store.ErrNotFound
	}
	s.goals[g.ID] = cloneGoal(g)
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, store.ErrNotFound
	}
	return cloneGoal(g), nil
}

func (s *Store) ListGoals(_ context.Context, userID string, activeOnly bool) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.UserID != userID || (activeOnly && !g.IsActive) {
			continue
		}
		out = append(out, cloneGoal(g))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.BeforeDate(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[t.ID] = cloneTransaction(t)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return core.Transaction{}, store.ErrNotFound
	}
	return cloneTransaction(t), nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.UserID == userID && f.Matches(t) {
			out = append(out, cloneTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if core.NewestFirst(out[i], out[j]) {
			return true
		}
		if core.NewestFirst(out[j], out[i]) {
			return false
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneProfile(p core.IncomeProfile) core.IncomeProfile {
	p.AnnualSalary = cloneDecimal(p.AnnualSalary)
	p.HourlyRate = cloneDecimal(p.HourlyRate)
	p.HoursPerWeek = cloneDecimal(p.HoursPerWeek)
	p.OtherDeductions = append([]core.Deduction(nil), p.OtherDeductions...)
	return p
}

func cloneGoal(g core.Goal) core.Goal {
	if g.Deadline != nil {
		d := *g.Deadline
		g.Deadline = &d
	}
	g.PlannedContribution = cloneDecimal(g.PlannedContribution)
	return g
}

func cloneTransaction(t core.Transaction) core.Transaction {
	if t.TimeOfDay != nil {
		tod := *t.TimeOfDay
		t.TimeOfDay = &tod
	}
	return t
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func readCategories(path string) []core.Category {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Category
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			continue
		}
		kind := core.TransactionType(strings.TrimSpace(parts[2]))
		if kind != core.TxIncome && kind != core.TxExpense {
			continue
		}
		out = append(out, core.Category{
			ID:   strings.TrimSpace(parts[0]),
			Name: strings.TrimSpace(parts[1]),
			Kind: kind,
		})
	}
	return out
}

func dedupe(in []core.Category) []core.Category {
	seen := map[string]struct{}{}
	out := make([]core.Category, 0, len(in))
	for _, c := range in {
		if c.ID == "" {
			continue
		}
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
