package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

// NewSQLiteRepository opens the database at dbPath and migrates it to the
// latest schema.
func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCategories implements store.CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.TransactionType(kind)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetProfile implements store.ProfileStore
func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.IncomeProfile, error) {
	var (
		p                              core.IncomeProfile
		employment, method, freq       string
		salary, rate, hours            sql.NullString
		health, retirement             string
		gross, fed, regional           string
		healthAnnual, retirementAnnual string
		otherAnnual, net               string
	)
	err := r.db.QueryRowContext(ctx, getProfile, userID).Scan(
		&p.UserID, &employment, &method, &freq,
		&salary, &rate, &hours, &p.RegionTaxCode, &health, &retirement,
		&gross, &fed, &regional, &healthAnnual, &retirementAnnual, &otherAnnual, &net,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeProfile{}, store.ErrNotFound
	}
	if err != nil {
		return core.IncomeProfile{}, fmt.Errorf("get profile: %w", err)
	}

	p.EmploymentType = core.EmploymentType(employment)
	p.EarningMethod = core.EarningMethod(method)
	p.PayFrequency = core.PayFrequency(freq)

	var d decimalScanner
	p.AnnualSalary = d.optional(salary)
	p.HourlyRate = d.optional(rate)
	p.HoursPerWeek = d.optional(hours)
	p.HealthInsurancePerPaycheck = d.required(health)
	p.RetirementPercent = d.required(retirement)
	p.Derived = core.IncomeBreakdown{
		GrossAnnualIncome:            d.required(gross),
		FederalTax:                   d.required(fed),
		RegionalTax:                  d.required(regional),
		HealthInsuranceAnnual:        d.required(healthAnnual),
		RetirementContributionAnnual: d.required(retirementAnnual),
		OtherDeductionsAnnual:        d.required(otherAnnual),
		NetAnnualIncome:              d.required(net),
	}
	if d.err != nil {
		return core.IncomeProfile{}, fmt.Errorf("decode profile %s: %w", userID, d.err)
	}

	rows, err := r.db.QueryContext(ctx, listDeductions, userID)
	if err != nil {
		return core.IncomeProfile{}, fmt.Errorf("list deductions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, amount string
		if err := rows.Scan(&name, &amount); err != nil {
			return core.IncomeProfile{}, fmt.Errorf("scan deduction: %w", err)
		}
		p.OtherDeductions = append(p.OtherDeductions, core.Deduction{Name: name, AmountPerPaycheck: d.required(amount)})
	}
	if d.err != nil {
		return core.IncomeProfile{}, fmt.Errorf("decode deductions %s: %w", userID, d.err)
	}
	return p, rows.Err()
}

// SaveProfile implements store.ProfileStore
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p core.IncomeProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin profile tx: %w", err)
	}
	defer tx.Rollback()

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, upsertProfile,
		p.UserID, string(p.EmploymentType), string(p.EarningMethod), string(p.PayFrequency),
		nullDecimal(p.AnnualSalary), nullDecimal(p.HourlyRate), nullDecimal(p.HoursPerWeek),
		p.RegionTaxCode, p.HealthInsurancePerPaycheck.String(), p.RetirementPercent.String(),
		p.Derived.GrossAnnualIncome.String(), p.Derived.FederalTax.String(), p.Derived.RegionalTax.String(),
		p.Derived.HealthInsuranceAnnual.String(), p.Derived.RetirementContributionAnnual.String(),
		p.Derived.OtherDeductionsAnnual.String(), p.Derived.NetAnnualIncome.String(),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if _, err := tx.ExecContext(ctx, deleteDeductions, p.UserID); err != nil {
		return fmt.Errorf("clear deductions: %w", err)
	}
	for i, d := range p.OtherDeductions {
		if _, err := tx.ExecContext(ctx, insertDeduction, p.UserID, i, d.Name, d.AmountPerPaycheck.String()); err != nil {
			return fmt.Errorf("insert deduction %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	r.logger.DebugContext(ctx, "Income profile saved", applog.FieldUserID, p.UserID, "deductions", len(p.OtherDeductions))
	return nil
}

// CreateGoal implements store.GoalStore
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, insertGoal, goalArgs(g)...)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// UpdateGoal implements store.GoalStore
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, updateGoal, goalArgs(g)...)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetGoal implements store.GoalStore
func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, getGoal, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, store.ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// ListGoals implements store.GoalStore
func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string, activeOnly bool) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, listGoals, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// CreateTransaction implements store.TransactionStore
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	var seconds sql.NullInt64
	if t.TimeOfDay != nil {
		seconds = sql.NullInt64{Int64: int64(*t.TimeOfDay / time.Second), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, insertTransaction,
		t.ID, t.UserID, t.Date.String(), seconds, t.Merchant, t.CategoryID,
		t.Amount.String(), string(t.Type), t.GoalID, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Transaction saved to SQLite", applog.FieldEntityID, t.ID, "type", t.Type, "date", t.Date.String())
	return nil
}

// GetTransaction implements store.TransactionStore
func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, getTransaction, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction implements store.TransactionStore
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListTransactions implements store.TransactionStore
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, f store.TransactionFilter) ([]core.Transaction, error) {
	var from, to string
	if f.Range != nil {
		from, to = f.Range.From.String(), f.Range.To.String()
	}
	rows, err := r.db.QueryContext(ctx, listTransactions, userID, from, to, string(f.Type), f.GoalID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func goalArgs(g core.Goal) []any {
	var deadline sql.NullString
	if g.Deadline != nil {
		deadline = sql.NullString{String: g.Deadline.String(), Valid: true}
	}
	return []any{
		g.ID, g.UserID, g.Name, string(g.Type), g.TargetAmount.String(), g.CategoryID, string(g.Period),
		deadline, nullDecimal(g.PlannedContribution), g.StartDate.String(), g.IsActive,
	}
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                 core.Goal
		goalType, period  string
		target, start     string
		deadline, planned sql.NullString
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &goalType, &target, &g.CategoryID, &period,
		&deadline, &planned, &start, &g.IsActive); err != nil {
		return core.Goal{}, err
	}
	g.Type = core.GoalType(goalType)
	g.Period = core.Granularity(period)

	var d decimalScanner
	g.TargetAmount = d.required(target)
	g.PlannedContribution = d.optional(planned)
	if d.err != nil {
		return core.Goal{}, d.err
	}

	var err error
	if g.StartDate, err = core.ParseDate(start); err != nil {
		return core.Goal{}, fmt.Errorf("start date %q: %w", start, err)
	}
	if deadline.Valid {
		dl, err := core.ParseDate(deadline.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("deadline %q: %w", deadline.String, err)
		}
		g.Deadline = &dl
	}
	return g, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t            core.Transaction
		date, amount string
		txType       string
		seconds      sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.UserID, &date, &seconds, &t.Merchant, &t.CategoryID,
		&amount, &txType, &t.GoalID, &t.Notes); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(txType)

	var err error
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("date %q: %w", date, err)
	}
	if seconds.Valid {
		tod := time.Duration(seconds.Int64) * time.Second
		t.TimeOfDay = &tod
	}
	var d decimalScanner
	t.Amount = d.required(amount)
	return t, d.err
}

// decimalScanner parses TEXT columns, keeping the first error.
type decimalScanner struct {
	err error
}

func (s *decimalScanner) required(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil && s.err == nil {
		s.err = fmt.Errorf("decode amount %q: %w", v, err)
	}
	return d
}

func (s *decimalScanner) optional(v sql.NullString) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := s.required(v.String)
	return &d
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
