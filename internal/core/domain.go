package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FullTime EmploymentType = "full-time"
	PartTime EmploymentType = "part-time"
	Intern   EmploymentType = "intern"

	Salaried EarningMethod = "salaried"
	Hourly   EarningMethod = "hourly"

	PayWeekly      PayFrequency = "weekly"
	PayBiWeekly    PayFrequency = "bi-weekly"
	PaySemiMonthly PayFrequency = "semi-monthly"
	PayMonthly     PayFrequency = "monthly"

	BudgetGoal  GoalType = "budget"
	SavingsGoal GoalType = "savings"

	TxIncome       TransactionType = "income"
	TxExpense      TransactionType = "expense"
	TxContribution TransactionType = "contribution"

	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

type (
	EmploymentType  string
	EarningMethod   string
	PayFrequency    string
	GoalType        string
	TransactionType string

	// Granularity is both a goal period and a bucket size.
	Granularity string

	Deduction struct {
		Name              string
		AmountPerPaycheck decimal.Decimal
	}

	// IncomeBreakdown holds the computed fields of an IncomeProfile.
	IncomeBreakdown struct {
		GrossAnnualIncome            decimal.Decimal
		FederalTax                   decimal.Decimal
		RegionalTax                  decimal.Decimal
		HealthInsuranceAnnual        decimal.Decimal
		RetirementContributionAnnual decimal.Decimal
		OtherDeductionsAnnual        decimal.Decimal
		NetAnnualIncome              decimal.Decimal
	}

	IncomeProfile struct {
		UserID                     string
		EmploymentType             EmploymentType
		EarningMethod              EarningMethod
		PayFrequency               PayFrequency
		AnnualSalary               *decimal.Decimal
		HourlyRate                 *decimal.Decimal
		HoursPerWeek               *decimal.Decimal
		RegionTaxCode              string
		HealthInsurancePerPaycheck decimal.Decimal
		RetirementPercent          decimal.Decimal
		OtherDeductions            []Deduction

		// Derived is overwritten by tax.Recompute on every write.
		Derived   IncomeBreakdown
		UpdatedAt time.Time
	}

	Goal struct {
		ID                  string
		UserID              string
		Name                string
		Type                GoalType
		TargetAmount        decimal.Decimal
		CategoryID          string
		Period              Granularity
		Deadline            *Date
		PlannedContribution *decimal.Decimal
		StartDate           Date
		IsActive            bool
	}

	Transaction struct {
		ID     string
		UserID string
		Date   Date
		// TimeOfDay is the offset from midnight, nil when unknown.
		TimeOfDay  *time.Duration
		Merchant   string
		CategoryID string
		Amount     decimal.Decimal
		Type       TransactionType
		GoalID     string
		Notes      string
	}

	Category struct {
		ID   string
		Name string
		Kind TransactionType
	}
)

// MaxMerchantLength bounds Transaction.Merchant in bytes.
const MaxMerchantLength = 200

var (
	// ErrValidation is wrapped by every validation failure.
	ErrValidation = errors.New("validation failed")

	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidEmploymentType  = errors.New("invalid employment type")
	ErrInvalidEarningMethod   = errors.New("invalid earning method")
	ErrInvalidPayFrequency    = errors.New("invalid pay frequency")
	ErrMissingSalary          = errors.New("annual salary is required for salaried profiles")
	ErrMissingHourlyFields    = errors.New("hourly rate and hours per week are required for hourly profiles")
	ErrInvalidRetirement      = errors.New("retirement percent must be between 0 and 100")
	ErrNegativeDeduction      = errors.New("deduction amounts cannot be negative")
	ErrEmptyDeductionName     = errors.New("deduction name is required")
	ErrInvalidGoalType        = errors.New("invalid goal type")
	ErrNonPositiveTarget      = errors.New("target amount must be greater than zero")
	ErrMissingCategory        = errors.New("category is required")
	ErrInvalidPeriod          = errors.New("invalid period")
	ErrDeadlineBeforeStart    = errors.New("deadline must not be before start date")
	ErrInvalidPlanned         = errors.New("planned contribution must be greater than zero")
	ErrBudgetOnlyField        = errors.New("deadline and planned contribution apply to savings goals only")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrMissingGoal            = errors.New("contribution transactions require a goal")
	ErrInvalidTimeOfDay       = errors.New("time of day must be within the day")
	ErrEmptyMerchant          = errors.New("empty merchant")
	ErrMerchantTooLong        = fmt.Errorf("merchant too long (max %d characters)", MaxMerchantLength)
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

// Unwrap exposes both the field sentinel and ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// Invalid wraps err as a validation failure of field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// NewID returns a fresh random identifier for goals and transactions.
func NewID() string {
	return uuid.NewString()
}

func (t EmploymentType) Valid() bool {
	switch t {
	case FullTime, PartTime, Intern:
		return true
	}
	return false
}

func (m EarningMethod) Valid() bool {
	return m == Salaried || m == Hourly
}

func (f PayFrequency) Valid() bool {
	switch f {
	case PayWeekly, PayBiWeekly, PaySemiMonthly, PayMonthly:
		return true
	}
	return false
}

func (g Granularity) Valid() bool {
	switch g {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	switch t {
	case TxIncome, TxExpense, TxContribution:
		return true
	}
	return false
}

// Validate checks the input fields of the profile. Derived fields are ignored.
func (p IncomeProfile) Validate() error {
	if !p.EmploymentType.Valid() {
		return Invalid("employmentType", ErrInvalidEmploymentType)
	}
	if !p.PayFrequency.Valid() {
		return Invalid("payFrequency", ErrInvalidPayFrequency)
	}
	switch p.EarningMethod {
	case Salaried:
		if p.AnnualSalary == nil {
			return Invalid("annualSalary", ErrMissingSalary)
		}
	case Hourly:
		if p.HourlyRate == nil || p.HoursPerWeek == nil {
			return Invalid("hourlyRate", ErrMissingHourlyFields)
		}
	default:
		return Invalid("earningMethod", ErrInvalidEarningMethod)
	}
	if p.RetirementPercent.IsNegative() || p.RetirementPercent.GreaterThan(decimal.NewFromInt(100)) {
		return Invalid("retirementPercent", ErrInvalidRetirement)
	}
	if p.HealthInsurancePerPaycheck.IsNegative() {
		return Invalid("healthInsurancePerPaycheck", ErrNegativeDeduction)
	}
	for i, d := range p.OtherDeductions {
		field := fmt.Sprintf("otherDeductions[%d]", i)
		if strings.TrimSpace(d.Name) == "" {
			return Invalid(field, ErrEmptyDeductionName)
		}
		if d.AmountPerPaycheck.IsNegative() {
			return Invalid(field, ErrNegativeDeduction)
		}
	}
	return nil
}

// Validate is the construction-time check the evaluator relies on.
func (g Goal) Validate() error {
	if !g.TargetAmount.IsPositive() {
		return Invalid("targetAmount", ErrNonPositiveTarget)
	}
	if err := g.StartDate.Validate(); err != nil {
		return Invalid("startDate", err)
	}
	switch g.Type {
	case BudgetGoal:
		if strings.TrimSpace(g.CategoryID) == "" {
			return Invalid("categoryId", ErrMissingCategory)
		}
		if !g.Period.Valid() {
			return Invalid("period", ErrInvalidPeriod)
		}
		if g.Deadline != nil || g.PlannedContribution != nil {
			return Invalid("deadline", ErrBudgetOnlyField)
		}
	case SavingsGoal:
		if g.Deadline != nil && g.Deadline.Before(g.StartDate.Time) {
			return Invalid("deadline", ErrDeadlineBeforeStart)
		}
		if g.PlannedContribution != nil && !g.PlannedContribution.IsPositive() {
			return Invalid("plannedContribution", ErrInvalidPlanned)
		}
	default:
		return Invalid("type", ErrInvalidGoalType)
	}
	return nil
}

// NewestFirst reports whether a sorts before b in a newest-first listing:
// later date first, then later time of day, with unknown times last.
func NewestFirst(a, b Transaction) bool {
	if !a.Date.Equal(b.Date.Time) {
		return a.Date.AfterDate(b.Date)
	}
	switch {
	case a.TimeOfDay == nil:
		return false
	case b.TimeOfDay == nil:
		return true
	default:
		return *a.TimeOfDay > *b.TimeOfDay
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if t.TimeOfDay != nil && (*t.TimeOfDay < 0 || *t.TimeOfDay >= 24*time.Hour) {
		return Invalid("time", ErrInvalidTimeOfDay)
	}
	if len(strings.TrimSpace(t.Merchant)) == 0 {
		return Invalid("merchant", ErrEmptyMerchant)
	}
	if len(t.Merchant) > MaxMerchantLength {
		return Invalid("merchant", ErrMerchantTooLong)
	}
	if !t.Amount.IsPositive() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if !t.Type.Valid() {
		return Invalid("type", ErrInvalidTransactionType)
	}
	if strings.TrimSpace(t.CategoryID) == "" && t.Type != TxContribution {
		return Invalid("categoryId", ErrMissingCategory)
	}
	if t.Type == TxContribution && strings.TrimSpace(t.GoalID) == "" {
		return Invalid("goalId", ErrMissingGoal)
	}
	return nil
}
