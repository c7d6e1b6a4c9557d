// Package tax turns an income profile into its derived annual breakdown:
// gross income, federal and regional tax, deductions and net income.
//
// The calculation is pure. Bracket and region tables are package-level values
// that are never handed out by reference.
package tax

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Bracket taxes the slice of taxable income below Upper at Rate.
// An Upper of zero means no limit.
type Bracket struct {
	Upper decimal.Decimal
	Rate  decimal.Decimal
}

// Schedule is a complete set of federal and regional tax parameters.
type Schedule struct {
	StandardDeduction decimal.Decimal
	Brackets          []Bracket
	RegionRates       map[string]decimal.Decimal
}

var weeksPerYear = decimal.NewFromInt(52)

var defaultDeduction = decimal.NewFromInt(14600)

// Single filer brackets, ordered by upper threshold.
var defaultBrackets = []Bracket{
	{Upper: decimal.NewFromInt(11600), Rate: decimal.RequireFromString("0.10")},
	{Upper: decimal.NewFromInt(47150), Rate: decimal.RequireFromString("0.12")},
	{Upper: decimal.NewFromInt(100525), Rate: decimal.RequireFromString("0.22")},
	{Upper: decimal.NewFromInt(191950), Rate: decimal.RequireFromString("0.24")},
	{Upper: decimal.NewFromInt(243725), Rate: decimal.RequireFromString("0.32")},
	{Upper: decimal.NewFromInt(609350), Rate: decimal.RequireFromString("0.35")},
	{Upper: decimal.Zero, Rate: decimal.RequireFromString("0.37")},
}

// Flat state income tax rates keyed by upper-case region code.
var defaultRegionRates = map[string]decimal.Decimal{
	"AZ": decimal.RequireFromString("0.025"),
	"CO": decimal.RequireFromString("0.044"),
	"GA": decimal.RequireFromString("0.0539"),
	"IL": decimal.RequireFromString("0.0495"),
	"IN": decimal.RequireFromString("0.0305"),
	"KY": decimal.RequireFromString("0.04"),
	"MA": decimal.RequireFromString("0.05"),
	"MI": decimal.RequireFromString("0.0425"),
	"NC": decimal.RequireFromString("0.045"),
	"PA": decimal.RequireFromString("0.0307"),
	"UT": decimal.RequireFromString("0.0465"),
}

var paychecksPerYear = map[core.PayFrequency]int64{
	core.PayWeekly:      52,
	core.PayBiWeekly:    26,
	core.PaySemiMonthly: 24,
	core.PayMonthly:     12,
}

// DefaultSchedule returns a fresh copy of the built-in schedule.
func DefaultSchedule() Schedule {
	brackets := make([]Bracket, len(defaultBrackets))
	copy(brackets, defaultBrackets)
	rates := make(map[string]decimal.Decimal, len(defaultRegionRates))
	for code, rate := range defaultRegionRates {
		rates[code] = rate
	}
	return Schedule{
		StandardDeduction: defaultDeduction,
		Brackets:          brackets,
		RegionRates:       rates,
	}
}

// Compute validates p and derives its breakdown with the default schedule.
func Compute(p core.IncomeProfile) (core.IncomeBreakdown, error) {
	return DefaultSchedule().Compute(p)
}

// Recompute returns a copy of p whose Derived fields match its inputs.
func Recompute(p core.IncomeProfile) (core.IncomeProfile, error) {
	b, err := Compute(p)
	if err != nil {
		return core.IncomeProfile{}, err
	}
	p.OtherDeductions = append([]core.Deduction(nil), p.OtherDeductions...)
	p.Derived = b
	return p, nil
}

// FederalTax applies the default brackets to gross annual income.
func FederalTax(gross decimal.Decimal) decimal.Decimal {
	return Schedule{StandardDeduction: defaultDeduction, Brackets: defaultBrackets}.FederalTax(gross)
}

// RegionalTax applies the default flat rate for code to gross annual income.
func RegionalTax(gross decimal.Decimal, code string) decimal.Decimal {
	return Schedule{RegionRates: defaultRegionRates}.RegionalTax(gross, code)
}

// Annualize converts a per-paycheck amount to a yearly amount.
// Unknown frequencies are treated as monthly.
func Annualize(amount decimal.Decimal, freq core.PayFrequency) decimal.Decimal {
	n, ok := paychecksPerYear[freq]
	if !ok {
		n = 12
	}
	return amount.Mul(decimal.NewFromInt(n))
}

// GrossAnnual returns the yearly gross income implied by the profile inputs.
func GrossAnnual(p core.IncomeProfile) (decimal.Decimal, error) {
	switch p.EarningMethod {
	case core.Salaried:
		if p.AnnualSalary == nil {
			return decimal.Zero, &core.ValidationError{Field: "annualSalary", Err: core.ErrMissingSalary}
		}
		return *p.AnnualSalary, nil
	case core.Hourly:
		if p.HourlyRate == nil || p.HoursPerWeek == nil {
			return decimal.Zero, &core.ValidationError{Field: "hourlyRate", Err: core.ErrMissingHourlyFields}
		}
		return p.HourlyRate.Mul(*p.HoursPerWeek).Mul(weeksPerYear), nil
	}
	return decimal.Zero, &core.ValidationError{Field: "earningMethod", Err: core.ErrInvalidEarningMethod}
}

// Compute validates p and derives its breakdown with schedule s.
func (s Schedule) Compute(p core.IncomeProfile) (core.IncomeBreakdown, error) {
	if err := p.Validate(); err != nil {
		return core.IncomeBreakdown{}, err
	}
	gross, err := GrossAnnual(p)
	if err != nil {
		return core.IncomeBreakdown{}, err
	}

	other := decimal.Zero
	for _, d := range p.OtherDeductions {
		other = other.Add(Annualize(d.AmountPerPaycheck, p.PayFrequency))
	}

	b := core.IncomeBreakdown{
		GrossAnnualIncome:            gross,
		FederalTax:                   s.FederalTax(gross),
		RegionalTax:                  s.RegionalTax(gross, p.RegionTaxCode),
		HealthInsuranceAnnual:        Annualize(p.HealthInsurancePerPaycheck, p.PayFrequency),
		RetirementContributionAnnual: gross.Mul(core.Percent(p.RetirementPercent)),
		OtherDeductionsAnnual:        other,
	}
	b.NetAnnualIncome = gross.
		Sub(b.FederalTax).
		Sub(b.RegionalTax).
		Sub(b.HealthInsuranceAnnual).
		Sub(b.RetirementContributionAnnual).
		Sub(b.OtherDeductionsAnnual)
	return b, nil
}

// FederalTax taxes income above the standard deduction bracket by bracket.
func (s Schedule) FederalTax(gross decimal.Decimal) decimal.Decimal {
	taxable := gross.Sub(s.StandardDeduction)
	if !taxable.IsPositive() {
		return decimal.Zero
	}

	total := decimal.Zero
	lower := decimal.Zero
	for _, b := range s.Brackets {
		upper := taxable
		if !b.Upper.IsZero() && b.Upper.LessThan(taxable) {
			upper = b.Upper
		}
		if upper.GreaterThan(lower) {
			total = total.Add(upper.Sub(lower).Mul(b.Rate))
		}
		if b.Upper.IsZero() || !b.Upper.LessThan(taxable) {
			break
		}
		lower = b.Upper
	}
	return core.RoundCents(total)
}

// RegionalTax applies the flat rate registered for code. Unknown codes pay nothing.
func (s Schedule) RegionalTax(gross decimal.Decimal, code string) decimal.Decimal {
	if !gross.IsPositive() {
		return decimal.Zero
	}
	rate, ok := s.RegionRates[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero
	}
	return core.RoundCents(gross.Mul(rate))
}

// Regions lists the supported region codes.
func Regions() []string {
	codes := make([]string, 0, len(defaultRegionRates))
	for code := range defaultRegionRates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
