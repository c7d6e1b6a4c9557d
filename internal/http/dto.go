package http

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

// Amounts are rendered with two decimals, ratios with four.
func amount(d decimal.Decimal) string { return core.FormatAmount(d) }

func ratio(d decimal.Decimal) string { return d.Round(4).String() }

func optionalAmount(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := amount(*d)
	return &s
}

func optionalDate(d *core.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// Profile

type deductionJSON struct {
	Name              string `json:"name"`
	AmountPerPaycheck string `json:"amountPerPaycheck"`
}

type profileRequest struct {
	EmploymentType             string          `json:"employmentType"`
	EarningMethod              string          `json:"earningMethod"`
	PayFrequency               string          `json:"payFrequency"`
	AnnualSalary               *string         `json:"annualSalary"`
	HourlyRate                 *string         `json:"hourlyRate"`
	HoursPerWeek               *string         `json:"hoursPerWeek"`
	RegionTaxCode              string          `json:"regionTaxCode"`
	HealthInsurancePerPaycheck string          `json:"healthInsurancePerPaycheck"`
	RetirementPercent          string          `json:"retirementPercent"`
	OtherDeductions            []deductionJSON `json:"otherDeductions"`
}

func (req profileRequest) toProfile() (core.IncomeProfile, error) {
	p := core.IncomeProfile{
		EmploymentType: core.EmploymentType(strings.TrimSpace(req.EmploymentType)),
		EarningMethod:  core.EarningMethod(strings.TrimSpace(req.EarningMethod)),
		PayFrequency:   core.PayFrequency(strings.TrimSpace(req.PayFrequency)),
		RegionTaxCode:  strings.ToUpper(strings.TrimSpace(req.RegionTaxCode)),
	}

	var err error
	if p.AnnualSalary, err = parseOptionalDecimal("annualSalary", req.AnnualSalary); err != nil {
		return p, err
	}
	if p.HourlyRate, err = parseOptionalDecimal("hourlyRate", req.HourlyRate); err != nil {
		return p, err
	}
	if p.HoursPerWeek, err = parseOptionalDecimal("hoursPerWeek", req.HoursPerWeek); err != nil {
		return p, err
	}
	if p.HealthInsurancePerPaycheck, err = parseDecimal("healthInsurancePerPaycheck", req.HealthInsurancePerPaycheck); err != nil {
		return p, err
	}
	if p.RetirementPercent, err = parseDecimal("retirementPercent", req.RetirementPercent); err != nil {
		return p, err
	}
	for _, d := range req.OtherDeductions {
		amt, err := parseDecimal("otherDeductions", d.AmountPerPaycheck)
		if err != nil {
			return p, err
		}
		p.OtherDeductions = append(p.OtherDeductions, core.Deduction{Name: sanitizeInput(d.Name), AmountPerPaycheck: amt})
	}
	return p, nil
}

type incomeBreakdownJSON struct {
	GrossAnnualIncome            string `json:"grossAnnualIncome"`
	FederalTax                   string `json:"federalTax"`
	RegionalTax                  string `json:"regionalTax"`
	HealthInsuranceAnnual        string `json:"healthInsuranceAnnual"`
	RetirementContributionAnnual string `json:"retirementContributionAnnual"`
	OtherDeductionsAnnual        string `json:"otherDeductionsAnnual"`
	NetAnnualIncome              string `json:"netAnnualIncome"`
}

type profileResponse struct {
	UserID                     string              `json:"userId"`
	EmploymentType             string              `json:"employmentType"`
	EarningMethod              string              `json:"earningMethod"`
	PayFrequency               string              `json:"payFrequency"`
	AnnualSalary               *string             `json:"annualSalary,omitempty"`
	HourlyRate                 *string             `json:"hourlyRate,omitempty"`
	HoursPerWeek               *string             `json:"hoursPerWeek,omitempty"`
	RegionTaxCode              string              `json:"regionTaxCode,omitempty"`
	HealthInsurancePerPaycheck string              `json:"healthInsurancePerPaycheck"`
	RetirementPercent          string              `json:"retirementPercent"`
	OtherDeductions            []deductionJSON     `json:"otherDeductions"`
	Computed                   incomeBreakdownJSON `json:"computed"`
	UpdatedAt                  time.Time           `json:"updatedAt"`
}

func newProfileResponse(p core.IncomeProfile) profileResponse {
	deductions := make([]deductionJSON, 0, len(p.OtherDeductions))
	for _, d := range p.OtherDeductions {
		deductions = append(deductions, deductionJSON{Name: d.Name, AmountPerPaycheck: amount(d.AmountPerPaycheck)})
	}
	return profileResponse{
		UserID:                     p.UserID,
		EmploymentType:             string(p.EmploymentType),
		EarningMethod:              string(p.EarningMethod),
		PayFrequency:               string(p.PayFrequency),
		AnnualSalary:               optionalAmount(p.AnnualSalary),
		HourlyRate:                 optionalAmount(p.HourlyRate),
		HoursPerWeek:               optionalAmount(p.HoursPerWeek),
		RegionTaxCode:              p.RegionTaxCode,
		HealthInsurancePerPaycheck: amount(p.HealthInsurancePerPaycheck),
		RetirementPercent:          p.RetirementPercent.String(),
		OtherDeductions:            deductions,
		Computed: incomeBreakdownJSON{
			GrossAnnualIncome:            amount(p.Derived.GrossAnnualIncome),
			FederalTax:                   amount(p.Derived.FederalTax),
			RegionalTax:                  amount(p.Derived.RegionalTax),
			HealthInsuranceAnnual:        amount(p.Derived.HealthInsuranceAnnual),
			RetirementContributionAnnual: amount(p.Derived.RetirementContributionAnnual),
			OtherDeductionsAnnual:        amount(p.Derived.OtherDeductionsAnnual),
			NetAnnualIncome:              amount(p.Derived.NetAnnualIncome),
		},
		UpdatedAt: p.UpdatedAt,
	}
}

// Goals

type goalRequest struct {
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	TargetAmount        string  `json:"targetAmount"`
	CategoryID          string  `json:"categoryId"`
	Period              string  `json:"period"`
	Deadline            *string `json:"deadline"`
	PlannedContribution *string `json:"plannedContribution"`
	StartDate           string  `json:"startDate"`
}

func (req goalRequest) toGoal() (core.Goal, error) {
	g := core.Goal{
		Name:       sanitizeInput(req.Name),
		Type:       core.GoalType(strings.TrimSpace(req.Type)),
		CategoryID: strings.TrimSpace(req.CategoryID),
		Period:     core.Granularity(strings.TrimSpace(req.Period)),
	}

	var err error
	if g.TargetAmount, err = parseDecimal("targetAmount", req.TargetAmount); err != nil {
		return g, err
	}
	if g.Deadline, err = parseOptionalDate("deadline", req.Deadline); err != nil {
		return g, err
	}
	if g.PlannedContribution, err = parseOptionalDecimal("plannedContribution", req.PlannedContribution); err != nil {
		return g, err
	}
	start, err := parseOptionalDate("startDate", &req.StartDate)
	if err != nil {
		return g, err
	}
	if start != nil {
		g.StartDate = *start
	}
	return g, nil
}

type progressJSON struct {
	CurrentAmount   string  `json:"currentAmount"`
	RemainingAmount string  `json:"remainingAmount"`
	PercentComplete string  `json:"percentComplete"`
	IsOnTrack       bool    `json:"isOnTrack"`
	PeriodLabel     *string `json:"periodLabel,omitempty"`
	PeriodStart     *string `json:"periodStart,omitempty"`
	PeriodEnd       *string `json:"periodEnd,omitempty"`
	ExpectedAmount  *string `json:"expectedAmount,omitempty"`
}

type goalResponse struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name,omitempty"`
	Type                string        `json:"type"`
	TargetAmount        string        `json:"targetAmount"`
	CategoryID          string        `json:"categoryId,omitempty"`
	Period              string        `json:"period,omitempty"`
	Deadline            *string       `json:"deadline,omitempty"`
	PlannedContribution *string       `json:"plannedContribution,omitempty"`
	StartDate           string        `json:"startDate"`
	IsActive            bool          `json:"isActive"`
	Progress            *progressJSON `json:"progress,omitempty"`
}

func newGoalResponse(g core.Goal, p *core.GoalProgress) goalResponse {
	resp := goalResponse{
		ID:                  g.ID,
		Name:                g.Name,
		Type:                string(g.Type),
		TargetAmount:        amount(g.TargetAmount),
		CategoryID:          g.CategoryID,
		Period:              string(g.Period),
		Deadline:            optionalDate(g.Deadline),
		PlannedContribution: optionalAmount(g.PlannedContribution),
		StartDate:           g.StartDate.String(),
		IsActive:            g.IsActive,
	}
	if p != nil {
		resp.Progress = &progressJSON{
			CurrentAmount:   amount(p.CurrentAmount),
			RemainingAmount: amount(p.RemainingAmount),
			PercentComplete: ratio(p.PercentComplete),
			IsOnTrack:       p.IsOnTrack,
			PeriodLabel:     p.PeriodLabel,
			PeriodStart:     optionalDate(p.PeriodStart),
			PeriodEnd:       optionalDate(p.PeriodEnd),
			ExpectedAmount:  optionalAmount(p.ExpectedAmount),
		}
	}
	return resp
}

func newGoalWithProgress(g services.GoalWithProgress) goalResponse {
	return newGoalResponse(g.Goal, &g.Progress)
}

// Transactions

type transactionRequest struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Merchant   string `json:"merchant"`
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	GoalID     string `json:"goalId"`
	Notes      string `json:"notes"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	tx := core.Transaction{
		Merchant:   sanitizeInput(req.Merchant),
		CategoryID: strings.TrimSpace(req.CategoryID),
		Type:       core.TransactionType(strings.TrimSpace(req.Type)),
		GoalID:     strings.TrimSpace(req.GoalID),
		Notes:      sanitizeInput(req.Notes),
	}

	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return tx, core.Invalid("date", err)
	}
	tx.Date = date
	if tx.TimeOfDay, err = parseTimeOfDay(req.Time); err != nil {
		return tx, err
	}
	if tx.Amount, err = parsePositive("amount", req.Amount); err != nil {
		return tx, err
	}
	return tx, nil
}

type transactionResponse struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Time       string `json:"time,omitempty"`
	Merchant   string `json:"merchant"`
	CategoryID string `json:"categoryId,omitempty"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	GoalID     string `json:"goalId,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func newTransactionResponse(tx core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:         tx.ID,
		Date:       tx.Date.String(),
		Merchant:   tx.Merchant,
		CategoryID: tx.CategoryID,
		Amount:     amount(tx.Amount),
		Type:       string(tx.Type),
		GoalID:     tx.GoalID,
		Notes:      tx.Notes,
	}
	if tx.TimeOfDay != nil {
		resp.Time = time.Time{}.Add(*tx.TimeOfDay).Format(timeOfDayLayout)
	}
	return resp
}

func newTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, newTransactionResponse(tx))
	}
	return out
}

// Insights

type bucketJSON struct {
	Label    string `json:"label"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Income   string `json:"income"`
	Spending string `json:"spending"`
	Net      string `json:"net"`
}

func newBuckets(buckets []core.Bucket) []bucketJSON {
	out := make([]bucketJSON, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketJSON{
			Label:    b.Label,
			Start:    b.Start.String(),
			End:      b.End.String(),
			Income:   amount(b.Income),
			Spending: amount(b.Spending),
			Net:      amount(b.Net()),
		})
	}
	return out
}

type flowResponse struct {
	Granularity string       `json:"granularity"`
	DataPoints  []bucketJSON `json:"dataPoints"`
}

type dashboardResponse struct {
	AsOf               string                `json:"asOf"`
	CurrentBalance     string                `json:"currentBalance"`
	BalanceChange      string                `json:"balanceChange"`
	RecentTransactions []transactionResponse `json:"recentTransactions"`
	MonthlyFlow        []bucketJSON          `json:"monthlyFlow"`
}

func newDashboardResponse(d core.DashboardSummary) dashboardResponse {
	return dashboardResponse{
		AsOf:               d.AsOf.String(),
		CurrentBalance:     amount(d.CurrentBalance),
		BalanceChange:      amount(d.BalanceChange),
		RecentTransactions: newTransactionList(d.RecentTransactions),
		MonthlyFlow:        newBuckets(d.MonthlyFlow),
	}
}

type categoryAmountJSON struct {
	CategoryID       string `json:"categoryId"`
	CategoryName     string `json:"categoryName"`
	Amount           string `json:"amount"`
	TransactionCount int    `json:"transactionCount"`
	PercentOfTotal   string `json:"percentOfTotal"`
}

type monthlyInsightResponse struct {
	Year                    int                  `json:"year"`
	Month                   int                  `json:"month"`
	Period                  string               `json:"period"`
	TotalIncome             string               `json:"totalIncome"`
	TotalExpenses           string               `json:"totalExpenses"`
	NetBalance              string               `json:"netBalance"`
	ChangeFromPreviousMonth string               `json:"changeFromPreviousMonth"`
	CategoryBreakdown       []categoryAmountJSON `json:"categoryBreakdown"`
}

func newMonthlyInsightResponse(m core.MonthlyInsight) monthlyInsightResponse {
	breakdown := make([]categoryAmountJSON, 0, len(m.CategoryBreakdown))
	for _, c := range m.CategoryBreakdown {
		breakdown = append(breakdown, categoryAmountJSON{
			CategoryID:       c.CategoryID,
			CategoryName:     c.CategoryName,
			Amount:           amount(c.Amount),
			TransactionCount: c.TransactionCount,
			PercentOfTotal:   ratio(c.PercentOfTotal),
		})
	}
	return monthlyInsightResponse{
		Year:                    m.Year,
		Month:                   m.Month,
		Period:                  m.Period(),
		TotalIncome:             amount(m.TotalIncome),
		TotalExpenses:           amount(m.TotalExpenses),
		NetBalance:              amount(m.NetBalance),
		ChangeFromPreviousMonth: amount(m.ChangeFromPreviousMonth),
		CategoryBreakdown:       breakdown,
	}
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func newCategoryList(cats []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Kind: string(c.Kind)})
	}
	return out
}
