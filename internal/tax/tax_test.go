package tax

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func salaried(salary string) core.IncomeProfile {
	return core.IncomeProfile{
		EmploymentType: core.FullTime,
		EarningMethod:  core.Salaried,
		PayFrequency:   core.PayMonthly,
		AnnualSalary:   dp(salary),
	}
}

func TestFederalTax(t *testing.T) {
	tests := []struct {
		name  string
		gross string
		want  string
	}{
		{"zero income", "0", "0"},
		{"below standard deduction", "14000", "0"},
		{"exactly the standard deduction", "14600", "0"},
		{"first bracket only", "20000", "540"},
		{"two brackets", "60000", "5216"},
		{"three brackets", "100000", "13841"},
		{"negative income", "-500", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FederalTax(d(tt.gross))
			if !got.Equal(d(tt.want)) {
				t.Errorf("FederalTax(%s) = %s, want %s", tt.gross, got, tt.want)
			}
		})
	}
}

func TestFederalTax_Monotonic(t *testing.T) {
	prev := decimal.Zero
	for gross := int64(0); gross <= 1_000_000; gross += 2_500 {
		got := FederalTax(decimal.NewFromInt(gross))
		require.Falsef(t, got.LessThan(prev), "tax decreased at %d: %s < %s", gross, got, prev)
		prev = got
	}
}

func TestFederalTax_ContinuousAtThresholds(t *testing.T) {
	cent := d("0.01")
	for _, b := range defaultBrackets {
		if b.Upper.IsZero() {
			continue
		}
		at := b.Upper.Add(defaultDeduction)
		below := FederalTax(at.Sub(cent))
		above := FederalTax(at.Add(cent))
		assert.Truef(t, above.Sub(below).LessThanOrEqual(cent),
			"jump at threshold %s: %s -> %s", b.Upper, below, above)
	}
}

func TestRegionalTax(t *testing.T) {
	tests := []struct {
		name  string
		gross string
		code  string
		want  string
	}{
		{"colorado", "60000", "CO", "2640"},
		{"lower-case code", "60000", "co", "2640"},
		{"unknown region", "60000", "ZZ", "0"},
		{"no region", "60000", "", "0"},
		{"zero gross", "0", "CO", "0"},
		{"negative gross", "-10", "CO", "0"},
		{"rounds to cents", "1000.50", "PA", "30.72"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionalTax(d(tt.gross), tt.code)
			if !got.Equal(d(tt.want)) {
				t.Errorf("RegionalTax(%s, %q) = %s, want %s", tt.gross, tt.code, got, tt.want)
			}
		})
	}
}

func TestAnnualize(t *testing.T) {
	tests := []struct {
		freq core.PayFrequency
		want string
	}{
		{core.PayWeekly, "5200"},
		{core.PayBiWeekly, "2600"},
		{core.PaySemiMonthly, "2400"},
		{core.PayMonthly, "1200"},
		{"quarterly", "1200"},
	}
	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got := Annualize(d("100"), tt.freq)
			if !got.Equal(d(tt.want)) {
				t.Errorf("Annualize(100, %s) = %s, want %s", tt.freq, got, tt.want)
			}
		})
	}
}

func TestCompute_Salaried(t *testing.T) {
	p := salaried("60000")
	p.PayFrequency = core.PayBiWeekly
	p.RegionTaxCode = "CO"
	p.HealthInsurancePerPaycheck = d("100")
	p.RetirementPercent = d("5")
	p.OtherDeductions = []core.Deduction{
		{Name: "union dues", AmountPerPaycheck: d("10")},
		{Name: "parking", AmountPerPaycheck: d("25")},
	}

	b, err := Compute(p)
	require.NoError(t, err)

	assert.True(t, b.GrossAnnualIncome.Equal(d("60000")))
	assert.True(t, b.FederalTax.Equal(d("5216")))
	assert.True(t, b.RegionalTax.Equal(d("2640")))
	assert.True(t, b.HealthInsuranceAnnual.Equal(d("2600")), "bi-weekly health insurance is annualized x26")
	assert.True(t, b.RetirementContributionAnnual.Equal(d("3000")))
	assert.True(t, b.OtherDeductionsAnnual.Equal(d("910")))
	assert.True(t, b.NetAnnualIncome.Equal(d("45634")), "net = %s", b.NetAnnualIncome)
}

func TestCompute_Hourly(t *testing.T) {
	p := core.IncomeProfile{
		EmploymentType: core.PartTime,
		EarningMethod:  core.Hourly,
		PayFrequency:   core.PayWeekly,
		HourlyRate:     dp("20"),
		HoursPerWeek:   dp("40"),
	}
	b, err := Compute(p)
	require.NoError(t, err)
	assert.True(t, b.GrossAnnualIncome.Equal(d("41600")), "gross = %s", b.GrossAnnualIncome)
}

func TestCompute_NetRoundTrip(t *testing.T) {
	for _, salary := range []string{"0", "9000", "45000.55", "120000", "250000", "750000"} {
		t.Run(salary, func(t *testing.T) {
			p := salaried(salary)
			p.PayFrequency = core.PaySemiMonthly
			p.RegionTaxCode = "il"
			p.HealthInsurancePerPaycheck = d("87.33")
			p.RetirementPercent = d("6.5")
			p.OtherDeductions = []core.Deduction{{Name: "gym", AmountPerPaycheck: d("15")}}

			b, err := Compute(p)
			require.NoError(t, err)

			rebuilt := b.NetAnnualIncome.
				Add(b.FederalTax).
				Add(b.RegionalTax).
				Add(b.HealthInsuranceAnnual).
				Add(b.RetirementContributionAnnual).
				Add(b.OtherDeductionsAnnual)
			assert.True(t, rebuilt.Equal(b.GrossAnnualIncome), "%s != %s", rebuilt, b.GrossAnnualIncome)
		})
	}
}

func TestCompute_NetMayBeNegative(t *testing.T) {
	p := salaried("1000")
	p.HealthInsurancePerPaycheck = d("200")

	b, err := Compute(p)
	require.NoError(t, err)
	assert.True(t, b.NetAnnualIncome.Equal(d("-1400")), "net = %s", b.NetAnnualIncome)
}

func TestCompute_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *core.IncomeProfile)
		wantErr error
	}{
		{
			name:    "salaried without salary",
			mutate:  func(p *core.IncomeProfile) { p.AnnualSalary = nil },
			wantErr: core.ErrMissingSalary,
		},
		{
			name: "hourly without hours",
			mutate: func(p *core.IncomeProfile) {
				p.EarningMethod = core.Hourly
				p.HourlyRate = dp("20")
			},
			wantErr: core.ErrMissingHourlyFields,
		},
		{
			name:    "retirement above 100",
			mutate:  func(p *core.IncomeProfile) { p.RetirementPercent = d("101") },
			wantErr: core.ErrInvalidRetirement,
		},
		{
			name:    "unknown pay frequency",
			mutate:  func(p *core.IncomeProfile) { p.PayFrequency = "daily" },
			wantErr: core.ErrInvalidPayFrequency,
		},
		{
			name: "negative deduction",
			mutate: func(p *core.IncomeProfile) {
				p.OtherDeductions = []core.Deduction{{Name: "x", AmountPerPaycheck: d("-1")}}
			},
			wantErr: core.ErrNegativeDeduction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := salaried("50000")
			tt.mutate(&p)

			_, err := Compute(p)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("Compute() error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestRecompute(t *testing.T) {
	p := salaried("80000")
	p.Derived.NetAnnualIncome = d("1") // stale

	got, err := Recompute(p)
	require.NoError(t, err)

	want, err := Compute(p)
	require.NoError(t, err)
	assert.Equal(t, want, got.Derived)
	assert.True(t, p.Derived.NetAnnualIncome.Equal(d("1")), "input profile must not change")

	again, err := Recompute(got)
	require.NoError(t, err)
	assert.Equal(t, got.Derived, again.Derived)
}

func TestDefaultSchedule_ReturnsCopies(t *testing.T) {
	s := DefaultSchedule()
	s.Brackets[0].Rate = d("0.99")
	s.RegionRates["CO"] = d("0.5")
	delete(s.RegionRates, "IL")

	assert.True(t, FederalTax(d("20000")).Equal(d("540")))
	assert.True(t, RegionalTax(d("60000"), "CO").Equal(d("2640")))
	assert.Contains(t, Regions(), "IL")
}

func TestSchedule_CustomBrackets(t *testing.T) {
	s := Schedule{
		Brackets: []Bracket{
			{Upper: d("1000"), Rate: d("0")},
			{Upper: decimal.Zero, Rate: d("0.5")},
		},
	}
	assert.True(t, s.FederalTax(d("3000")).Equal(d("1000")))
}
