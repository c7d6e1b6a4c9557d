package storage

const (
	listCategories = `SELECT id, name, kind FROM categories ORDER BY kind, name`

	getProfile = `
SELECT user_id, employment_type, earning_method, pay_frequency,
       annual_salary, hourly_rate, hours_per_week, region_tax_code,
       health_insurance_per_paycheck, retirement_percent,
       gross_annual_income, federal_tax, regional_tax, health_insurance_annual,
       retirement_contribution_annual, other_deductions_annual, net_annual_income,
       updated_at
FROM income_profiles
WHERE user_id = ?`

	upsertProfile = `
INSERT INTO income_profiles (
    user_id, employment_type, earning_method, pay_frequency,
    annual_salary, hourly_rate, hours_per_week, region_tax_code,
    health_insurance_per_paycheck, retirement_percent,
    gross_annual_income, federal_tax, regional_tax, health_insurance_annual,
    retirement_contribution_annual, other_deductions_annual, net_annual_income,
    updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    employment_type = excluded.employment_type,
    earning_method = excluded.earning_method,
    pay_frequency = excluded.pay_frequency,
    annual_salary = excluded.annual_salary,
    hourly_rate = excluded.hourly_rate,
    hours_per_week = excluded.hours_per_week,
    region_tax_code = excluded.region_tax_code,
    health_insurance_per_paycheck = excluded.health_insurance_per_paycheck,
    retirement_percent = excluded.retirement_percent,
    gross_annual_income = excluded.gross_annual_income,
    federal_tax = excluded.federal_tax,
    regional_tax = excluded.regional_tax,
    health_insurance_annual = excluded.health_insurance_annual,
    retirement_contribution_annual = excluded.retirement_contribution_annual,
    other_deductions_annual = excluded.other_deductions_annual,
    net_annual_income = excluded.net_annual_income,
    updated_at = excluded.updated_at`

	listDeductions   = `SELECT name, amount_per_paycheck FROM profile_deductions WHERE user_id = ? ORDER BY position`
	deleteDeductions = `DELETE FROM profile_deductions WHERE user_id = ?`
	insertDeduction  = `INSERT INTO profile_deductions (user_id, position, name, amount_per_paycheck) VALUES (?, ?, ?, ?)`

	goalColumns = `id, user_id, name, type, target_amount, category_id, period, deadline, planned_contribution, start_date, is_active`

	insertGoal = `INSERT INTO goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// Parameters follow goalArgs order; id and user_id match the WHERE clause.
	updateGoal = `
UPDATE goals SET
    name = ?3, type = ?4, target_amount = ?5, category_id = ?6, period = ?7,
    deadline = ?8, planned_contribution = ?9, start_date = ?10, is_active = ?11
WHERE id = ?1 AND user_id = ?2`

	getGoal = `SELECT ` + goalColumns + ` FROM goals WHERE id = ? AND user_id = ?`

	listGoals = `
SELECT ` + goalColumns + ` FROM goals
WHERE user_id = ?1 AND (?2 = 0 OR is_active = 1)
ORDER BY start_date, id`

	transactionColumns = `id, user_id, date, time_seconds, merchant, category_id, amount, type, goal_id, notes`

	insertTransaction = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

	deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

	// Empty string parameters disable the corresponding filter.
	listTransactions = `
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ?1
  AND (?2 = '' OR date >= ?2)
  AND (?3 = '' OR date <= ?3)
  AND (?4 = '' OR type = ?4)
  AND (?5 = '' OR goal_id = ?5)
ORDER BY date DESC, time_seconds IS NULL, time_seconds DESC, id`
)
