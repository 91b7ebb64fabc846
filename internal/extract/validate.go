package extract

import "fmt"

// Plausibility bounds for monthly income. Figures outside them are worth a
// second look but not fatal.
const (
	minPlausibleMonthlyIncome = 500
	maxPlausibleMonthlyIncome = 100_000
)

// Validation is the outcome of checking extracted data. Warnings are
// non-fatal; any error makes IsValid false.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks extracted financial data for the one fatal condition (no
// income found at all) and plausibility warnings. It is pure and never
// mutates its input.
func Validate(data FinancialData) Validation {
	v := Validation{
		IsValid:  true,
		Errors:   []string{},
		Warnings: []string{},
	}

	if data.Income.Monthly <= 0 && data.Income.Annual <= 0 {
		v.IsValid = false
		v.Errors = append(v.Errors, "no income information found")
		return v
	}

	monthly := data.Income.Monthly
	if monthly < minPlausibleMonthlyIncome {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"monthly income %.2f is unusually low, verify", monthly))
	}
	if monthly > maxPlausibleMonthlyIncome {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"monthly income %.2f is unusually high, verify", monthly))
	}
	if data.Expenses.Total > monthly {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"expenses %.2f exceed monthly income %.2f", data.Expenses.Total, monthly))
	}

	return v
}
