package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/patterns"
)

func financialData(income float64, categories map[string]float64, debtTotal float64) extract.FinancialData {
	var total float64
	for _, v := range categories {
		total += v
	}
	return extract.FinancialData{
		Income:   extract.Income{Monthly: income},
		Expenses: extract.Expenses{Categories: categories, Total: total},
		Debts:    extract.Debts{Total: debtTotal},
	}
}

func TestBuildQuantitativeReport_BudgetAndSavingsRate(t *testing.T) {
	report := BuildQuantitativeReport(financialData(3000, map[string]float64{
		patterns.CategoryHousing: 900,
		patterns.CategoryFood:    100,
	}, 0))

	budget := report.MonthlyBudget
	assert.Equal(t, float64(3000), budget.Income)
	assert.Equal(t, float64(2000), budget.Surplus)
	// 2000/3000 = 66.666...%, rounded to one decimal place.
	assert.Equal(t, 66.7, budget.SavingsRate)
	assert.Equal(t, float64(900), budget.Expenses[patterns.CategoryHousing])
}

func TestBuildQuantitativeReport_ZeroIncomeSavingsRateIsZero(t *testing.T) {
	report := BuildQuantitativeReport(financialData(0, map[string]float64{
		patterns.CategoryFood: 400,
	}, 0))

	assert.Equal(t, float64(0), report.MonthlyBudget.SavingsRate)
	assert.Equal(t, float64(-400), report.MonthlyBudget.Surplus)
}

func TestSavingsOpportunities_AgainstBenchmarks(t *testing.T) {
	report := BuildQuantitativeReport(financialData(5000, map[string]float64{
		patterns.CategoryHousing:       2000, // benchmark 1500
		patterns.CategoryFood:          500,  // benchmark 600, under
		patterns.CategoryEntertainment: 400,  // benchmark 350
		patterns.CategorySubscriptions: 80,   // flat 50
	}, 0))

	ops := report.SavingsOpportunities
	require.Len(t, ops, 3)

	assert.Equal(t, patterns.CategoryHousing, ops[0].Category)
	assert.Equal(t, float64(2000), ops[0].CurrentSpend)
	assert.Equal(t, float64(1500), ops[0].RecommendedSpend)
	assert.Equal(t, float64(500), ops[0].PotentialSaving)
	assert.Contains(t, ops[0].Suggestion, "$500.00")

	assert.Equal(t, patterns.CategoryEntertainment, ops[1].Category)
	assert.Equal(t, float64(50), ops[1].PotentialSaving)

	assert.Equal(t, patterns.CategorySubscriptions, ops[2].Category)
	assert.Equal(t, float64(50), ops[2].RecommendedSpend)
	assert.Equal(t, float64(30), ops[2].PotentialSaving)
}

func TestSavingsOpportunities_HousingUnderBenchmarkNotFlagged(t *testing.T) {
	// 100k/year is 8333.33/month; 2000 rent is under the 30% guideline.
	report := BuildQuantitativeReport(financialData(8333.33, map[string]float64{
		patterns.CategoryHousing: 2000,
	}, 0))

	assert.Empty(t, report.SavingsOpportunities)
}

func TestSavingsOpportunities_ZeroIncomeSkipsFractionBenchmarks(t *testing.T) {
	report := BuildQuantitativeReport(financialData(0, map[string]float64{
		patterns.CategoryHousing:       2000,
		patterns.CategorySubscriptions: 90,
	}, 0))

	// Only the flat subscriptions threshold applies without income.
	require.Len(t, report.SavingsOpportunities, 1)
	assert.Equal(t, patterns.CategorySubscriptions, report.SavingsOpportunities[0].Category)
}

func TestProjections_LinearNoCompounding(t *testing.T) {
	report := BuildQuantitativeReport(financialData(3000, map[string]float64{
		patterns.CategoryHousing: 2400,
	}, 1000))

	p := report.Projections
	assert.Equal(t, float64(1800), p.ThreeMonth.Savings)
	assert.Equal(t, float64(800), p.ThreeMonth.NetWorth)
	assert.Equal(t, float64(3600), p.SixMonth.Savings)
	assert.Equal(t, float64(7200), p.OneYear.Savings)
	assert.Equal(t, float64(6200), p.OneYear.NetWorth)
}

func TestBuildQuantitativeReport_IsDeterministic(t *testing.T) {
	data := financialData(5000, map[string]float64{
		patterns.CategoryHousing:       2000,
		patterns.CategorySubscriptions: 80,
	}, 500)

	a := BuildQuantitativeReport(data)
	b := BuildQuantitativeReport(data)
	a.GeneratedAt = b.GeneratedAt
	assert.Equal(t, a, b)
}
