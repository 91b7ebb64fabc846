package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
	"github.com/fyrsmithlabs/coachd/internal/patterns"
)

// Benchmark fractions of monthly income per category. Spending above the
// benchmark is flagged as a savings opportunity.
var benchmarkFractions = map[string]decimal.Decimal{
	patterns.CategoryHousing:       decimal.NewFromFloat(0.30),
	patterns.CategoryFood:          decimal.NewFromFloat(0.12),
	patterns.CategoryEntertainment: decimal.NewFromFloat(0.07),
}

// Subscriptions are judged against a flat monthly threshold rather than an
// income fraction.
var subscriptionsThreshold = decimal.NewFromInt(50)

var benchmarkSuggestions = map[string]string{
	patterns.CategoryHousing:       "Housing is above the 30%% guideline. Consider negotiating rent, refinancing, or a roommate to free up %s/month.",
	patterns.CategoryFood:          "Food spending is above the 12%% guideline. More home cooking and meal planning could free up %s/month.",
	patterns.CategoryEntertainment: "Entertainment is above the 7%% guideline. Trimming nights out could free up %s/month.",
	patterns.CategorySubscriptions: "Subscriptions exceed the $50 threshold. Cancelling unused services could free up %s/month.",
}

// Order in which categories are checked, so opportunity lists are stable
// across runs.
var benchmarkOrder = []string{
	patterns.CategoryHousing,
	patterns.CategoryFood,
	patterns.CategoryEntertainment,
	patterns.CategorySubscriptions,
}

// BuildQuantitativeReport derives the deterministic numeric report from
// extracted financial data. It is a pure computation.
func BuildQuantitativeReport(data extract.FinancialData) notebook.QuantitativeReport {
	income := decimal.NewFromFloat(data.Income.Monthly)
	expenses := decimal.NewFromFloat(data.Expenses.Total)
	surplus := income.Sub(expenses)

	// Savings rate is surplus over income as a percentage, one decimal
	// place, and defined as 0 when there is no income.
	savingsRate := decimal.Zero
	if income.IsPositive() {
		savingsRate = surplus.Div(income).Mul(decimal.NewFromInt(100)).Round(1)
	}

	budget := notebook.MonthlyBudget{
		Income:      round2(income),
		Expenses:    make(map[string]float64, len(data.Expenses.Categories)),
		Surplus:     round2(surplus),
		SavingsRate: savingsRate.InexactFloat64(),
	}
	for category, amount := range data.Expenses.Categories {
		budget.Expenses[category] = amount
	}

	return notebook.QuantitativeReport{
		MonthlyBudget:        budget,
		SavingsOpportunities: savingsOpportunities(income, data.Expenses.Categories),
		Projections:          projections(surplus, decimal.NewFromFloat(data.Debts.Total)),
		GeneratedAt:          time.Now().UTC(),
	}
}

// savingsOpportunities flags categories spending above their benchmark.
// Income-fraction benchmarks only apply when income is known; the flat
// subscriptions threshold always applies.
func savingsOpportunities(income decimal.Decimal, categories map[string]float64) []notebook.SavingsOpportunity {
	opportunities := []notebook.SavingsOpportunity{}
	for _, category := range benchmarkOrder {
		spend := decimal.NewFromFloat(categories[category])
		if !spend.IsPositive() {
			continue
		}

		var recommended decimal.Decimal
		if fraction, ok := benchmarkFractions[category]; ok {
			if !income.IsPositive() {
				continue
			}
			recommended = income.Mul(fraction).Round(2)
		} else {
			recommended = subscriptionsThreshold
		}
		if spend.LessThanOrEqual(recommended) {
			continue
		}

		saving := spend.Sub(recommended).Round(2)
		opportunities = append(opportunities, notebook.SavingsOpportunity{
			Category:         category,
			CurrentSpend:     round2(spend),
			RecommendedSpend: round2(recommended),
			PotentialSaving:  round2(saving),
			Suggestion:       fmt.Sprintf(benchmarkSuggestions[category], "$"+saving.StringFixed(2)),
		})
	}
	return opportunities
}

// projections are strictly linear: surplus times the horizon, no
// compounding. Net worth offsets accumulated savings against total debt.
func projections(surplus, totalDebt decimal.Decimal) notebook.Projections {
	at := func(months int64) notebook.Projection {
		savings := surplus.Mul(decimal.NewFromInt(months))
		return notebook.Projection{
			Savings:  round2(savings),
			NetWorth: round2(savings.Sub(totalDebt)),
		}
	}
	return notebook.Projections{
		ThreeMonth: at(3),
		SixMonth:   at(6),
		OneYear:    at(12),
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
