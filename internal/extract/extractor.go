package extract

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/coachd/internal/patterns"
	"github.com/fyrsmithlabs/coachd/internal/telemetry"
)

// rateWindow bounds how far past a debt amount the extractor looks for an
// interest rate mention.
const rateWindow = 60

// Extractor derives financial data and a user profile from a transcript.
type Extractor struct {
	metrics *telemetry.Metrics
}

// NewExtractor creates an extractor. Metrics may be nil.
func NewExtractor(metrics *telemetry.Metrics) *Extractor {
	return &Extractor{metrics: metrics}
}

// Extract runs a document-level extraction pass over the transcript.
//
// Only user-authored turns are considered; their text is concatenated and
// matched as one document, a deliberate simplification over per-turn
// incremental state. An empty transcript yields a well-formed zero result.
func (e *Extractor) Extract(messages []Message) Result {
	if e.metrics != nil {
		e.metrics.ExtractionRuns.Inc()
	}

	var parts []string
	for _, msg := range messages {
		if msg.Speaker == SpeakerUser && strings.TrimSpace(msg.Text) != "" {
			parts = append(parts, msg.Text)
		}
	}
	doc := strings.Join(parts, "\n")

	result := Result{
		FinancialData: FinancialData{
			Expenses: Expenses{Categories: make(map[string]float64)},
			Goals:    Goals{ShortTerm: []string{}, LongTerm: []string{}},
			Debts:    Debts{Items: []DebtItem{}},
		},
		Profile: NewProfile(),
	}
	if doc == "" {
		return result
	}

	e.extractIncome(doc, &result)
	e.extractExpenses(doc, &result)
	e.extractGoals(doc, &result)
	e.extractDebts(doc, &result)
	e.extractProfile(doc, &result.Profile)
	e.extractLifestyle(doc, &result.Profile)

	return result
}

// extractIncome tries frequencies in priority order; the first match wins
// and is converted to a monthly figure. Multiple matches never blend.
func (e *Extractor) extractIncome(doc string, result *Result) {
	for _, set := range patterns.IncomePatterns {
		for _, re := range set.Patterns {
			m := re.FindStringSubmatch(doc)
			if len(m) < 2 {
				continue
			}
			amount := patterns.NormalizeAmount(m[1])
			if amount <= 0 {
				continue
			}

			result.FinancialData.Income.Monthly = patterns.ConvertToMonthly(amount, set.Frequency)
			if set.Frequency == patterns.FrequencyAnnual {
				result.FinancialData.Income.Annual = amount
			} else {
				result.FinancialData.Income.Annual = result.FinancialData.Income.Monthly * 12
			}

			result.Profile.Income = ProfileIncome{
				Amount:    amount,
				Frequency: string(set.Frequency),
			}

			if m := patterns.IncomeSourcePattern.FindStringSubmatch(doc); len(m) > 1 {
				result.FinancialData.Income.Source = strings.TrimSpace(m[1])
			}
			return
		}
	}
}

// extractExpenses takes the first match per category and keeps the total in
// lockstep with the category sum. Category costs also land in the matching
// lifestyle slot.
func (e *Extractor) extractExpenses(doc string, result *Result) {
	for _, set := range patterns.ExpensePatterns {
		for _, re := range set.Patterns {
			m := re.FindStringSubmatch(doc)
			if len(m) < 2 {
				continue
			}
			amount := patterns.NormalizeAmount(m[1])
			if amount <= 0 {
				break
			}

			result.FinancialData.Expenses.Categories[set.Category] += amount
			result.FinancialData.Expenses.Total += amount

			group := patterns.LifestyleGroup[set.Category]
			slot := result.Profile.Lifestyle[group]
			slot.Cost += amount
			result.Profile.Lifestyle[group] = slot
			break
		}
	}
}

// extractGoals appends qualitative labels by keyword presence and captures
// an explicit monthly savings target if one was stated.
func (e *Extractor) extractGoals(doc string, result *Result) {
	for _, goal := range patterns.GoalPatterns {
		if !goal.Pattern.MatchString(doc) {
			continue
		}
		if goal.Term == patterns.GoalShortTerm {
			result.FinancialData.Goals.ShortTerm = append(result.FinancialData.Goals.ShortTerm, goal.Label)
		} else {
			result.FinancialData.Goals.LongTerm = append(result.FinancialData.Goals.LongTerm, goal.Label)
		}
	}

	for _, re := range patterns.SavingsTargetPatterns {
		if m := re.FindStringSubmatch(doc); len(m) > 1 {
			if amount := patterns.NormalizeAmount(m[1]); amount > 0 {
				result.FinancialData.Goals.Savings = amount
				return
			}
		}
	}
}

// extractDebts records the first amount per debt type as a line item and
// accumulates a running total, unless an explicit total was stated, in
// which case the explicit figure wins.
func (e *Extractor) extractDebts(doc string, result *Result) {
	var accumulated float64
	for _, set := range patterns.DebtPatterns {
		for _, re := range set.Patterns {
			loc := re.FindStringSubmatchIndex(doc)
			if loc == nil || loc[2] < 0 {
				continue
			}
			amount := patterns.NormalizeAmount(doc[loc[2]:loc[3]])
			if amount <= 0 {
				break
			}

			item := DebtItem{Type: set.Type, Amount: amount}
			// Look just past the amount for a stated interest rate.
			end := loc[3] + rateWindow
			if end > len(doc) {
				end = len(doc)
			}
			if m := patterns.InterestRatePattern.FindStringSubmatch(doc[loc[3]:end]); len(m) > 1 {
				item.Rate = patterns.NormalizeAmount(m[1])
			}

			result.FinancialData.Debts.Items = append(result.FinancialData.Debts.Items, item)
			accumulated += amount
			break
		}
	}

	result.FinancialData.Debts.Total = accumulated
	for _, re := range patterns.DebtTotalPatterns {
		if m := re.FindStringSubmatch(doc); len(m) > 1 {
			if explicit := patterns.NormalizeAmount(m[1]); explicit > 0 {
				result.FinancialData.Debts.Total = explicit
				return
			}
		}
	}
}

// extractProfile fills name, age, location, and occupation best-effort.
func (e *Extractor) extractProfile(doc string, profile *Profile) {
	if m := firstSubmatch(patterns.NamePatterns, doc); m != "" {
		profile.Name = strings.TrimSpace(m)
	}
	if m := firstSubmatch(patterns.AgePatterns, doc); m != "" {
		if age := int(patterns.NormalizeAmount(m)); age > 0 && age < 120 {
			profile.Age = age
		}
	}
	if m := firstSubmatch(patterns.LocationPatterns, doc); m != "" {
		profile.Location = strings.TrimSpace(m)
	}
	if m := firstSubmatch(patterns.OccupationPatterns, doc); m != "" {
		profile.Occupation = strings.TrimSpace(m)
	}
}

// extractLifestyle fills preference text per lifestyle slot from stated
// habit phrases.
func (e *Extractor) extractLifestyle(doc string, profile *Profile) {
	for _, set := range patterns.LifestylePatterns {
		for _, re := range set.Patterns {
			m := re.FindStringSubmatch(doc)
			if len(m) < 2 {
				continue
			}
			slot := profile.Lifestyle[set.Category]
			if slot.Preference == "" {
				slot.Preference = strings.TrimSpace(m[1])
				profile.Lifestyle[set.Category] = slot
			}
			break
		}
	}
}

func firstSubmatch(res []*regexp.Regexp, doc string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(doc); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
