package notebook

import "time"

// Report artifact sources.
const (
	ReportSourceAI       = "ai"
	ReportSourceTemplate = "template"
)

// QualitativeReport is the narrative coaching summary. Source records
// whether it came from the text-generation service or the local template
// fallback.
type QualitativeReport struct {
	Summary         string    `json:"summary"`
	KeyInsights     []string  `json:"keyInsights"`
	Recommendations []string  `json:"recommendations"`
	ActionItems     []string  `json:"actionItems"`
	Source          string    `json:"source"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// MonthlyBudget is the income/expense snapshot inside a quantitative
// report.
type MonthlyBudget struct {
	Income      float64            `json:"income"`
	Expenses    map[string]float64 `json:"expenses"`
	Surplus     float64            `json:"surplus"`
	SavingsRate float64            `json:"savingsRate"`
}

// SavingsOpportunity flags one category spending above its benchmark.
type SavingsOpportunity struct {
	Category         string  `json:"category"`
	CurrentSpend     float64 `json:"currentSpend"`
	RecommendedSpend float64 `json:"recommendedSpend"`
	PotentialSaving  float64 `json:"potentialSaving"`
	Suggestion       string  `json:"suggestion"`
}

// Projection is a linear savings outlook at one horizon.
type Projection struct {
	Savings  float64 `json:"savings"`
	NetWorth float64 `json:"netWorth"`
}

// Projections holds the three fixed projection horizons.
type Projections struct {
	ThreeMonth Projection `json:"threeMonth"`
	SixMonth   Projection `json:"sixMonth"`
	OneYear    Projection `json:"oneYear"`
}

// QuantitativeReport is the deterministic numeric report.
type QuantitativeReport struct {
	MonthlyBudget        MonthlyBudget        `json:"monthlyBudget"`
	SavingsOpportunities []SavingsOpportunity `json:"savingsOpportunities"`
	Projections          Projections          `json:"projections"`
	GeneratedAt          time.Time            `json:"generatedAt"`
}
