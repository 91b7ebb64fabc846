// Package patterns holds the regular-expression pattern sets and amount
// normalization helpers used for extracting financial data from free text.
//
// Pattern sets are declarative lists of alternative regexes per semantic
// category. Consumers try patterns in order and take the first match; every
// amount-bearing pattern captures the amount in group 1.
package patterns

import (
	"regexp"
	"strconv"
	"strings"
)

// Frequency identifies how often an income or expense amount recurs.
type Frequency string

const (
	FrequencyAnnual   Frequency = "annual"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyDaily    Frequency = "daily"
	FrequencyHourly   Frequency = "hourly"
)

// Calendar constants for frequency conversion.
const (
	biweeklyPeriodsPerYear = 26
	weeklyPeriodsPerYear   = 52
	daysPerMonth           = 30
	workHoursPerMonth      = 160
	monthsPerYear          = 12
)

var amountCleaner = regexp.MustCompile(`[$,\s]`)

// NormalizeAmount parses a free-text money amount into a number.
//
// Currency symbols, commas, and whitespace are stripped; a trailing "k" or
// "m" multiplies by 1,000 or 1,000,000. Unparseable input yields 0, never
// an error.
func NormalizeAmount(text string) float64 {
	s := amountCleaner.ReplaceAllString(strings.TrimSpace(text), "")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(strings.ToLower(s), "k"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToLower(s), "m"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * multiplier
}

// ConvertToMonthly converts an amount at the given frequency into a monthly
// figure using fixed calendar constants. Unknown frequencies are treated as
// already monthly.
func ConvertToMonthly(amount float64, freq Frequency) float64 {
	switch freq {
	case FrequencyAnnual:
		return amount / monthsPerYear
	case FrequencyBiweekly:
		return amount * biweeklyPeriodsPerYear / monthsPerYear
	case FrequencyWeekly:
		return amount * weeklyPeriodsPerYear / monthsPerYear
	case FrequencyDaily:
		return amount * daysPerMonth
	case FrequencyHourly:
		return amount * workHoursPerMonth
	default:
		return amount
	}
}
