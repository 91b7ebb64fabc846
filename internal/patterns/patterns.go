package patterns

import "regexp"

// Expense and lifestyle categories. Order is the fixed priority in which
// extraction walks categories.
const (
	CategoryHousing       = "housing"
	CategoryUtilities     = "utilities"
	CategoryFood          = "food"
	CategoryTransport     = "transport"
	CategoryFitness       = "fitness"
	CategoryHealthcare    = "healthcare"
	CategoryEntertainment = "entertainment"
	CategorySubscriptions = "subscriptions"
	CategoryTravel        = "travel"
)

// LifestyleCategories is the fixed set of lifestyle slots on a user profile.
var LifestyleCategories = []string{
	CategoryHousing,
	CategoryFood,
	CategoryTransport,
	CategoryFitness,
	CategoryEntertainment,
	CategorySubscriptions,
	CategoryTravel,
}

// LifestyleGroup maps an expense category into the profile's lifestyle
// taxonomy. Categories without their own slot fold into the nearest one.
var LifestyleGroup = map[string]string{
	CategoryHousing:       CategoryHousing,
	CategoryUtilities:     CategoryHousing,
	CategoryFood:          CategoryFood,
	CategoryTransport:     CategoryTransport,
	CategoryFitness:       CategoryFitness,
	CategoryHealthcare:    CategoryFitness,
	CategoryEntertainment: CategoryEntertainment,
	CategorySubscriptions: CategorySubscriptions,
	CategoryTravel:        CategoryTravel,
}

// amt captures a money amount: optional $, digits with commas/decimals, and
// an optional k/m suffix. Always capture group 1 of a compiled pattern.
const amt = `\$?([0-9][0-9,]*(?:\.[0-9]+)?[km]?)`

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// IncomeSet holds the income patterns for one pay frequency.
type IncomeSet struct {
	Frequency Frequency
	Patterns  []*regexp.Regexp
}

// IncomePatterns lists income patterns in priority order: annual figures
// are generally the most reliably stated, so they are tried first.
var IncomePatterns = []IncomeSet{
	{FrequencyAnnual, compileAll(
		`(?i)(?:make|earn|making|earning|salary|income)[^.\d]{0,40}?`+amt+`\s*(?:a|per|/)\s*(?:year|yr|annum)`,
		`(?i)annual(?:ly)?[^.\d]{0,20}?`+amt,
		`(?i)`+amt+`\s*(?:a|per|/)\s*(?:year|yr)`,
	)},
	{FrequencyMonthly, compileAll(
		`(?i)(?:make|earn|making|earning|bring(?:ing)? home|take home|income)[^.\d]{0,40}?`+amt+`\s*(?:a|per|/)\s*month`,
		`(?i)monthly\s+(?:income|salary|pay)[^.\d]{0,20}?`+amt,
	)},
	{FrequencyBiweekly, compileAll(
		`(?i)(?:make|earn|get paid|paid)[^.\d]{0,40}?`+amt+`\s*(?:every\s+(?:two|2)\s+weeks|bi-?weekly)`,
		`(?i)`+amt+`\s*(?:every\s+(?:two|2)\s+weeks|bi-?weekly)`,
	)},
	{FrequencyWeekly, compileAll(
		`(?i)(?:make|earn|get paid|paid)[^.\d]{0,40}?`+amt+`\s*(?:a|per|/)\s*week`,
		`(?i)`+amt+`\s*(?:a|per|/)\s*week`,
	)},
	{FrequencyHourly, compileAll(
		`(?i)`+amt+`\s*(?:an|per|/)\s*hour`,
		`(?i)(?:make|earn|paid)[^.\d]{0,40}?`+amt+`\s*hourly`,
	)},
}

// IncomeSourcePattern captures a stated income source or employer.
var IncomeSourcePattern = regexp.MustCompile(`(?i)(?:i work (?:at|for)|employed (?:at|by))\s+([A-Za-z][A-Za-z0-9&'\- ]{1,40}?)(?:[.!?,]|$)`)

// CategorySet holds the expense patterns for one category.
type CategorySet struct {
	Category string
	Patterns []*regexp.Regexp
}

// expenseSet builds the standard expense pattern alternatives around a
// keyword alternation.
func expenseSet(category, keywords string) CategorySet {
	return CategorySet{
		Category: category,
		Patterns: compileAll(
			`(?i)(?:pay|paying|spend|spending)\s+(?:about\s+|around\s+|roughly\s+)?`+amt+`(?:\s*(?:a|per|/)\s*month)?\s+(?:in|on|for)\s+(?:`+keywords+`)`,
			`(?i)(?:`+keywords+`)\s+(?:is|are|costs?|runs?|comes? to|payments?\s+(?:is|are|of))\s*(?:about\s+|around\s+|roughly\s+)?`+amt,
			`(?i)`+amt+`\s*(?:a|per|/)\s*month\s+(?:in|on|for)\s+(?:`+keywords+`)`,
		),
	}
}

// ExpensePatterns lists expense patterns per category in a fixed priority
// order. The first matching pattern within a category wins.
var ExpensePatterns = []CategorySet{
	expenseSet(CategoryHousing, `rent|mortgage|housing`),
	expenseSet(CategoryUtilities, `utilities|electric(?:ity)?|water bill|internet|phone bill`),
	expenseSet(CategoryFood, `food|groceries|eating out|restaurants|takeout|dining`),
	expenseSet(CategoryTransport, `car|gas|transport(?:ation)?|commut(?:e|ing)|parking|uber|lyft|bus|train`),
	expenseSet(CategoryFitness, `gym|fitness|yoga|crossfit|pilates|classpass`),
	expenseSet(CategoryHealthcare, `health(?:care)?|medical|therapy|prescriptions?`),
	expenseSet(CategoryEntertainment, `entertainment|going out|movies|concerts|bars|nightlife|hobbies`),
	expenseSet(CategorySubscriptions, `subscriptions?|netflix|spotify|streaming`),
	expenseSet(CategoryTravel, `travel(?:ing)?|trips?|vacations?|flights?`),
}

// Debt types.
const (
	DebtCreditCard   = "credit_card"
	DebtStudentLoan  = "student_loan"
	DebtCarLoan      = "car_loan"
	DebtMortgage     = "mortgage"
	DebtPersonalLoan = "personal_loan"
)

// DebtSet holds the debt patterns for one debt type.
type DebtSet struct {
	Type     string
	Patterns []*regexp.Regexp
}

func debtSet(debtType, keywords string) DebtSet {
	return DebtSet{
		Type: debtType,
		Patterns: compileAll(
			`(?i)`+amt+`\s+(?:in|of|on)\s+(?:my\s+)?(?:`+keywords+`)`,
			`(?i)(?:`+keywords+`)[^.\d]{0,30}?(?:debt|balance|loans?)?[^.\d]{0,20}?(?:of|is|at|about|around)?\s*`+amt,
			`(?i)owe\s+(?:about\s+|around\s+)?`+amt+`[^.]{0,30}?(?:`+keywords+`)`,
		),
	}
}

// DebtPatterns lists debt patterns per type in a fixed priority order.
var DebtPatterns = []DebtSet{
	debtSet(DebtCreditCard, `credit cards?`),
	debtSet(DebtStudentLoan, `student loans?|student debt`),
	debtSet(DebtCarLoan, `car loan|auto loan`),
	debtSet(DebtMortgage, `mortgage`),
	debtSet(DebtPersonalLoan, `personal loan`),
}

// DebtTotalPatterns capture an explicitly stated total debt figure, which
// overrides any accumulated per-type total.
var DebtTotalPatterns = compileAll(
	`(?i)(?:total debt|debt total|all my debts?)[^.\d]{0,20}?`+amt,
	`(?i)owe\s+(?:about\s+|around\s+)?`+amt+`\s+(?:in total|altogether|overall)`,
)

// InterestRatePattern captures an interest rate stated near a debt amount.
var InterestRatePattern = regexp.MustCompile(`(?i)(?:at|with)\s+([0-9]+(?:\.[0-9]+)?)\s*%`)

// GoalTerm classifies a goal keyword into a planning horizon.
type GoalTerm string

const (
	GoalShortTerm GoalTerm = "short"
	GoalLongTerm  GoalTerm = "long"
)

// GoalSet associates a keyword-presence pattern with a goal label.
type GoalSet struct {
	Label   string
	Term    GoalTerm
	Pattern *regexp.Regexp
}

// GoalPatterns are keyword-presence patterns, not amount patterns: they
// append qualitative labels into short/long-term buckets by a fixed
// classification.
var GoalPatterns = []GoalSet{
	{"emergency fund", GoalShortTerm, regexp.MustCompile(`(?i)\bemergency fund|rainy day fund`)},
	{"vacation", GoalShortTerm, regexp.MustCompile(`(?i)\bsav(?:e|ing)[^.]{0,40}?(?:vacation|trip)|vacation fund`)},
	{"education", GoalShortTerm, regexp.MustCompile(`(?i)\b(?:go back to school|pay for (?:college|school)|education fund|get a degree)`)},
	{"wedding", GoalShortTerm, regexp.MustCompile(`(?i)\bwedding`)},
	{"retirement", GoalLongTerm, regexp.MustCompile(`(?i)\bretire(?:ment)?\b`)},
	{"house", GoalLongTerm, regexp.MustCompile(`(?i)\b(?:buy a (?:house|home|place)|down payment|house deposit)`)},
	{"business", GoalLongTerm, regexp.MustCompile(`(?i)\b(?:start|my own) [a-z ]{0,20}business`)},
	{"investment", GoalLongTerm, regexp.MustCompile(`(?i)\binvest(?:ing|ments?)?\b`)},
}

// SavingsTargetPatterns capture an explicitly stated monthly savings target.
var SavingsTargetPatterns = compileAll(
	`(?i)(?:save|saving|put away|set aside)\s+(?:about\s+|around\s+)?`+amt+`\s*(?:a|per|/)\s*month`,
)

// Profile patterns are heuristic and best-effort: fields they fail to find
// legitimately remain unset.
var (
	NamePatterns = compileAll(
		`(?i)my name'?s?\s+(?:is\s+)?([A-Za-z]+(?:\s[A-Za-z]+)?)`,
		`(?i)\bcall me\s+([A-Za-z]+)`,
	)
	AgePatterns = compileAll(
		`(?i)\bi'?m\s+([0-9]{1,2})\s*(?:years?\s*old|yo\b)`,
		`(?i)\bi am\s+([0-9]{1,2})\b`,
		`(?i)\b([0-9]{1,2})\s*years?\s*old\b`,
	)
	LocationPatterns = compileAll(
		`(?i)\bi live in\s+([A-Za-z][A-Za-z ,]{1,40}?)(?:[.!?,]|$)`,
		`(?i)\b(?:based|located) in\s+([A-Za-z][A-Za-z ,]{1,40}?)(?:[.!?,]|$)`,
		`(?i)\bmoved to\s+([A-Za-z][A-Za-z ,]{1,40}?)(?:[.!?,]|$)`,
	)
	OccupationPatterns = compileAll(
		`(?i)\bi work as an?\s+([a-z][a-z ]{2,30}?)(?:[.!?,]|$)`,
		`(?i)\bmy job is\s+([a-z][a-z ]{2,30}?)(?:[.!?,]|$)`,
		`(?i)\bi'?m an?\s+([a-z]+(?:\s[a-z]+)?)\s+by (?:trade|profession)`,
	)
)

// LifestylePatterns capture a stated preference phrase per lifestyle
// category. The matched phrase becomes the slot's preference text.
var LifestylePatterns = []CategorySet{
	{CategoryHousing, compileAll(
		`(?i)\b(rent(?:ing)? an? (?:apartment|house|flat|condo|place)|own (?:my|a|our) (?:home|house|condo|apartment)|live with (?:roommates|my parents|family))`,
	)},
	{CategoryFood, compileAll(
		`(?i)\b(cook(?:ing)? at home|cook most meals|eat(?:ing)? out (?:a lot|often|frequently)|order (?:takeout|delivery)(?: a lot)?|meal prep)`,
	)},
	{CategoryTransport, compileAll(
		`(?i)\b(drive (?:to work|everywhere|my car)|take the (?:bus|train|subway|metro)|bike to work|walk to work|use (?:uber|lyft|rideshare))`,
	)},
	{CategoryFitness, compileAll(
		`(?i)\b(go to the gym(?: [a-z ]{0,20})?|gym membership|work(?:ing)? out(?: [a-z ]{0,20})?|do yoga|crossfit|pilates|personal trainer|run(?:ning)? outside)`,
	)},
	{CategoryEntertainment, compileAll(
		`(?i)\b(go(?:ing)? out (?:on weekends|a lot|often)|concerts?|movies?|bars? (?:and|&) restaurants|video games?|nightlife)`,
	)},
	{CategorySubscriptions, compileAll(
		`(?i)\b(netflix|spotify|hulu|disney\+|streaming services?|a few subscriptions?|several subscriptions?)`,
	)},
	{CategoryTravel, compileAll(
		`(?i)\b(travel (?:a lot|often|internationally)|(?:couple|few) (?:of )?trips a year|fly (?:home|abroad)|love (?:to travel|travell?ing))`,
	)},
}
