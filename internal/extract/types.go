// Package extract infers structured financial and lifestyle data from a
// session transcript using the pattern library.
//
// Extraction is a pure function of the full transcript: it always re-derives
// from the complete message list rather than keeping incremental state, so
// running it twice over the same transcript yields identical output.
package extract

import "time"

// Speaker identifies who authored a conversation turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Message is the transcript turn shape the extractor consumes.
type Message struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Income holds extracted income figures. Zero values mean "not found".
type Income struct {
	Monthly float64 `json:"monthly,omitempty"`
	Annual  float64 `json:"annual,omitempty"`
	Source  string  `json:"source,omitempty"`
}

// Expenses holds per-category monthly amounts. Total always equals the sum
// of the category values.
type Expenses struct {
	Categories map[string]float64 `json:"categories"`
	Total      float64            `json:"total"`
}

// Goals holds qualitative goal labels and an optional explicit monthly
// savings target.
type Goals struct {
	ShortTerm []string `json:"shortTerm"`
	LongTerm  []string `json:"longTerm"`
	Savings   float64  `json:"savings,omitempty"`
}

// DebtItem is a single extracted debt line item.
type DebtItem struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate,omitempty"`
}

// Debts holds extracted debt line items and their total. An explicitly
// stated total overrides the accumulated one.
type Debts struct {
	Total float64    `json:"total,omitempty"`
	Items []DebtItem `json:"items"`
}

// FinancialData is the structured financial picture derived from a
// transcript. It is recomputable from messages and never a source of truth.
type FinancialData struct {
	Income   Income   `json:"income"`
	Expenses Expenses `json:"expenses"`
	Goals    Goals    `json:"goals"`
	Debts    Debts    `json:"debts"`
}

// LifestyleSlot is one named lifestyle category on a profile.
type LifestyleSlot struct {
	Preference string  `json:"preference,omitempty"`
	Details    string  `json:"details,omitempty"`
	Cost       float64 `json:"cost,omitempty"`
}

// ProfileIncome is the income statement on a user profile.
type ProfileIncome struct {
	Amount    float64 `json:"amount,omitempty"`
	Frequency string  `json:"frequency,omitempty"`
}

// Profile is the sparse user profile filled in incrementally from the
// transcript. Fields the heuristics fail to find legitimately remain unset.
type Profile struct {
	Name       string                   `json:"name,omitempty"`
	Age        int                      `json:"age,omitempty"`
	Location   string                   `json:"location,omitempty"`
	Occupation string                   `json:"occupation,omitempty"`
	Income     ProfileIncome            `json:"income"`
	Lifestyle  map[string]LifestyleSlot `json:"lifestyle"`
}

// NewProfile returns a profile with an initialized lifestyle map, so a
// zero-message notebook still has a well-defined default profile. Slots are
// added as the transcript fills them.
func NewProfile() Profile {
	return Profile{Lifestyle: make(map[string]LifestyleSlot)}
}

// FilledLifestyleSlots counts lifestyle categories with any content.
func (p Profile) FilledLifestyleSlots() int {
	n := 0
	for _, slot := range p.Lifestyle {
		if slot.Preference != "" || slot.Details != "" || slot.Cost > 0 {
			n++
		}
	}
	return n
}

// Merge shallow-merges an incoming partial profile: non-zero incoming
// fields overwrite, absent fields preserve existing values.
func (p *Profile) Merge(in Profile) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Age != 0 {
		p.Age = in.Age
	}
	if in.Location != "" {
		p.Location = in.Location
	}
	if in.Occupation != "" {
		p.Occupation = in.Occupation
	}
	if in.Income.Amount != 0 {
		p.Income.Amount = in.Income.Amount
	}
	if in.Income.Frequency != "" {
		p.Income.Frequency = in.Income.Frequency
	}
	if p.Lifestyle == nil {
		p.Lifestyle = make(map[string]LifestyleSlot)
	}
	for category, slot := range in.Lifestyle {
		existing := p.Lifestyle[category]
		if slot.Preference != "" {
			existing.Preference = slot.Preference
		}
		if slot.Details != "" {
			existing.Details = slot.Details
		}
		if slot.Cost != 0 {
			existing.Cost = slot.Cost
		}
		p.Lifestyle[category] = existing
	}
}

// Result pairs the two extraction outputs.
type Result struct {
	FinancialData FinancialData `json:"financialData"`
	Profile       Profile       `json:"profile"`
}
