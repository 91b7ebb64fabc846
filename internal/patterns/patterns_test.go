package patterns

import "testing"

func firstMatch(sets []IncomeSet, text string) (Frequency, string) {
	for _, set := range sets {
		for _, re := range set.Patterns {
			if m := re.FindStringSubmatch(text); len(m) > 1 {
				return set.Frequency, m[1]
			}
		}
	}
	return "", ""
}

func TestIncomePatterns_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantFreq Frequency
		wantAmt  string
	}{
		{"annual with k suffix", "I make about 100k a year", FrequencyAnnual, "100k"},
		{"annual salary", "my salary is $85,000 per year", FrequencyAnnual, "85,000"},
		{"monthly take home", "I take home 4500 a month", FrequencyMonthly, "4500"},
		{"biweekly", "I get paid 2000 every two weeks", FrequencyBiweekly, "2000"},
		{"weekly", "I earn 900 a week", FrequencyWeekly, "900"},
		{"hourly", "I make $25 an hour", FrequencyHourly, "25"},
		{"annual wins over monthly", "I make 60k a year and save 200 a month", FrequencyAnnual, "60k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			freq, amt := firstMatch(IncomePatterns, tt.text)
			if freq != tt.wantFreq || amt != tt.wantAmt {
				t.Errorf("firstMatch(%q) = (%q, %q), want (%q, %q)",
					tt.text, freq, amt, tt.wantFreq, tt.wantAmt)
			}
		})
	}
}

func TestIncomePatterns_NoMatchOnExpenseOnlyText(t *testing.T) {
	// "pay 2000 a month in rent" must not be read as monthly income.
	freq, _ := firstMatch(IncomePatterns, "I pay 2000 a month in rent")
	if freq != "" {
		t.Errorf("expense-only text matched income frequency %q", freq)
	}
}

func TestExpensePatterns(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		wantAmt  string
	}{
		{"rent via pay", "I pay 2000 a month in rent", CategoryHousing, "2000"},
		{"rent via is", "my rent is $1,800", CategoryHousing, "1,800"},
		{"groceries", "I spend about 600 on groceries", CategoryFood, "600"},
		{"gym", "my gym costs 80", CategoryFitness, "80"},
		{"subscriptions", "I spend 45 on subscriptions", CategorySubscriptions, "45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, set := range ExpensePatterns {
				if set.Category != tt.category {
					continue
				}
				for _, re := range set.Patterns {
					if m := re.FindStringSubmatch(tt.text); len(m) > 1 {
						if m[1] != tt.wantAmt {
							t.Errorf("category %s matched %q, want %q", tt.category, m[1], tt.wantAmt)
						}
						return
					}
				}
				t.Errorf("category %s: no pattern matched %q", tt.category, tt.text)
			}
		})
	}
}

func TestGoalPatterns_Classification(t *testing.T) {
	shortText := "I want an emergency fund and maybe save for a vacation"
	longText := "thinking about retirement and a down payment someday"

	var short, long int
	for _, g := range GoalPatterns {
		if g.Pattern.MatchString(shortText) {
			if g.Term != GoalShortTerm {
				t.Errorf("goal %q classified %q, want short", g.Label, g.Term)
			}
			short++
		}
		if g.Pattern.MatchString(longText) {
			if g.Term != GoalLongTerm {
				t.Errorf("goal %q classified %q, want long", g.Label, g.Term)
			}
			long++
		}
	}
	if short == 0 || long == 0 {
		t.Errorf("expected both buckets to match, got short=%d long=%d", short, long)
	}
}

func TestLifestyleGroup_CoversAllExpenseCategories(t *testing.T) {
	for _, set := range ExpensePatterns {
		group, ok := LifestyleGroup[set.Category]
		if !ok {
			t.Errorf("category %s has no lifestyle group", set.Category)
			continue
		}
		found := false
		for _, c := range LifestyleCategories {
			if c == group {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("category %s maps to unknown group %s", set.Category, group)
		}
	}
}
