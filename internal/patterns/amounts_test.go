package patterns

import (
	"math"
	"testing"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"100k", 100000},
		{"$1,500", 1500},
		{"2.5k", 2500},
		{"1m", 1000000},
		{"$85,000", 85000},
		{" 42 ", 42},
		{"$ 1,200.50", 1200.50},
		{"bogus", 0},
		{"", 0},
		{"k", 0},
		{"$", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeAmount(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConvertToMonthly(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		freq   Frequency
		want   float64
	}{
		{"annual", 1200, FrequencyAnnual, 100},
		{"biweekly", 1000, FrequencyBiweekly, 1000 * 26.0 / 12.0},
		{"weekly", 500, FrequencyWeekly, 500 * 52.0 / 12.0},
		{"daily", 50, FrequencyDaily, 1500},
		{"hourly", 25, FrequencyHourly, 4000},
		{"monthly identity", 3000, FrequencyMonthly, 3000},
		{"unknown treated as monthly", 3000, Frequency("fortnightly-ish"), 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertToMonthly(tt.amount, tt.freq)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertToMonthly(%v, %q) = %v, want %v", tt.amount, tt.freq, got, tt.want)
			}
		})
	}
}
