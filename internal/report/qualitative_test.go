package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
	"github.com/fyrsmithlabs/coachd/internal/patterns"
)

func TestParseQualitative(t *testing.T) {
	body := `{"summary":"Solid footing overall.","keyInsights":["steady income"],"recommendations":["save more"],"actionItems":["open a savings account"]}`

	report, err := parseQualitative(body)
	require.NoError(t, err)
	assert.Equal(t, "Solid footing overall.", report.Summary)
	assert.Equal(t, []string{"steady income"}, report.KeyInsights)
	assert.Equal(t, notebook.ReportSourceAI, report.Source)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestParseQualitative_ToleratesCodeFences(t *testing.T) {
	body := "```json\n{\"summary\":\"ok\"}\n```"

	report, err := parseQualitative(body)
	require.NoError(t, err)
	assert.Equal(t, "ok", report.Summary)
	assert.NotNil(t, report.KeyInsights)
	assert.Empty(t, report.KeyInsights)
}

func TestParseQualitative_Failures(t *testing.T) {
	_, err := parseQualitative("here's my take: things look fine")
	assert.Error(t, err)

	_, err = parseQualitative(`{"keyInsights":["no summary field"]}`)
	assert.Error(t, err)
}

func TestTemplateQualitative_SurplusWording(t *testing.T) {
	data := extract.FinancialData{
		Income:   extract.Income{Monthly: 5000},
		Expenses: extract.Expenses{Categories: map[string]float64{patterns.CategoryHousing: 2000}, Total: 2000},
		Goals:    extract.Goals{ShortTerm: []string{"emergency fund"}},
		Debts:    extract.Debts{Total: 8000},
	}

	report := templateQualitative("Dana", data)
	assert.Equal(t, notebook.ReportSourceTemplate, report.Source)
	assert.Contains(t, report.Summary, "Dana")
	assert.Contains(t, report.Summary, "surplus of $3000.00")
	assert.NotEmpty(t, report.KeyInsights)
	assert.Contains(t, report.Recommendations[1], "highest-rate debt")
	assert.Contains(t, report.ActionItems[1], "emergency fund")
}

func TestTemplateQualitative_DeficitWording(t *testing.T) {
	data := extract.FinancialData{
		Income:   extract.Income{Monthly: 2000},
		Expenses: extract.Expenses{Total: 2500},
	}

	report := templateQualitative("", data)
	assert.Contains(t, report.Summary, "The client")
	assert.Contains(t, report.Summary, "$500.00 more than they bring in")
	assert.Contains(t, report.Recommendations[0], "below income")
}

func TestBuildQualitativePrompt_IncludesTranscriptAndData(t *testing.T) {
	messages := []extract.Message{
		{Speaker: extract.SpeakerUser, Text: "I pay 1500 a month in rent."},
	}
	data := extract.FinancialData{Income: extract.Income{Monthly: 4000}}

	prompt := buildQualitativePrompt(messages, data)
	assert.Contains(t, prompt, "user: I pay 1500 a month in rent.")
	assert.Contains(t, prompt, `"monthly": 4000`)
	assert.Contains(t, prompt, "ONLY a JSON object")
}
