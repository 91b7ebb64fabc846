package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/coachd/internal/extract"
	"github.com/fyrsmithlabs/coachd/internal/notebook"
)

const qualitativePrompt = `You are a financial coach writing a post-session summary for a client.

Below are the session transcript and the structured data extracted from it.
Write an encouraging, specific summary of the client's financial situation.

Respond with ONLY a JSON object, no prose around it, in exactly this shape:
{
  "summary": "two to four sentence narrative",
  "keyInsights": ["..."],
  "recommendations": ["..."],
  "actionItems": ["..."]
}

Transcript:
%s

Extracted data:
%s
`

// qualitativePayload is the JSON shape the model is asked to produce.
type qualitativePayload struct {
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"keyInsights"`
	Recommendations []string `json:"recommendations"`
	ActionItems     []string `json:"actionItems"`
}

// buildQualitativePrompt renders the completion prompt from the transcript
// and extracted data.
func buildQualitativePrompt(messages []extract.Message, data extract.FinancialData) string {
	var transcript strings.Builder
	for _, m := range messages {
		transcript.WriteString(string(m.Speaker))
		transcript.WriteString(": ")
		transcript.WriteString(m.Text)
		transcript.WriteString("\n")
	}

	extracted, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		extracted = []byte("{}")
	}

	return fmt.Sprintf(qualitativePrompt, transcript.String(), string(extracted))
}

// parseQualitative parses a model response into a report. Code fences are
// tolerated; an empty summary is a parse failure.
func parseQualitative(text string) (notebook.QualitativeReport, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload qualitativePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return notebook.QualitativeReport{}, fmt.Errorf("parsing qualitative response: %w", err)
	}
	if payload.Summary == "" {
		return notebook.QualitativeReport{}, fmt.Errorf("qualitative response missing summary")
	}

	return notebook.QualitativeReport{
		Summary:         payload.Summary,
		KeyInsights:     orEmpty(payload.KeyInsights),
		Recommendations: orEmpty(payload.Recommendations),
		ActionItems:     orEmpty(payload.ActionItems),
		Source:          notebook.ReportSourceAI,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

// templateQualitative is the deterministic local fallback used whenever
// the remote call or its parse fails. The caller always gets a report.
func templateQualitative(clientName string, data extract.FinancialData) notebook.QualitativeReport {
	name := clientName
	if name == "" {
		name = "The client"
	}

	surplus := data.Income.Monthly - data.Expenses.Total

	var summary strings.Builder
	fmt.Fprintf(&summary, "%s reported monthly income of $%.2f and monthly expenses of $%.2f", name, data.Income.Monthly, data.Expenses.Total)
	if surplus >= 0 {
		fmt.Fprintf(&summary, ", leaving a surplus of $%.2f each month.", surplus)
	} else {
		fmt.Fprintf(&summary, ", spending $%.2f more than they bring in each month.", -surplus)
	}

	insights := []string{}
	if data.Income.Monthly > 0 {
		insights = append(insights, fmt.Sprintf("Monthly income: $%.2f", data.Income.Monthly))
	}
	if data.Expenses.Total > 0 {
		insights = append(insights, fmt.Sprintf("Monthly expenses across %d categories: $%.2f", len(data.Expenses.Categories), data.Expenses.Total))
	}
	if data.Debts.Total > 0 {
		insights = append(insights, fmt.Sprintf("Outstanding debt: $%.2f", data.Debts.Total))
	}

	recommendations := []string{}
	if surplus > 0 {
		recommendations = append(recommendations, fmt.Sprintf("Direct part of the $%.2f monthly surplus into savings.", surplus))
	} else {
		recommendations = append(recommendations, "Review the largest expense categories to bring spending below income.")
	}
	if data.Debts.Total > 0 {
		recommendations = append(recommendations, "Prioritize paying down the highest-rate debt first.")
	}

	actions := []string{"Review the numbers in the quantitative report."}
	for _, goal := range data.Goals.ShortTerm {
		actions = append(actions, fmt.Sprintf("Set a concrete monthly amount toward the %s goal.", goal))
	}

	return notebook.QualitativeReport{
		Summary:         summary.String(),
		KeyInsights:     insights,
		Recommendations: recommendations,
		ActionItems:     actions,
		Source:          notebook.ReportSourceTemplate,
		GeneratedAt:     time.Now().UTC(),
	}
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
