package enrichment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/signal-desk/backend/internal/storage/models"
)

const systemPrompt = `You are a sales-intelligence analyst for the life-sciences staffing market.
Staffing firms post job listings on behalf of their clients without naming them.
Given job signals, predict which end-client company is actually hiring.

For each signal return the top 3 ranked guesses, each with:
- company_name: the predicted end-client
- confidence: High, Medium, or Low
- reasoning: one short sentence

Respond with ONLY a JSON array, one object per signal:
[{"signal_id": "...", "predictions": [{"company_name": "...", "confidence": "High", "reasoning": "..."}]}]`

// scrubFirmName strips any verbatim occurrence of the staffing firm's name
// from free text so the judgment is not contaminated by the source firm.
func scrubFirmName(text, firm string) string {
	if strings.TrimSpace(firm) == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(firm))
	return re.ReplaceAllString(text, "")
}

func buildBatchPrompt(signals []models.Signal, firm string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The postings below were published by the staffing firm %q. ", firm)
	fmt.Fprintf(&b, "Do NOT guess %q itself as the end-client.\n\nSignals:\n", firm)

	for i := range signals {
		s := &signals[i]
		desc := s.Summary
		if title := s.Detail.String("job_title"); title != "" {
			desc = title + " - " + desc
		}
		if loc := s.Detail.String("location"); loc != "" {
			desc += " (" + loc + ")"
		}
		fmt.Fprintf(&b, "- signal_id: %s\n  description: %s\n", s.ID, scrubFirmName(desc, firm))
	}

	b.WriteString("\nReturn the JSON array only.")
	return b.String()
}
