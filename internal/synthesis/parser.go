package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avolkov/tickerscout/pkg/models"
)

// userPromptSeparator splits the rendered prompt template into its
// system and user halves
const userPromptSeparator = "=== USER PROMPT ==="

// SplitPrompt splits rendered template output into system and user
// prompts. Without a separator the whole output is the user prompt.
func SplitPrompt(output string) (systemPrompt string, userPrompt string) {
	idx := strings.Index(output, userPromptSeparator)
	if idx == -1 {
		return "", strings.TrimSpace(output)
	}

	systemPrompt = strings.TrimSpace(output[:idx])
	userPrompt = strings.TrimSpace(output[idx+len(userPromptSeparator):])
	return systemPrompt, userPrompt
}

// parseSentimentResponse strictly parses the backend reply. All three
// fields must be present and the label must be a known value; any
// deviation is a MalformedResponse, never a partially filled result.
func parseSentimentResponse(content string) (*models.SentimentResult, error) {
	jsonStr := extractJSON(content)

	var response struct {
		Sentiment   *string   `json:"sentiment"`
		Rationale   *string   `json:"rationale"`
		RiskFactors *[]string `json:"risk_factors"`
	}

	if err := json.Unmarshal([]byte(jsonStr), &response); err != nil {
		return nil, malformed(fmt.Errorf("failed to unmarshal JSON: %w (content: %s)", err, truncate(jsonStr, 200)))
	}

	if response.Sentiment == nil {
		return nil, malformed(fmt.Errorf("missing sentiment field"))
	}
	if response.Rationale == nil || strings.TrimSpace(*response.Rationale) == "" {
		return nil, malformed(fmt.Errorf("missing or empty rationale field"))
	}
	if response.RiskFactors == nil {
		return nil, malformed(fmt.Errorf("missing risk_factors field"))
	}

	label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(*response.Sentiment)))
	switch label {
	case models.SentimentBullish, models.SentimentBearish, models.SentimentNeutral:
	default:
		return nil, malformed(fmt.Errorf("invalid sentiment label: %q", *response.Sentiment))
	}

	return &models.SentimentResult{
		Label:       label,
		Rationale:   strings.TrimSpace(*response.Rationale),
		RiskFactors: *response.RiskFactors,
	}, nil
}

func malformed(err error) *models.SynthesisError {
	return &models.SynthesisError{Kind: models.SynthesisMalformedResponse, Err: err}
}

// extractJSON extracts the JSON object from a reply that may wrap it
// in prose or a markdown fence
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end == -1 || end < start {
		return content
	}

	return content[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
