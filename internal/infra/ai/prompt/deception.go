package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
)

// MaxInputTokens caps how many whitespace-separated tokens are sent to the model.
const MaxInputTokens = 512

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a binary text classifier. Estimate the probability that the statement you receive is truthful rather than deceptive. You must produce one valid JSON object only (no markdown, no commentary, no code fences).

Requirements:
- Output must be a single JSON object.
- "truthful" is a number between 0 and 1.
- Judge only the wording of the statement; do not ask for more context.

Schema:
{"truthful": <number>}`
}

// GetUserPrompt wraps the (truncated) statement.
func GetUserPrompt(text string) string {
	return fmt.Sprintf("Statement:\n%s", Truncate(text, MaxInputTokens))
}

// Truncate keeps the first max whitespace-separated tokens of text.
func Truncate(text string, max int) string {
	fields := strings.Fields(text)
	if len(fields) <= max {
		return text
	}
	return strings.Join(fields[:max], " ")
}

// Verdict is the JSON object the model answers with.
type Verdict struct {
	Truthful *float64 `json:"truthful"`
}

// ParseVerdict reads the model reply into a [deceptive, truthful] distribution.
func ParseVerdict(content string) (deception.Distribution, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var v Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &v); err != nil {
		return deception.Distribution{}, fmt.Errorf("%w: %v", deception.ErrInvalidDistribution, err)
	}
	if v.Truthful == nil {
		return deception.Distribution{}, fmt.Errorf("%w: missing truthful field", deception.ErrInvalidDistribution)
	}
	p := *v.Truthful
	d := deception.Distribution{1 - p, p}
	return d, d.Validate()
}
