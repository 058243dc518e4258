package personality

import "strings"

var (
	extraversionKeywords      = []string{"excited", "happy", "social"}
	conscientiousnessKeywords = []string{"plan", "organized", "careful"}
	agreeablenessKeywords     = []string{"help", "care", "kind"}
	neuroticismKeywords       = []string{"worried", "anxious", "stressed"}
)

// longTextWords is the word count above which openness gets a bonus.
const longTextWords = 50

// HeuristicTraits scores text by keyword presence. No model call.
// Matching is a case-insensitive substring check, so "careful" also fires on "care".
func HeuristicTraits(text string) Traits {
	lower := strings.ToLower(text)

	openness := 0.5
	if len(strings.Fields(text)) > longTextWords {
		openness += 0.2
	}

	t := Traits{
		Openness:          openness,
		Conscientiousness: pick(lower, conscientiousnessKeywords, 0.6, 0.4),
		Extraversion:      pick(lower, extraversionKeywords, 0.7, 0.3),
		Agreeableness:     pick(lower, agreeablenessKeywords, 0.6, 0.4),
		Neuroticism:       pick(lower, neuroticismKeywords, 0.5, 0.3),
	}
	return t.Clamp()
}

func pick(lower string, keywords []string, hit, miss float64) float64 {
	if containsAny(lower, keywords) {
		return hit
	}
	return miss
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
