package personality

const emotionThreshold = 0.6

// Emotion tags
const (
	EmotionJoy      = "joy"
	EmotionInterest = "interest"
	EmotionAnxiety  = "anxiety"
	EmotionTrust    = "trust"
	EmotionNeutral  = "neutral"
)

// DeriveEmotions maps trait scores to emotion tags. Check order is fixed and
// defines output order; the result is never empty.
func DeriveEmotions(t Traits) []string {
	var out []string
	if t.Extraversion > emotionThreshold {
		out = append(out, EmotionJoy)
	}
	if t.Openness > emotionThreshold {
		out = append(out, EmotionInterest)
	}
	if t.Neuroticism > emotionThreshold {
		out = append(out, EmotionAnxiety)
	}
	if t.Agreeableness > emotionThreshold {
		out = append(out, EmotionTrust)
	}
	if len(out) == 0 {
		out = []string{EmotionNeutral}
	}
	return out
}

// NewResult assembles a result with derived emotions.
func NewResult(text string, t Traits, src Source) Result {
	t = t.Clamp()
	return Result{
		Text:     text,
		Traits:   t,
		Emotions: DeriveEmotions(t),
		Source:   src,
	}
}

// NeutralResult is the fixed outcome for blank input. errMsg is set when inference failed.
func NeutralResult(text, errMsg string) Result {
	return Result{
		Text:     text,
		Traits:   NeutralTraits(),
		Emotions: []string{EmotionNeutral},
		Source:   SourceNeutral,
		Error:    errMsg,
	}
}
