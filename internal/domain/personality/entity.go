package personality

// Traits holds the five OCEAN scores, each in [0,1].
type Traits struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Source tells which path produced a result.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
	SourceNeutral   Source = "neutral"
)

// Result is the response shape of a personality analysis.
type Result struct {
	Text     string   `json:"text"`
	Traits   Traits   `json:"personality_traits"`
	Emotions []string `json:"emotions"`
	Source   Source   `json:"source"`
	Error    string   `json:"error,omitempty"`
}

// NeutralTraits is the fixed result for empty input and failed inference.
func NeutralTraits() Traits {
	return Traits{
		Openness:          0.5,
		Conscientiousness: 0.5,
		Extraversion:      0.5,
		Agreeableness:     0.5,
		Neuroticism:       0.5,
	}
}

// FromVector reads a model output in [O, C, E, A, N] order.
func FromVector(v [5]float64) Traits {
	return Traits{
		Openness:          v[0],
		Conscientiousness: v[1],
		Extraversion:      v[2],
		Agreeableness:     v[3],
		Neuroticism:       v[4],
	}
}

// Vector returns the scores in [O, C, E, A, N] order.
func (t Traits) Vector() [5]float64 {
	return [5]float64{t.Openness, t.Conscientiousness, t.Extraversion, t.Agreeableness, t.Neuroticism}
}

// Clamp bounds every score to [0,1].
func (t Traits) Clamp() Traits {
	v := t.Vector()
	for i := range v {
		v[i] = clamp01(v[i])
	}
	return FromVector(v)
}

func clamp01(x float64) float64 {
	if x != x || x < 0 { // NaN counts as 0
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
