package deception

// Label hasil klasifikasi
type Label string

const (
	LabelTruthful  Label = "Truthful"
	LabelDeceptive Label = "Deceptive"
)

// Result is the response shape of a deception analysis.
type Result struct {
	Text       string  `json:"text"`
	Prediction Label   `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Distribution is a 2-class probability pair.
// Index 0 is the negative class (Deceptive), index 1 the positive class (Truthful).
type Distribution [2]float64
