package deception

import (
	"fmt"
	"math"
)

// distributionTolerance is how far a pair may drift from summing to 1.
const distributionTolerance = 1e-3

// Softmax converts raw logits into a 2-class distribution.
func Softmax(logits []float64) (Distribution, error) {
	if len(logits) != 2 {
		return Distribution{}, fmt.Errorf("%w: expected 2 logits, got %d", ErrInvalidDistribution, len(logits))
	}
	m := math.Max(logits[0], logits[1])
	e0 := math.Exp(logits[0] - m)
	e1 := math.Exp(logits[1] - m)
	sum := e0 + e1
	return Distribution{e0 / sum, e1 / sum}, nil
}

// FromProbabilities builds a Distribution from a probability slice and checks it.
func FromProbabilities(p []float64) (Distribution, error) {
	if len(p) != 2 {
		return Distribution{}, fmt.Errorf("%w: expected 2 probabilities, got %d", ErrInvalidDistribution, len(p))
	}
	d := Distribution{p[0], p[1]}
	return d, d.Validate()
}

// Validate checks both entries are within [0,1] and sum to 1.
func (d Distribution) Validate() error {
	for i, v := range d {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: p[%d]=%v", ErrInvalidDistribution, i, v)
		}
	}
	if math.Abs(d[0]+d[1]-1) > distributionTolerance {
		return fmt.Errorf("%w: sum=%v", ErrInvalidDistribution, d[0]+d[1])
	}
	return nil
}

// Argmax returns the index of the most probable class. Ties go to index 0.
func (d Distribution) Argmax() int {
	if d[1] > d[0] {
		return 1
	}
	return 0
}

// LabelFor maps a class index to its label. Only index 1 is Truthful.
func LabelFor(class int) Label {
	if class == 1 {
		return LabelTruthful
	}
	return LabelDeceptive
}

// Interpret turns a validated distribution into the final result.
func Interpret(text string, d Distribution) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}
	class := d.Argmax()
	return Result{
		Text:       text,
		Prediction: LabelFor(class),
		Confidence: confidencePercent(d[class]),
	}, nil
}

func confidencePercent(p float64) float64 {
	c := math.Round(p*100*100) / 100
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
