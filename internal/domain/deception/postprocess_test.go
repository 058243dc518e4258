package deception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name      string
		dist      Distribution
		wantLabel Label
		wantConf  float64
	}{
		{"positive wins", Distribution{0.1, 0.9}, LabelTruthful, 90},
		{"negative wins", Distribution{0.87654, 0.12346}, LabelDeceptive, 87.65},
		{"tie goes to deceptive", Distribution{0.5, 0.5}, LabelDeceptive, 50},
		{"certain truthful", Distribution{0, 1}, LabelTruthful, 100},
		{"rounding", Distribution{0.001234, 0.998766}, LabelTruthful, 99.88},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Interpret("some text", tt.dist)
			require.NoError(t, err)
			assert.Equal(t, "some text", got.Text)
			assert.Equal(t, tt.wantLabel, got.Prediction)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestInterpret_ConfidenceBounds(t *testing.T) {
	for i := 0; i <= 100; i++ {
		p := float64(i) / 100
		got, err := Interpret("x", Distribution{1 - p, p})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 100.0)
		assert.Contains(t, []Label{LabelTruthful, LabelDeceptive}, got.Prediction)
	}
}

func TestInterpret_RejectsInvalid(t *testing.T) {
	_, err := Interpret("x", Distribution{0.7, 0.7})
	assert.ErrorIs(t, err, ErrInvalidDistribution)

	_, err = Interpret("x", Distribution{-0.1, 1.1})
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}

func TestSoftmax(t *testing.T) {
	d, err := Softmax([]float64{-2.5, 2.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d[0]+d[1], 1e-12)
	assert.Equal(t, 1, d.Argmax())

	d, err = Softmax([]float64{1000, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d[0], 1e-12)

	_, err = Softmax([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}

func TestFromProbabilities(t *testing.T) {
	d, err := FromProbabilities([]float64{0.25, 0.75})
	require.NoError(t, err)
	assert.Equal(t, Distribution{0.25, 0.75}, d)

	_, err = FromProbabilities([]float64{1})
	assert.ErrorIs(t, err, ErrInvalidDistribution)
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, LabelTruthful, LabelFor(1))
	assert.Equal(t, LabelDeceptive, LabelFor(0))
	assert.Equal(t, LabelDeceptive, LabelFor(7))
}
