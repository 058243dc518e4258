package lstm

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

// oneUnitCell has a single unit whose input weights are all 1 and no recurrence.
func oneUnitCell() *CellWeights {
	return &CellWeights{
		Kernel:          [][]float64{{1, 1, 1, 1}},
		RecurrentKernel: [][]float64{{0, 0, 0, 0}},
		Bias:            []float64{0, 0, 0, 0},
	}
}

func tinyConfig(maxLen int, outputs int) Config {
	kernel := make([][]float64, 2)
	for i := range kernel {
		kernel[i] = make([]float64, outputs)
		for j := range kernel[i] {
			kernel[i][j] = 1
		}
	}
	return Config{
		MaxLength: maxLen,
		Layers: []LayerConfig{
			{Type: LayerEmbedding, Embeddings: [][]float64{{0}, {1}, {2}}},
			{Type: LayerBidirectional, Forward: oneUnitCell(), Backward: oneUnitCell()},
			{Type: LayerDropout},
			{Type: LayerDense, Activation: "sigmoid", Kernel: kernel, Bias: make([]float64, outputs)},
		},
	}
}

// step applies one LSTM step with all weights 1 to input x from a zero state
// carried in c, returning the new hidden and cell values.
func step(x, c float64) (float64, float64) {
	s := 1 / (1 + math.Exp(-x))
	g := math.Tanh(x)
	c = s*c + s*g
	return s * math.Tanh(c), c
}

func TestForward_SingleStep(t *testing.T) {
	m, err := Build(tinyConfig(1, 1))
	require.NoError(t, err)

	out, err := m.Forward(context.Background(), []int{1})
	require.NoError(t, err)
	require.Len(t, out, 1)

	h, _ := step(1, 0)
	want := 1 / (1 + math.Exp(-(h + h)))
	assert.InDelta(t, want, out[0], 1e-12)
}

func TestForward_BackwardSeesReversedInput(t *testing.T) {
	m, err := Build(tinyConfig(2, 1))
	require.NoError(t, err)

	out, err := m.Forward(context.Background(), []int{1, 2})
	require.NoError(t, err)

	// recurrence is zero so each direction's final state only depends on the
	// cell state and the last input it saw
	_, cf := step(1, 0)
	hf, _ := step(2, cf)
	_, cb := step(2, 0)
	hb, _ := step(1, cb)
	want := 1 / (1 + math.Exp(-(hf + hb)))
	assert.InDelta(t, want, out[0], 1e-12)
	assert.NotEqual(t, hf, hb)
}

func TestForward_StackedReturnSequences(t *testing.T) {
	s := tinyConfig(3, 5)
	first := LayerConfig{
		Type:            LayerBidirectional,
		ReturnSequences: true,
		Forward:         oneUnitCell(),
		Backward:        oneUnitCell(),
	}
	second := LayerConfig{
		Type: LayerBidirectional,
		Forward: &CellWeights{
			Kernel:          [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}},
			RecurrentKernel: [][]float64{{0.5, 0.5, 0.5, 0.5}},
			Bias:            []float64{0, 0, 0, 0},
		},
		Backward: &CellWeights{
			Kernel:          [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}},
			RecurrentKernel: [][]float64{{0.5, 0.5, 0.5, 0.5}},
			Bias:            []float64{0, 0, 0, 0},
		},
	}
	s.Layers = []LayerConfig{s.Layers[0], first, second, s.Layers[3]}

	m, err := Build(s)
	require.NoError(t, err)
	assert.Equal(t, 5, m.OutputDim())

	out, err := m.Forward(context.Background(), []int{2, 0, 1})
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, v := range out {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	again, err := m.Forward(context.Background(), []int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestForward_Errors(t *testing.T) {
	m, err := Build(tinyConfig(2, 1))
	require.NoError(t, err)

	_, err = m.Forward(context.Background(), []int{1})
	assert.Error(t, err)

	_, err = m.Forward(context.Background(), []int{1, 9})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Forward(ctx, []int{1, 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no max length", func(s *Config) { s.MaxLength = 0 }},
		{"unknown layer", func(s *Config) { s.Layers[2].Type = "conv1d" }},
		{"embedding not first", func(s *Config) { s.Layers[0], s.Layers[1] = s.Layers[1], s.Layers[0] }},
		{"bad kernel rows", func(s *Config) { s.Layers[1].Forward.Kernel = [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}} }},
		{"bad bias", func(s *Config) { s.Layers[1].Backward.Bias = []float64{0, 0, 0} }},
		{"missing backward", func(s *Config) { s.Layers[1].Backward = nil }},
		{"sequence into dense", func(s *Config) { s.Layers[1].ReturnSequences = true }},
		{"bad activation", func(s *Config) { s.Layers[3].Activation = "softplus" }},
		{"dense width", func(s *Config) { s.Layers[3].Kernel = [][]float64{{1}} }},
		{"no recurrent", func(s *Config) { s.Layers = []LayerConfig{s.Layers[0]} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tinyConfig(2, 1)
			tt.mutate(&s)
			_, err := Build(s)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestRead(t *testing.T) {
	b, err := json.Marshal(tinyConfig(4, 5))
	require.NoError(t, err)

	m, err := Read(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 4, m.MaxLength())

	_, err = Read(bytes.NewReader([]byte("{not json")))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPredictor(t *testing.T) {
	m, err := Build(tinyConfig(4, 5))
	require.NoError(t, err)
	vocab := &textseq.Vocabulary{
		NumWords:  3,
		OOVToken:  textseq.DefaultOOVToken,
		WordIndex: map[string]int{textseq.DefaultOOVToken: 1, "happy": 2},
	}

	p, err := NewPredictor(m, vocab)
	require.NoError(t, err)

	got, err := p.Predict(context.Background(), "so happy, so very happy today")
	require.NoError(t, err)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	narrow, err := Build(tinyConfig(4, 2))
	require.NoError(t, err)
	_, err = NewPredictor(narrow, vocab)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPredictor_VocabularyLargerThanEmbedding(t *testing.T) {
	m, err := Build(tinyConfig(4, 5))
	require.NoError(t, err)
	require.Equal(t, 3, m.EmbeddingRows())

	unlimited := textseq.Fit([]string{"one two three four five six"}, 0, textseq.DefaultOOVToken)
	_, err = NewPredictor(m, unlimited)
	assert.ErrorIs(t, err, ErrMalformed)

	// capping num_words brings every reachable index inside the embedding
	capped := textseq.Fit([]string{"one two three four five six"}, 3, textseq.DefaultOOVToken)
	p, err := NewPredictor(m, capped)
	require.NoError(t, err)
	_, err = p.Predict(context.Background(), "six five four three two one")
	assert.NoError(t, err)
}
