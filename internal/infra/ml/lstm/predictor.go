package lstm

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

// TraitCount is the number of model outputs, one per OCEAN trait.
const TraitCount = 5

// Predictor pairs a model with the vocabulary it was trained on.
type Predictor struct {
	model *Model
	vocab *textseq.Vocabulary
}

// NewPredictor checks the model emits one score per trait and that every
// index the vocabulary can produce has an embedding row.
func NewPredictor(m *Model, v *textseq.Vocabulary) (*Predictor, error) {
	if m == nil || v == nil {
		return nil, fmt.Errorf("model and vocabulary are both required")
	}
	if m.OutputDim() != TraitCount {
		return nil, fmt.Errorf("%w: model emits %d outputs, want %d", ErrMalformed, m.OutputDim(), TraitCount)
	}
	if max := v.MaxIndex(); max >= m.EmbeddingRows() {
		return nil, fmt.Errorf("%w: vocabulary reaches index %d, embedding has %d rows", ErrMalformed, max, m.EmbeddingRows())
	}
	return &Predictor{model: m, vocab: v}, nil
}

// Predict encodes text and returns raw trait scores in [O, C, E, A, N] order.
func (p *Predictor) Predict(ctx context.Context, text string) ([TraitCount]float64, error) {
	var out [TraitCount]float64
	seq := p.vocab.Encode(text, p.model.MaxLength())
	scores, err := p.model.Forward(ctx, seq)
	if err != nil {
		return out, err
	}
	if len(scores) != TraitCount {
		return out, fmt.Errorf("model returned %d scores", len(scores))
	}
	copy(out[:], scores)
	return out, nil
}
