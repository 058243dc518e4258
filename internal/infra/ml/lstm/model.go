// Package lstm evaluates an exported Keras Sequential text model in process:
// Embedding, one or more Bidirectional LSTM layers, then Dense layers.
// Dropout layers are accepted and skipped. A loaded Model is read-only and
// safe for concurrent use.
package lstm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Layer types understood by the loader.
const (
	LayerEmbedding     = "embedding"
	LayerBidirectional = "bidirectional_lstm"
	LayerDense         = "dense"
	LayerDropout       = "dropout"
)

// CellWeights holds one LSTM direction.
type CellWeights struct {
	Kernel          [][]float64 `json:"kernel"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel"`
	Bias            []float64   `json:"bias"`
}

// LayerConfig is one layer of the weights artifact.
type LayerConfig struct {
	Type            string       `json:"type"`
	Activation      string       `json:"activation,omitempty"`
	ReturnSequences bool         `json:"return_sequences,omitempty"`
	Embeddings      [][]float64  `json:"embeddings,omitempty"`
	Kernel          [][]float64  `json:"kernel,omitempty"`
	Bias            []float64    `json:"bias,omitempty"`
	Forward         *CellWeights `json:"forward,omitempty"`
	Backward        *CellWeights `json:"backward,omitempty"`
}

// Config is the weights artifact document.
type Config struct {
	MaxLength int           `json:"max_length"`
	Layers    []LayerConfig `json:"layers"`
}

var ErrMalformed = errors.New("malformed model artifact")

// Model is a compiled Config.
type Model struct {
	maxLen    int
	embedding *Embedding
	recurrent []*Bidirectional
	dense     []*Dense
}

// MaxLength is the input sequence length the model expects.
func (m *Model) MaxLength() int { return m.maxLen }

// EmbeddingRows is the number of token indices the embedding accepts.
func (m *Model) EmbeddingRows() int { return len(m.embedding.weights) }

// OutputDim is the width of the final layer.
func (m *Model) OutputDim() int {
	if len(m.dense) > 0 {
		return m.dense[len(m.dense)-1].OutputDim()
	}
	return m.recurrent[len(m.recurrent)-1].OutputDim()
}

// Build validates shapes and compiles the config.
func Build(s Config) (*Model, error) {
	if s.MaxLength <= 0 {
		return nil, fmt.Errorf("%w: max_length must be positive", ErrMalformed)
	}
	m := &Model{maxLen: s.MaxLength}

	width := 0
	sequenceOut := true
	for i, l := range s.Layers {
		switch l.Type {
		case LayerDropout:
			continue

		case LayerEmbedding:
			if i != 0 || m.embedding != nil {
				return nil, fmt.Errorf("%w: embedding must be the first layer", ErrMalformed)
			}
			if len(l.Embeddings) == 0 || len(l.Embeddings[0]) == 0 {
				return nil, fmt.Errorf("%w: empty embedding matrix", ErrMalformed)
			}
			if err := checkMatrix(l.Embeddings, len(l.Embeddings), len(l.Embeddings[0])); err != nil {
				return nil, fmt.Errorf("%w: embedding: %v", ErrMalformed, err)
			}
			m.embedding = &Embedding{weights: l.Embeddings}
			width = m.embedding.Dim()

		case LayerBidirectional:
			if m.embedding == nil || !sequenceOut || len(m.dense) > 0 {
				return nil, fmt.Errorf("%w: layer %d: recurrent layer needs a sequence input", ErrMalformed, i)
			}
			fw, err := newCell(l.Forward, width)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d forward: %v", ErrMalformed, i, err)
			}
			bw, err := newCell(l.Backward, width)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d backward: %v", ErrMalformed, i, err)
			}
			b := &Bidirectional{forward: fw, backward: bw, returnSequences: l.ReturnSequences}
			m.recurrent = append(m.recurrent, b)
			width = b.OutputDim()
			sequenceOut = l.ReturnSequences

		case LayerDense:
			if sequenceOut {
				return nil, fmt.Errorf("%w: layer %d: dense layer after a sequence output", ErrMalformed, i)
			}
			act, err := activation(l.Activation)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d: %v", ErrMalformed, i, err)
			}
			if len(l.Bias) == 0 {
				return nil, fmt.Errorf("%w: layer %d: empty bias", ErrMalformed, i)
			}
			if err := checkMatrix(l.Kernel, width, len(l.Bias)); err != nil {
				return nil, fmt.Errorf("%w: layer %d kernel: %v", ErrMalformed, i, err)
			}
			d := &Dense{kernel: l.Kernel, bias: l.Bias, activation: act}
			m.dense = append(m.dense, d)
			width = d.OutputDim()

		default:
			return nil, fmt.Errorf("%w: unknown layer type %q", ErrMalformed, l.Type)
		}
	}

	if m.embedding == nil || len(m.recurrent) == 0 {
		return nil, fmt.Errorf("%w: need an embedding and at least one recurrent layer", ErrMalformed)
	}
	if sequenceOut {
		return nil, fmt.Errorf("%w: last recurrent layer must not return sequences", ErrMalformed)
	}
	return m, nil
}

// Read decodes and builds a model from JSON.
func Read(r io.Reader) (*Model, error) {
	var s Config
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Build(s)
}

// Load reads a weights file from disk.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Forward runs one sequence through the network. seq must have MaxLength entries.
func (m *Model) Forward(ctx context.Context, seq []int) ([]float64, error) {
	if len(seq) != m.maxLen {
		return nil, fmt.Errorf("sequence length %d, want %d", len(seq), m.maxLen)
	}
	check := ctx.Err

	xs, err := m.embedding.lookup(seq)
	if err != nil {
		return nil, err
	}

	var vec []float64
	for _, layer := range m.recurrent {
		if layer.returnSequences {
			xs, err = layer.sequence(check, xs)
		} else {
			vec, err = layer.final(check, xs)
		}
		if err != nil {
			return nil, err
		}
	}

	for _, d := range m.dense {
		vec = d.apply(vec)
	}
	return vec, nil
}
