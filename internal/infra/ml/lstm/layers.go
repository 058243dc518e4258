package lstm

import (
	"fmt"
	"math"
)

// Embedding maps token indices to dense vectors.
type Embedding struct {
	weights [][]float64
}

func (e *Embedding) Dim() int { return len(e.weights[0]) }

func (e *Embedding) lookup(seq []int) ([][]float64, error) {
	out := make([][]float64, len(seq))
	for t, idx := range seq {
		if idx < 0 || idx >= len(e.weights) {
			return nil, fmt.Errorf("token index %d outside embedding of %d rows", idx, len(e.weights))
		}
		out[t] = e.weights[idx]
	}
	return out, nil
}

// Cell is one LSTM direction in Keras layout: kernel [in][4u],
// recurrent kernel [u][4u], bias [4u], gate order i, f, c, o.
type Cell struct {
	kernel    [][]float64
	recurrent [][]float64
	bias      []float64
	units     int
}

func newCell(w *CellWeights, inputDim int) (*Cell, error) {
	if w == nil {
		return nil, fmt.Errorf("missing cell weights")
	}
	if len(w.Kernel) != inputDim {
		return nil, fmt.Errorf("kernel has %d rows, want %d", len(w.Kernel), inputDim)
	}
	if len(w.Bias) == 0 || len(w.Bias)%4 != 0 {
		return nil, fmt.Errorf("bias length %d is not a multiple of 4", len(w.Bias))
	}
	units := len(w.Bias) / 4
	if err := checkMatrix(w.Kernel, inputDim, 4*units); err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	if err := checkMatrix(w.RecurrentKernel, units, 4*units); err != nil {
		return nil, fmt.Errorf("recurrent kernel: %w", err)
	}
	return &Cell{kernel: w.Kernel, recurrent: w.RecurrentKernel, bias: w.Bias, units: units}, nil
}

// run walks xs (reversed when backward) and returns every hidden state in
// processing order plus the last one.
func (c *Cell) run(check func() error, xs [][]float64, backward bool) ([][]float64, []float64, error) {
	u := c.units
	h := make([]float64, u)
	state := make([]float64, u)
	z := make([]float64, 4*u)
	outs := make([][]float64, 0, len(xs))

	for step := range xs {
		if err := check(); err != nil {
			return nil, nil, err
		}
		t := step
		if backward {
			t = len(xs) - 1 - step
		}
		x := xs[t]

		copy(z, c.bias)
		for i, xi := range x {
			if xi == 0 {
				continue
			}
			row := c.kernel[i]
			for j := range z {
				z[j] += xi * row[j]
			}
		}
		for i, hi := range h {
			if hi == 0 {
				continue
			}
			row := c.recurrent[i]
			for j := range z {
				z[j] += hi * row[j]
			}
		}

		next := make([]float64, u)
		for k := 0; k < u; k++ {
			ig := sigmoid(z[k])
			fg := sigmoid(z[u+k])
			cg := math.Tanh(z[2*u+k])
			og := sigmoid(z[3*u+k])
			state[k] = fg*state[k] + ig*cg
			next[k] = og * math.Tanh(state[k])
		}
		h = next
		outs = append(outs, h)
	}
	return outs, h, nil
}

// Bidirectional runs a forward and backward cell and concatenates them.
type Bidirectional struct {
	forward         *Cell
	backward        *Cell
	returnSequences bool
}

func (b *Bidirectional) OutputDim() int { return b.forward.units + b.backward.units }

func (b *Bidirectional) sequence(check func() error, xs [][]float64) ([][]float64, error) {
	fw, _, err := b.forward.run(check, xs, false)
	if err != nil {
		return nil, err
	}
	bw, _, err := b.backward.run(check, xs, true)
	if err != nil {
		return nil, err
	}
	n := len(xs)
	out := make([][]float64, n)
	for t := 0; t < n; t++ {
		// backward outputs come out reversed; realign with time step t
		out[t] = concat(fw[t], bw[n-1-t])
	}
	return out, nil
}

func (b *Bidirectional) final(check func() error, xs [][]float64) ([]float64, error) {
	_, fh, err := b.forward.run(check, xs, false)
	if err != nil {
		return nil, err
	}
	_, bh, err := b.backward.run(check, xs, true)
	if err != nil {
		return nil, err
	}
	return concat(fh, bh), nil
}

// Dense is a fully connected layer.
type Dense struct {
	kernel     [][]float64
	bias       []float64
	activation func(float64) float64
}

func (d *Dense) OutputDim() int { return len(d.bias) }

func (d *Dense) apply(x []float64) []float64 {
	out := make([]float64, len(d.bias))
	copy(out, d.bias)
	for i, xi := range x {
		row := d.kernel[i]
		for j := range out {
			out[j] += xi * row[j]
		}
	}
	for j := range out {
		out[j] = d.activation(out[j])
	}
	return out
}

func activation(name string) (func(float64) float64, error) {
	switch name {
	case "", "linear":
		return func(x float64) float64 { return x }, nil
	case "relu":
		return func(x float64) float64 { return math.Max(0, x) }, nil
	case "sigmoid":
		return sigmoid, nil
	case "tanh":
		return math.Tanh, nil
	default:
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func checkMatrix(m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("got %d rows, want %d", len(m), rows)
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(r), cols)
		}
	}
	return nil
}
