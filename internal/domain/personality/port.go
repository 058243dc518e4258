package personality

import "context"

// Model is a loaded trait predictor. Implementations must be safe for concurrent use.
type Model interface {
	Predict(ctx context.Context, text string) ([5]float64, error)
}
