package personality

import "errors"

// ErrModelUnavailable means no trained model is loaded; callers fall back to the heuristic.
var ErrModelUnavailable = errors.New("personality model unavailable")

// ErrInference wraps any failure raised while running the trained model.
var ErrInference = errors.New("personality inference failed")
