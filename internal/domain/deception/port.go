package deception

import (
	"context"
	"time"
)

// Classifier port: text in, 2-class distribution out.
type Classifier interface {
	Classify(ctx context.Context, text string) (Distribution, error)
}

// Cache port untuk hasil klasifikasi yang sudah pernah dihitung
type Cache interface {
	Get(ctx context.Context, text string) (Result, bool, error)
	Set(ctx context.Context, text string, r Result, ttl time.Duration) error
}
