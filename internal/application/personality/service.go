package personality

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	domain "github.com/bryanwahyu/persona-analyzer/internal/domain/personality"
)

const (
	DefaultConcurrency = 4
	DefaultTimeout     = 2 * time.Second
)

// Outcome is one estimation. Err is set only when the model failed and the
// neutral fallback was returned.
type Outcome struct {
	Result domain.Result
	Err    error
}

// Service estimates Big Five traits with a trained model when one is loaded,
// otherwise with the keyword heuristic.
type Service struct {
	model   domain.Model
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

type Options struct {
	Concurrency int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewService builds an estimator. model may be nil.
func NewService(model domain.Model, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		model:   model,
		sem:     semaphore.NewWeighted(int64(opts.Concurrency)),
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

// HasModel reports whether trained inference is active.
func (s *Service) HasModel() bool { return s.model != nil }

// Estimate never fails: inference problems come back as a neutral result with Err set.
func (s *Service) Estimate(ctx context.Context, text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return Outcome{Result: domain.NeutralResult(text, "")}
	}
	if s.model == nil {
		return Outcome{Result: domain.NewResult(text, domain.HeuristicTraits(text), domain.SourceHeuristic)}
	}

	vec, err := s.infer(ctx, text)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrInference, err)
		s.logger.Warn("personality inference failed, returning neutral traits", zap.Error(err))
		return Outcome{Result: domain.NeutralResult(text, err.Error()), Err: err}
	}
	return Outcome{Result: domain.NewResult(text, domain.FromVector(vec), domain.SourceModel)}
}

func (s *Service) infer(ctx context.Context, text string) ([5]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return [5]float64{}, fmt.Errorf("acquire slot: %w", err)
	}

	type reply struct {
		vec [5]float64
		err error
	}
	// The slot stays held until Predict returns, even past the timeout.
	ch := make(chan reply, 1)
	go func() {
		defer s.sem.Release(1)
		v, err := s.model.Predict(ctx, text)
		ch <- reply{v, err}
	}()

	select {
	case r := <-ch:
		return r.vec, r.err
	case <-ctx.Done():
		return [5]float64{}, ctx.Err()
	}
}
