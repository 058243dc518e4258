package deception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/persona-analyzer/internal/application"
	domain "github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
)

// Service implements the deception use-case: classify, persist, cache.
// Service is safe for concurrent use as long as its ports are.
type Service struct {
	Classifier         domain.Classifier // nil when no backend is configured
	History            history.Repository
	Cache              domain.Cache // optional
	CacheTTL           time.Duration
	Clock              application.Clock
	Logger             *zap.Logger
	Timeout            time.Duration
	FailOnHistoryError bool
}

// Command untuk analisa satu statement
type AnalyzeCommand struct {
	Text     string
	Username string
}

// Outcome is the result plus side-channel facts callers may want to report.
type Outcome struct {
	Result     domain.Result
	Cached     bool
	HistoryErr error
}

// Analyze classifies cmd.Text and stores one history record.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (Outcome, error) {
	if strings.TrimSpace(cmd.Text) == "" {
		return Outcome{}, domain.ErrEmptyText
	}

	var out Outcome
	if res, ok := s.fromCache(ctx, cmd.Text); ok {
		out.Result = res
		out.Cached = true
	} else {
		if s.Classifier == nil {
			return Outcome{}, domain.ErrClassifierUnavailable
		}
		dist, err := s.classify(ctx, cmd.Text)
		if err != nil {
			return Outcome{}, err
		}
		res, err := domain.Interpret(cmd.Text, dist)
		if err != nil {
			return Outcome{}, err
		}
		out.Result = res
		s.toCache(ctx, res)
	}

	if err := s.record(ctx, cmd.Username, out.Result); err != nil {
		out.HistoryErr = err
		s.logger().Warn("history save failed", zap.Error(err))
		if s.FailOnHistoryError {
			return out, fmt.Errorf("save history: %w", err)
		}
	}
	return out, nil
}

func (s *Service) classify(ctx context.Context, text string) (domain.Distribution, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	dist, err := s.Classifier.Classify(ctx, text)
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("classify: %w", err)
	}
	return dist, nil
}

func (s *Service) fromCache(ctx context.Context, text string) (domain.Result, bool) {
	if s.Cache == nil {
		return domain.Result{}, false
	}
	res, ok, err := s.Cache.Get(ctx, text)
	if err != nil {
		s.logger().Warn("cache get failed", zap.Error(err))
		return domain.Result{}, false
	}
	return res, ok
}

func (s *Service) toCache(ctx context.Context, res domain.Result) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, res.Text, res, s.CacheTTL); err != nil {
		s.logger().Warn("cache set failed", zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, username string, res domain.Result) error {
	if s.History == nil {
		return nil
	}
	user := strings.TrimSpace(username)
	if user == "" {
		user = history.AnonymousUser
	}
	rec := &history.Record{
		ID:         uuid.NewString(),
		Type:       history.TypeDeception,
		User:       user,
		Result:     string(res.Prediction),
		Confidence: res.Confidence,
		Text:       res.Text,
		CreatedAt:  s.now().UTC(),
	}
	return s.History.Save(ctx, rec)
}

// ListHistory returns a page of a user's past analyses.
func (s *Service) ListHistory(ctx context.Context, username string, page, pageSize int) (history.Page, error) {
	user := strings.TrimSpace(username)
	if user == "" {
		user = history.AnonymousUser
	}
	page, pageSize = history.NormalizePage(page, pageSize)
	if s.History == nil {
		return history.Page{Data: []*history.Record{}, Page: page, PageSize: pageSize}, nil
	}
	recs, err := s.History.ListByUser(ctx, user, page, pageSize)
	if err != nil {
		return history.Page{}, fmt.Errorf("list history: %w", err)
	}
	if recs == nil {
		recs = []*history.Record{}
	}
	return history.Page{Data: recs, Page: page, PageSize: pageSize}, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
