// Package artifacts loads the trained personality model and its vocabulary
// once at startup, from local files or from object storage.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bryanwahyu/persona-analyzer/internal/domain/personality"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/lstm"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
)

// Fetcher downloads objects; implemented by storage.Store.
type Fetcher interface {
	Exists(ctx context.Context, key string) (bool, error)
	Download(ctx context.Context, key, localPath string) error
}

// Source says where the artifacts live. Object keys win over local paths
// when a Fetcher is supplied.
type Source struct {
	ModelPath string
	VocabPath string
	ModelKey  string
	VocabKey  string
	CacheDir  string
}

// Loader resolves a Source into a ready Predictor.
type Loader struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}

// Load returns personality.ErrModelUnavailable when artifacts are absent, and
// any other error when they exist but cannot be used.
func (l *Loader) Load(ctx context.Context, src Source) (*lstm.Predictor, error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}

	modelPath, vocabPath := src.ModelPath, src.VocabPath
	if l.Fetcher != nil && src.ModelKey != "" && src.VocabKey != "" {
		var err error
		modelPath, err = l.fetch(ctx, src.ModelKey, src.CacheDir)
		if err != nil {
			return nil, err
		}
		vocabPath, err = l.fetch(ctx, src.VocabKey, src.CacheDir)
		if err != nil {
			return nil, err
		}
		log.Info("model artifacts downloaded",
			zap.String("model_key", src.ModelKey),
			zap.String("vocab_key", src.VocabKey))
	}

	if modelPath == "" || vocabPath == "" {
		return nil, fmt.Errorf("%w: no artifact location configured", personality.ErrModelUnavailable)
	}
	for _, p := range []string{modelPath, vocabPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s not found", personality.ErrModelUnavailable, p)
			}
			return nil, err
		}
	}

	model, err := lstm.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	vocab, err := textseq.Load(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", vocabPath, err)
	}
	p, err := lstm.NewPredictor(model, vocab)
	if err != nil {
		return nil, err
	}

	log.Info("personality model loaded",
		zap.String("model", modelPath),
		zap.Int("vocab_size", len(vocab.WordIndex)),
		zap.Int("max_length", model.MaxLength()))
	return p, nil
}

func (l *Loader) fetch(ctx context.Context, key, dir string) (string, error) {
	ok, err := l.Fetcher.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: object %s not found", personality.ErrModelUnavailable, key)
	}
	if dir == "" {
		dir = os.TempDir()
	}
	local := filepath.Join(dir, filepath.Base(key))
	if err := l.Fetcher.Download(ctx, key, local); err != nil {
		return "", err
	}
	return local, nil
}

// Vocabulary resolves only the tokenizer vocabulary, for remote inference
// where the weights live on the sidecar.
func (l *Loader) Vocabulary(ctx context.Context, src Source) (*textseq.Vocabulary, error) {
	path := src.VocabPath
	if l.Fetcher != nil && src.VocabKey != "" {
		var err error
		if path, err = l.fetch(ctx, src.VocabKey, src.CacheDir); err != nil {
			return nil, err
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: no vocabulary location configured", personality.ErrModelUnavailable)
	}
	v, err := textseq.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", personality.ErrModelUnavailable, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return v, nil
}
