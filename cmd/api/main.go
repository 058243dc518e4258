package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/persona-analyzer/internal/application"
	appdeception "github.com/bryanwahyu/persona-analyzer/internal/application/deception"
	apppersonality "github.com/bryanwahyu/persona-analyzer/internal/application/personality"
	"github.com/bryanwahyu/persona-analyzer/internal/config"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/personality"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ai/inference"
	aiopenai "github.com/bryanwahyu/persona-analyzer/internal/infra/ai/openai"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/cache"
	mysqlp "github.com/bryanwahyu/persona-analyzer/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/persona-analyzer/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/persona-analyzer/internal/infra/db/sqlite"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/httpserver"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/artifacts"
	minioStore "github.com/bryanwahyu/persona-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/persona-analyzer/internal/logging"
	"github.com/bryanwahyu/persona-analyzer/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkers := map[string]middleware.HealthChecker{}

	// history store
	db, repo, err := openHistory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	defer db.Close()
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}

	// optional object storage
	var store *minioStore.Store
	if cfg.Minio.Endpoint != "" {
		store, err = minioStore.New(ctx, minioStore.Options{
			Endpoint:   cfg.Minio.Endpoint,
			Region:     cfg.Minio.Region,
			BucketName: cfg.Minio.BucketName,
			AccessKey:  cfg.Minio.AccessKey,
			SecretKey:  cfg.Minio.SecretKey,
			UseSSL:     cfg.Minio.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		checkers["minio"] = middleware.CheckFunc(store.Check)
	}

	// optional result cache
	var resultCache deception.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		dc := cache.NewDeceptionCache(rdb)
		resultCache = dc
		checkers["redis"] = middleware.CheckFunc(dc.Ping)
	}

	classifier, closeClassifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}
	defer closeClassifier()

	model, source, closeModel, err := newPersonalityModel(ctx, cfg, store, logger)
	if err != nil {
		return err
	}
	defer closeModel()

	dsvc := &appdeception.Service{
		Classifier:         classifier,
		History:            repo,
		Cache:              resultCache,
		CacheTTL:           cfg.Redis.TTL,
		Clock:              application.SystemClock{},
		Logger:             logger.Named("deception"),
		Timeout:            cfg.Deception.Timeout,
		FailOnHistoryError: cfg.History.FailOnError,
	}
	psvc := apppersonality.NewService(model, apppersonality.Options{
		Concurrency: cfg.Personality.Concurrency,
		Timeout:     cfg.Personality.Timeout,
		Logger:      logger.Named("personality"),
	})

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	mux.Mount("/", httpserver.NewRouter(ctx, dsvc, psvc, httpserver.Options{
		Logger:         logger.Named("http"),
		APIKeys:        cfg.Server.APIKeys,
		RateCapacity:   cfg.Server.RateLimit.Capacity,
		RateRefill:     cfg.Server.RateLimit.RefillRate,
		HealthCheckers: checkers,
		HealthInfo: map[string]any{
			"deception_backend":  cfg.Deception.Backend,
			"personality_source": source,
			"database":           cfg.Database.Driver,
		},
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx2)
}

func openHistory(ctx context.Context, cfg *config.Config) (*sql.DB, history.Repository, error) {
	dsn := cfg.DSN()
	switch cfg.Database.Driver {
	case config.DriverMySQL:
		db, err := mysqlp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, mysqlp.NewHistoryRepository(db), nil
	case config.DriverPostgres:
		db, err := pgp.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, pgp.NewHistoryRepository(db), nil
	default:
		db, err := sqlitep.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, sqlitep.NewHistoryRepository(db), nil
	}
}

func newClassifier(cfg *config.Config) (deception.Classifier, func(), error) {
	switch cfg.Deception.Backend {
	case config.BackendOpenAI:
		oc := cfg.Deception.OpenAI
		if oc.BaseURL != "" {
			return aiopenai.NewClientWithBaseURL(oc.APIKey, oc.Model, oc.BaseURL), func() {}, nil
		}
		return aiopenai.NewClient(oc.APIKey, oc.Model), func() {}, nil
	case config.BackendGRPC:
		c, err := inference.Dial(cfg.Deception.GRPC.Addr)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	default:
		// endpoint answers 503 until a backend is configured
		return nil, func() {}, nil
	}
}

// newPersonalityModel returns a nil model (heuristic) when no artifacts are
// configured or found. Corrupt artifacts are a startup error.
func newPersonalityModel(ctx context.Context, cfg *config.Config, store *minioStore.Store, logger *zap.Logger) (personality.Model, personality.Source, func(), error) {
	pc := cfg.Personality
	loader := &artifacts.Loader{Logger: logger.Named("artifacts")}
	if store != nil {
		loader.Fetcher = store
	}
	src := artifacts.Source{
		ModelPath: pc.ModelPath,
		VocabPath: pc.VocabPath,
		ModelKey:  pc.ModelKey,
		VocabKey:  pc.VocabKey,
		CacheDir:  pc.CacheDir,
	}

	if pc.GRPCAddr != "" {
		vocab, err := loader.Vocabulary(ctx, src)
		if err != nil {
			return nil, "", nil, fmt.Errorf("personality vocabulary: %w", err)
		}
		c, err := inference.Dial(pc.GRPCAddr)
		if err != nil {
			return nil, "", nil, err
		}
		return inference.NewPersonalityModel(c, vocab, pc.MaxLength), personality.SourceModel, func() { _ = c.Close() }, nil
	}

	p, err := loader.Load(ctx, src)
	if errors.Is(err, personality.ErrModelUnavailable) {
		logger.Warn("personality model not available, using keyword heuristic", zap.Error(err))
		return nil, personality.SourceHeuristic, func() {}, nil
	}
	if err != nil {
		return nil, "", nil, fmt.Errorf("personality model: %w", err)
	}
	return p, personality.SourceModel, func() {}, nil
}
