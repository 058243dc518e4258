package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appdeception "github.com/bryanwahyu/persona-analyzer/internal/application/deception"
	apppersonality "github.com/bryanwahyu/persona-analyzer/internal/application/personality"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/deception"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/history"
	"github.com/bryanwahyu/persona-analyzer/internal/domain/personality"
	"github.com/bryanwahyu/persona-analyzer/internal/middleware"
)

// Options carries the cross-cutting pieces of the HTTP surface.
type Options struct {
	Logger         *zap.Logger
	APIKeys        map[string]string
	RateCapacity   int
	RateRefill     int
	HealthCheckers map[string]middleware.HealthChecker
	HealthInfo     map[string]any
}

type Router struct {
	deceptionSvc   *appdeception.Service
	personalitySvc *apppersonality.Service
	logger         *zap.Logger
}

// NewRouter builds the HTTP handler. ctx bounds background work such as rate limiter cleanup.
func NewRouter(ctx context.Context, deceptionSvc *appdeception.Service, personalitySvc *apppersonality.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Router{deceptionSvc: deceptionSvc, personalitySvc: personalitySvc, logger: opts.Logger}
	mux := chi.NewRouter()
	mux.Use(middleware.Logging(opts.Logger))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers, opts.HealthInfo))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.RateCapacity > 0 {
			rt.Use(middleware.RateLimitMiddleware(ctx, opts.RateCapacity, opts.RateRefill))
		}
		rt.Post("/deception", r.wrap(r.handleDeception))
		rt.Post("/personality", r.wrap(r.handlePersonality))
		rt.Get("/history", r.wrap(r.handleHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks a client input problem.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// errForeignHistory is returned when an authenticated caller asks for
// another user's history.
var errForeignHistory = errors.New("history of other users is not accessible")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.Is(err, deception.ErrEmptyText):
			writeJSON(w, http.StatusBadRequest, errorBody{"No text provided"})
		case errors.As(err, &br):
			writeJSON(w, http.StatusBadRequest, errorBody{br.msg})
		case errors.Is(err, errForeignHistory):
			writeJSON(w, http.StatusForbidden, errorBody{err.Error()})
		case errors.Is(err, deception.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, errorBody{"classifier quota exceeded"})
		case errors.Is(err, deception.ErrClassifierUnavailable):
			writeJSON(w, http.StatusServiceUnavailable, errorBody{"deception classifier is not available"})
		default:
			r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorBody{"internal server error"})
		}
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type analyzeRequest struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

func decodeAnalyze(req *http.Request) (analyzeRequest, error) {
	var body analyzeRequest
	dec := json.NewDecoder(io.LimitReader(req.Body, middleware.MaxTextBytes*2))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return body, badRequest{fmt.Sprintf("invalid JSON body: %v", err)}
	}
	if err := middleware.ValidateText(body.Text); err != nil {
		return body, badRequest{err.Error()}
	}
	// text is stored and echoed as submitted; only NUL bytes are dropped
	body.Text = strings.ReplaceAll(body.Text, "\x00", "")
	body.Username = middleware.SanitizeString(body.Username)
	if err := middleware.ValidateUsername(body.Username); err != nil {
		return body, badRequest{err.Error()}
	}
	if body.Username == "" {
		body.Username = middleware.GetPrincipalFromContext(req.Context())
	}
	return body, nil
}

// POST /v1/deception
// Body: {"text": "...", "username": "..."}
func (r *Router) handleDeception(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAnalyze(req)
	if err != nil {
		return err
	}
	out, err := r.deceptionSvc.Analyze(req.Context(), appdeception.AnalyzeCommand{Text: body.Text, Username: body.Username})
	if out.HistoryErr != nil {
		middleware.IncrementHistoryFailures()
	}
	if err != nil {
		return err
	}
	middleware.IncrementDeception(out.Cached)
	writeJSON(w, http.StatusOK, out.Result)
	return nil
}

// POST /v1/personality
// Blank text is not an error: the neutral result comes back with 200.
func (r *Router) handlePersonality(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeAnalyze(req)
	if err != nil {
		return err
	}
	out := r.personalitySvc.Estimate(req.Context(), body.Text)
	if out.Err != nil {
		middleware.IncrementInferenceFailures()
	}
	middleware.IncrementPersonality(out.Result.Source != personality.SourceModel)
	writeJSON(w, http.StatusOK, out.Result)
	return nil
}

// GET /v1/history?user=&page=&page_size=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	user := middleware.SanitizeString(q.Get("user"))
	if err := middleware.ValidateUsername(user); err != nil {
		return badRequest{err.Error()}
	}
	principal := middleware.GetPrincipalFromContext(req.Context())
	switch {
	case principal != "" && user != "" && user != principal:
		return errForeignHistory
	case user == "":
		user = principal
	}
	if user == "" {
		user = history.AnonymousUser
	}
	page, err := intParam(q.Get("page"))
	if err != nil {
		return badRequest{"page must be an integer"}
	}
	size, err := intParam(q.Get("page_size"))
	if err != nil {
		return badRequest{"page_size must be an integer"}
	}

	p, err := r.deceptionSvc.ListHistory(req.Context(), user, page, size)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p)
	return nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
