package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal       uint64
	RequestsInProgress  uint64
	RequestsSuccess     uint64
	RequestsFailed      uint64
	DeceptionTotal      uint64
	DeceptionCacheHits  uint64
	PersonalityTotal    uint64
	PersonalityFallback uint64 // heuristic or neutral instead of the model
	InferenceFailures   uint64
	HistoryFailures     uint64
	StartTime           time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementDeception counts a completed deception analysis.
func IncrementDeception(cacheHit bool) {
	atomic.AddUint64(&globalMetrics.DeceptionTotal, 1)
	if cacheHit {
		atomic.AddUint64(&globalMetrics.DeceptionCacheHits, 1)
	}
}

// IncrementPersonality counts a personality estimate; fallback marks a non-model source.
func IncrementPersonality(fallback bool) {
	atomic.AddUint64(&globalMetrics.PersonalityTotal, 1)
	if fallback {
		atomic.AddUint64(&globalMetrics.PersonalityFallback, 1)
	}
}

func IncrementInferenceFailures() {
	atomic.AddUint64(&globalMetrics.InferenceFailures, 1)
}

func IncrementHistoryFailures() {
	atomic.AddUint64(&globalMetrics.HistoryFailures, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]any {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]any{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"deception_total":      atomic.LoadUint64(&globalMetrics.DeceptionTotal),
		"deception_cache_hits": atomic.LoadUint64(&globalMetrics.DeceptionCacheHits),
		"personality_total":    atomic.LoadUint64(&globalMetrics.PersonalityTotal),
		"personality_fallback": atomic.LoadUint64(&globalMetrics.PersonalityFallback),
		"inference_failures":   atomic.LoadUint64(&globalMetrics.InferenceFailures),
		"history_failures":     atomic.LoadUint64(&globalMetrics.HistoryFailures),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GetMetrics())
}
