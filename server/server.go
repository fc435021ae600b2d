// Package server exposes the HTTP API: clip listing and upload, deletion,
// payload serving, health, metrics, and the admin catalog. It includes
// permissive CORS for development and injects correlation IDs into request
// contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxlog/audioblog/backend/config"
	"github.com/voxlog/audioblog/backend/media"
	"github.com/voxlog/audioblog/backend/telemetry"
)

// NewMux returns the HTTP handler with all routes. The context bounds the
// rate limiter cleanup goroutine. catalogDB may be nil when no index is
// configured; the admin catalog endpoints then answer 503.
func NewMux(ctx context.Context, store *media.Store, cfg *config.Config, catalogDB *sql.DB) http.Handler {
	telemetry.Init()

	adminCfg := loadAdminAuthConfig()
	rateLimiterCfg := loadRateLimiterConfig()
	corsCfg := loadCORSConfig(cfg)
	rateLimiter := newIPRateLimiter(ctx, rateLimiterCfg)

	handlers := NewHandlers(store, cfg, catalogDB)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// Media API
	mux.HandleFunc("/api/media", handlers.HandleMediaCollection)
	mux.HandleFunc("/api/media/", handlers.HandleMediaItem)

	// Payload files
	mux.HandleFunc(cfg.MediaBaseURL+"/", handlers.HandleMediaFile)

	// Admin endpoints
	mux.HandleFunc("/admin/catalog", handlers.HandleAdminCatalog)
	mux.HandleFunc("/admin/reconcile", handlers.HandleAdminReconcile)

	// Admin endpoints get auth plus rate limiting; mutating media calls get
	// rate limiting only (their authorization is per-clip ownership).
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin/") {
			adminAuth(rateLimitMiddleware(mux, rateLimiter), adminCfg).ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/media") && r.Method != http.MethodGet {
			rateLimitMiddleware(mux, rateLimiter).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		selectiveHandler.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Start runs the HTTP server and shuts down gracefully on context
// cancellation.
func Start(ctx context.Context, store *media.Store, cfg *config.Config, catalogDB *sql.DB) error {
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewMux(ctx, store, cfg, catalogDB),
		ReadTimeout:  30 * time.Second, // uploads stream whole recordings
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
