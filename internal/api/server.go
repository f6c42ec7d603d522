// Package api exposes the access analysis over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/access-cli/internal/geo"
	"github.com/sells-group/access-cli/internal/pipeline"
	"github.com/sells-group/access-cli/internal/report"
	"github.com/sells-group/access-cli/internal/store"
)

// Analyzer runs one analysis.
type Analyzer interface {
	Run(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

// BoundaryFetcher returns the remote boundary collection.
type BoundaryFetcher interface {
	Fetch(ctx context.Context) (*geo.Collection, error)
}

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	AllowedOrigins []string
	TopN           int
	RequestTimeout time.Duration
}

// Server holds the handler dependencies. runs and boundaries may be nil;
// the matching endpoints then answer 503.
type Server struct {
	analyzer   Analyzer
	runs       store.Store
	boundaries BoundaryFetcher
	opts       Options
}

// New creates a Server.
func New(a Analyzer, runs store.Store, boundaries BoundaryFetcher, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	opts.TopN = report.ClampN(opts.TopN)
	return &Server{analyzer: a, runs: runs, boundaries: boundaries, opts: opts}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition", "X-Run-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.With(middleware.Timeout(s.opts.RequestTimeout)).Post("/analyze", s.handleAnalyze)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/regions", s.handleRunRegions)
		r.Get("/boundary/sample", s.handleBoundarySample)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("component", "api"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Hint   string `json:"hint,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}
