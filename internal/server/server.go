// Package server exposes the ranking pipeline over HTTP together with the
// health, stats and cache administration endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/spigell/resume-ranker/internal/cache"
	"github.com/spigell/resume-ranker/internal/ranking"
	"github.com/spigell/resume-ranker/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	// maxRequestBytes bounds the whole multipart request body: up to ten
	// 5 MiB files plus the job description and form overhead.
	maxRequestBytes = 64 << 20

	shutdownTimeout = 5 * time.Second
)

// Ranker scores a batch of resume files against a job description.
type Ranker interface {
	Rank(ctx context.Context, jobDescription string, files []ranking.File) (*ranking.Result, error)
}

// Config holds the server settings.
type Config struct {
	// Listen is the address to bind, e.g. ":8080".
	Listen string
	// AdminToken guards the cache administration endpoint. When empty the
	// endpoint is served openly; that must be an explicit operator choice.
	AdminToken string
	// Debug includes error details in internal error responses.
	Debug bool
}

// Server is the HTTP surface of the resume ranker.
type Server struct {
	cfg      Config
	logger   *zap.Logger
	cache    *cache.Cache
	limiter  *ratelimit.Limiter
	pipeline Ranker
	mux      *http.ServeMux

	now func() time.Time // for testing
}

// New creates a Server wired with all dependencies.
func New(cfg Config, logger *zap.Logger, c *cache.Cache, limiter *ratelimit.Limiter, pipeline Ranker) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		cache:    c,
		limiter:  limiter,
		pipeline: pipeline,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}

	s.mux.HandleFunc("/health", s.withLogging(s.methodOnly(http.MethodGet, s.handleHealth)))
	s.mux.HandleFunc("/stats", s.withLogging(s.methodOnly(http.MethodGet, s.handleStats)))
	s.mux.HandleFunc("/rank", s.withLogging(s.methodOnly(http.MethodPost, s.handleRank)))
	s.mux.HandleFunc("/clear-cache", s.withLogging(s.methodOnly(http.MethodPost, s.handleClearCache)))
	s.mux.HandleFunc("/", s.withLogging(s.handleNotFound))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}
