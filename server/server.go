// Package server is the HTTP surface: public search, the admin status
// endpoint, health and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/searchsync/concurrency"
	"github.com/ncobase/searchsync/config"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/metrics"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/security/jwt"
	"github.com/ncobase/searchsync/tracing"
)

// Catalog lists indexes and checks the engine.
type Catalog interface {
	GetAllIndexes(ctx context.Context) ([]search.IndexInfo, error)
	Health(ctx context.Context) error
}

// Server serves the HTTP routes.
type Server struct {
	cfg     *config.Config
	engine  search.Engine
	catalog Catalog
	limiter *concurrency.Limiter
	tokens  *jwt.TokenManager
	logger  *logger.Logger
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds the router. Search requests beyond server.max_concurrent in
// flight are turned away with 503.
func New(cfg *config.Config, engine search.Engine, catalog Catalog, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		catalog: catalog,
		logger:  logger.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if n := cfg.Server.MaxConcurrent; n > 0 {
		l, err := concurrency.NewLimiter(int32(n))
		if err != nil {
			return nil, err
		}
		s.limiter = l
	}
	if cfg.Auth.JWT.Secret != "" {
		s.tokens = jwt.NewTokenManager(cfg.Auth.JWT.Secret)
	}

	if cfg.RunMode != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), tracing.Middleware(), metrics.Middleware())

	r.GET("/healthz", s.health)
	r.GET("/metrics", metrics.Handler())

	public := r.Group("", s.limit())
	public.GET("/search", s.search)
	public.GET("/search/:index", s.search)

	admin := r.Group("/admin", s.requireAdmin())
	admin.GET("/search/status", s.status)

	s.router = r
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof(ctx, "listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Infof(shutdownCtx, "shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
