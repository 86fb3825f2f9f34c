// Package server exposes the decision client over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/store"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 10 * time.Second

// Client is the subset of the decision client the API serves.
type Client interface {
	EvaluateAsset(ctx context.Context, investor model.InvestorProfile, asset model.AssetSnapshot) (model.Decision, error)
	BatchEvaluate(ctx context.Context, investor model.InvestorProfile, assets []model.AssetSnapshot) []model.Decision
	GetAtom(ctx context.Context, id string) (store.Atom, error)
}

// Server wires HTTP endpoints around a decision client.
type Server struct {
	router          *gin.Engine
	client          Client
	logger          *slog.Logger
	limiter         *ipLimiter
	trustedProxies  []string
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRateLimit enables per-client-IP rate limiting. A non-positive rate
// disables it.
func WithRateLimit(perSec float64, burst int) Option {
	return func(s *Server) {
		if perSec > 0 {
			s.limiter = newIPLimiter(perSec, burst)
		}
	}
}

// WithShutdownTimeout bounds how long ListenAndServe waits for in-flight
// requests after its context ends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithTrustedProxies sets the proxy IPs or CIDRs whose X-Forwarded-For
// header is used as the client IP. By default no proxy is trusted and the
// client IP is the peer address.
func WithTrustedProxies(proxies ...string) Option {
	return func(s *Server) {
		s.trustedProxies = append([]string(nil), proxies...)
	}
}

// New builds a server and its routes.
func New(c Client, opts ...Option) *Server {
	s := &Server{
		client:          c,
		logger:          slog.Default(),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(s.trustedProxies); err != nil {
		s.logger.Error("invalid trusted proxies, trusting none", "proxies", s.trustedProxies, "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	if s.limiter != nil {
		r.Use(rateLimit(s.limiter, s.logger))
	}

	s.router = r
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/evaluate", s.evaluate)
		api.POST("/batch", s.batch)
		api.GET("/atoms/:id", s.getAtom)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.limiter != nil {
		sweepCtx, stopSweep := context.WithCancel(ctx)
		defer stopSweep()
		go s.limiter.run(sweepCtx, limiterSweepInterval)
	}

	serveErr := make(chan error, 1)
	s.logger.Info("api listening", "addr", addr)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Info("api stopped", "addr", addr)
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
