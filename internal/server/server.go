// Package server provides the moodwatch HTTP server: operational probes,
// component routes under /api/v1 and the shared middleware chain.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/HerbHall/moodwatch/internal/version"
	"github.com/HerbHall/moodwatch/pkg/plugin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// ReadinessChecker returns nil when the server can serve traffic.
type ReadinessChecker func(ctx context.Context) error

// RouteRegistrar lets packages with non-standard routes (websocket
// upgrades) mount themselves without importing the server.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options configures a Server. Zero values disable the optional parts.
type Options struct {
	Addr      string
	Providers []plugin.HTTPProvider
	Extra     []RouteRegistrar
	Ready     ReadinessChecker
	// Auth wraps the mux after rate limiting. Nil disables authentication.
	Auth    Middleware
	DevMode bool
	// TrustProxy honours X-Forwarded-For when keying rate limits.
	TrustProxy bool
}

// Server is the moodwatch HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	ready      ReadinessChecker
}

var unlimitedPaths = []string{"/healthz", "/readyz", "/metrics"}

// New creates a Server with routes mounted and middleware applied.
func New(opts Options, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
		ready:  opts.Ready,
	}

	s.registerRoutes()
	for _, p := range opts.Providers {
		s.mount(p)
	}
	for _, r := range opts.Extra {
		r.RegisterRoutes(mux)
	}

	if opts.DevMode {
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		logger.Info("swagger UI enabled (dev_mode)", zap.String("path", "/swagger/"))
	}

	middlewares := []Middleware{
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, unlimitedPaths),
		SecurityHeadersMiddleware,
		VersionHeaderMiddleware,
	}
	limits := DefaultRateLimitPolicy()
	limits.TrustProxy = opts.TrustProxy
	middlewares = append(middlewares, RateLimitMiddleware(limits))
	if opts.Auth != nil {
		middlewares = append(middlewares, opts.Auth)
	}
	middlewares = append(middlewares, AlertLimitMiddleware(limits))

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           Chain(mux, middlewares...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Manual sweeps walk every monitored user before responding.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
}

// mount registers a provider's routes under /api/v1/{prefix}.
func (s *Server) mount(p plugin.HTTPProvider) {
	prefix := p.RoutePrefix()
	for _, route := range p.Routes() {
		pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, prefix, route.Path)
		s.mux.HandleFunc(pattern, route.Handler)
		s.logger.Debug("mounted route",
			zap.String("component", prefix),
			zap.String("pattern", pattern),
		)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Service string            `json:"service" example:"moodwatch"`
	Version map[string]string `json:"version"`
}

// handleHealth returns health with build information.
//
//	@Summary		Health check
//	@Description	Returns service health status with version information.
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:  "ok",
		Service: "moodwatch",
		Version: version.Map(),
	})
}
