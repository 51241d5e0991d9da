// Package http provides the API server, its router and the metrics server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/credproxy/internal/auth/http"
	authService "github.com/allisson/credproxy/internal/auth/service"
	"github.com/allisson/credproxy/internal/config"
	"github.com/allisson/credproxy/internal/metrics"
	"github.com/allisson/credproxy/internal/proxy"
	proxyHTTP "github.com/allisson/credproxy/internal/proxy/http"
)

const (
	// readinessTimeout bounds the status round trip made by /ready.
	readinessTimeout = 2 * time.Second

	// apiWriteTimeout covers a /v1/backend call waiting for its turn in the
	// ordered response queue.
	apiWriteTimeout = 60 * time.Second
)

// newHTTPServer returns a server for host:port with the timeouts shared by
// the API and metrics listeners.
func newHTTPServer(host string, port int, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// StatusReporter reports the proxy status; /ready uses it to check the proxy loop is alive.
type StatusReporter interface {
	Status(ctx context.Context) (proxy.Status, error)
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	status StatusReporter
	logger *slog.Logger
}

// NewServer creates a new API server. Call SetupRouter before Start.
func NewServer(status StatusReporter, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		status: status,
		logger: logger,
		server: newHTTPServer(host, port, apiWriteTimeout),
	}
}

// SetupRouter builds the gin router with all routes and middleware.
//
// Routes:
//   - GET  /health, /ready (unauthenticated)
//   - GET  /v1/status
//   - POST /v1/credentials
//   - GET  /v1/credentials
//   - POST /v1/credentials/unlock
//   - POST /v1/backend
//
// ctx bounds the background cleanup of the rate limiters.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	proxyHandler *proxyHTTP.ProxyHandler,
	tokenService authService.APITokenService,
	metricsProvider *metrics.Provider,
) {
	gin.SetMode(cfg.GetGinMode())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")
	if cfg.RateLimitEnabled {
		v1.Use(authHTTP.RateLimitMiddleware(
			ctx, "api", cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger,
		))
	}
	if cfg.APITokenHash != "" {
		v1.Use(authHTTP.AuthenticationMiddleware(cfg.APITokenHash, tokenService, s.logger))
	} else {
		s.logger.Warn("API_TOKEN_HASH is empty, /v1 endpoints are not authenticated")
	}

	unlockChain := []gin.HandlerFunc{}
	if cfg.RateLimitUnlockEnabled {
		unlockChain = append(unlockChain, authHTTP.RateLimitMiddleware(
			ctx, "unlock", cfg.RateLimitUnlockRequestsPerSec, cfg.RateLimitUnlockBurst, s.logger,
		))
	}
	unlockChain = append(unlockChain, proxyHandler.UnlockHandler)

	v1.GET("/status", proxyHandler.StatusHandler)
	v1.POST("/credentials", proxyHandler.SetupHandler)
	v1.GET("/credentials", proxyHandler.BundleHandler)
	v1.POST("/credentials/unlock", unlockChain...)
	v1.POST("/backend", proxyHandler.BackendHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	s.server.Handler = s.router

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the proxy loop answers. Locked credentials
// do not make the server unready; the status is reported as a component.
func (s *Server) readinessHandler(c *gin.Context) {
	if s.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"proxy": "error"},
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status, err := s.status.Status(ctx)
	if err != nil {
		s.logger.Warn("readiness check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"proxy": "error"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"components": gin.H{
			"proxy":       "ok",
			"credentials": status.String(),
		},
	})
}
