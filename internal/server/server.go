// Package server
//
// @title Shopfront Admin Gateway
// @version 1.0
// @description Admin session authentication and route guard for the storefront back office
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/config"
	"github.com/shopfront-dev/shopfront/internal/identity"
	"github.com/shopfront-dev/shopfront/internal/metrics"
)

const (
	publicLandingPath = "/"
	requestIDHeader   = "X-Request-ID"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	codec    *auth.TokenCodec
	cookies  auth.CookiePolicy
	identity identity.Checker
	guard    *RouteGuard
	metrics  *metrics.Metrics
	version  string

	identityConfigured bool
	codecOpts          []auth.CodecOption
}

// Option customizes a Server
type Option func(*Server)

// WithIdentityChecker replaces the HTTP identity client
func WithIdentityChecker(checker identity.Checker) Option {
	return func(s *Server) {
		s.identity = checker
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCodecOptions passes options to the session token codec
func WithCodecOptions(opts ...auth.CodecOption) Option {
	return func(s *Server) {
		s.codecOpts = append(s.codecOpts, opts...)
	}
}

// New creates a new server instance. It fails when the signing secret is
// missing so that a misconfigured deployment never starts serving.
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	server := &Server{
		config:             cfg,
		logger:             zlog,
		cookies:            auth.DefaultCookiePolicy(cfg.IsProduction()),
		version:            version,
		identityConfigured: cfg.Identity.BaseURL != "",
	}
	for _, opt := range opts {
		opt(server)
	}

	codec, err := auth.NewTokenCodec(cfg.Auth.Secret, server.codecOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session codec: %w", err)
	}
	server.codec = codec

	if server.identity == nil {
		server.identity = identity.New(identity.Options{
			BaseURL:    cfg.Identity.BaseURL,
			LoginPath:  cfg.Identity.LoginPath,
			LogoutPath: cfg.Identity.LogoutPath,
			APIKey:     cfg.Identity.APIKey,
			Timeout:    cfg.Identity.Timeout,
		})
	}
	if !server.identityConfigured {
		zlog.Warn().Msg("IDENTITY_API_BASE is not set - admin login will be rejected as misconfigured")
	}

	if server.metrics == nil {
		server.metrics = metrics.New(prometheus.NewRegistry())
	}

	server.guard = NewRouteGuard(GuardConfig{
		ProtectedPrefix: cfg.Guard.ProtectedPrefix,
		LocalHostnames:  cfg.Guard.LocalHostnames,
		PublicURL:       cfg.Site.PublicURL,
	}, codec, server.cookies, zlog, server.metrics)

	if len(cfg.Guard.LocalHostnames) > 0 {
		zlog.Info().Strs("hostnames", cfg.Guard.LocalHostnames).Msg("Admin auth bypass enabled for local hostnames")
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Storefront pages may call login/logout in the background from another origin
	if len(s.config.HTTP.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.HTTP.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Every request passes the guard before any admin page renders
	s.router.Use(s.guard.Middleware())

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)
	if s.config.HTTP.MetricsEnabled {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	// Session endpoints
	api := s.router.Group("/api")
	{
		api.POST("/login", s.login)
		api.POST("/logout", s.logout)
		api.GET("/logout", s.logout)
		api.GET("/session", s.sessionStatus)
	}

	// Admin landing page doubles as the login page
	s.router.GET(s.guard.LoginPath(), s.adminLanding)

	// Admin sections are served by the back office; the gateway only answers
	// for requests the guard let through.
	s.router.NoRoute(s.adminSection)
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "shopfront-admin",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, used by tests and embedding servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// absoluteURL prefixes path with the public site URL when one is configured
func (s *Server) absoluteURL(path string) string {
	return joinPublicURL(s.config.Site.PublicURL, path)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := ":" + s.config.HTTP.Port

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
			errChan <- err
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
