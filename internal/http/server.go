// Package http provides the HTTP API for contextmem.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextmem/internal/config"
	"github.com/fyrsmithlabs/contextmem/internal/manager"
)

// Server provides HTTP endpoints for contextmem.
type Server struct {
	echo    *echo.Echo
	manager *manager.Manager
	logger  *zap.Logger
	config  config.ServerConfig
}

// NewServer creates the HTTP server over the context manager facade.
func NewServer(mgr *manager.Manager, logger *zap.Logger, cfg config.ServerConfig) (*Server, error) {
	if mgr == nil {
		return nil, fmt.Errorf("manager is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RateLimit.Enabled {
		e.Use(rateLimitMiddleware(cfg.RateLimit))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		manager: mgr,
		logger:  logger,
		config:  cfg,
	}
	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health and metrics stay unauthenticated for probes and scrapers.
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	if s.config.AuthToken.IsSet() {
		v1.Use(bearerAuthMiddleware(s.config.AuthToken))
	}
	v1.POST("/context", s.handleStore)
	v1.POST("/context/search", s.handleSearch)
	v1.GET("/context/:level/:id", s.handleGet)
	v1.DELETE("/context/:level/:id", s.handleDelete)
	v1.DELETE("/context/level/:level", s.handleClear)
	v1.GET("/stats", s.handleStats)
}

// Start begins serving. Blocks until shutdown or listen failure.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.echo.Shutdown(ctx)
}

// handleHealth reports process liveness.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
