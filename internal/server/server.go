// Package server provides the HTTP API for Foundry.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ShayCichocki/foundry/internal/assistant"
	"github.com/ShayCichocki/foundry/internal/logging"
	"github.com/ShayCichocki/foundry/internal/metrics"
	"github.com/ShayCichocki/foundry/internal/planner"
	"github.com/ShayCichocki/foundry/internal/tracker"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Deps are the services the handlers call.
type Deps struct {
	Tracker       *tracker.Service
	Planner       *planner.Planner
	Assistant     *assistant.Orchestrator
	TaskAssistant *assistant.TaskAssistant
	Metrics       *metrics.Metrics
	Logger        *zap.Logger
}

// Server provides HTTP endpoints for Foundry.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *zap.Logger
	config Config
}

// New creates a server and registers its routes.
func New(deps Deps, cfg Config) (*Server, error) {
	if deps.Tracker == nil {
		return nil, errors.New("tracker service is required")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logging.OrNop(deps.Logger).Named("http"),
		config: cfg,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	s.registerRoutes()
	return s, nil
}

// requestLogger logs each request and records it in metrics under its route
// pattern so path parameters do not multiply series.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Render now so the logged status is the one sent.
			c.Error(err)
		}
		duration := time.Since(start)

		status := c.Response().Status
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.deps.Metrics.RecordHTTP(c.Request().Method, route, status, duration)

		fields := []zap.Field{
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		}
		if status >= http.StatusInternalServerError {
			s.logger.Warn("http request", append(fields, zap.Error(err))...)
		} else {
			s.logger.Info("http request", fields...)
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")

	v1.GET("/projects", s.handleListProjects)
	v1.POST("/projects", s.handleCreateProject)
	v1.GET("/projects/:id", s.handleGetProject)
	v1.PATCH("/projects/:id", s.handleUpdateProject)
	v1.DELETE("/projects/:id", s.handleDeleteProject)
	v1.POST("/projects/:id/generate", s.handleGenerate)
	v1.POST("/projects/:id/chat", s.handleProjectChat)
	v1.GET("/projects/:id/chat", s.handleProjectHistory)

	v1.GET("/departments/:id/tasks", s.handleBoard)
	v1.POST("/departments/:id/tasks", s.handleCreateTask)

	v1.PATCH("/tasks/:id", s.handleUpdateTask)
	v1.PUT("/tasks/:id/status", s.handleSetStatus)
	v1.DELETE("/tasks/:id", s.handleDeleteTask)
	v1.POST("/tasks/:id/dependencies", s.handleAddDependency)
	v1.DELETE("/tasks/:id/dependencies/:dep", s.handleRemoveDependency)
	v1.POST("/tasks/:id/chat", s.handleTaskChat)
	v1.GET("/tasks/:id/chat", s.handleTaskHistory)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Address returns host:port.
func (s *Server) Address() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.Address()
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
