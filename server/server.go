// Package server exposes the routing core over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/peakstate/internal/profile"
	ai "github.com/hrygo/peakstate/plugin/ai"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/metrics"
)

// Server hosts the HTTP API.
type Server struct {
	echo    *echo.Echo
	profile *profile.Profile
	logger  *slog.Logger

	orchestrator *ai.Orchestrator
	cacheManager *cache.Manager
	classifier   *intent.Classifier
	aggregator   *metrics.Aggregator
}

// NewServer wires the HTTP surface over the pipeline services.
func NewServer(p *profile.Profile, orchestrator *ai.Orchestrator, cacheManager *cache.Manager,
	classifier *intent.Classifier, aggregator *metrics.Aggregator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http request",
				slog.String("uri", v.URI),
				slog.Int("status", v.Status))
			return nil
		},
	}))

	s := &Server{
		echo:         e,
		profile:      p,
		logger:       logger,
		orchestrator: orchestrator,
		cacheManager: cacheManager,
		classifier:   classifier,
		aggregator:   aggregator,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.healthz)

	apiV1 := s.echo.Group("/api/v1")
	apiV1.POST("/chat", s.chat)
	apiV1.GET("/ai/stats", s.stats)
	apiV1.DELETE("/cache/users/:id", s.invalidateUserCache)
}

// Start runs the HTTP listener until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.profile.Addr, s.profile.Port)
	s.logger.Info("http server listening", slog.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router. Used by tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
