package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/api/middleware"
	"github.com/Wikid82/formguard/internal/api/routes"
	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine *gin.Engine
	Deps   routes.Dependencies
	cfg    config.Config
}

// New wires up the HTTP router and registers versioned routes. registry may
// be nil, in which case /metrics is not served.
func New(db *gorm.DB, cfg config.Config, registry *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(cfg.Debug),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{IsDevelopment: !cfg.IsProduction()}),
	)

	deps := routes.NewDependencies(db, cfg, registry)
	routes.Register(router, deps)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return &Server{Engine: router, Deps: deps, cfg: cfg}
}

// Run starts the retention scheduler and the HTTP server, and shuts both down
// when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Deps.Retention.Start(); err != nil {
		return fmt.Errorf("start retention: %w", err)
	}
	defer func() {
		s.Deps.Retention.Stop()
		s.Deps.Alerts.Wait()
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Log().WithField("addr", srv.Addr).Info("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		logger.Log().Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
