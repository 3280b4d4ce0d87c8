package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/formguard/internal/api/handlers"
	"github.com/Wikid82/formguard/internal/api/middleware"
	"github.com/Wikid82/formguard/internal/config"
	"github.com/Wikid82/formguard/internal/services"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Config    config.Config
	Registry  *prometheus.Registry
	Auth      *services.AuthService
	Logs      *services.FingerprintLogService
	Guard     *services.GuardService
	Alerts    *services.AlertService
	Retention *services.RetentionService
	Audit     *services.AuditService
}

// NewDependencies constructs every service from a migrated database.
func NewDependencies(db *gorm.DB, cfg config.Config, registry *prometheus.Registry) Dependencies {
	logs := services.NewFingerprintLogService(db, cfg.StoreTimeout)
	alerts := services.NewAlertService(cfg.AlertURL, cfg.AlertCooldown)
	return Dependencies{
		Config:    cfg,
		Registry:  registry,
		Auth:      services.NewAuthService(db, cfg),
		Logs:      logs,
		Guard:     services.NewGuardService(logs, alerts, cfg.Guard),
		Alerts:    alerts,
		Retention: services.NewRetentionService(logs, cfg.RetentionDays, cfg.PurgeSchedule, alerts),
		Audit:     services.NewAuditService(db, cfg.StoreTimeout),
	}
}

// Register wires up API routes.
func Register(router *gin.Engine, deps Dependencies) {
	router.GET("/api/v1/health", handlers.HealthHandler)
	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")

	submissionHandler := handlers.NewSubmissionHandler(deps.Guard)
	api.POST("/submissions/validate", submissionHandler.Validate)

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Config.IsProduction())
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Auth), middleware.RequireRole("admin"))
	protected.GET("/auth/me", authHandler.Me)

	adminHandler := handlers.NewAdminHandler(deps.Logs, deps.Retention, deps.Audit)
	protected.GET("/logs", adminHandler.ListLogs)
	protected.GET("/logs/visitor/:visitor_id", adminHandler.VisitorLogs)
	protected.POST("/logs/purge", adminHandler.PurgeLogs)
	protected.GET("/stats", adminHandler.GetStats)
	protected.POST("/visitors/:visitor_id/spam", adminHandler.MarkSpam)
	protected.DELETE("/visitors/:visitor_id/spam", adminHandler.UnmarkSpam)
	protected.GET("/audits", adminHandler.ListAudits)

	settingsHandler := handlers.NewSettingsHandler(deps.Guard)
	protected.GET("/settings", settingsHandler.Get)
	protected.PUT("/settings", settingsHandler.Update)
}
