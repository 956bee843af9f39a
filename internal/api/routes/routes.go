package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/api/handlers"
	"github.com/Wikid82/blackfeed/backend/internal/metrics"
	"github.com/Wikid82/blackfeed/backend/internal/services"
)

// Deps carries the shared service instances. The ingest service in
// particular must be the same instance the scheduler uses, so the per-source
// overlap guard covers scheduled and manually triggered ingestions alike.
type Deps struct {
	DB            *gorm.DB
	Ingest        *services.IngestService
	Indicators    *services.IndicatorService
	Whitelist     *services.WhitelistService
	Audit         *services.AuditService
	Notifications *services.NotificationService
}

// Register wires up API routes and the metrics endpoint.
func Register(router *gin.Engine, deps Deps) {
	router.GET("/api/v1/health", handlers.HealthHandler)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")

	sourceHandler := handlers.NewSourceHandler(deps.DB, deps.Ingest)
	api.GET("/sources", sourceHandler.List)
	api.POST("/sources", sourceHandler.Create)
	api.PUT("/sources/:id", sourceHandler.Update)
	api.DELETE("/sources/:id", sourceHandler.Delete)
	api.POST("/sources/:id/ingest", sourceHandler.Trigger)

	indicatorHandler := handlers.NewIndicatorHandler(deps.Indicators)
	api.GET("/indicators", indicatorHandler.List)
	api.POST("/indicators", indicatorHandler.Create)
	api.POST("/indicators/:id/activate", indicatorHandler.TempActivate)
	api.POST("/indicators/:id/deactivate", indicatorHandler.Deactivate)

	whitelistHandler := handlers.NewWhitelistHandler(deps.Whitelist)
	api.GET("/whitelist", whitelistHandler.List)
	api.POST("/whitelist", whitelistHandler.Create)
	api.DELETE("/whitelist/:id", whitelistHandler.Delete)
	api.GET("/whitelist/blocks", whitelistHandler.ListBlocks)

	settingsHandler := handlers.NewSettingsHandler(deps.DB)
	api.GET("/settings", settingsHandler.GetSettings)
	api.PUT("/settings", settingsHandler.UpdateSetting)

	auditHandler := handlers.NewAuditHandler(deps.Audit)
	api.GET("/audit", auditHandler.List)

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
}
