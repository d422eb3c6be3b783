package handlers

import (
	"github.com/gin-gonic/gin"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	runTriggerLimit gin.HandlerFunc,
) {

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	r.GET("/", getHome)

	setupAPIV1Routes(r, cfg, services, runTriggerLimit)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	runTriggerLimit gin.HandlerFunc,
) {
	v1 := r.Group("/api/v1")

	registerRunRoutes(v1, cfg, services.MetricsRun, runTriggerLimit)
	registerMetricsRoutes(v1, services.MetricsRun)
}
