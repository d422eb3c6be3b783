package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/internal/dto"
	"github.com/lcsretail/customer_metrics_app/internal/middleware"
)

// metricsHandler handles HTTP requests for customer metrics snapshots.
type metricsHandler struct {
	runService portssvc.MetricsRunSvcFacade
}

func newMetricsHandler(rs portssvc.MetricsRunSvcFacade) *metricsHandler {
	return &metricsHandler{runService: rs}
}

// registerMetricsRoutes registers the read routes for computed metrics.
func registerMetricsRoutes(rg *gin.RouterGroup, rs portssvc.MetricsRunSvcFacade) {
	h := newMetricsHandler(rs)

	customers := rg.Group("/tenants/:tenantID/customers")
	{
		customers.GET("/:customerID/metrics", h.getCustomerMetrics)
	}
}

// getCustomerMetrics returns the customer's current metrics snapshot.
// Responds 404 both for unknown tenants and for customers that have no
// computed snapshot yet.
func (h *metricsHandler) getCustomerMetrics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")
	customerID := c.Param("customerID")

	metrics, err := h.runService.GetCustomerMetrics(c.Request.Context(), tenantID, customerID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTenantNotFound), errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to get customer metrics",
				slog.String("tenant_id", tenantID),
				slog.String("customer_id", customerID),
				slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve customer metrics"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerMetricsResponse(metrics))
}
