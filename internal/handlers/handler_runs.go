package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/internal/dto"
	"github.com/lcsretail/customer_metrics_app/internal/middleware"
	"github.com/lcsretail/customer_metrics_app/pkg/config"
)

// runHandler handles HTTP requests related to metrics runs.
type runHandler struct {
	cfg        *config.Config
	runService portssvc.MetricsRunSvcFacade
}

func newRunHandler(cfg *config.Config, rs portssvc.MetricsRunSvcFacade) *runHandler {
	return &runHandler{cfg: cfg, runService: rs}
}

// registerRunRoutes registers routes related to metrics runs. The trigger
// route additionally carries the tight run rate limit built in main.
func registerRunRoutes(rg *gin.RouterGroup, cfg *config.Config, rs portssvc.MetricsRunSvcFacade, triggerLimit gin.HandlerFunc) {
	h := newRunHandler(cfg, rs)

	runs := rg.Group("/tenants/:tenantID/metric-runs")
	{
		runs.POST("", triggerLimit, h.triggerRun)
		runs.GET("", h.listRuns)
	}
}

// triggerRun starts one synchronous metrics run for the tenant and returns
// its report. Responds 409 when a run is already in progress.
func (h *runHandler) triggerRun(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	// An empty body is a run with all defaults; every override is optional.
	var req dto.TriggerRunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for TriggerRun", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	runConfig := req.ToRunConfig(h.cfg, time.Now())
	logger = logger.With(slog.String("tenant_id", tenantID))
	logger.Info("Received request to trigger metrics run", slog.Time("as_of", runConfig.AsOf))

	report, err := h.runService.TriggerRun(c.Request.Context(), tenantID, runConfig)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTenantNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Metrics run failed", slog.String("error", err.Error()))
			// The report still describes the failed run when the service
			// produced one.
			if report != nil {
				c.JSON(http.StatusInternalServerError, dto.ToRunReportResponse(report))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute metrics run"})
		}
		return
	}

	logger.Info("Metrics run completed",
		slog.String("run_id", report.RunID),
		slog.String("status", string(report.Status)))
	c.JSON(http.StatusOK, dto.ToRunReportResponse(report))
}

// listRuns returns the tenant's recent run reports, newest first.
func (h *runHandler) listRuns(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	tenantID := c.Param("tenantID")

	var params dto.ListRunsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	if params.Limit == 0 {
		params.Limit = 20
	}

	reports, err := h.runService.ListRuns(c.Request.Context(), tenantID, params.Limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrTenantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list metrics runs", slog.String("tenant_id", tenantID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list metrics runs"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListRunReportResponse(reports))
}
