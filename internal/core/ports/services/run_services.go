package services

import (
	"context"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
)

// MetricsRunSvcFacade is the run trigger surface of the computation engine.
type MetricsRunSvcFacade interface {
	// TriggerRun executes one synchronous metrics run for the tenant with the
	// given effective configuration. Returns apperrors.ErrTenantNotFound for
	// absent/inactive tenants and apperrors.ErrRunInProgress when the
	// tenant's lease is held by another run.
	TriggerRun(ctx context.Context, tenantID string, cfg domain.RunConfig) (*domain.RunReport, error)

	// ListRuns returns the tenant's most recent run reports, newest first.
	ListRuns(ctx context.Context, tenantID string, limit int) ([]domain.RunReport, error)

	// GetCustomerMetrics returns the customer's current metrics snapshot.
	GetCustomerMetrics(ctx context.Context, tenantID, customerID string) (*domain.CustomerMetrics, error)
}
