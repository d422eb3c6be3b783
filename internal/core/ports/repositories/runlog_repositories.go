package repositories

import (
	"context"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
)

// RunLogRepositoryFacade persists the structured outcome of each metrics run.
type RunLogRepositoryFacade interface {
	SaveRunLog(ctx context.Context, report domain.RunReport) error
	ListRunLogs(ctx context.Context, tenantID string, limit int) ([]domain.RunReport, error)
}
