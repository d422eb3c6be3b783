package repositories

import (
	"context"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
)

// TenantRepositoryFacade provides read access to tenants. Lookups resolve
// active tenants only; absent or deactivated tenants surface as
// apperrors.ErrTenantNotFound.
type TenantRepositoryFacade interface {
	FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error)
}
