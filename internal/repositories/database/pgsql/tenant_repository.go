package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
)

type PgxTenantRepository struct {
	pool *pgxpool.Pool
}

func newPgxTenantRepository(pool *pgxpool.Pool) portsrepo.TenantRepositoryFacade {
	return &PgxTenantRepository{pool: pool}
}

var _ portsrepo.TenantRepositoryFacade = (*PgxTenantRepository)(nil)

// FindTenantByID resolves an active tenant. Inactive tenants are treated the
// same as absent ones so a deactivated tenant can never start a run.
func (r *PgxTenantRepository) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	query := `
		SELECT tenant_id, code, name, is_active, created_at
		FROM tenants
		WHERE tenant_id = $1 AND is_active = TRUE;
	`
	var tenant domain.Tenant
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&tenant.TenantID,
		&tenant.Code,
		&tenant.Name,
		&tenant.IsActive,
		&tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to find tenant %s: %w", tenantID, err)
	}
	return &tenant, nil
}
