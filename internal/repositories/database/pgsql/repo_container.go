package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires the pgsql-backed repositories. The run lease
// provider lives in the runlock package and is attached by the caller.
func NewRepositoryProvider(dbPool *pgxpool.Pool, leases portsrepo.RunLeaseProvider) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TenantRepo:      newPgxTenantRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		BonusRepo:       newPgxBonusRepository(dbPool),
		MetricsRepo:     newPgxMetricsRepository(dbPool),
		RunLogRepo:      newPgxRunLogRepository(dbPool),
		RunLeases:       leases,
	}
}
