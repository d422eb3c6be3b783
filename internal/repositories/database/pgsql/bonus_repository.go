package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxBonusRepository struct {
	pool *pgxpool.Pool
}

func newPgxBonusRepository(pool *pgxpool.Pool) portsrepo.BonusRepositoryFacade {
	return &PgxBonusRepository{pool: pool}
}

var _ portsrepo.BonusRepositoryFacade = (*PgxBonusRepository)(nil)

// SumMovements derives the customer's bonus balance from the ledger.
// Redemption rows subtract; a customer without movements sums to zero.
func (r *PgxBonusRepository) SumMovements(ctx context.Context, tenantID, customerID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN movement_type = 'redemption' THEN -amount ELSE amount END
		), 0)
		FROM bonus_movements
		WHERE tenant_id = $1 AND customer_id = $2;
	`
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, query, tenantID, customerID).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum bonus movements for customer %s: %w", customerID, err)
	}
	return balance, nil
}
