package repositories

import (
	"context"

	"github.com/shopspring/decimal"
)

// BonusRepositoryFacade reads the append-only bonus movement ledger. The
// balance is always derived by summation; redemption rows subtract.
type BonusRepositoryFacade interface {
	SumMovements(ctx context.Context, tenantID, customerID string) (decimal.Decimal, error)
}
