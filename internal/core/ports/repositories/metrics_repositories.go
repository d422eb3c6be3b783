package repositories

import (
	"context"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MetricsRepositoryFacade is the profile writer: it maintains exactly one
// CustomerMetrics row per (tenant, customer) and keeps bonus_balances equal
// to the movement ledger sum, both inside a single database transaction.
type MetricsRepositoryFacade interface {
	// UpsertMetrics fully replaces the customer's snapshot. It returns
	// apperrors.ErrWriteConflict when a row with a newer calculated_at
	// already exists, so a stale run can never clobber fresher data.
	UpsertMetrics(ctx context.Context, metrics domain.CustomerMetrics, bonusBalance decimal.Decimal) error

	// FindMetricsByCustomer returns the customer's current snapshot, or
	// apperrors.ErrNotFound when none has been computed yet.
	FindMetricsByCustomer(ctx context.Context, tenantID, customerID string) (*domain.CustomerMetrics, error)
}
