package repositories

import (
	"context"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
)

// TransactionRepositoryFacade is the tenant data accessor contract over the
// transactional history. Every method is tenant-scoped and honors the run's
// as-of timestamp so historical backfills are reproducible.
type TransactionRepositoryFacade interface {
	// ListCustomerIDs returns the ids of all active customers of the tenant,
	// including customers without any transaction, ordered by customer id.
	ListCustomerIDs(ctx context.Context, tenantID string, asOf time.Time) ([]string, error)

	// ListTransactions returns the customer's transactions up to and
	// including asOf, ordered by transaction date ascending, with the summed
	// line-item quantity denormalized onto each row.
	ListTransactions(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.Transaction, error)

	// ListProductPurchases returns the customer's purchase history grouped by
	// product, highest quantity first, for the product-preference metrics.
	ListProductPurchases(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.ProductPurchase, error)
}
