package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	pool *pgxpool.Pool
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{pool: pool}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// ListCustomerIDs returns every active customer of the tenant, ordered by id.
// Customers without transactions are included; the engine classifies them as
// new rather than ignoring them.
func (r *PgxTransactionRepository) ListCustomerIDs(ctx context.Context, tenantID string, asOf time.Time) ([]string, error) {
	query := `
		SELECT customer_id
		FROM customers
		WHERE tenant_id = $1 AND is_active = TRUE AND created_at <= $2
		ORDER BY customer_id;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan customer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer ids: %w", err)
	}
	return ids, nil
}

// ListTransactions returns the customer's receipts up to asOf, oldest first,
// with the summed line-item quantity denormalized onto each row.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT
			t.transaction_id,
			t.tenant_id,
			t.customer_id,
			t.transaction_date,
			t.amount,
			t.amount_before_discount,
			t.store_id,
			t.employee_id,
			COALESCE((
				SELECT SUM(ti.quantity)
				FROM transaction_items ti
				WHERE ti.tenant_id = t.tenant_id AND ti.transaction_id = t.transaction_id
			), 0) AS item_count
		FROM transactions t
		WHERE t.tenant_id = $1 AND t.customer_id = $2 AND t.transaction_date <= $3
		ORDER BY t.transaction_date, t.transaction_id;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, customerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		err := rows.Scan(
			&txn.TransactionID,
			&txn.TenantID,
			&txn.CustomerID,
			&txn.TransactionDate,
			&txn.Amount,
			&txn.AmountBeforeDiscount,
			&txn.StoreID,
			&txn.EmployeeID,
			&txn.ItemCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// ListProductPurchases aggregates the customer's line items per product,
// highest quantity first. The favorite SKU is the first row, so the ordering
// here is part of the contract.
func (r *PgxTransactionRepository) ListProductPurchases(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.ProductPurchase, error) {
	query := `
		SELECT
			p.name,
			p.category,
			SUM(ti.quantity) AS total_quantity,
			COUNT(DISTINCT ti.transaction_id) AS purchase_count
		FROM transaction_items ti
		JOIN transactions t
			ON t.tenant_id = ti.tenant_id AND t.transaction_id = ti.transaction_id
		JOIN products p
			ON p.tenant_id = ti.tenant_id AND p.product_id = ti.product_id
		WHERE ti.tenant_id = $1 AND t.customer_id = $2 AND t.transaction_date <= $3
		GROUP BY p.name, p.category
		ORDER BY total_quantity DESC, p.name;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, customerID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list product purchases for customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var purchases []domain.ProductPurchase
	for rows.Next() {
		var purchase domain.ProductPurchase
		err := rows.Scan(
			&purchase.ProductName,
			&purchase.Category,
			&purchase.TotalQuantity,
			&purchase.PurchaseCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product purchases: %w", err)
	}
	return purchases, nil
}
