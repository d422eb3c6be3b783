package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable purchase event (receipt header). ItemCount is
// the summed quantity across the receipt's line items, denormalized by the
// data accessor so the aggregation engine needs a single ordered scan.
type Transaction struct {
	TransactionID        string          `json:"transactionID"`
	TenantID             string          `json:"tenantID"`
	CustomerID           string          `json:"customerID"`
	TransactionDate      time.Time       `json:"transactionDate"`
	Amount               decimal.Decimal `json:"amount"`
	AmountBeforeDiscount decimal.Decimal `json:"amountBeforeDiscount"`
	StoreID              *string         `json:"storeID"`
	EmployeeID           *string         `json:"employeeID"`
	ItemCount            decimal.Decimal `json:"itemCount"`
}

// TransactionItem is a receipt line. Quantity and price are decimal and never
// negative.
type TransactionItem struct {
	ItemID        int64           `json:"itemID"`
	TransactionID string          `json:"transactionID"`
	TenantID      string          `json:"tenantID"`
	ProductID     string          `json:"productID"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	DiscountID    *string         `json:"discountID"`
}

// ProductPurchase is a customer's aggregated purchase history for one
// product, used by the product-preference metrics.
type ProductPurchase struct {
	ProductName   string          `json:"productName"`
	Category      *string         `json:"category"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	PurchaseCount int             `json:"purchaseCount"`
}
