package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType distinguishes bonus accruals from redemptions.
type MovementType string

const (
	Accrual    MovementType = "accrual"
	Redemption MovementType = "redemption"
)

// BonusMovement is an append-only ledger entry affecting a customer's bonus
// balance. Redemptions carry a negative effect on the balance.
type BonusMovement struct {
	MovementID    int64           `json:"movementID"`
	TenantID      string          `json:"tenantID"`
	CustomerID    string          `json:"customerID"`
	TransactionID *string         `json:"transactionID"`
	Amount        decimal.Decimal `json:"amount"`
	MovementType  MovementType    `json:"movementType"`
	MovementDate  time.Time       `json:"movementDate"`
}

// BonusBalance is the derived running total of a customer's movements. It
// must always equal the sum of that customer's ledger entries; the profile
// writer refreshes it on every metrics run.
type BonusBalance struct {
	TenantID   string          `json:"tenantID"`
	CustomerID string          `json:"customerID"`
	Balance    decimal.Decimal `json:"balance"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
