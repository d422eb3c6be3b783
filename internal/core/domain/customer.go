package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a loyalty-program member. One row per (tenant, customer)
// forever: customers are mutated by import and deactivated, never deleted.
type Customer struct {
	CustomerID        string          `json:"customerID"`
	TenantID          string          `json:"tenantID"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	AccumulatedAmount decimal.Decimal `json:"accumulatedAmount"`
	BirthDate         *time.Time      `json:"birthDate"`
	GroupID           *string         `json:"groupID"`
	IsActive          bool            `json:"isActive"`
	CreatedAt         time.Time       `json:"createdAt"`
}
