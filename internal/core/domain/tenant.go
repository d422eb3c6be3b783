package domain

import "time"

// Tenant is the isolation boundary for all other entities. Every engine query
// must be scoped to a single tenant; cross-tenant reads or writes are a
// correctness violation.
type Tenant struct {
	TenantID  string    `json:"tenantID"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerGroup is an optional grouping of customers within a tenant.
type CustomerGroup struct {
	GroupID  string `json:"groupID"`
	TenantID string `json:"tenantID"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// Store is the trading point where a transaction happened.
type Store struct {
	StoreID  string `json:"storeID"`
	TenantID string `json:"tenantID"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// Employee is the cashier/operator recorded on a transaction.
type Employee struct {
	EmployeeID string `json:"employeeID"`
	TenantID   string `json:"tenantID"`
	Code       string `json:"code"`
	Name       string `json:"name"`
}

// Product is a sellable item. The category field arrives pre-populated from
// the upstream classification pipeline; this service only consumes it.
type Product struct {
	ProductID string  `json:"productID"`
	TenantID  string  `json:"tenantID"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Category  *string `json:"category"`
}

// Discount is a discount condition referenced by transaction items.
type Discount struct {
	DiscountID string `json:"discountID"`
	TenantID   string `json:"tenantID"`
	Name       string `json:"name"`
}
