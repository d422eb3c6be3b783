package domain

import (
	"fmt"
	"time"
)

// RunStatus reflects the worst per-customer outcome of a metrics run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusError   RunStatus = "error"
)

// RunConfig is the effective configuration of one metrics run: the service
// defaults merged with any per-request overrides.
type RunConfig struct {
	AsOf time.Time

	Concurrency        int
	RFMBuckets         int
	NewCustomerDays    int
	SleepDaysThreshold int
	ChurnDaysThreshold int
	CLVHorizonMonths   int
	TrendWindowPeriods int
	MarginPercent      float64
	ProbAlivePrior     float64
}

// Validate checks the cross-field constraints that gin binding tags cannot
// express on the override DTO.
func (c RunConfig) Validate() error {
	if c.AsOf.IsZero() {
		return fmt.Errorf("as-of date must be set")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.RFMBuckets < 2 || c.RFMBuckets > 10 {
		return fmt.Errorf("rfm buckets must be within [2,10], got %d", c.RFMBuckets)
	}
	if c.SleepDaysThreshold <= 0 || c.ChurnDaysThreshold <= 0 {
		return fmt.Errorf("lifecycle thresholds must be positive")
	}
	if c.SleepDaysThreshold >= c.ChurnDaysThreshold {
		return fmt.Errorf("sleep threshold (%d) must be below churn threshold (%d)",
			c.SleepDaysThreshold, c.ChurnDaysThreshold)
	}
	if c.CLVHorizonMonths < 1 {
		return fmt.Errorf("clv horizon must be at least 1 month, got %d", c.CLVHorizonMonths)
	}
	if c.TrendWindowPeriods < 2 {
		return fmt.Errorf("trend window must cover at least 2 periods, got %d", c.TrendWindowPeriods)
	}
	if c.ProbAlivePrior < 0 || c.ProbAlivePrior > 1 {
		return fmt.Errorf("probability-alive prior must be within [0,1], got %f", c.ProbAlivePrior)
	}
	return nil
}

// SkippedCustomer records why one customer produced no snapshot this run.
type SkippedCustomer struct {
	CustomerID string `json:"customerID"`
	Reason     string `json:"reason"`
}

// LatencySummary holds per-customer computation latency percentiles for one run.
type LatencySummary struct {
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// RunReport is the structured outcome of a metrics run, surfaced to the
// caller and persisted to metric_run_logs.
type RunReport struct {
	RunID              string            `json:"runID"`
	TenantID           string            `json:"tenantID"`
	Status             RunStatus         `json:"status"`
	AsOf               time.Time         `json:"asOf"`
	StartedAt          time.Time         `json:"startedAt"`
	FinishedAt         time.Time         `json:"finishedAt"`
	CustomersProcessed int               `json:"customersProcessed"`
	CustomersSkipped   []SkippedCustomer `json:"customersSkipped"`
	Latency            LatencySummary    `json:"latency"`
	ErrorMessage       string            `json:"errorMessage,omitempty"`
}
