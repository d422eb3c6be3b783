package dto

import (
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/lcsretail/customer_metrics_app/pkg/config"
)

// TriggerRunRequest carries the optional per-run configuration overrides.
// Every field is a pointer so an absent override falls back to the service
// default instead of a zero value.
type TriggerRunRequest struct {
	AsOf               *time.Time `json:"asOf"`
	Concurrency        *int       `json:"concurrency" binding:"omitempty,min=1,max=64"`
	RFMBuckets         *int       `json:"rfmBuckets" binding:"omitempty,min=2,max=10"`
	NewCustomerDays    *int       `json:"newCustomerDays" binding:"omitempty,min=1"`
	SleepDaysThreshold *int       `json:"sleepDaysThreshold" binding:"omitempty,min=1"`
	ChurnDaysThreshold *int       `json:"churnDaysThreshold" binding:"omitempty,min=1"`
	CLVHorizonMonths   *int       `json:"clvHorizonMonths" binding:"omitempty,min=1,max=120"`
	TrendWindowPeriods *int       `json:"trendWindowPeriods" binding:"omitempty,min=2,max=36"`
	MarginPercent      *float64   `json:"marginPercent" binding:"omitempty,gte=0,lte=1"`
	ProbAlivePrior     *float64   `json:"probAlivePrior" binding:"omitempty,gte=0,lte=1"`
}

// ToRunConfig merges the request overrides onto the service defaults. The
// as-of date defaults to now; cross-field constraints are checked later by
// domain.RunConfig.Validate.
func (r TriggerRunRequest) ToRunConfig(cfg *config.Config, now time.Time) domain.RunConfig {
	rc := domain.RunConfig{
		AsOf:               now.UTC(),
		Concurrency:        cfg.RunConcurrency,
		RFMBuckets:         cfg.RFMBuckets,
		NewCustomerDays:    cfg.NewCustomerDays,
		SleepDaysThreshold: cfg.SleepDaysThreshold,
		ChurnDaysThreshold: cfg.ChurnDaysThreshold,
		CLVHorizonMonths:   cfg.CLVHorizonMonths,
		TrendWindowPeriods: cfg.TrendWindowPeriods,
		MarginPercent:      cfg.MarginPercent,
		ProbAlivePrior:     cfg.ProbAlivePrior,
	}
	if r.AsOf != nil {
		rc.AsOf = r.AsOf.UTC()
	}
	if r.Concurrency != nil {
		rc.Concurrency = *r.Concurrency
	}
	if r.RFMBuckets != nil {
		rc.RFMBuckets = *r.RFMBuckets
	}
	if r.NewCustomerDays != nil {
		rc.NewCustomerDays = *r.NewCustomerDays
	}
	if r.SleepDaysThreshold != nil {
		rc.SleepDaysThreshold = *r.SleepDaysThreshold
	}
	if r.ChurnDaysThreshold != nil {
		rc.ChurnDaysThreshold = *r.ChurnDaysThreshold
	}
	if r.CLVHorizonMonths != nil {
		rc.CLVHorizonMonths = *r.CLVHorizonMonths
	}
	if r.TrendWindowPeriods != nil {
		rc.TrendWindowPeriods = *r.TrendWindowPeriods
	}
	if r.MarginPercent != nil {
		rc.MarginPercent = *r.MarginPercent
	}
	if r.ProbAlivePrior != nil {
		rc.ProbAlivePrior = *r.ProbAlivePrior
	}
	return rc
}

// SkippedCustomerResponse mirrors domain.SkippedCustomer.
type SkippedCustomerResponse struct {
	CustomerID string `json:"customerID"`
	Reason     string `json:"reason"`
}

// LatencyResponse reports per-customer computation latency percentiles in
// milliseconds.
type LatencyResponse struct {
	P50Millis float64 `json:"p50Millis"`
	P95Millis float64 `json:"p95Millis"`
	P99Millis float64 `json:"p99Millis"`
}

// RunReportResponse defines the data returned for a metrics run.
type RunReportResponse struct {
	RunID              string                    `json:"runID"`
	TenantID           string                    `json:"tenantID"`
	Status             string                    `json:"status"`
	AsOf               time.Time                 `json:"asOf"`
	StartedAt          time.Time                 `json:"startedAt"`
	FinishedAt         time.Time                 `json:"finishedAt"`
	DurationMillis     int64                     `json:"durationMillis"`
	CustomersProcessed int                       `json:"customersProcessed"`
	CustomersSkipped   []SkippedCustomerResponse `json:"customersSkipped"`
	Latency            LatencyResponse           `json:"latency"`
	ErrorMessage       string                    `json:"errorMessage,omitempty"`
}

// ToRunReportResponse converts a domain.RunReport to RunReportResponse DTO
func ToRunReportResponse(report *domain.RunReport) RunReportResponse {
	skipped := make([]SkippedCustomerResponse, len(report.CustomersSkipped))
	for i, s := range report.CustomersSkipped {
		skipped[i] = SkippedCustomerResponse{CustomerID: s.CustomerID, Reason: s.Reason}
	}
	return RunReportResponse{
		RunID:              report.RunID,
		TenantID:           report.TenantID,
		Status:             string(report.Status),
		AsOf:               report.AsOf,
		StartedAt:          report.StartedAt,
		FinishedAt:         report.FinishedAt,
		DurationMillis:     report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
		CustomersProcessed: report.CustomersProcessed,
		CustomersSkipped:   skipped,
		Latency: LatencyResponse{
			P50Millis: float64(report.Latency.P50.Microseconds()) / 1000,
			P95Millis: float64(report.Latency.P95.Microseconds()) / 1000,
			P99Millis: float64(report.Latency.P99.Microseconds()) / 1000,
		},
		ErrorMessage: report.ErrorMessage,
	}
}

// ToListRunReportResponse converts a slice of domain.RunReport to DTOs
func ToListRunReportResponse(reports []domain.RunReport) []RunReportResponse {
	res := make([]RunReportResponse, len(reports))
	for i, report := range reports {
		res[i] = ToRunReportResponse(&report)
	}
	return res
}

// ListRunsParams defines query parameters for listing run reports.
type ListRunsParams struct {
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}
