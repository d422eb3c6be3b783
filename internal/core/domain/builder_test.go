package domain_test

import (
	"testing"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSegments() domain.CustomerSegments {
	score := 9
	segment := "Loyal"
	clv := "High"
	xyz := "X"
	return domain.CustomerSegments{
		RFMScore:       &score,
		RFMSegment:     &segment,
		LifecycleStage: domain.LifecycleActive,
		IsActive:       true,
		CLVSegment:     &clv,
		ABCSegment:     "A",
		XYZSegment:     &xyz,
		ABCXYZSegment:  "AX",
	}
}

func TestMetricsBuilder_Build(t *testing.T) {
	calculatedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cohort := "2023-11"
	agg := domain.CustomerAggregates{
		CustomerID:   "c1",
		TotalOrders:  4,
		TotalRevenue: decimal.RequireFromString("480.00"),
		AvgCheck:     decimal.RequireFromString("120.00"),
		Cohort:       &cohort,
	}
	pred := domain.CustomerPredictions{
		CLVHistorical: decimal.RequireFromString("480.00"),
	}
	prefs := domain.ProductPreferences{SKUDiversity: 3}

	metrics, err := domain.NewMetricsBuilder("t1", "c1", calculatedAt).
		WithAggregates(agg).
		WithSegments(validSegments()).
		WithPredictions(pred).
		WithProductPreferences(prefs).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "t1", metrics.TenantID)
	assert.Equal(t, "c1", metrics.CustomerID)
	assert.Equal(t, 4, metrics.TotalOrders)
	assert.Equal(t, "480.00", metrics.TotalRevenue.StringFixed(2))
	require.NotNil(t, metrics.RFMSegment)
	assert.Equal(t, "Loyal", *metrics.RFMSegment)
	assert.Equal(t, domain.LifecycleActive, metrics.LifecycleStage)
	assert.True(t, metrics.IsActive)
	assert.Equal(t, "AX", metrics.ABCXYZSegment)
	require.NotNil(t, metrics.Cohort)
	assert.Equal(t, "2023-11", *metrics.Cohort)
	assert.Equal(t, 3, metrics.SKUDiversity)
	assert.Equal(t, calculatedAt, metrics.CalculatedAt)
}

func TestMetricsBuilder_MissingStages(t *testing.T) {
	calculatedAt := time.Now()
	agg := domain.CustomerAggregates{CustomerID: "c1"}
	pred := domain.CustomerPredictions{}
	prefs := domain.ProductPreferences{}

	tests := []struct {
		name    string
		builder *domain.MetricsBuilder
		wantErr string
	}{
		{
			name:    "no aggregates",
			builder: domain.NewMetricsBuilder("t1", "c1", calculatedAt).WithSegments(validSegments()).WithPredictions(pred).WithProductPreferences(prefs),
			wantErr: "aggregation stage missing",
		},
		{
			name:    "no segments",
			builder: domain.NewMetricsBuilder("t1", "c1", calculatedAt).WithAggregates(agg).WithPredictions(pred).WithProductPreferences(prefs),
			wantErr: "segmentation stage missing",
		},
		{
			name:    "no predictions",
			builder: domain.NewMetricsBuilder("t1", "c1", calculatedAt).WithAggregates(agg).WithSegments(validSegments()).WithProductPreferences(prefs),
			wantErr: "prediction stage missing",
		},
		{
			name:    "no product preferences",
			builder: domain.NewMetricsBuilder("t1", "c1", calculatedAt).WithAggregates(agg).WithSegments(validSegments()).WithPredictions(pred),
			wantErr: "product preference stage missing",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMetricsBuilder_LifecycleConsistency(t *testing.T) {
	build := func(seg domain.CustomerSegments) error {
		_, err := domain.NewMetricsBuilder("t1", "c1", time.Now()).
			WithAggregates(domain.CustomerAggregates{CustomerID: "c1"}).
			WithSegments(seg).
			WithPredictions(domain.CustomerPredictions{}).
			WithProductPreferences(domain.ProductPreferences{}).
			Build()
		return err
	}

	t.Run("no flag set", func(t *testing.T) {
		seg := validSegments()
		seg.IsActive = false
		require.Error(t, build(seg))
	})

	t.Run("two flags set", func(t *testing.T) {
		seg := validSegments()
		seg.IsSleeping = true
		require.Error(t, build(seg))
	})

	t.Run("flag contradicts stage", func(t *testing.T) {
		seg := validSegments()
		seg.IsActive = false
		seg.IsChurned = true
		err := build(seg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not match")
	})
}

func TestRunConfigValidate(t *testing.T) {
	valid := domain.RunConfig{
		AsOf:               time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Concurrency:        8,
		RFMBuckets:         5,
		NewCustomerDays:    30,
		SleepDaysThreshold: 90,
		ChurnDaysThreshold: 180,
		CLVHorizonMonths:   12,
		TrendWindowPeriods: 6,
		MarginPercent:      0.3,
		ProbAlivePrior:     0.5,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*domain.RunConfig)
	}{
		{"zero as-of", func(c *domain.RunConfig) { c.AsOf = time.Time{} }},
		{"zero concurrency", func(c *domain.RunConfig) { c.Concurrency = 0 }},
		{"too few rfm buckets", func(c *domain.RunConfig) { c.RFMBuckets = 1 }},
		{"too many rfm buckets", func(c *domain.RunConfig) { c.RFMBuckets = 11 }},
		{"negative sleep threshold", func(c *domain.RunConfig) { c.SleepDaysThreshold = -1 }},
		{"sleep at churn threshold", func(c *domain.RunConfig) { c.SleepDaysThreshold = 180 }},
		{"sleep above churn threshold", func(c *domain.RunConfig) { c.SleepDaysThreshold = 200 }},
		{"zero clv horizon", func(c *domain.RunConfig) { c.CLVHorizonMonths = 0 }},
		{"single-period trend window", func(c *domain.RunConfig) { c.TrendWindowPeriods = 1 }},
		{"prior above one", func(c *domain.RunConfig) { c.ProbAlivePrior = 1.5 }},
		{"negative prior", func(c *domain.RunConfig) { c.ProbAlivePrior = -0.1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
