package domain

import (
	"fmt"
	"time"
)

// MetricsBuilder accumulates validated stage outputs and converts them into
// the persisted CustomerMetrics shape only once every stage has completed.
// The profile writer never sees a partially assembled row.
type MetricsBuilder struct {
	tenantID     string
	customerID   string
	calculatedAt time.Time

	aggregates  *CustomerAggregates
	segments    *CustomerSegments
	predictions *CustomerPredictions
	products    *ProductPreferences
}

// NewMetricsBuilder starts a builder for one (tenant, customer) snapshot.
// calculatedAt must be the run's wall-clock start so re-runs with identical
// inputs produce identical ordering decisions.
func NewMetricsBuilder(tenantID, customerID string, calculatedAt time.Time) *MetricsBuilder {
	return &MetricsBuilder{
		tenantID:     tenantID,
		customerID:   customerID,
		calculatedAt: calculatedAt,
	}
}

func (b *MetricsBuilder) WithAggregates(agg CustomerAggregates) *MetricsBuilder {
	b.aggregates = &agg
	return b
}

func (b *MetricsBuilder) WithSegments(seg CustomerSegments) *MetricsBuilder {
	b.segments = &seg
	return b
}

func (b *MetricsBuilder) WithPredictions(pred CustomerPredictions) *MetricsBuilder {
	b.predictions = &pred
	return b
}

func (b *MetricsBuilder) WithProductPreferences(prefs ProductPreferences) *MetricsBuilder {
	b.products = &prefs
	return b
}

// Build assembles the final row. It fails if any pipeline stage is missing or
// if the lifecycle booleans do not mirror the stage enum exactly (exactly one
// of the four must be true).
func (b *MetricsBuilder) Build() (CustomerMetrics, error) {
	if b.aggregates == nil {
		return CustomerMetrics{}, fmt.Errorf("metrics builder for customer %s: aggregation stage missing", b.customerID)
	}
	if b.segments == nil {
		return CustomerMetrics{}, fmt.Errorf("metrics builder for customer %s: segmentation stage missing", b.customerID)
	}
	if b.predictions == nil {
		return CustomerMetrics{}, fmt.Errorf("metrics builder for customer %s: prediction stage missing", b.customerID)
	}
	if b.products == nil {
		return CustomerMetrics{}, fmt.Errorf("metrics builder for customer %s: product preference stage missing", b.customerID)
	}

	if err := validateLifecycle(b.segments); err != nil {
		return CustomerMetrics{}, fmt.Errorf("metrics builder for customer %s: %w", b.customerID, err)
	}

	agg, seg, pred, prefs := b.aggregates, b.segments, b.predictions, b.products

	return CustomerMetrics{
		TenantID:   b.tenantID,
		CustomerID: b.customerID,

		TotalOrders:      agg.TotalOrders,
		TotalRevenue:     agg.TotalRevenue,
		TotalItems:       agg.TotalItems,
		FirstOrderDate:   agg.FirstOrderDate,
		LastOrderDate:    agg.LastOrderDate,
		AvgCheck:         agg.AvgCheck,
		AvgItemsPerOrder: agg.AvgItemsPerOrder,
		MaxCheck:         agg.MaxCheck,
		MinCheck:         agg.MinCheck,
		StdCheck:         agg.StdCheck,
		AvgMargin:        agg.AvgMargin,

		Recency:    agg.Recency,
		Frequency:  agg.Frequency,
		Monetary:   agg.Monetary,
		RFMScore:   seg.RFMScore,
		RFMSegment: seg.RFMSegment,

		CustomerAgeDays:    agg.CustomerAgeDays,
		CustomerAgeMonths:  agg.CustomerAgeMonths,
		AvgDaysBetween:     agg.AvgDaysBetween,
		MedianDaysBetween:  agg.MedianDaysBetween,
		StdDaysBetween:     agg.StdDaysBetween,
		ExpectedNextOrder:  agg.ExpectedNextOrder,
		DaysOverdue:        agg.DaysOverdue,
		PurchaseRegularity: agg.PurchaseRegularity,
		ActiveMonths:       agg.ActiveMonths,
		ActivityRate:       agg.ActivityRate,

		LifecycleStage: seg.LifecycleStage,
		SleepDays:      agg.SleepDays,
		SleepFactor:    agg.SleepFactor,
		IsNew:          seg.IsNew,
		IsActive:       seg.IsActive,
		IsSleeping:     seg.IsSleeping,
		IsChurned:      seg.IsChurned,
		Cohort:         agg.Cohort,

		CLVHistorical:        pred.CLVHistorical,
		CLVPredicted:         pred.CLVPredicted,
		CLVSegment:           seg.CLVSegment,
		ABCSegment:           seg.ABCSegment,
		XYZSegment:           seg.XYZSegment,
		ABCXYZSegment:        seg.ABCXYZSegment,
		ProfitContribution:   seg.ProfitContribution,
		CumulativePercentile: seg.CumulativePercentile,
		RevenueTrend:         pred.RevenueTrend,
		CheckTrend:           pred.CheckTrend,
		FrequencyTrend:       pred.FrequencyTrend,

		ProbAlive:           pred.ProbAlive,
		ChurnProbability:    pred.ChurnProbability,
		ChurnRiskSegment:    seg.ChurnRiskSegment,
		PredictedOrders30d:  pred.PredictedOrders30d,
		PredictedOrders90d:  pred.PredictedOrders90d,
		PredictedRevenue30d: pred.PredictedRevenue30d,

		FavoriteCategory:   prefs.FavoriteCategory,
		FavoriteSKU:        prefs.FavoriteSKU,
		CategoryDiversity:  prefs.CategoryDiversity,
		SKUDiversity:       prefs.SKUDiversity,
		CrossSellPotential: prefs.CrossSellPotential,

		CalculatedAt: b.calculatedAt,
	}, nil
}

func validateLifecycle(seg *CustomerSegments) error {
	flags := map[LifecycleStage]bool{
		LifecycleNew:      seg.IsNew,
		LifecycleActive:   seg.IsActive,
		LifecycleSleeping: seg.IsSleeping,
		LifecycleChurned:  seg.IsChurned,
	}

	trueCount := 0
	for _, set := range flags {
		if set {
			trueCount++
		}
	}
	if trueCount != 1 {
		return fmt.Errorf("lifecycle booleans must have exactly one true, got %d", trueCount)
	}
	if !flags[seg.LifecycleStage] {
		return fmt.Errorf("lifecycle stage %q does not match its boolean flags", seg.LifecycleStage)
	}
	return nil
}
