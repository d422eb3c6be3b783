package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LifecycleStage is the categorical activity state of a customer.
type LifecycleStage string

const (
	LifecycleNew      LifecycleStage = "new"
	LifecycleActive   LifecycleStage = "active"
	LifecycleSleeping LifecycleStage = "sleeping"
	LifecycleChurned  LifecycleStage = "churned"
)

// ChurnRisk buckets churn_probability into four bands.
type ChurnRisk string

const (
	ChurnRiskLow      ChurnRisk = "low"
	ChurnRiskMedium   ChurnRisk = "medium"
	ChurnRiskHigh     ChurnRisk = "high"
	ChurnRiskCritical ChurnRisk = "critical"
)

// CustomerMetrics is the denormalized per-customer profile snapshot. Exactly
// one row exists per (tenant, customer); every run fully recomputes and
// replaces it. Pointer fields are null when the metric is undefined for the
// customer's history per the edge-case policy (never synthetic defaults).
type CustomerMetrics struct {
	TenantID   string `json:"tenantID"`
	CustomerID string `json:"customerID"`

	// Basic transactional metrics
	TotalOrders      int              `json:"totalOrders"`
	TotalRevenue     decimal.Decimal  `json:"totalRevenue"`
	TotalItems       decimal.Decimal  `json:"totalItems"`
	FirstOrderDate   *time.Time       `json:"firstOrderDate"`
	LastOrderDate    *time.Time       `json:"lastOrderDate"`
	AvgCheck         decimal.Decimal  `json:"avgCheck"`
	AvgItemsPerOrder decimal.Decimal  `json:"avgItemsPerOrder"`
	MaxCheck         decimal.Decimal  `json:"maxCheck"`
	MinCheck         decimal.Decimal  `json:"minCheck"`
	StdCheck         decimal.Decimal  `json:"stdCheck"`
	AvgMargin        decimal.Decimal  `json:"avgMargin"`

	// RFM
	Recency    *int             `json:"recency"`
	Frequency  *decimal.Decimal `json:"frequency"`
	Monetary   decimal.Decimal  `json:"monetary"`
	RFMScore   *int             `json:"rfmScore"`
	RFMSegment *string          `json:"rfmSegment"`

	// Temporal patterns
	CustomerAgeDays    *int             `json:"customerAgeDays"`
	CustomerAgeMonths  *int             `json:"customerAgeMonths"`
	AvgDaysBetween     *decimal.Decimal `json:"avgDaysBetween"`
	MedianDaysBetween  *decimal.Decimal `json:"medianDaysBetween"`
	StdDaysBetween     *decimal.Decimal `json:"stdDaysBetween"`
	ExpectedNextOrder  *time.Time       `json:"expectedNextOrder"`
	DaysOverdue        *int             `json:"daysOverdue"`
	PurchaseRegularity *decimal.Decimal `json:"purchaseRegularity"`
	ActiveMonths       int              `json:"activeMonths"`
	ActivityRate       *decimal.Decimal `json:"activityRate"`

	// Lifecycle
	LifecycleStage LifecycleStage `json:"lifecycleStage"`
	SleepDays      *int             `json:"sleepDays"`
	SleepFactor    *decimal.Decimal `json:"sleepFactor"`
	IsNew          bool             `json:"isNew"`
	IsActive       bool             `json:"isActive"`
	IsSleeping     bool             `json:"isSleeping"`
	IsChurned      bool             `json:"isChurned"`
	Cohort         *string          `json:"cohort"`

	// Customer value
	CLVHistorical        decimal.Decimal  `json:"clvHistorical"`
	CLVPredicted         *decimal.Decimal `json:"clvPredicted"`
	CLVSegment           *string          `json:"clvSegment"`
	ABCSegment           string           `json:"abcSegment"`
	XYZSegment           *string          `json:"xyzSegment"`
	ABCXYZSegment        string           `json:"abcXyzSegment"`
	ProfitContribution   decimal.Decimal  `json:"profitContribution"`
	CumulativePercentile decimal.Decimal  `json:"cumulativePercentile"`
	RevenueTrend         *decimal.Decimal `json:"revenueTrend"`
	CheckTrend           *decimal.Decimal `json:"checkTrend"`
	FrequencyTrend       *decimal.Decimal `json:"frequencyTrend"`

	// Predictive
	ProbAlive           *decimal.Decimal `json:"probAlive"`
	ChurnProbability    *decimal.Decimal `json:"churnProbability"`
	ChurnRiskSegment    *string          `json:"churnRiskSegment"`
	PredictedOrders30d  *decimal.Decimal `json:"predictedOrders30d"`
	PredictedOrders90d  *decimal.Decimal `json:"predictedOrders90d"`
	PredictedRevenue30d *decimal.Decimal `json:"predictedRevenue30d"`

	// Product preferences
	FavoriteCategory   *string         `json:"favoriteCategory"`
	FavoriteSKU        *string         `json:"favoriteSku"`
	CategoryDiversity  int             `json:"categoryDiversity"`
	SKUDiversity       int             `json:"skuDiversity"`
	CrossSellPotential decimal.Decimal `json:"crossSellPotential"`

	CalculatedAt time.Time `json:"calculatedAt"`
}

// PeriodStat is one calendar month of a customer's activity, used for trend
// regression. Months inside the trend window but before the customer's first
// order are excluded from the series.
type PeriodStat struct {
	Month    time.Time
	Orders   int
	Revenue  decimal.Decimal
	AvgCheck decimal.Decimal
}

// CustomerAggregates is the aggregation engine's per-customer output: base
// transactional stats, RFM components, and temporal patterns. It also carries
// the per-customer inputs the later pipeline stages need (check coefficient
// of variation, monthly series).
type CustomerAggregates struct {
	CustomerID string

	TotalOrders      int
	TotalRevenue     decimal.Decimal
	TotalItems       decimal.Decimal
	FirstOrderDate   *time.Time
	LastOrderDate    *time.Time
	AvgCheck         decimal.Decimal
	AvgItemsPerOrder decimal.Decimal
	MaxCheck         decimal.Decimal
	MinCheck         decimal.Decimal
	StdCheck         decimal.Decimal
	AvgMargin        decimal.Decimal

	Recency   *int
	Frequency *decimal.Decimal
	Monetary  decimal.Decimal

	CustomerAgeDays    *int
	CustomerAgeMonths  *int
	AvgDaysBetween     *decimal.Decimal
	MedianDaysBetween  *decimal.Decimal
	StdDaysBetween     *decimal.Decimal
	ExpectedNextOrder  *time.Time
	DaysOverdue        *int
	PurchaseRegularity *decimal.Decimal
	ActiveMonths       int
	ActivityRate       *decimal.Decimal
	Cohort             *string
	SleepDays          *int
	SleepFactor        *decimal.Decimal

	// CheckCV is the coefficient of variation of per-transaction amounts,
	// nil below two orders (XYZ is unclassifiable there).
	CheckCV *float64

	// MonthlySeries covers the configured trend window, oldest month first.
	MonthlySeries []PeriodStat
}

// CustomerPredictions is the predictive model's per-customer output.
type CustomerPredictions struct {
	ProbAlive           *decimal.Decimal
	ChurnProbability    *decimal.Decimal
	PredictedOrders30d  *decimal.Decimal
	PredictedOrders90d  *decimal.Decimal
	PredictedRevenue30d *decimal.Decimal
	CLVHistorical       decimal.Decimal
	CLVPredicted        *decimal.Decimal
	RevenueTrend        *decimal.Decimal
	CheckTrend          *decimal.Decimal
	FrequencyTrend      *decimal.Decimal
}

// CustomerSegments is the segmentation engine's per-customer output.
type CustomerSegments struct {
	RScore     *int
	FScore     *int
	MScore     *int
	RFMScore   *int
	RFMSegment *string

	LifecycleStage LifecycleStage
	IsNew          bool
	IsActive       bool
	IsSleeping     bool
	IsChurned      bool

	ABCSegment           string
	XYZSegment           *string
	ABCXYZSegment        string
	ChurnRiskSegment     *string
	CLVSegment           *string
	ProfitContribution   decimal.Decimal
	CumulativePercentile decimal.Decimal
}

// ProductPreferences is the product-affinity block of the profile.
type ProductPreferences struct {
	FavoriteCategory   *string
	FavoriteSKU        *string
	CategoryDiversity  int
	SKUDiversity       int
	CrossSellPotential decimal.Decimal
}
