package dto

import (
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CustomerMetricsResponse defines the data returned for a customer's metrics
// snapshot. Mirrors domain.CustomerMetrics; null JSON fields mean the metric
// is undefined for the customer's history.
type CustomerMetricsResponse struct {
	TenantID   string `json:"tenantID"`
	CustomerID string `json:"customerID"`

	TotalOrders      int             `json:"totalOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalItems       decimal.Decimal `json:"totalItems"`
	FirstOrderDate   *time.Time      `json:"firstOrderDate"`
	LastOrderDate    *time.Time      `json:"lastOrderDate"`
	AvgCheck         decimal.Decimal `json:"avgCheck"`
	AvgItemsPerOrder decimal.Decimal `json:"avgItemsPerOrder"`
	MaxCheck         decimal.Decimal `json:"maxCheck"`
	MinCheck         decimal.Decimal `json:"minCheck"`
	StdCheck         decimal.Decimal `json:"stdCheck"`
	AvgMargin        decimal.Decimal `json:"avgMargin"`

	Recency    *int             `json:"recency"`
	Frequency  *decimal.Decimal `json:"frequency"`
	Monetary   decimal.Decimal  `json:"monetary"`
	RFMScore   *int             `json:"rfmScore"`
	RFMSegment *string          `json:"rfmSegment"`

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

	LifecycleStage string           `json:"lifecycleStage"`
	SleepDays      *int             `json:"sleepDays"`
	SleepFactor    *decimal.Decimal `json:"sleepFactor"`
	IsNew          bool             `json:"isNew"`
	IsActive       bool             `json:"isActive"`
	IsSleeping     bool             `json:"isSleeping"`
	IsChurned      bool             `json:"isChurned"`
	Cohort         *string          `json:"cohort"`

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

	ProbAlive           *decimal.Decimal `json:"probAlive"`
	ChurnProbability    *decimal.Decimal `json:"churnProbability"`
	ChurnRiskSegment    *string          `json:"churnRiskSegment"`
	PredictedOrders30d  *decimal.Decimal `json:"predictedOrders30d"`
	PredictedOrders90d  *decimal.Decimal `json:"predictedOrders90d"`
	PredictedRevenue30d *decimal.Decimal `json:"predictedRevenue30d"`

	FavoriteCategory   *string         `json:"favoriteCategory"`
	FavoriteSKU        *string         `json:"favoriteSku"`
	CategoryDiversity  int             `json:"categoryDiversity"`
	SKUDiversity       int             `json:"skuDiversity"`
	CrossSellPotential decimal.Decimal `json:"crossSellPotential"`

	CalculatedAt time.Time `json:"calculatedAt"`
}

// ToCustomerMetricsResponse converts a domain.CustomerMetrics to its DTO
func ToCustomerMetricsResponse(m *domain.CustomerMetrics) CustomerMetricsResponse {
	return CustomerMetricsResponse{
		TenantID:   m.TenantID,
		CustomerID: m.CustomerID,

		TotalOrders:      m.TotalOrders,
		TotalRevenue:     m.TotalRevenue,
		TotalItems:       m.TotalItems,
		FirstOrderDate:   m.FirstOrderDate,
		LastOrderDate:    m.LastOrderDate,
		AvgCheck:         m.AvgCheck,
		AvgItemsPerOrder: m.AvgItemsPerOrder,
		MaxCheck:         m.MaxCheck,
		MinCheck:         m.MinCheck,
		StdCheck:         m.StdCheck,
		AvgMargin:        m.AvgMargin,

		Recency:    m.Recency,
		Frequency:  m.Frequency,
		Monetary:   m.Monetary,
		RFMScore:   m.RFMScore,
		RFMSegment: m.RFMSegment,

		CustomerAgeDays:    m.CustomerAgeDays,
		CustomerAgeMonths:  m.CustomerAgeMonths,
		AvgDaysBetween:     m.AvgDaysBetween,
		MedianDaysBetween:  m.MedianDaysBetween,
		StdDaysBetween:     m.StdDaysBetween,
		ExpectedNextOrder:  m.ExpectedNextOrder,
		DaysOverdue:        m.DaysOverdue,
		PurchaseRegularity: m.PurchaseRegularity,
		ActiveMonths:       m.ActiveMonths,
		ActivityRate:       m.ActivityRate,

		LifecycleStage: string(m.LifecycleStage),
		SleepDays:      m.SleepDays,
		SleepFactor:    m.SleepFactor,
		IsNew:          m.IsNew,
		IsActive:       m.IsActive,
		IsSleeping:     m.IsSleeping,
		IsChurned:      m.IsChurned,
		Cohort:         m.Cohort,

		CLVHistorical:        m.CLVHistorical,
		CLVPredicted:         m.CLVPredicted,
		CLVSegment:           m.CLVSegment,
		ABCSegment:           m.ABCSegment,
		XYZSegment:           m.XYZSegment,
		ABCXYZSegment:        m.ABCXYZSegment,
		ProfitContribution:   m.ProfitContribution,
		CumulativePercentile: m.CumulativePercentile,
		RevenueTrend:         m.RevenueTrend,
		CheckTrend:           m.CheckTrend,
		FrequencyTrend:       m.FrequencyTrend,

		ProbAlive:           m.ProbAlive,
		ChurnProbability:    m.ChurnProbability,
		ChurnRiskSegment:    m.ChurnRiskSegment,
		PredictedOrders30d:  m.PredictedOrders30d,
		PredictedOrders90d:  m.PredictedOrders90d,
		PredictedRevenue30d: m.PredictedRevenue30d,

		FavoriteCategory:   m.FavoriteCategory,
		FavoriteSKU:        m.FavoriteSKU,
		CategoryDiversity:  m.CategoryDiversity,
		SKUDiversity:       m.SKUDiversity,
		CrossSellPotential: m.CrossSellPotential,

		CalculatedAt: m.CalculatedAt,
	}
}
