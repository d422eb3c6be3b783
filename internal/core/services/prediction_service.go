package services

import (
	"fmt"

	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/lcsretail/customer_metrics_app/internal/utils/metricmath"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// PredictionService derives the forward-looking block of the profile: the
// probability-alive estimate, churn probability, expected order and revenue
// volumes, predicted CLV, and the linear activity trends. All outputs are
// deterministic functions of the aggregation block and the run configuration.
type PredictionService struct{}

// NewPredictionService creates the predictive engine.
func NewPredictionService() *PredictionService {
	return &PredictionService{}
}

// ComputePredictions derives the predictive block for one customer.
func (s *PredictionService) ComputePredictions(agg domain.CustomerAggregates, cfg domain.RunConfig) (domain.CustomerPredictions, error) {
	pred := domain.CustomerPredictions{
		CLVHistorical: agg.TotalRevenue,
	}
	if agg.TotalOrders == 0 {
		return pred, nil
	}

	probAlive := s.probabilityAlive(agg, cfg)
	churn := decimal.NewFromInt(1).Sub(probAlive)
	pred.ProbAlive = &probAlive
	pred.ChurnProbability = &churn

	if agg.Frequency != nil {
		// Expected volumes scale the per-year order rate by the horizon and
		// by the chance the customer is still buying at all.
		ordersPerDay := agg.Frequency.Div(decimal.NewFromInt(365))
		o30 := ordersPerDay.Mul(decimal.NewFromInt(30)).Mul(probAlive).Round(4)
		o90 := ordersPerDay.Mul(decimal.NewFromInt(90)).Mul(probAlive).Round(4)
		r30 := o30.Mul(agg.AvgCheck).Round(2)
		pred.PredictedOrders30d = &o30
		pred.PredictedOrders90d = &o90
		pred.PredictedRevenue30d = &r30

		horizon := decimal.NewFromInt(int64(cfg.CLVHorizonMonths)).
			Div(decimal.NewFromInt(12))
		clv := agg.TotalRevenue.
			Add(agg.AvgCheck.Mul(*agg.Frequency).Mul(horizon).Mul(probAlive)).
			Round(2)
		pred.CLVPredicted = &clv
	}

	if err := s.computeTrends(&pred, agg); err != nil {
		return pred, fmt.Errorf("%w: %v", apperrors.ErrComputation, err)
	}

	return pred, nil
}

// probabilityAlive estimates the chance the customer is still purchasing. A
// customer whose time since last order is three mean gaps or more is treated
// as certainly gone; below two orders there is no gap history and the
// configured prior applies.
func (s *PredictionService) probabilityAlive(agg domain.CustomerAggregates, cfg domain.RunConfig) decimal.Decimal {
	if agg.TotalOrders < 2 || agg.AvgDaysBetween == nil || !agg.AvgDaysBetween.IsPositive() {
		return decimal.NewFromFloat(cfg.ProbAlivePrior).Round(4)
	}

	recency := decimal.NewFromInt(int64(*agg.Recency))
	ratio, _ := recency.Div(*agg.AvgDaysBetween).Div(decimal.NewFromInt(3)).Float64()
	return decimal.NewFromFloat(metricmath.Clamp01(1 - ratio)).Round(4)
}

// computeTrends fits a least-squares line to each monthly series and reports
// the slope per period. Revenue and frequency use the full window including
// zero months; the check trend only has data where orders exist.
func (s *PredictionService) computeTrends(pred *domain.CustomerPredictions, agg domain.CustomerAggregates) error {
	series := agg.MonthlySeries
	if len(series) < 2 {
		return nil
	}

	revenueY := make([]float64, len(series))
	ordersY := make([]float64, len(series))
	var checkX, checkY []float64
	for i, period := range series {
		revenueY[i], _ = period.Revenue.Float64()
		ordersY[i] = float64(period.Orders)
		if period.Orders > 0 {
			avg, _ := period.AvgCheck.Float64()
			checkX = append(checkX, float64(i))
			checkY = append(checkY, avg)
		}
	}

	revTrend, err := trendSlope(revenueY)
	if err != nil {
		return fmt.Errorf("revenue trend: %w", err)
	}
	freqTrend, err := trendSlope(ordersY)
	if err != nil {
		return fmt.Errorf("frequency trend: %w", err)
	}
	pred.RevenueTrend = revTrend
	pred.FrequencyTrend = freqTrend

	if len(checkY) >= 2 {
		checkTrend, err := slope(checkX, checkY)
		if err != nil {
			return fmt.Errorf("check trend: %w", err)
		}
		pred.CheckTrend = checkTrend
	}

	return nil
}

// trendSlope regresses the series against its index positions.
func trendSlope(ys []float64) (*decimal.Decimal, error) {
	xs := make([]float64, len(ys))
	for i := range ys {
		xs[i] = float64(i)
	}
	return slope(xs, ys)
}

func slope(xs, ys []float64) (*decimal.Decimal, error) {
	cov, err := stats.Covariance(xs, ys)
	if err != nil {
		return nil, err
	}
	// Covariance is sample-based, so the denominator must be too.
	varX, err := stats.SampleVariance(xs)
	if err != nil {
		return nil, err
	}
	if varX == 0 {
		return nil, nil
	}
	d := decimal.NewFromFloat(cov / varX).Round(4)
	return &d, nil
}
