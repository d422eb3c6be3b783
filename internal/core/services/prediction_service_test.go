package services_test

import (
	"testing"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/lcsretail/customer_metrics_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyStat(year int, month time.Month, orders int, revenue float64) domain.PeriodStat {
	stat := domain.PeriodStat{
		Month:    time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Orders:   orders,
		Revenue:  decimal.NewFromFloat(revenue),
		AvgCheck: decimal.Zero,
	}
	if orders > 0 {
		stat.AvgCheck = stat.Revenue.DivRound(decimal.NewFromInt(int64(orders)), 2)
	}
	return stat
}

func TestComputePredictions_NoOrders(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	pred, err := svc.ComputePredictions(domain.CustomerAggregates{CustomerID: "c1"}, cfg)
	require.NoError(t, err)

	assert.Nil(t, pred.ProbAlive)
	assert.Nil(t, pred.ChurnProbability)
	assert.Nil(t, pred.CLVPredicted)
	assert.Nil(t, pred.PredictedOrders30d)
	assert.True(t, pred.CLVHistorical.IsZero())
}

func TestComputePredictions_PriorBelowTwoOrders(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	agg := aggWith("c1", 1, 100, 10)
	pred, err := svc.ComputePredictions(agg, cfg)
	require.NoError(t, err)

	require.NotNil(t, pred.ProbAlive)
	assert.Equal(t, "0.5000", pred.ProbAlive.StringFixed(4))
	require.NotNil(t, pred.ChurnProbability)
	assert.Equal(t, "0.5000", pred.ChurnProbability.StringFixed(4))
}

func TestComputePredictions_ProbAliveDecaysWithRecency(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	probFor := func(recency int) decimal.Decimal {
		agg := aggWith("c1", 6, 600, recency)
		agg.AvgDaysBetween = decPtr(30)
		agg.AvgCheck = decimal.NewFromInt(100)
		pred, err := svc.ComputePredictions(agg, cfg)
		require.NoError(t, err)
		require.NotNil(t, pred.ProbAlive)
		return *pred.ProbAlive
	}

	// recency/meanGap/3: at one mean gap the customer is still likely alive,
	// at three it is certainly gone.
	assert.Equal(t, "0.6667", probFor(30).StringFixed(4))
	assert.Equal(t, "0.3333", probFor(60).StringFixed(4))
	assert.Equal(t, "0.0000", probFor(90).StringFixed(4))
	assert.Equal(t, "0.0000", probFor(120).StringFixed(4))

	// Monotone non-increasing in recency.
	prev := probFor(0)
	for _, recency := range []int{10, 20, 45, 70, 100} {
		cur := probFor(recency)
		assert.True(t, cur.LessThanOrEqual(prev), "prob alive must not grow with recency")
		prev = cur
	}
}

func TestComputePredictions_ExpectedVolumesAndCLV(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	agg := aggWith("c1", 12, 1200, 0)
	agg.Frequency = decPtr(12) // 12 orders per year
	agg.AvgCheck = decimal.NewFromInt(100)
	agg.AvgDaysBetween = decPtr(30)

	pred, err := svc.ComputePredictions(agg, cfg)
	require.NoError(t, err)

	require.NotNil(t, pred.ProbAlive)
	assert.Equal(t, "1.0000", pred.ProbAlive.StringFixed(4))

	// 12/365 orders per day over the horizon at probability 1.
	require.NotNil(t, pred.PredictedOrders30d)
	assert.Equal(t, "0.9863", pred.PredictedOrders30d.StringFixed(4))
	require.NotNil(t, pred.PredictedOrders90d)
	assert.Equal(t, "2.9589", pred.PredictedOrders90d.StringFixed(4))
	require.NotNil(t, pred.PredictedRevenue30d)
	assert.Equal(t, "98.63", pred.PredictedRevenue30d.StringFixed(2))

	// Historical revenue plus one year of expected spend.
	assert.Equal(t, "1200.0000", pred.CLVHistorical.StringFixed(4))
	require.NotNil(t, pred.CLVPredicted)
	assert.Equal(t, "2400.00", pred.CLVPredicted.StringFixed(2))
}

func TestComputePredictions_Trends(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	agg := aggWith("c1", 6, 600, 10)
	agg.AvgCheck = decimal.NewFromInt(100)
	agg.MonthlySeries = []domain.PeriodStat{
		monthlyStat(2024, 1, 1, 100),
		monthlyStat(2024, 2, 2, 200),
		monthlyStat(2024, 3, 3, 300),
	}

	pred, err := svc.ComputePredictions(agg, cfg)
	require.NoError(t, err)

	require.NotNil(t, pred.RevenueTrend)
	assert.Equal(t, "100.0000", pred.RevenueTrend.StringFixed(4))
	require.NotNil(t, pred.FrequencyTrend)
	assert.Equal(t, "1.0000", pred.FrequencyTrend.StringFixed(4))
	require.NotNil(t, pred.CheckTrend)
	// Check stays at 100 every month.
	assert.Equal(t, "0.0000", pred.CheckTrend.StringFixed(4))
}

func TestComputePredictions_TrendsWithZeroMonth(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	agg := aggWith("c1", 4, 400, 10)
	agg.MonthlySeries = []domain.PeriodStat{
		monthlyStat(2024, 1, 2, 300),
		monthlyStat(2024, 2, 0, 0),
		monthlyStat(2024, 3, 2, 100),
	}

	pred, err := svc.ComputePredictions(agg, cfg)
	require.NoError(t, err)

	// Revenue regression sees the zero month; the check series does not,
	// and with 2 non-empty months it is still defined.
	require.NotNil(t, pred.RevenueTrend)
	assert.Equal(t, "-100.0000", pred.RevenueTrend.StringFixed(4))
	require.NotNil(t, pred.CheckTrend)
}

func TestComputePredictions_TrendsNeedTwoPeriods(t *testing.T) {
	svc := services.NewPredictionService()
	cfg := testRunConfig(time.Now())

	agg := aggWith("c1", 1, 100, 10)
	agg.MonthlySeries = []domain.PeriodStat{monthlyStat(2024, 3, 1, 100)}

	pred, err := svc.ComputePredictions(agg, cfg)
	require.NoError(t, err)

	assert.Nil(t, pred.RevenueTrend)
	assert.Nil(t, pred.CheckTrend)
	assert.Nil(t, pred.FrequencyTrend)
}
