package metricmath_test

import (
	"math"
	"testing"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/utils/metricmath"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeDecimal(t *testing.T) {
	d, err := metricmath.SafeDecimal(125.456, 2)
	require.NoError(t, err)
	assert.Equal(t, "125.46", d.StringFixed(2))

	_, err = metricmath.SafeDecimal(math.NaN(), 2)
	assert.Error(t, err)

	_, err = metricmath.SafeDecimal(math.Inf(1), 2)
	assert.Error(t, err)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, metricmath.Clamp01(-0.3))
	assert.Equal(t, 1.0, metricmath.Clamp01(1.7))
	assert.Equal(t, 0.42, metricmath.Clamp01(0.42))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 1, 31, 23, 50, 0, 0, time.UTC)
	b := time.Date(2024, 2, 1, 0, 10, 0, 0, time.UTC)
	// Whole calendar days, not 24h periods.
	assert.Equal(t, 1, metricmath.DaysBetween(a, b))
	assert.Equal(t, -1, metricmath.DaysBetween(b, a))
	assert.Equal(t, 0, metricmath.DaysBetween(a, a))

	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 60, metricmath.DaysBetween(first, asOf))
}

func TestMonthStartAndCohortLabel(t *testing.T) {
	ts := time.Date(2024, 7, 19, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), metricmath.MonthStart(ts))
	assert.Equal(t, "2024-07", metricmath.CohortLabel(ts))
}

func TestQuantileScores_BalancedBuckets(t *testing.T) {
	// 23 customers over 5 buckets: sizes must differ by at most one.
	values := make(map[string]float64, 23)
	for i := 0; i < 23; i++ {
		values[string(rune('a'+i))] = float64(i)
	}

	scores := metricmath.QuantileScores(values, 5, true)
	require.Len(t, scores, 23)

	sizes := make(map[int]int)
	for _, score := range scores {
		require.GreaterOrEqual(t, score, 1)
		require.LessOrEqual(t, score, 5)
		sizes[score]++
	}
	minSize, maxSize := 23, 0
	for b := 1; b <= 5; b++ {
		if sizes[b] < minSize {
			minSize = sizes[b]
		}
		if sizes[b] > maxSize {
			maxSize = sizes[b]
		}
	}
	assert.LessOrEqual(t, maxSize-minSize, 1)
}

func TestQuantileScores_Direction(t *testing.T) {
	values := map[string]float64{"low": 1, "mid": 5, "high": 9}

	higher := metricmath.QuantileScores(values, 3, true)
	assert.Equal(t, 1, higher["low"])
	assert.Equal(t, 2, higher["mid"])
	assert.Equal(t, 3, higher["high"])

	lower := metricmath.QuantileScores(values, 3, false)
	assert.Equal(t, 3, lower["low"])
	assert.Equal(t, 2, lower["mid"])
	assert.Equal(t, 1, lower["high"])
}

func TestQuantileScores_TiesDeterministicByID(t *testing.T) {
	values := map[string]float64{"a": 10, "b": 10, "c": 10, "d": 10}

	first := metricmath.QuantileScores(values, 2, true)
	for i := 0; i < 10; i++ {
		again := metricmath.QuantileScores(values, 2, true)
		assert.Equal(t, first, again)
	}
	// Ties split by id: half land in each bucket.
	assert.Equal(t, 1, first["a"])
	assert.Equal(t, 1, first["b"])
	assert.Equal(t, 2, first["c"])
	assert.Equal(t, 2, first["d"])
}

func TestQuantileScores_Empty(t *testing.T) {
	scores := metricmath.QuantileScores(map[string]float64{}, 5, true)
	assert.Empty(t, scores)
}

func TestDecimalsToFloats(t *testing.T) {
	in := []decimal.Decimal{decimal.NewFromFloat(1.5), decimal.NewFromInt(2)}
	assert.Equal(t, []float64{1.5, 2}, metricmath.DecimalsToFloats(in))
}
