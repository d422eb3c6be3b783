package metricmath

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DecimalsToFloats converts decimal values to float64 for statistical work.
// Monetary outputs are always converted back through SafeDecimal so rounding
// happens exactly once, at the edge.
func DecimalsToFloats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i], _ = v.Float64()
	}
	return out
}

// SafeDecimal converts a computed float back to a decimal with the given
// scale. NaN and infinities are rejected rather than silently persisted;
// callers treat that as a computation error for the affected customer.
func SafeDecimal(value float64, places int32) (decimal.Decimal, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero, fmt.Errorf("non-finite value %f", value)
	}
	return decimal.NewFromFloat(value).Round(places), nil
}

// Clamp01 bounds a probability to [0,1].
func Clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// DaysBetween returns the number of whole calendar days from a to b in UTC.
func DaysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}

// MonthStart truncates a timestamp to the first day of its calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CohortLabel formats a first-order date as the YYYY-MM cohort key.
func CohortLabel(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// QuantileScores assigns each id a bucket score in [1..buckets] by rank
// within the population, best value scoring highest. Rank-based assignment
// keeps bucket sizes within 1 of each other regardless of value ties in the
// data; exact ties are broken by id for determinism.
func QuantileScores(values map[string]float64, buckets int, higherIsBetter bool) map[string]int {
	n := len(values)
	scores := make(map[string]int, n)
	if n == 0 {
		return scores
	}

	ids := make([]string, 0, n)
	for id := range values {
		ids = append(ids, id)
	}
	// Worst first, so the best values land in the highest bucket.
	sort.Slice(ids, func(i, j int) bool {
		vi, vj := values[ids[i]], values[ids[j]]
		if !higherIsBetter {
			vi, vj = -vi, -vj
		}
		if vi != vj {
			return vi < vj
		}
		return ids[i] < ids[j]
	})

	for rank, id := range ids {
		scores[id] = (rank*buckets)/n + 1
	}
	return scores
}
