package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	"github.com/lcsretail/customer_metrics_app/internal/utils/metricmath"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// AggregationService computes per-customer base transactional statistics, RFM
// components, and temporal-pattern metrics from one customer's ordered
// transaction history. It is stateless and safe for concurrent use.
type AggregationService struct{}

// NewAggregationService creates the aggregation engine.
func NewAggregationService() *AggregationService {
	return &AggregationService{}
}

// ComputeAggregates derives the customer's aggregate block. Transactions must
// be ordered by date ascending and already filtered to the run's as-of date.
// An empty history is valid: all derived fields stay null/zero and the
// customer is later classified as "new".
func (s *AggregationService) ComputeAggregates(customerID string, txns []domain.Transaction, cfg domain.RunConfig) (domain.CustomerAggregates, error) {
	agg := domain.CustomerAggregates{
		CustomerID:   customerID,
		TotalRevenue: decimal.Zero,
		TotalItems:   decimal.Zero,
		AvgCheck:     decimal.Zero,
		MaxCheck:     decimal.Zero,
		MinCheck:     decimal.Zero,
		StdCheck:     decimal.Zero,
		AvgMargin:    decimal.Zero,
		Monetary:     decimal.Zero,

		AvgItemsPerOrder: decimal.Zero,
	}
	if len(txns) == 0 {
		return agg, nil
	}

	asOf := cfg.AsOf

	amounts := make([]decimal.Decimal, len(txns))
	for i, txn := range txns {
		amounts[i] = txn.Amount
		agg.TotalRevenue = agg.TotalRevenue.Add(txn.Amount)
		agg.TotalItems = agg.TotalItems.Add(txn.ItemCount)
	}
	agg.TotalOrders = len(txns)
	agg.Monetary = agg.TotalRevenue

	first := txns[0].TransactionDate
	last := txns[len(txns)-1].TransactionDate
	agg.FirstOrderDate = &first
	agg.LastOrderDate = &last

	if err := s.computeCheckStats(&agg, amounts); err != nil {
		return agg, fmt.Errorf("%w: %v", apperrors.ErrComputation, err)
	}

	ordersDec := decimal.NewFromInt(int64(len(txns)))
	agg.AvgItemsPerOrder = agg.TotalItems.DivRound(ordersDec, 2)
	margin := decimal.NewFromFloat(cfg.MarginPercent)
	agg.AvgMargin = agg.TotalRevenue.Mul(margin).DivRound(ordersDec, 2)

	recency := metricmath.DaysBetween(last, asOf)
	agg.Recency = &recency

	// Customer age has a one-day floor so frequency is always defined.
	ageDays := metricmath.DaysBetween(first, asOf)
	if ageDays < 1 {
		ageDays = 1
	}
	agg.CustomerAgeDays = &ageDays
	ageMonths := ageDays / 30
	agg.CustomerAgeMonths = &ageMonths

	frequency := decimal.NewFromInt(int64(len(txns))).
		Mul(decimal.NewFromInt(365)).
		DivRound(decimal.NewFromInt(int64(ageDays)), 4)
	agg.Frequency = &frequency

	if err := s.computeGapStats(&agg, txns, recency, asOf); err != nil {
		// Below two orders the gap block is undefined, not failed: the
		// fields stay null and the customer proceeds.
		if !errors.Is(err, apperrors.ErrInsufficientHistory) {
			return agg, fmt.Errorf("%w: %v", apperrors.ErrComputation, err)
		}
	}

	s.computeActivity(&agg, txns, ageMonths)
	cohort := metricmath.CohortLabel(first)
	agg.Cohort = &cohort

	agg.MonthlySeries = buildMonthlySeries(txns, asOf, cfg.TrendWindowPeriods)

	return agg, nil
}

func (s *AggregationService) computeCheckStats(agg *domain.CustomerAggregates, amounts []decimal.Decimal) error {
	floats := metricmath.DecimalsToFloats(amounts)

	mean, err := stats.Mean(floats)
	if err != nil {
		return fmt.Errorf("check mean: %w", err)
	}
	maxVal, err := stats.Max(floats)
	if err != nil {
		return fmt.Errorf("check max: %w", err)
	}
	minVal, err := stats.Min(floats)
	if err != nil {
		return fmt.Errorf("check min: %w", err)
	}

	// Population standard deviation; a single transaction yields 0, not NaN.
	std := 0.0
	if len(floats) > 1 {
		std, err = stats.StdDevP(floats)
		if err != nil {
			return fmt.Errorf("check stddev: %w", err)
		}
	}

	if agg.AvgCheck, err = metricmath.SafeDecimal(mean, 2); err != nil {
		return err
	}
	if agg.MaxCheck, err = metricmath.SafeDecimal(maxVal, 2); err != nil {
		return err
	}
	if agg.MinCheck, err = metricmath.SafeDecimal(minVal, 2); err != nil {
		return err
	}
	if agg.StdCheck, err = metricmath.SafeDecimal(std, 2); err != nil {
		return err
	}

	if len(floats) > 1 && mean > 0 {
		cv := std / mean
		agg.CheckCV = &cv
	}
	return nil
}

// computeGapStats derives the inter-purchase gap block. Below two orders it
// reports insufficient history and all gap metrics stay null; no synthetic
// defaults.
func (s *AggregationService) computeGapStats(agg *domain.CustomerAggregates, txns []domain.Transaction, recency int, asOf time.Time) error {
	if len(txns) < 2 {
		return apperrors.ErrInsufficientHistory
	}

	gaps := make([]float64, 0, len(txns)-1)
	for i := 1; i < len(txns); i++ {
		gaps = append(gaps, float64(metricmath.DaysBetween(txns[i-1].TransactionDate, txns[i].TransactionDate)))
	}

	mean, err := stats.Mean(gaps)
	if err != nil {
		return fmt.Errorf("gap mean: %w", err)
	}
	median, err := stats.Median(gaps)
	if err != nil {
		return fmt.Errorf("gap median: %w", err)
	}
	std := 0.0
	if len(gaps) > 1 {
		std, err = stats.StdDevP(gaps)
		if err != nil {
			return fmt.Errorf("gap stddev: %w", err)
		}
	}

	avgGap, err := metricmath.SafeDecimal(mean, 2)
	if err != nil {
		return err
	}
	medGap, err := metricmath.SafeDecimal(median, 2)
	if err != nil {
		return err
	}
	stdGap, err := metricmath.SafeDecimal(std, 2)
	if err != nil {
		return err
	}
	agg.AvgDaysBetween = &avgGap
	agg.MedianDaysBetween = &medGap
	agg.StdDaysBetween = &stdGap

	expectedNext := txns[len(txns)-1].TransactionDate.AddDate(0, 0, int(mean))
	agg.ExpectedNextOrder = &expectedNext
	overdue := metricmath.DaysBetween(expectedNext, asOf)
	if overdue < 0 {
		overdue = 0
	}
	agg.DaysOverdue = &overdue

	if mean > 0 {
		regularity, err := metricmath.SafeDecimal(1/(1+std/mean), 4)
		if err != nil {
			return err
		}
		agg.PurchaseRegularity = &regularity

		sleepFactor, err := metricmath.SafeDecimal(float64(recency)/mean, 4)
		if err != nil {
			return err
		}
		agg.SleepFactor = &sleepFactor

		sleepDays := recency - int(mean)
		if sleepDays < 0 {
			sleepDays = 0
		}
		agg.SleepDays = &sleepDays
	}
	return nil
}

func (s *AggregationService) computeActivity(agg *domain.CustomerAggregates, txns []domain.Transaction, ageMonths int) {
	months := make(map[time.Time]struct{})
	for _, txn := range txns {
		months[metricmath.MonthStart(txn.TransactionDate)] = struct{}{}
	}
	agg.ActiveMonths = len(months)

	divisor := ageMonths
	if divisor < 1 {
		divisor = 1
	}
	rate := decimal.NewFromInt(int64(agg.ActiveMonths)).DivRound(decimal.NewFromInt(int64(divisor)), 4)
	agg.ActivityRate = &rate
}

// buildMonthlySeries buckets the customer's history into the trend window's
// calendar months, oldest first. Months before the first order are excluded
// so a young customer is not regressed against months it could not have
// purchased in.
func buildMonthlySeries(txns []domain.Transaction, asOf time.Time, windowPeriods int) []domain.PeriodStat {
	type bucket struct {
		orders  int
		revenue decimal.Decimal
	}
	buckets := make(map[time.Time]*bucket)
	for _, txn := range txns {
		key := metricmath.MonthStart(txn.TransactionDate)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[key] = b
		}
		b.orders++
		b.revenue = b.revenue.Add(txn.Amount)
	}

	firstMonth := metricmath.MonthStart(txns[0].TransactionDate)
	endMonth := metricmath.MonthStart(asOf)

	series := make([]domain.PeriodStat, 0, windowPeriods)
	for i := windowPeriods - 1; i >= 0; i-- {
		month := endMonth.AddDate(0, -i, 0)
		if month.Before(firstMonth) {
			continue
		}
		stat := domain.PeriodStat{Month: month, Revenue: decimal.Zero, AvgCheck: decimal.Zero}
		if b, ok := buckets[month]; ok {
			stat.Orders = b.orders
			stat.Revenue = b.revenue
			stat.AvgCheck = b.revenue.DivRound(decimal.NewFromInt(int64(b.orders)), 2)
		}
		series = append(series, stat)
	}
	return series
}

// ComputeProductPreferences derives the product-affinity block from the
// customer's grouped purchase history (highest quantity first).
func (s *AggregationService) ComputeProductPreferences(purchases []domain.ProductPurchase) domain.ProductPreferences {
	prefs := domain.ProductPreferences{CrossSellPotential: decimal.Zero}
	if len(purchases) == 0 {
		return prefs
	}

	favoriteSKU := purchases[0].ProductName
	prefs.FavoriteSKU = &favoriteSKU
	prefs.SKUDiversity = len(purchases)

	categoryQty := make(map[string]decimal.Decimal)
	for _, p := range purchases {
		if p.Category == nil || *p.Category == "" {
			continue
		}
		categoryQty[*p.Category] = categoryQty[*p.Category].Add(p.TotalQuantity)
	}
	prefs.CategoryDiversity = len(categoryQty)

	var favoriteCategory string
	var favoriteQty decimal.Decimal
	for cat, qty := range categoryQty {
		if favoriteCategory == "" || qty.GreaterThan(favoriteQty) ||
			(qty.Equal(favoriteQty) && cat < favoriteCategory) {
			favoriteCategory = cat
			favoriteQty = qty
		}
	}
	if favoriteCategory != "" {
		prefs.FavoriteCategory = &favoriteCategory
	}

	// Diversity across five or more categories saturates the score.
	potential := decimal.NewFromInt(int64(prefs.CategoryDiversity)).DivRound(decimal.NewFromInt(5), 4)
	if potential.GreaterThan(decimal.NewFromInt(1)) {
		potential = decimal.NewFromInt(1)
	}
	prefs.CrossSellPotential = potential

	return prefs
}
