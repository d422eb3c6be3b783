package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

type PgxMetricsRepository struct {
	BaseRepository
}

func newPgxMetricsRepository(pool *pgxpool.Pool) portsrepo.MetricsRepositoryFacade {
	return &PgxMetricsRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.MetricsRepositoryFacade = (*PgxMetricsRepository)(nil)

const metricsColumns = `
	tenant_id, customer_id,
	total_orders, total_revenue, total_items, first_order_date, last_order_date,
	avg_check, avg_items_per_order, max_check, min_check, std_check, avg_margin,
	recency, frequency, monetary, rfm_score, rfm_segment,
	customer_age_days, customer_age_months, avg_days_between, median_days_between,
	std_days_between, expected_next_order, days_overdue, purchase_regularity,
	active_months, activity_rate,
	lifecycle_stage, sleep_days, sleep_factor, is_new, is_active, is_sleeping,
	is_churned, cohort,
	clv_historical, clv_predicted, clv_segment, abc_segment, xyz_segment,
	abc_xyz_segment, profit_contribution, cumulative_percentile,
	revenue_trend, check_trend, frequency_trend,
	prob_alive, churn_probability, churn_risk_segment,
	predicted_orders_30d, predicted_orders_90d, predicted_revenue_30d,
	favorite_category, favorite_sku, category_diversity, sku_diversity,
	cross_sell_potential,
	calculated_at`

// UpsertMetrics fully replaces the customer's snapshot and refreshes the
// derived bonus balance inside one transaction. The conflict guard refuses to
// overwrite a row whose calculated_at is newer than this run's, so a stale
// run that lost a race can never clobber fresher data.
func (r *PgxMetricsRepository) UpsertMetrics(ctx context.Context, m domain.CustomerMetrics, bonusBalance decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO customer_metrics (` + metricsColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
			$41, $42, $43, $44, $45, $46, $47, $48, $49, $50,
			$51, $52, $53, $54, $55, $56, $57, $58, $59
		)
		ON CONFLICT (tenant_id, customer_id) DO UPDATE SET
			total_orders = EXCLUDED.total_orders,
			total_revenue = EXCLUDED.total_revenue,
			total_items = EXCLUDED.total_items,
			first_order_date = EXCLUDED.first_order_date,
			last_order_date = EXCLUDED.last_order_date,
			avg_check = EXCLUDED.avg_check,
			avg_items_per_order = EXCLUDED.avg_items_per_order,
			max_check = EXCLUDED.max_check,
			min_check = EXCLUDED.min_check,
			std_check = EXCLUDED.std_check,
			avg_margin = EXCLUDED.avg_margin,
			recency = EXCLUDED.recency,
			frequency = EXCLUDED.frequency,
			monetary = EXCLUDED.monetary,
			rfm_score = EXCLUDED.rfm_score,
			rfm_segment = EXCLUDED.rfm_segment,
			customer_age_days = EXCLUDED.customer_age_days,
			customer_age_months = EXCLUDED.customer_age_months,
			avg_days_between = EXCLUDED.avg_days_between,
			median_days_between = EXCLUDED.median_days_between,
			std_days_between = EXCLUDED.std_days_between,
			expected_next_order = EXCLUDED.expected_next_order,
			days_overdue = EXCLUDED.days_overdue,
			purchase_regularity = EXCLUDED.purchase_regularity,
			active_months = EXCLUDED.active_months,
			activity_rate = EXCLUDED.activity_rate,
			lifecycle_stage = EXCLUDED.lifecycle_stage,
			sleep_days = EXCLUDED.sleep_days,
			sleep_factor = EXCLUDED.sleep_factor,
			is_new = EXCLUDED.is_new,
			is_active = EXCLUDED.is_active,
			is_sleeping = EXCLUDED.is_sleeping,
			is_churned = EXCLUDED.is_churned,
			cohort = EXCLUDED.cohort,
			clv_historical = EXCLUDED.clv_historical,
			clv_predicted = EXCLUDED.clv_predicted,
			clv_segment = EXCLUDED.clv_segment,
			abc_segment = EXCLUDED.abc_segment,
			xyz_segment = EXCLUDED.xyz_segment,
			abc_xyz_segment = EXCLUDED.abc_xyz_segment,
			profit_contribution = EXCLUDED.profit_contribution,
			cumulative_percentile = EXCLUDED.cumulative_percentile,
			revenue_trend = EXCLUDED.revenue_trend,
			check_trend = EXCLUDED.check_trend,
			frequency_trend = EXCLUDED.frequency_trend,
			prob_alive = EXCLUDED.prob_alive,
			churn_probability = EXCLUDED.churn_probability,
			churn_risk_segment = EXCLUDED.churn_risk_segment,
			predicted_orders_30d = EXCLUDED.predicted_orders_30d,
			predicted_orders_90d = EXCLUDED.predicted_orders_90d,
			predicted_revenue_30d = EXCLUDED.predicted_revenue_30d,
			favorite_category = EXCLUDED.favorite_category,
			favorite_sku = EXCLUDED.favorite_sku,
			category_diversity = EXCLUDED.category_diversity,
			sku_diversity = EXCLUDED.sku_diversity,
			cross_sell_potential = EXCLUDED.cross_sell_potential,
			calculated_at = EXCLUDED.calculated_at
		WHERE customer_metrics.calculated_at < EXCLUDED.calculated_at;
	`
	tag, err := tx.Exec(ctx, query,
		m.TenantID, m.CustomerID,
		m.TotalOrders, m.TotalRevenue, m.TotalItems, m.FirstOrderDate, m.LastOrderDate,
		m.AvgCheck, m.AvgItemsPerOrder, m.MaxCheck, m.MinCheck, m.StdCheck, m.AvgMargin,
		m.Recency, m.Frequency, m.Monetary, m.RFMScore, m.RFMSegment,
		m.CustomerAgeDays, m.CustomerAgeMonths, m.AvgDaysBetween, m.MedianDaysBetween,
		m.StdDaysBetween, m.ExpectedNextOrder, m.DaysOverdue, m.PurchaseRegularity,
		m.ActiveMonths, m.ActivityRate,
		m.LifecycleStage, m.SleepDays, m.SleepFactor, m.IsNew, m.IsActive, m.IsSleeping,
		m.IsChurned, m.Cohort,
		m.CLVHistorical, m.CLVPredicted, m.CLVSegment, m.ABCSegment, m.XYZSegment,
		m.ABCXYZSegment, m.ProfitContribution, m.CumulativePercentile,
		m.RevenueTrend, m.CheckTrend, m.FrequencyTrend,
		m.ProbAlive, m.ChurnProbability, m.ChurnRiskSegment,
		m.PredictedOrders30d, m.PredictedOrders90d, m.PredictedRevenue30d,
		m.FavoriteCategory, m.FavoriteSKU, m.CategoryDiversity, m.SKUDiversity,
		m.CrossSellPotential,
		m.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert metrics for customer %s: %w", m.CustomerID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrWriteConflict
	}

	balanceQuery := `
		INSERT INTO bonus_balances (tenant_id, customer_id, balance, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, customer_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at;
	`
	_, err = tx.Exec(ctx, balanceQuery, m.TenantID, m.CustomerID, bonusBalance, m.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to refresh bonus balance for customer %s: %w", m.CustomerID, err)
	}

	return r.Commit(ctx, tx)
}

// FindMetricsByCustomer returns the customer's current snapshot.
func (r *PgxMetricsRepository) FindMetricsByCustomer(ctx context.Context, tenantID, customerID string) (*domain.CustomerMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM customer_metrics WHERE tenant_id = $1 AND customer_id = $2;`

	var m domain.CustomerMetrics
	err := r.Pool.QueryRow(ctx, query, tenantID, customerID).Scan(
		&m.TenantID, &m.CustomerID,
		&m.TotalOrders, &m.TotalRevenue, &m.TotalItems, &m.FirstOrderDate, &m.LastOrderDate,
		&m.AvgCheck, &m.AvgItemsPerOrder, &m.MaxCheck, &m.MinCheck, &m.StdCheck, &m.AvgMargin,
		&m.Recency, &m.Frequency, &m.Monetary, &m.RFMScore, &m.RFMSegment,
		&m.CustomerAgeDays, &m.CustomerAgeMonths, &m.AvgDaysBetween, &m.MedianDaysBetween,
		&m.StdDaysBetween, &m.ExpectedNextOrder, &m.DaysOverdue, &m.PurchaseRegularity,
		&m.ActiveMonths, &m.ActivityRate,
		&m.LifecycleStage, &m.SleepDays, &m.SleepFactor, &m.IsNew, &m.IsActive, &m.IsSleeping,
		&m.IsChurned, &m.Cohort,
		&m.CLVHistorical, &m.CLVPredicted, &m.CLVSegment, &m.ABCSegment, &m.XYZSegment,
		&m.ABCXYZSegment, &m.ProfitContribution, &m.CumulativePercentile,
		&m.RevenueTrend, &m.CheckTrend, &m.FrequencyTrend,
		&m.ProbAlive, &m.ChurnProbability, &m.ChurnRiskSegment,
		&m.PredictedOrders30d, &m.PredictedOrders90d, &m.PredictedRevenue30d,
		&m.FavoriteCategory, &m.FavoriteSKU, &m.CategoryDiversity, &m.SKUDiversity,
		&m.CrossSellPotential,
		&m.CalculatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("no metrics computed for customer %s", customerID))
		}
		return nil, fmt.Errorf("failed to find metrics for customer %s: %w", customerID, err)
	}
	return &m, nil
}
