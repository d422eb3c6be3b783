package pgsql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
)

type PgxRunLogRepository struct {
	pool *pgxpool.Pool
}

func newPgxRunLogRepository(pool *pgxpool.Pool) portsrepo.RunLogRepositoryFacade {
	return &PgxRunLogRepository{pool: pool}
}

var _ portsrepo.RunLogRepositoryFacade = (*PgxRunLogRepository)(nil)

// SaveRunLog persists one run report. Skipped customers are stored as a JSONB
// document; the list is small (failures only) and never queried relationally.
func (r *PgxRunLogRepository) SaveRunLog(ctx context.Context, report domain.RunReport) error {
	skippedJSON, err := json.Marshal(report.CustomersSkipped)
	if err != nil {
		return fmt.Errorf("failed to marshal skipped customers: %w", err)
	}

	query := `
		INSERT INTO metric_run_logs (
			run_id, tenant_id, status, as_of, started_at, finished_at,
			customers_processed, customers_skipped,
			latency_p50_micros, latency_p95_micros, latency_p99_micros,
			error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err = r.pool.Exec(ctx, query,
		report.RunID,
		report.TenantID,
		report.Status,
		report.AsOf,
		report.StartedAt,
		report.FinishedAt,
		report.CustomersProcessed,
		skippedJSON,
		report.Latency.P50.Microseconds(),
		report.Latency.P95.Microseconds(),
		report.Latency.P99.Microseconds(),
		report.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save run log %s: %w", report.RunID, err)
	}
	return nil
}

// ListRunLogs returns the tenant's most recent run reports, newest first.
func (r *PgxRunLogRepository) ListRunLogs(ctx context.Context, tenantID string, limit int) ([]domain.RunReport, error) {
	query := `
		SELECT run_id, tenant_id, status, as_of, started_at, finished_at,
			customers_processed, customers_skipped,
			latency_p50_micros, latency_p95_micros, latency_p99_micros,
			error_message
		FROM metric_run_logs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2;
	`
	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list run logs for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var reports []domain.RunReport
	for rows.Next() {
		var (
			report      domain.RunReport
			skippedJSON []byte
			p50, p95    int64
			p99         int64
		)
		err := rows.Scan(
			&report.RunID,
			&report.TenantID,
			&report.Status,
			&report.AsOf,
			&report.StartedAt,
			&report.FinishedAt,
			&report.CustomersProcessed,
			&skippedJSON,
			&p50,
			&p95,
			&p99,
			&report.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run log: %w", err)
		}
		if len(skippedJSON) > 0 {
			if err := json.Unmarshal(skippedJSON, &report.CustomersSkipped); err != nil {
				return nil, fmt.Errorf("failed to unmarshal skipped customers for run %s: %w", report.RunID, err)
			}
		}
		report.Latency = domain.LatencySummary{
			P50: time.Duration(p50) * time.Microsecond,
			P95: time.Duration(p95) * time.Microsecond,
			P99: time.Duration(p99) * time.Microsecond,
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run logs: %w", err)
	}
	return reports, nil
}
