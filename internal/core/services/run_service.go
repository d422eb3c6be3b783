package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/google/uuid"

	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/internal/middleware"
)

// Latencies are recorded in microseconds; one customer taking longer than a
// minute is off the histogram scale and clamps to the top bucket.
const latencyMaxMicros = 60 * 1000 * 1000

// metricsRunService orchestrates the three-phase computation pipeline:
// parallel per-customer aggregation and prediction, a sequential
// population-relative scoring pass, and parallel snapshot assembly and
// persistence. Tenant exclusivity is enforced with a distributed lease.
type metricsRunService struct {
	tenants  portsrepo.TenantRepositoryFacade
	txns     portsrepo.TransactionRepositoryFacade
	bonuses  portsrepo.BonusRepositoryFacade
	metrics  portsrepo.MetricsRepositoryFacade
	runLogs  portsrepo.RunLogRepositoryFacade
	leases   portsrepo.RunLeaseProvider
	leaseTTL time.Duration

	aggregation  *AggregationService
	segmentation *SegmentationService
	prediction   *PredictionService
}

// NewMetricsRunService wires the run orchestrator from the repository
// provider and the per-tenant lease TTL.
func NewMetricsRunService(repos portsrepo.RepositoryProvider, leaseTTL time.Duration) portssvc.MetricsRunSvcFacade {
	return &metricsRunService{
		tenants:      repos.TenantRepo,
		txns:         repos.TransactionRepo,
		bonuses:      repos.BonusRepo,
		metrics:      repos.MetricsRepo,
		runLogs:      repos.RunLogRepo,
		leases:       repos.RunLeases,
		leaseTTL:     leaseTTL,
		aggregation:  NewAggregationService(),
		segmentation: NewSegmentationService(),
		prediction:   NewPredictionService(),
	}
}

// customerResult carries one customer's stage outputs between pipeline phases.
type customerResult struct {
	customerID  string
	aggregates  domain.CustomerAggregates
	predictions domain.CustomerPredictions
	products    domain.ProductPreferences
}

func (s *metricsRunService) TriggerRun(ctx context.Context, tenantID string, cfg domain.RunConfig) (*domain.RunReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewAppError(400, err.Error(), apperrors.ErrValidation)
	}

	tenant, err := s.tenants.FindTenantByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	lease, err := s.leases.Acquire(ctx, tenant.TenantID, s.leaseTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lease.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			logger.Warn("failed to release run lease, it will expire on its own",
				slog.String("tenant_id", tenant.TenantID),
				slog.String("error", releaseErr.Error()))
		}
	}()

	report := domain.RunReport{
		RunID:            uuid.NewString(),
		TenantID:         tenant.TenantID,
		AsOf:             cfg.AsOf,
		StartedAt:        time.Now().UTC(),
		CustomersSkipped: []domain.SkippedCustomer{},
	}
	logger = logger.With(slog.String("run_id", report.RunID), slog.String("tenant_id", tenant.TenantID))
	logger.Info("metrics run started",
		slog.Time("as_of", cfg.AsOf),
		slog.Int("concurrency", cfg.Concurrency))

	customerIDs, err := s.txns.ListCustomerIDs(ctx, tenant.TenantID, cfg.AsOf)
	if err != nil {
		return s.finishRun(ctx, logger, &report, nil, fmt.Errorf("listing customers: %w", err))
	}

	hist := hdrhistogram.New(1, latencyMaxMicros, 3)

	// Phase 1: per-customer aggregation, prediction, and product preferences.
	results, skipped, err := s.computeCustomers(ctx, logger, tenant.TenantID, customerIDs, cfg, hist)
	if err != nil {
		return s.finishRun(ctx, logger, &report, hist, err)
	}
	report.CustomersSkipped = append(report.CustomersSkipped, skipped...)

	// Phase 2: population-relative scoring. Runs only after every surviving
	// customer's aggregates are in; quintiles over a partial population would
	// silently shift everyone's scores.
	aggs := make([]domain.CustomerAggregates, len(results))
	preds := make(map[string]domain.CustomerPredictions, len(results))
	for i, res := range results {
		aggs[i] = res.aggregates
		preds[res.customerID] = res.predictions
	}
	pop := s.segmentation.ScorePopulation(aggs, preds, cfg)

	// Phase 3: assemble and persist the snapshots.
	written, writeSkipped, err := s.writeSnapshots(ctx, logger, tenant.TenantID, results, pop, cfg, report.StartedAt)
	if err != nil {
		return s.finishRun(ctx, logger, &report, hist, err)
	}
	report.CustomersProcessed = written
	report.CustomersSkipped = append(report.CustomersSkipped, writeSkipped...)

	return s.finishRun(ctx, logger, &report, hist, nil)
}

// computeCustomers fans the per-customer work over a bounded worker pool.
// A failure for one customer skips that customer; a context cancellation
// aborts the whole run before anything is written.
func (s *metricsRunService) computeCustomers(ctx context.Context, logger *slog.Logger, tenantID string, customerIDs []string, cfg domain.RunConfig, hist *hdrhistogram.Histogram) ([]customerResult, []domain.SkippedCustomer, error) {
	jobs := make(chan string)
	var (
		mu      sync.Mutex
		results []customerResult
		skipped []domain.SkippedCustomer
		wg      sync.WaitGroup
	)

	workers := cfg.Concurrency
	if workers > len(customerIDs) && len(customerIDs) > 0 {
		workers = len(customerIDs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for customerID := range jobs {
				if ctx.Err() != nil {
					return
				}
				started := time.Now()
				res, err := s.computeOne(ctx, tenantID, customerID, cfg)
				s.recordLatency(&mu, hist, time.Since(started))
				mu.Lock()
				if err != nil {
					logger.Warn("customer computation failed, skipping",
						slog.String("customer_id", customerID),
						slog.String("error", err.Error()))
					skipped = append(skipped, domain.SkippedCustomer{CustomerID: customerID, Reason: err.Error()})
				} else {
					results = append(results, res)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, customerID := range customerIDs {
		select {
		case jobs <- customerID:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("run aborted during computation: %w", err)
	}

	// Worker completion order is nondeterministic; restore the id order so
	// the population pass sees a stable input.
	sort.Slice(results, func(i, j int) bool { return results[i].customerID < results[j].customerID })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].CustomerID < skipped[j].CustomerID })

	return results, skipped, nil
}

func (s *metricsRunService) computeOne(ctx context.Context, tenantID, customerID string, cfg domain.RunConfig) (customerResult, error) {
	txns, err := s.txns.ListTransactions(ctx, tenantID, customerID, cfg.AsOf)
	if err != nil {
		return customerResult{}, fmt.Errorf("loading transactions: %w", err)
	}

	agg, err := s.aggregation.ComputeAggregates(customerID, txns, cfg)
	if err != nil {
		return customerResult{}, fmt.Errorf("aggregation: %w", err)
	}

	pred, err := s.prediction.ComputePredictions(agg, cfg)
	if err != nil {
		return customerResult{}, fmt.Errorf("prediction: %w", err)
	}

	purchases, err := s.txns.ListProductPurchases(ctx, tenantID, customerID, cfg.AsOf)
	if err != nil {
		return customerResult{}, fmt.Errorf("loading product purchases: %w", err)
	}
	prefs := s.aggregation.ComputeProductPreferences(purchases)

	return customerResult{
		customerID:  customerID,
		aggregates:  agg,
		predictions: pred,
		products:    prefs,
	}, nil
}

// writeSnapshots assembles and persists each surviving customer's profile.
// A write conflict means a concurrent fresher run won the row; the write is
// retried once and then the customer is reported skipped, not failed.
func (s *metricsRunService) writeSnapshots(ctx context.Context, logger *slog.Logger, tenantID string, results []customerResult, pop PopulationScores, cfg domain.RunConfig, calculatedAt time.Time) (int, []domain.SkippedCustomer, error) {
	jobs := make(chan customerResult)
	var (
		mu      sync.Mutex
		written int
		skipped []domain.SkippedCustomer
		wg      sync.WaitGroup
	)

	workers := cfg.Concurrency
	if workers > len(results) && len(results) > 0 {
		workers = len(results)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				if ctx.Err() != nil {
					return
				}
				err := s.writeOne(ctx, tenantID, res, pop, cfg, calculatedAt)
				mu.Lock()
				if err != nil {
					logger.Warn("snapshot write failed, skipping",
						slog.String("customer_id", res.customerID),
						slog.String("error", err.Error()))
					skipped = append(skipped, domain.SkippedCustomer{CustomerID: res.customerID, Reason: err.Error()})
				} else {
					written++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, res := range results {
		select {
		case jobs <- res:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return written, skipped, fmt.Errorf("run aborted during persistence: %w", err)
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].CustomerID < skipped[j].CustomerID })

	return written, skipped, nil
}

func (s *metricsRunService) writeOne(ctx context.Context, tenantID string, res customerResult, pop PopulationScores, cfg domain.RunConfig, calculatedAt time.Time) error {
	seg, err := s.segmentation.AssignSegments(res.aggregates, res.predictions, pop, cfg)
	if err != nil {
		return fmt.Errorf("segmentation: %w", err)
	}

	metrics, err := domain.NewMetricsBuilder(tenantID, res.customerID, calculatedAt).
		WithAggregates(res.aggregates).
		WithSegments(seg).
		WithPredictions(res.predictions).
		WithProductPreferences(res.products).
		Build()
	if err != nil {
		return err
	}

	balance, err := s.bonuses.SumMovements(ctx, tenantID, res.customerID)
	if err != nil {
		return fmt.Errorf("summing bonus movements: %w", err)
	}

	err = s.metrics.UpsertMetrics(ctx, metrics, balance)
	if errors.Is(err, apperrors.ErrWriteConflict) {
		// One retry covers the transient case of a row mid-replacement.
		err = s.metrics.UpsertMetrics(ctx, metrics, balance)
	}
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *metricsRunService) recordLatency(mu *sync.Mutex, hist *hdrhistogram.Histogram, elapsed time.Duration) {
	micros := elapsed.Microseconds()
	if micros < 1 {
		micros = 1
	}
	if micros > latencyMaxMicros {
		micros = latencyMaxMicros
	}
	mu.Lock()
	_ = hist.RecordValue(micros)
	mu.Unlock()
}

// finishRun stamps the outcome, persists the run log, and returns the report.
// A run log write failure is logged but never fails the run itself.
func (s *metricsRunService) finishRun(ctx context.Context, logger *slog.Logger, report *domain.RunReport, hist *hdrhistogram.Histogram, runErr error) (*domain.RunReport, error) {
	report.FinishedAt = time.Now().UTC()
	if hist != nil && hist.TotalCount() > 0 {
		report.Latency = domain.LatencySummary{
			P50: time.Duration(hist.ValueAtQuantile(50)) * time.Microsecond,
			P95: time.Duration(hist.ValueAtQuantile(95)) * time.Microsecond,
			P99: time.Duration(hist.ValueAtQuantile(99)) * time.Microsecond,
		}
	}

	switch {
	case runErr != nil:
		report.Status = domain.RunStatusError
		report.ErrorMessage = runErr.Error()
	case len(report.CustomersSkipped) > 0:
		report.Status = domain.RunStatusPartial
	default:
		report.Status = domain.RunStatusSuccess
	}

	saveCtx := context.WithoutCancel(ctx)
	if err := s.runLogs.SaveRunLog(saveCtx, *report); err != nil {
		logger.Error("failed to persist run log",
			slog.String("run_id", report.RunID),
			slog.String("error", err.Error()))
	}

	logger.Info("metrics run finished",
		slog.String("status", string(report.Status)),
		slog.Int("processed", report.CustomersProcessed),
		slog.Int("skipped", len(report.CustomersSkipped)),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (s *metricsRunService) ListRuns(ctx context.Context, tenantID string, limit int) ([]domain.RunReport, error) {
	if _, err := s.tenants.FindTenantByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.runLogs.ListRunLogs(ctx, tenantID, limit)
}

func (s *metricsRunService) GetCustomerMetrics(ctx context.Context, tenantID, customerID string) (*domain.CustomerMetrics, error) {
	if _, err := s.tenants.FindTenantByID(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.metrics.FindMetricsByCustomer(ctx, tenantID, customerID)
}
