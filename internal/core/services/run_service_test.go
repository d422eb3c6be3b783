package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lcsretail/customer_metrics_app/internal/apperrors"
	"github.com/lcsretail/customer_metrics_app/internal/core/domain"
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Repository mocks ---

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) FindTenantByID(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListCustomerIDs(ctx context.Context, tenantID string, asOf time.Time) ([]string, error) {
	args := m.Called(ctx, tenantID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.Transaction, error) {
	args := m.Called(ctx, tenantID, customerID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListProductPurchases(ctx context.Context, tenantID, customerID string, asOf time.Time) ([]domain.ProductPurchase, error) {
	args := m.Called(ctx, tenantID, customerID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductPurchase), args.Error(1)
}

type MockBonusRepository struct {
	mock.Mock
}

func (m *MockBonusRepository) SumMovements(ctx context.Context, tenantID, customerID string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockMetricsRepository struct {
	mock.Mock
}

func (m *MockMetricsRepository) UpsertMetrics(ctx context.Context, metrics domain.CustomerMetrics, bonusBalance decimal.Decimal) error {
	args := m.Called(ctx, metrics, bonusBalance)
	return args.Error(0)
}

func (m *MockMetricsRepository) FindMetricsByCustomer(ctx context.Context, tenantID, customerID string) (*domain.CustomerMetrics, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerMetrics), args.Error(1)
}

type MockRunLogRepository struct {
	mock.Mock
}

func (m *MockRunLogRepository) SaveRunLog(ctx context.Context, report domain.RunReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockRunLogRepository) ListRunLogs(ctx context.Context, tenantID string, limit int) ([]domain.RunReport, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RunReport), args.Error(1)
}

type MockLeaseProvider struct {
	mock.Mock
}

func (m *MockLeaseProvider) Acquire(ctx context.Context, tenantID string, ttl time.Duration) (portsrepo.RunLease, error) {
	args := m.Called(ctx, tenantID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(portsrepo.RunLease), args.Error(1)
}

type fakeLease struct {
	released bool
}

func (l *fakeLease) Token() string { return "lease-token" }

func (l *fakeLease) Release(ctx context.Context) error {
	l.released = true
	return nil
}

// --- Test Suite Setup ---

type RunServiceTestSuite struct {
	suite.Suite
	tenants *MockTenantRepository
	txns    *MockTransactionRepository
	bonuses *MockBonusRepository
	metrics *MockMetricsRepository
	runLogs *MockRunLogRepository
	leases  *MockLeaseProvider
	lease   *fakeLease
	service portssvc.MetricsRunSvcFacade
}

func (suite *RunServiceTestSuite) SetupTest() {
	suite.tenants = new(MockTenantRepository)
	suite.txns = new(MockTransactionRepository)
	suite.bonuses = new(MockBonusRepository)
	suite.metrics = new(MockMetricsRepository)
	suite.runLogs = new(MockRunLogRepository)
	suite.leases = new(MockLeaseProvider)
	suite.lease = &fakeLease{}

	repos := portsrepo.RepositoryProvider{
		TenantRepo:      suite.tenants,
		TransactionRepo: suite.txns,
		BonusRepo:       suite.bonuses,
		MetricsRepo:     suite.metrics,
		RunLogRepo:      suite.runLogs,
		RunLeases:       suite.leases,
	}
	suite.service = services.NewMetricsRunService(repos, 15*time.Minute)
}

func (suite *RunServiceTestSuite) activeTenant() *domain.Tenant {
	return &domain.Tenant{TenantID: "t1", Code: "T1", Name: "Tenant One", IsActive: true}
}

func (suite *RunServiceTestSuite) historyFor(customerID string, amounts ...float64) []domain.Transaction {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	txns := make([]domain.Transaction, len(amounts))
	for i, amount := range amounts {
		txns[i] = domain.Transaction{
			TransactionID:   fmt.Sprintf("%s-%d", customerID, i),
			TenantID:        "t1",
			CustomerID:      customerID,
			TransactionDate: base.AddDate(0, 0, i*14),
			Amount:          decimal.NewFromFloat(amount),
			ItemCount:       decimal.NewFromInt(1),
		}
	}
	return txns
}

// --- Test Cases ---

func (suite *RunServiceTestSuite) TestTriggerRun_Success() {
	ctx := context.Background()
	cfg := testRunConfig(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	cfg.Concurrency = 2

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.leases.On("Acquire", ctx, "t1", 15*time.Minute).Return(suite.lease, nil).Once()
	suite.txns.On("ListCustomerIDs", ctx, "t1", cfg.AsOf).Return([]string{"c1", "c2"}, nil).Once()

	suite.txns.On("ListTransactions", ctx, "t1", "c1", cfg.AsOf).Return(suite.historyFor("c1", 100, 150, 120), nil).Once()
	suite.txns.On("ListTransactions", ctx, "t1", "c2", cfg.AsOf).Return(suite.historyFor("c2", 40), nil).Once()
	suite.txns.On("ListProductPurchases", ctx, "t1", mock.AnythingOfType("string"), cfg.AsOf).Return([]domain.ProductPurchase{}, nil).Twice()

	suite.bonuses.On("SumMovements", ctx, "t1", mock.AnythingOfType("string")).Return(decimal.NewFromInt(10), nil).Twice()
	suite.metrics.On("UpsertMetrics", ctx, mock.AnythingOfType("domain.CustomerMetrics"), decimal.NewFromInt(10)).Return(nil).Twice()
	suite.runLogs.On("SaveRunLog", mock.Anything, mock.AnythingOfType("domain.RunReport")).Return(nil).Once()

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().NoError(err)
	suite.Require().NotNil(report)
	suite.Equal(domain.RunStatusSuccess, report.Status)
	suite.Equal(2, report.CustomersProcessed)
	suite.Empty(report.CustomersSkipped)
	suite.NotEmpty(report.RunID)
	suite.True(suite.lease.released)

	suite.tenants.AssertExpectations(suite.T())
	suite.metrics.AssertExpectations(suite.T())
	suite.runLogs.AssertExpectations(suite.T())
}

func (suite *RunServiceTestSuite) TestTriggerRun_TenantNotFound() {
	ctx := context.Background()
	cfg := testRunConfig(time.Now())

	suite.tenants.On("FindTenantByID", ctx, "missing").Return(nil, apperrors.ErrTenantNotFound).Once()

	report, err := suite.service.TriggerRun(ctx, "missing", cfg)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrTenantNotFound))
	suite.Nil(report)
	suite.leases.AssertNotCalled(suite.T(), "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RunServiceTestSuite) TestTriggerRun_RejectedWhileRunInProgress() {
	ctx := context.Background()
	cfg := testRunConfig(time.Now())

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.leases.On("Acquire", ctx, "t1", 15*time.Minute).Return(nil, apperrors.ErrRunInProgress).Once()

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrRunInProgress))
	suite.Nil(report)
	// Rejected runs never touch the customer data.
	suite.txns.AssertNotCalled(suite.T(), "ListCustomerIDs", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RunServiceTestSuite) TestTriggerRun_PartialOnCustomerFailure() {
	ctx := context.Background()
	cfg := testRunConfig(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.leases.On("Acquire", ctx, "t1", 15*time.Minute).Return(suite.lease, nil).Once()
	suite.txns.On("ListCustomerIDs", ctx, "t1", cfg.AsOf).Return([]string{"bad", "good"}, nil).Once()

	suite.txns.On("ListTransactions", ctx, "t1", "bad", cfg.AsOf).Return(nil, errors.New("storage unavailable")).Once()
	suite.txns.On("ListTransactions", ctx, "t1", "good", cfg.AsOf).Return(suite.historyFor("good", 75, 60), nil).Once()
	suite.txns.On("ListProductPurchases", ctx, "t1", "good", cfg.AsOf).Return([]domain.ProductPurchase{}, nil).Once()

	suite.bonuses.On("SumMovements", ctx, "t1", "good").Return(decimal.Zero, nil).Once()
	suite.metrics.On("UpsertMetrics", ctx, mock.AnythingOfType("domain.CustomerMetrics"), decimal.Zero).Return(nil).Once()
	suite.runLogs.On("SaveRunLog", mock.Anything, mock.AnythingOfType("domain.RunReport")).Return(nil).Once()

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().NoError(err)
	suite.Equal(domain.RunStatusPartial, report.Status)
	suite.Equal(1, report.CustomersProcessed)
	suite.Require().Len(report.CustomersSkipped, 1)
	suite.Equal("bad", report.CustomersSkipped[0].CustomerID)
	suite.Contains(report.CustomersSkipped[0].Reason, "storage unavailable")
}

func (suite *RunServiceTestSuite) TestTriggerRun_WriteConflictRetriesOnce() {
	ctx := context.Background()
	cfg := testRunConfig(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.leases.On("Acquire", ctx, "t1", 15*time.Minute).Return(suite.lease, nil).Once()
	suite.txns.On("ListCustomerIDs", ctx, "t1", cfg.AsOf).Return([]string{"c1"}, nil).Once()
	suite.txns.On("ListTransactions", ctx, "t1", "c1", cfg.AsOf).Return(suite.historyFor("c1", 100, 90), nil).Once()
	suite.txns.On("ListProductPurchases", ctx, "t1", "c1", cfg.AsOf).Return([]domain.ProductPurchase{}, nil).Once()
	suite.bonuses.On("SumMovements", ctx, "t1", "c1").Return(decimal.Zero, nil).Once()

	// First write loses the race, the retry lands.
	suite.metrics.On("UpsertMetrics", ctx, mock.AnythingOfType("domain.CustomerMetrics"), decimal.Zero).Return(apperrors.ErrWriteConflict).Once()
	suite.metrics.On("UpsertMetrics", ctx, mock.AnythingOfType("domain.CustomerMetrics"), decimal.Zero).Return(nil).Once()
	suite.runLogs.On("SaveRunLog", mock.Anything, mock.AnythingOfType("domain.RunReport")).Return(nil).Once()

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().NoError(err)
	suite.Equal(domain.RunStatusSuccess, report.Status)
	suite.Equal(1, report.CustomersProcessed)
	suite.metrics.AssertNumberOfCalls(suite.T(), "UpsertMetrics", 2)
}

func (suite *RunServiceTestSuite) TestTriggerRun_WriteConflictSkipsAfterRetry() {
	ctx := context.Background()
	cfg := testRunConfig(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.leases.On("Acquire", ctx, "t1", 15*time.Minute).Return(suite.lease, nil).Once()
	suite.txns.On("ListCustomerIDs", ctx, "t1", cfg.AsOf).Return([]string{"c1"}, nil).Once()
	suite.txns.On("ListTransactions", ctx, "t1", "c1", cfg.AsOf).Return(suite.historyFor("c1", 100, 90), nil).Once()
	suite.txns.On("ListProductPurchases", ctx, "t1", "c1", cfg.AsOf).Return([]domain.ProductPurchase{}, nil).Once()
	suite.bonuses.On("SumMovements", ctx, "t1", "c1").Return(decimal.Zero, nil).Once()

	suite.metrics.On("UpsertMetrics", ctx, mock.AnythingOfType("domain.CustomerMetrics"), decimal.Zero).Return(apperrors.ErrWriteConflict).Twice()
	suite.runLogs.On("SaveRunLog", mock.Anything, mock.AnythingOfType("domain.RunReport")).Return(nil).Once()

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().NoError(err)
	suite.Equal(domain.RunStatusPartial, report.Status)
	suite.Equal(0, report.CustomersProcessed)
	suite.Require().Len(report.CustomersSkipped, 1)
	suite.Equal("c1", report.CustomersSkipped[0].CustomerID)
}

func (suite *RunServiceTestSuite) TestTriggerRun_InvalidConfig() {
	ctx := context.Background()
	cfg := testRunConfig(time.Now())
	cfg.SleepDaysThreshold = 200 // above churn threshold

	report, err := suite.service.TriggerRun(ctx, "t1", cfg)

	suite.Require().Error(err)
	suite.True(errors.Is(err, apperrors.ErrValidation))
	suite.Nil(report)
	suite.tenants.AssertNotCalled(suite.T(), "FindTenantByID", mock.Anything, mock.Anything)
}

func (suite *RunServiceTestSuite) TestListRuns_ChecksTenant() {
	ctx := context.Background()

	suite.tenants.On("FindTenantByID", ctx, "missing").Return(nil, apperrors.ErrTenantNotFound).Once()

	_, err := suite.service.ListRuns(ctx, "missing", 10)
	suite.True(errors.Is(err, apperrors.ErrTenantNotFound))
	suite.runLogs.AssertNotCalled(suite.T(), "ListRunLogs", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RunServiceTestSuite) TestGetCustomerMetrics() {
	ctx := context.Background()
	snapshot := &domain.CustomerMetrics{TenantID: "t1", CustomerID: "c1", TotalOrders: 3}

	suite.tenants.On("FindTenantByID", ctx, "t1").Return(suite.activeTenant(), nil).Once()
	suite.metrics.On("FindMetricsByCustomer", ctx, "t1", "c1").Return(snapshot, nil).Once()

	got, err := suite.service.GetCustomerMetrics(ctx, "t1", "c1")
	suite.Require().NoError(err)
	suite.Equal(snapshot, got)
}

func TestRunServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RunServiceTestSuite))
}
