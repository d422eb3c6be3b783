package services

import (
	portsrepo "github.com/lcsretail/customer_metrics_app/internal/core/ports/repositories"
	portssvc "github.com/lcsretail/customer_metrics_app/internal/core/ports/services"
	"github.com/lcsretail/customer_metrics_app/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.MetricsRun = NewMetricsRunService(repos, cfg.RunLeaseTTL)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.MetricsRunSvcFacade = (*metricsRunService)(nil)
)
