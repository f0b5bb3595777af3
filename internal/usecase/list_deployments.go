package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ListDeploymentsParams contains parameters for listing deployments
type ListDeploymentsParams struct {
	// NetworkName limits the listing to one network; empty lists every network in the ledger
	NetworkName string
	Component   string
	Status      models.DeploymentStatus
}

// DeploymentListResult contains the current records and a summary
type DeploymentListResult struct {
	Deployments []*models.DeploymentRecord
	Summary     DeploymentSummary
}

// DeploymentSummary contains summary statistics
type DeploymentSummary struct {
	Total     int
	ByNetwork map[string]int
	ByStatus  map[models.DeploymentStatus]int
	ByKind    map[models.ProxyKind]int
}

// ListDeployments is the use case for listing current ledger records
type ListDeployments struct {
	config *config.RuntimeConfig
	ledger DeploymentLedger
	sink   ProgressSink
}

// NewListDeployments creates a new ListDeployments use case
func NewListDeployments(cfg *config.RuntimeConfig, ledger DeploymentLedger, sink ProgressSink) *ListDeployments {
	if sink == nil {
		sink = NopProgress{}
	}
	return &ListDeployments{
		config: cfg,
		ledger: ledger,
		sink:   sink,
	}
}

// Run executes the list deployments use case
func (uc *ListDeployments) Run(ctx context.Context, params ListDeploymentsParams) (*DeploymentListResult, error) {
	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployments from ledger",
		Spinner: true,
	})

	networkName := params.NetworkName
	if networkName == "" {
		networkName = uc.config.NetworkName
	}

	networks := []string{networkName}
	if networkName == "" {
		var err error
		if networks, err = uc.ledger.Networks(ctx); err != nil {
			return nil, err
		}
	}

	var deployments []*models.DeploymentRecord
	for _, network := range networks {
		records, err := uc.ledger.List(ctx, network)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, records...)
	}

	deployments = lo.Filter(deployments, func(r *models.DeploymentRecord, _ int) bool {
		return (params.Component == "" || r.Component == params.Component) &&
			(params.Status == "" || r.Status == params.Status)
	})
	sortDeployments(deployments)

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Current: len(deployments),
		Total:   len(deployments),
		Message: "Deployments loaded",
	})

	return &DeploymentListResult{
		Deployments: deployments,
		Summary:     calculateSummary(deployments),
	}, nil
}

// sortDeployments sorts records by network, then component name
func sortDeployments(deployments []*models.DeploymentRecord) {
	sort.Slice(deployments, func(i, j int) bool {
		if deployments[i].Network != deployments[j].Network {
			return deployments[i].Network < deployments[j].Network
		}
		return deployments[i].Component < deployments[j].Component
	})
}

// calculateSummary calculates summary statistics for deployments
func calculateSummary(deployments []*models.DeploymentRecord) DeploymentSummary {
	summary := DeploymentSummary{
		Total:     len(deployments),
		ByNetwork: make(map[string]int),
		ByStatus:  make(map[models.DeploymentStatus]int),
		ByKind:    make(map[models.ProxyKind]int),
	}

	for _, dep := range deployments {
		summary.ByNetwork[dep.Network]++
		summary.ByStatus[dep.Status]++
		summary.ByKind[dep.ProxyKind]++
	}

	return summary
}
