package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ShowDeploymentParams contains parameters for showing a deployment
type ShowDeploymentParams struct {
	Component   string
	NetworkName string
}

// ShowDeploymentResult holds the current record and every attempt behind it
type ShowDeploymentResult struct {
	Current *models.DeploymentRecord
	History []*models.DeploymentRecord // oldest first
}

// ShowDeployment is the use case for showing deployment details
type ShowDeployment struct {
	config *config.RuntimeConfig
	ledger DeploymentLedger
	sink   ProgressSink
}

// NewShowDeployment creates a new ShowDeployment use case
func NewShowDeployment(cfg *config.RuntimeConfig, ledger DeploymentLedger, sink ProgressSink) *ShowDeployment {
	if sink == nil {
		sink = NopProgress{}
	}
	return &ShowDeployment{
		config: cfg,
		ledger: ledger,
		sink:   sink,
	}
}

// Run executes the show deployment use case
func (uc *ShowDeployment) Run(ctx context.Context, params ShowDeploymentParams) (*ShowDeploymentResult, error) {
	network := params.NetworkName
	if network == "" {
		network = uc.config.NetworkName
	}
	if params.Component == "" || network == "" {
		return nil, fmt.Errorf("both a component name and a network must be provided")
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "loading",
		Message: "Loading deployment details",
		Spinner: true,
	})

	current, err := uc.ledger.Get(ctx, params.Component, network)
	if err != nil {
		return nil, err
	}
	history, err := uc.ledger.History(ctx, params.Component, network)
	if err != nil {
		return nil, err
	}
	if current == nil && len(history) == 0 {
		return nil, fmt.Errorf("%w: no records for %s on %s", domain.ErrNotFound, params.Component, network)
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   "complete",
		Message: "Deployment loaded",
	})

	return &ShowDeploymentResult{Current: current, History: history}, nil
}
