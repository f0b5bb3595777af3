package app

import (
	"log/slog"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Confirmer usecase.Confirmer
	Selector  usecase.ComponentSelector

	// Use cases
	OrchestrateDeployment *usecase.OrchestrateDeployment
	VerifyDeployment      *usecase.VerifyDeployment
	ListDeployments       *usecase.ListDeployments
	ShowDeployment        *usecase.ShowDeployment
	ListNetworks          *usecase.ListNetworks
	ShowConfig            *usecase.ShowConfig
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	confirmer usecase.Confirmer,
	selector usecase.ComponentSelector,
	orchestrateDeployment *usecase.OrchestrateDeployment,
	verifyDeployment *usecase.VerifyDeployment,
	listDeployments *usecase.ListDeployments,
	showDeployment *usecase.ShowDeployment,
	listNetworks *usecase.ListNetworks,
	showConfig *usecase.ShowConfig,
) (*App, error) {
	return &App{
		Config:                cfg,
		Log:                   log,
		Confirmer:             confirmer,
		Selector:              selector,
		OrchestrateDeployment: orchestrateDeployment,
		VerifyDeployment:      verifyDeployment,
		ListDeployments:       listDeployments,
		ShowDeployment:        showDeployment,
		ListNetworks:          listNetworks,
		ShowConfig:            showConfig,
	}, nil
}
