package app

import (
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Use cases
	ListNetworks     *usecase.ListNetworks
	ShowPlan         *usecase.ShowPlan
	DeployPlan       *usecase.DeployPlan
	VerifyDeployment *usecase.VerifyDeployment
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	listNetworks *usecase.ListNetworks,
	showPlan *usecase.ShowPlan,
	deployPlan *usecase.DeployPlan,
	verifyDeployment *usecase.VerifyDeployment,
) (*App, error) {
	return &App{
		Config:           cfg,
		ListNetworks:     listNetworks,
		ShowPlan:         showPlan,
		DeployPlan:       deployPlan,
		VerifyDeployment: verifyDeployment,
	}, nil
}
