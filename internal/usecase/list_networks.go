package usecase

import (
	"context"

	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Currently no parameters, but we keep the struct for future extensibility
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network profile
type NetworkStatus struct {
	Name    string
	Profile *config.NetworkProfile
	Error   error
}

// ListNetworks is a use case for listing available network profiles
type ListNetworks struct {
	resolver ProfileResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver ProfileResolver) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	names := uc.resolver.Profiles(ctx)

	networks := make([]NetworkStatus, 0, len(names))
	for _, name := range names {
		status := NetworkStatus{
			Name: name,
		}

		// Resolution surfaces missing credentials without any network traffic
		profile, err := uc.resolver.Resolve(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.Profile = profile
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
