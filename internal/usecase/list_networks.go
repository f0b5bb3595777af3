package usecase

import (
	"context"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// Currently no parameters, but we keep the struct for future extensibility
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name        string
	ChainID     uint64
	ExplorerURL string
	// HasFactory reports whether transparent proxies can be deployed
	HasFactory bool
	// Unset lists environment variables referenced by the config but not set
	Unset []string
	// Deployments counts current ledger records on the network
	Deployments int
	Error       error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
	ledger   DeploymentLedger
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver, ledger DeploymentLedger) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
		ledger:   ledger,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
		}

		info, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
			networks = append(networks, status)
			continue
		}
		status.ChainID = info.ChainID
		status.ExplorerURL = info.ExplorerURL
		status.HasFactory = info.ProxyFactory != ""
		status.Unset = info.UnsetEnv

		records, err := uc.ledger.List(ctx, info.Name)
		if err != nil {
			return nil, err
		}
		status.Deployments = len(records)

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}
