package config

import (
	"context"

	"github.com/trebuchet-org/catapult/internal/config"
	domainconfig "github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NetworkResolverAdapter wraps config.NetworkResolver to implement usecase.NetworkResolver
type NetworkResolverAdapter struct {
	resolver *config.NetworkResolver
}

// NewNetworkResolverAdapter creates a new adapter over the project's catapult.toml
func NewNetworkResolverAdapter(cfg *domainconfig.RuntimeConfig) *NetworkResolverAdapter {
	return &NetworkResolverAdapter{resolver: config.NewNetworkResolver(cfg.File)}
}

// GetNetworks returns all configured network names
func (n *NetworkResolverAdapter) GetNetworks(ctx context.Context) []string {
	return n.resolver.Networks()
}

// ResolveNetwork resolves a network name to its configuration
func (n *NetworkResolverAdapter) ResolveNetwork(ctx context.Context, name string) (*domainconfig.Network, error) {
	return n.resolver.Resolve(name)
}

var _ usecase.NetworkResolver = (*NetworkResolverAdapter)(nil)
