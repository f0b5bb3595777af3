package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// NetworkResolver resolves network identifiers against catapult.toml
type NetworkResolver struct {
	file *config.FileConfig
}

// NewNetworkResolver creates a new network resolver
func NewNetworkResolver(file *config.FileConfig) *NetworkResolver {
	return &NetworkResolver{file: file}
}

// Networks returns the configured network names, sorted
func (r *NetworkResolver) Networks() []string {
	return slices.Sorted(maps.Keys(r.file.Networks))
}

// Resolve resolves a network name to its configuration. Lookup is exact
// first, then case-insensitive.
func (r *NetworkResolver) Resolve(name string) (*config.Network, error) {
	if name == "" {
		return nil, fmt.Errorf("network not specified (use --network or set CATAPULT_NETWORK)")
	}

	key := name
	nc, ok := r.file.Networks[key]
	if !ok {
		for candidate := range r.file.Networks {
			if strings.EqualFold(candidate, name) {
				key, nc, ok = candidate, r.file.Networks[candidate], true
				break
			}
		}
	}
	if !ok {
		msg := fmt.Sprintf("%s (no [networks.%s] in %s)", name, name, FileName)
		if matches := fuzzy.Find(name, r.Networks()); len(matches) > 0 {
			msg += fmt.Sprintf(", did you mean %s?", matches[0].Str)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrNetworkNotConfigured, msg)
	}

	network := &config.Network{
		Name:           key,
		ChainID:        nc.ChainID,
		RPCURL:         nc.RPCURL,
		ExplorerURL:    nc.ExplorerURL,
		PrivateKey:     nc.PrivateKey,
		ProxyFactory:   nc.ProxyFactory,
		ProxyAdmin:     nc.ProxyAdmin,
		ConfirmTimeout: nc.ConfirmTimeout.Duration,
		PollInterval:   nc.PollInterval.Duration,
		Constants:      r.constants(key),
		UnsetEnv:       nc.UnsetEnv,
	}
	if network.ExplorerURL == "" {
		network.ExplorerURL = explorerURL(network.ChainID)
	}
	return network, nil
}

// constants merges the default constants table with the network's own
func (r *NetworkResolver) constants(network string) map[string]any {
	merged := make(map[string]any)
	maps.Copy(merged, r.file.Constants[config.DefaultConstantsKey])
	maps.Copy(merged, r.file.Constants[network])
	return merged
}

// explorerURL returns the default block explorer for well-known chains
func explorerURL(chainID uint64) string {
	switch chainID {
	case 1:
		return "https://etherscan.io"
	case 11155111:
		return "https://sepolia.etherscan.io"
	case 17000:
		return "https://holesky.etherscan.io"
	case 10:
		return "https://optimistic.etherscan.io"
	case 137:
		return "https://polygonscan.com"
	case 8453:
		return "https://basescan.org"
	case 84532:
		return "https://sepolia.basescan.org"
	case 42161:
		return "https://arbiscan.io"
	case 43114:
		return "https://snowtrace.io"
	case 56:
		return "https://bscscan.com"
	case 42220:
		return "https://celoscan.io"
	case 44787:
		return "https://alfajores.celoscan.io"
	default:
		return ""
	}
}
