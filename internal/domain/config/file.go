package config

import (
	"fmt"
	"time"
)

// FileConfig is the parsed catapult.toml
//
//	[deploy]
//	workers = 4
//	max_attempts = 5
//
//	[networks.sepolia]
//	rpc_url = "${SEPOLIA_RPC_URL}"
//	chain_id = 11155111
//	private_key = "${DEPLOYER_PRIVATE_KEY}"
//	proxy_factory = "0x0000000000006396FF2a80c067f99B3d2Ab4Df24"
//
//	[constants.default]
//	OWNER = "0x..."
//
//	[constants.sepolia]
//	SEED_TOKEN = "0x..."
type FileConfig struct {
	Deploy    DeploySettings               `toml:"deploy"`
	Networks  map[string]NetworkFileConfig `toml:"networks"`
	Constants map[string]map[string]any    `toml:"constants"`
}

// NetworkFileConfig is one [networks.<id>] table
type NetworkFileConfig struct {
	RPCURL         string   `toml:"rpc_url"`
	ChainID        uint64   `toml:"chain_id"`
	PrivateKey     string   `toml:"private_key"`
	ProxyFactory   string   `toml:"proxy_factory"`
	ProxyAdmin     string   `toml:"proxy_admin"`
	ExplorerURL    string   `toml:"explorer_url"`
	ConfirmTimeout Duration `toml:"confirm_timeout"`
	PollInterval   Duration `toml:"poll_interval"`

	UnsetEnv []string `toml:"-"`
}

// DefaultConstantsKey is the constants table shared by all networks
const DefaultConstantsKey = "default"

// Duration decodes TOML strings like "30s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
