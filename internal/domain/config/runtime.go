package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	NetworkName string // default network when a command gets no --network

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	// Deploy tuning
	Deploy DeploySettings

	// Resolved configurations
	File *FileConfig // parsed catapult.toml, never nil after loading
}

// DeploySettings tunes the executor and scheduler
type DeploySettings struct {
	Workers     int      `toml:"workers"`
	MaxAttempts int      `toml:"max_attempts"`
	BaseDelay   Duration `toml:"base_delay"`
	MaxDelay    Duration `toml:"max_delay"`
	GasLimit    uint64   `toml:"gas_limit"`
	ArtifactDir string   `toml:"artifact_dir"`
	ProxyCode   string   `toml:"proxy_artifact"` // artifact providing ERC1967Proxy creation code for UUPS
	Verify      bool     `toml:"verify"`
}

// Network represents network configuration
type Network struct {
	Name           string         `json:"name"`
	ChainID        uint64         `json:"chainId"`
	RPCURL         string         `json:"rpcUrl"`
	ExplorerURL    string         `json:"explorerUrl,omitempty"`
	PrivateKey     string         `json:"-"`
	ProxyFactory   string         `json:"proxyFactory,omitempty"`
	ProxyAdmin     string         `json:"proxyAdmin,omitempty"`
	ConfirmTimeout time.Duration  `json:"confirmTimeout,omitempty"`
	PollInterval   time.Duration  `json:"pollInterval,omitempty"`
	Constants      map[string]any `json:"-"` // default constants merged with the network's own
	UnsetEnv       []string       `json:"-"` // variables referenced by the config but not set
}
