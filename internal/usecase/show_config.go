package usecase

import (
	"context"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// ConfigFileName is the project configuration file looked up at the project root
const ConfigFileName = "catapult.toml"

// ShowConfigResult contains the result of showing configuration
type ShowConfigResult struct {
	Config     *config.RuntimeConfig
	ConfigPath string
	Exists     bool
}

// ShowConfig is a use case for showing the resolved configuration
type ShowConfig struct {
	cfg *config.RuntimeConfig
}

// NewShowConfig creates a new ShowConfig use case
func NewShowConfig(cfg *config.RuntimeConfig) *ShowConfig {
	return &ShowConfig{
		cfg: cfg,
	}
}

// Run executes the show config use case
func (uc *ShowConfig) Run(ctx context.Context) (*ShowConfigResult, error) {
	path := filepath.Join(uc.cfg.ProjectRoot, ConfigFileName)
	_, err := os.Stat(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &ShowConfigResult{
		Config:     uc.cfg,
		ConfigPath: path,
		Exists:     err == nil,
	}, nil
}
