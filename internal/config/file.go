package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

// FileName is the project configuration file
const FileName = "catapult.toml"

// LoadFileConfig loads .env files and parses catapult.toml. A project without
// catapult.toml gets an empty configuration.
func LoadFileConfig(projectRoot string) (*config.FileConfig, error) {
	if err := loadDotEnv(projectRoot); err != nil {
		return nil, err
	}

	cfg := &config.FileConfig{}
	path := filepath.Join(projectRoot, FileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return normalize(cfg), nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", FileName, strings.Join(keys, ", "))
	}

	cfg = normalize(cfg)
	for name, network := range cfg.Networks {
		var unset []string
		network.RPCURL = expandEnv(network.RPCURL, &unset)
		network.PrivateKey = expandEnv(network.PrivateKey, &unset)
		network.ProxyFactory = expandEnv(network.ProxyFactory, &unset)
		network.ProxyAdmin = expandEnv(network.ProxyAdmin, &unset)
		network.ExplorerURL = expandEnv(network.ExplorerURL, &unset)
		network.UnsetEnv = unset
		cfg.Networks[name] = network
	}
	for _, constants := range cfg.Constants {
		for key, value := range constants {
			if s, ok := value.(string); ok {
				var unset []string
				constants[key] = expandEnv(s, &unset)
			}
		}
	}

	return cfg, nil
}

// loadDotEnv loads .env.local then .env. godotenv never overrides variables
// that are already set, so the process environment wins over .env.local,
// which wins over .env.
func loadDotEnv(projectRoot string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(projectRoot, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// expandEnv expands ${VAR} and $VAR references, recording unset variables
func expandEnv(raw string, unset *[]string) string {
	return os.Expand(raw, func(name string) string {
		value, ok := os.LookupEnv(name)
		if !ok && !slices.Contains(*unset, name) {
			*unset = append(*unset, name)
		}
		return value
	})
}

func normalize(cfg *config.FileConfig) *config.FileConfig {
	if cfg.Networks == nil {
		cfg.Networks = make(map[string]config.NetworkFileConfig)
	}
	if cfg.Constants == nil {
		cfg.Constants = make(map[string]map[string]any)
	}
	return cfg
}
