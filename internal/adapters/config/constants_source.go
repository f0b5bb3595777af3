package config

import (
	"os"

	domainconfig "github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ConstantsSource resolves EnvConstant keys from [constants.<network>], then
// [constants.default], then the process environment
type ConstantsSource struct {
	constants map[string]map[string]any
	lookupEnv func(string) (string, bool)
}

// NewConstantsSource creates a config source over catapult.toml constants
func NewConstantsSource(cfg *domainconfig.RuntimeConfig) *ConstantsSource {
	var constants map[string]map[string]any
	if cfg.File != nil {
		constants = cfg.File.Constants
	}
	return &ConstantsSource{constants: constants, lookupEnv: os.LookupEnv}
}

// NewStaticConstantsSource creates a source without environment fallback
func NewStaticConstantsSource(constants map[string]map[string]any) *ConstantsSource {
	return &ConstantsSource{
		constants: constants,
		lookupEnv: func(string) (string, bool) { return "", false },
	}
}

// Lookup returns the value for key on network
func (s *ConstantsSource) Lookup(network, key string) (any, bool) {
	if v, ok := s.constants[network][key]; ok {
		return v, true
	}
	if v, ok := s.constants[domainconfig.DefaultConstantsKey][key]; ok {
		return v, true
	}
	if v, ok := s.lookupEnv(key); ok && v != "" {
		return v, true
	}
	return nil, false
}

var _ usecase.ConfigSource = (*ConstantsSource)(nil)
