package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Parser loads deployment manifests from YAML files
type Parser struct {
	log *slog.Logger
}

// NewParser creates a new manifest parser
func NewParser(log *slog.Logger) *Parser {
	return &Parser{log: log}
}

// Load reads and parses the manifest at path
func (p *Parser) Load(ctx context.Context, path string) (*models.Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(absPath), err)
	}
	if manifest.Name == "" {
		manifest.Name = strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	}

	p.log.Debug("loaded manifest", "path", absPath, "components", len(manifest.Components))
	return manifest, nil
}

// Parse parses manifest YAML. Unknown keys are rejected so that typos such
// as "overides" fail loudly instead of silently deploying defaults.
func (p *Parser) Parse(data []byte) (*models.Manifest, error) {
	var manifest models.Manifest

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, c := range manifest.Components {
		if c == nil {
			return nil, fmt.Errorf("component #%d is empty", i+1)
		}
		c.Name = strings.TrimSpace(c.Name)
		kind, err := models.ParseProxyKind(string(c.ProxyKind))
		if err != nil {
			return nil, fmt.Errorf("component '%s': %w", c.Name, err)
		}
		c.ProxyKind = kind
		for network, overrides := range c.Overrides {
			for idx := range overrides {
				if idx < 0 {
					return nil, fmt.Errorf("component '%s': override for network '%s' has negative position %d",
						c.Name, network, idx)
				}
			}
		}
	}

	return &manifest, nil
}

var _ usecase.ManifestLoader = (*Parser)(nil)
