package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/trebuchet-org/catapult/internal/usecase"
)

// ConfigRenderer renders config-related output
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{
		out: out,
	}
}

// getRelativePath returns the relative path from current directory
func getRelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}

	relPath, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}

	return relPath
}

// RenderConfig renders the resolved configuration
func (r *ConfigRenderer) RenderConfig(result *usecase.ShowConfigResult) error {
	cfg := result.Config

	fmt.Fprintln(r.out, "📋 Current config:")
	if result.Exists {
		fmt.Fprintf(r.out, "Config file: %s\n", getRelativePath(result.ConfigPath))
	} else {
		fmt.Fprintln(r.out, FormatWarning("no catapult.toml found, using defaults"))
	}
	fmt.Fprintf(r.out, "Project:     %s\n", cfg.ProjectRoot)
	fmt.Fprintf(r.out, "Ledger:      %s\n", getRelativePath(cfg.DataDir))
	if cfg.NetworkName != "" {
		fmt.Fprintf(r.out, "Network:     %s\n", cfg.NetworkName)
	} else {
		fmt.Fprintf(r.out, "Network:     %s\n", "(not set)")
	}

	d := cfg.Deploy
	fmt.Fprintln(r.out, "\nDeploy settings:")
	fmt.Fprintf(r.out, "  workers:      %s\n", intOrDefault(d.Workers))
	fmt.Fprintf(r.out, "  max_attempts: %s\n", intOrDefault(d.MaxAttempts))
	fmt.Fprintf(r.out, "  base_delay:   %s\n", durationOrDefault(d.BaseDelay.Duration))
	fmt.Fprintf(r.out, "  max_delay:    %s\n", durationOrDefault(d.MaxDelay.Duration))
	fmt.Fprintf(r.out, "  verify:       %t\n", d.Verify)
	if d.ArtifactDir != "" {
		fmt.Fprintf(r.out, "  artifact_dir: %s\n", d.ArtifactDir)
	}

	if cfg.File != nil && len(cfg.File.Networks) > 0 {
		fmt.Fprintf(r.out, "\nNetworks: %d configured (see `catapult networks`)\n", len(cfg.File.Networks))
	}
	return nil
}

func intOrDefault(n int) string {
	if n <= 0 {
		return "(default)"
	}
	return fmt.Sprint(n)
}

func durationOrDefault(d time.Duration) string {
	if d <= 0 {
		return "(default)"
	}
	return d.String()
}
