package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// LedgerDir is the directory under the data dir holding one file per network
const LedgerDir = "ledger"

// NewFileLedger creates a ledger persisted as <dataDir>/ledger/<network>.json
func NewFileLedger(dataDir string) (*Ledger, error) {
	dir := filepath.Join(dataDir, LedgerDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return newLedger(&fileBackend{dir: dir}), nil
}

// NewFileLedgerFromConfig creates a file ledger under the configured data dir
func NewFileLedgerFromConfig(cfg *config.RuntimeConfig) (*Ledger, error) {
	dataDir := cfg.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(cfg.ProjectRoot, dataDir)
	}
	return NewFileLedger(dataDir)
}

type fileBackend struct {
	dir string
}

func (b *fileBackend) path(network string) string {
	return filepath.Join(b.dir, network+".json")
}

func (b *fileBackend) load(network string) (*Partition, error) {
	data, err := os.ReadFile(b.path(network))
	if errors.Is(err, os.ErrNotExist) {
		return newPartition(network), nil
	}
	if err != nil {
		return nil, err
	}

	p := newPartition(network)
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("corrupt ledger file %s: %w", b.path(network), err)
	}
	if p.Current == nil {
		p.Current = make(map[string]*models.DeploymentRecord)
	}
	return p, nil
}

// save replaces the partition file atomically: the data is synced to a temp
// file in the same directory, renamed over the old file and the directory
// entry is synced, so a crash leaves either the old or the new partition
func (b *fileBackend) save(p *Partition) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, p.Network+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, b.path(p.Network)); err != nil {
		return err
	}
	return syncDir(b.dir)
}

func (b *fileBackend) networks() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	return names, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
