package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

const defaultOutDir = "out"

// foundryArtifact is the subset of a Foundry compilation artifact we read
type foundryArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode struct {
		Object         string         `json:"object"`
		LinkReferences map[string]any `json:"linkReferences"`
	} `json:"bytecode"`
	Metadata struct {
		Compiler struct {
			Version string `json:"version"`
		} `json:"compiler"`
	} `json:"metadata"`
}

// Repository loads pre-compiled Foundry artifacts from the output directory.
// Artifacts are parsed once and cached for the lifetime of the process.
type Repository struct {
	outDir string
	log    *slog.Logger
	mu     sync.Mutex
	cache  map[string]*models.Artifact
}

// NewRepository creates an artifact repository reading from outDir
func NewRepository(outDir string, log *slog.Logger) *Repository {
	return &Repository{
		outDir: outDir,
		log:    log,
		cache:  make(map[string]*models.Artifact),
	}
}

// NewRepositoryFromConfig creates an artifact repository for the project
func NewRepositoryFromConfig(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	outDir := cfg.Deploy.ArtifactDir
	if outDir == "" {
		outDir = defaultOutDir
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(cfg.ProjectRoot, outDir)
	}
	return NewRepository(outDir, log)
}

// GetArtifact returns the artifact for a contract. The name is either a
// contract name ("Token") or a source qualified one ("src/Token.sol:Token").
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if artifact, ok := r.cache[name]; ok {
		return artifact, nil
	}

	path, err := r.locate(name)
	if err != nil {
		return nil, err
	}
	r.log.Debug("loading artifact", "name", name, "path", path)

	artifact, err := parseArtifact(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", name, err)
	}
	r.cache[name] = artifact
	return artifact, nil
}

// locate finds the artifact file following Foundry's out/<File>.sol/<Contract>.json layout
func (r *Repository) locate(name string) (string, error) {
	if source, contract, ok := strings.Cut(name, ":"); ok {
		path := filepath.Join(r.outDir, filepath.Base(source), contract+".json")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s (looked for %s)", domain.ErrArtifactNotFound, name, path)
		}
		return path, nil
	}

	direct := filepath.Join(r.outDir, name+".sol", name+".json")
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	// Contract declared in a file with a different name
	var matches, known []string
	err := filepath.WalkDir(r.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}
		contract := strings.TrimSuffix(d.Name(), ".json")
		known = append(known, contract)
		if contract == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to scan %s: %w", r.outDir, err)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		msg := fmt.Sprintf("%s in %s", name, r.outDir)
		if found := fuzzy.Find(name, known); len(found) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", found[0].Str)
		}
		return "", fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, msg)
	default:
		return "", fmt.Errorf("ambiguous artifact %s, qualify it as <File>.sol:%s (candidates: %s)",
			name, name, strings.Join(matches, ", "))
	}
}

func parseArtifact(path string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw foundryArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid artifact json: %w", err)
	}

	parsed, err := abi.JSON(bytes.NewReader(raw.ABI))
	if err != nil {
		return nil, fmt.Errorf("invalid abi: %w", err)
	}

	if raw.Bytecode.Object == "" || raw.Bytecode.Object == "0x" {
		return nil, fmt.Errorf("no creation bytecode (abstract contract or interface?)")
	}
	if len(raw.Bytecode.LinkReferences) > 0 {
		return nil, fmt.Errorf("bytecode requires library linking, which is not supported")
	}
	object := raw.Bytecode.Object
	if !strings.HasPrefix(object, "0x") {
		object = "0x" + object
	}
	bytecode, err := hexutil.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("invalid bytecode: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return &models.Artifact{
		Name:            name,
		Path:            path,
		ABI:             &parsed,
		Bytecode:        bytecode,
		CompilerVersion: raw.Metadata.Compiler.Version,
	}, nil
}

var _ usecase.ArtifactProvider = (*Repository)(nil)
