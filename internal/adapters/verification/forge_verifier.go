package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// Runner executes forge with the given arguments in dir
type Runner func(ctx context.Context, dir string, args []string) ([]byte, error)

// ForgeVerifier verifies deployed logic contracts with forge verify-contract
type ForgeVerifier struct {
	projectRoot string
	run         Runner
	log         *slog.Logger
}

// NewForgeVerifier creates a verifier running forge from the project root
func NewForgeVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *ForgeVerifier {
	return NewForgeVerifierWithRunner(cfg.ProjectRoot, execForge, log)
}

// NewForgeVerifierWithRunner creates a verifier with a custom forge runner
func NewForgeVerifierWithRunner(projectRoot string, run Runner, log *slog.Logger) *ForgeVerifier {
	return &ForgeVerifier{projectRoot: projectRoot, run: run, log: log.With("component", "verifier")}
}

// Verify submits the source of the record's logic contract. Proxies are
// recognized by explorers once their implementation is verified.
func (v *ForgeVerifier) Verify(ctx context.Context, record *models.DeploymentRecord, network *config.Network) error {
	args := v.buildVerifyArgs(record, network)
	v.log.Debug("running forge", "args", strings.Join(args, " "))

	output, err := v.run(ctx, v.projectRoot, args)
	outputStr := strings.TrimSpace(string(output))
	if isAlreadyVerified(outputStr) {
		record.Verification.URL = explorerCodeURL(network, record.Address)
		return nil
	}
	if err != nil {
		return fmt.Errorf("verification failed: %s", firstLine(outputStr, err))
	}
	if !strings.Contains(outputStr, "Contract successfully verified") {
		return fmt.Errorf("verification status unclear: %s", firstLine(outputStr, nil))
	}

	record.Verification.URL = explorerCodeURL(network, record.Address)
	return nil
}

// buildVerifyArgs builds the forge verify-contract arguments for a record
func (v *ForgeVerifier) buildVerifyArgs(record *models.DeploymentRecord, network *config.Network) []string {
	address := record.Address
	if record.ProxyKind.IsProxied() && record.LogicAddress != "" {
		address = record.LogicAddress
	}

	args := []string{
		"verify-contract",
		address,
		record.Artifact,
		"--chain-id", fmt.Sprintf("%d", record.ChainID),
		"--watch",
	}
	if network.RPCURL != "" {
		args = append(args, "--rpc-url", network.RPCURL)
	}
	if apiKey := os.Getenv("ETHERSCAN_API_KEY"); apiKey != "" {
		args = append(args, "--etherscan-api-key", apiKey)
	}
	if !record.ProxyKind.IsProxied() && record.Calldata != "" && record.Calldata != "0x" {
		args = append(args, "--constructor-args", strings.TrimPrefix(record.Calldata, "0x"))
	}
	return args
}

// DumpVerifyCommand returns the forge command Verify would run
func (v *ForgeVerifier) DumpVerifyCommand(record *models.DeploymentRecord, network *config.Network) string {
	return "forge " + strings.Join(v.buildVerifyArgs(record, network), " ")
}

func execForge(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "forge", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func isAlreadyVerified(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "already verified")
}

func explorerCodeURL(network *config.Network, address string) string {
	if network.ExplorerURL == "" || address == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(network.ExplorerURL, "/"), address)
}

func firstLine(output string, err error) string {
	if output == "" {
		if err != nil {
			return err.Error()
		}
		return "no output"
	}
	line, _, _ := strings.Cut(output, "\n")
	return line
}

var _ usecase.ContractVerifier = (*ForgeVerifier)(nil)
