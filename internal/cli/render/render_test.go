package render

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

func init() {
	color.NoColor = true
}

func testPlan() *models.DeploymentPlan {
	vault := &models.ComponentSpec{Name: "Vault", ProxyKind: models.ProxyKindTransparent}
	token := &models.ComponentSpec{Name: "Token", Artifact: "ERC20Token", ProxyKind: models.ProxyKindNone}
	return &models.DeploymentPlan{
		Manifest: "core.yaml",
		Steps: []*models.PlanStep{
			{Index: 0, Spec: vault},
			{Index: 1, Spec: token, Dependencies: []string{"Vault"}},
		},
	}
}

func TestPlanRenderer_RenderPlan(t *testing.T) {
	var buf bytes.Buffer
	NewPlanRenderer(&buf).RenderPlan(testPlan(), "sepolia")

	out := buf.String()
	assert.Contains(t, out, "🎯 Deploying core.yaml to sepolia")
	assert.Contains(t, out, "📋 Deployment plan: 2 components")
	assert.Contains(t, out, "1. Vault → Vault [transparent]")
	assert.Contains(t, out, "2. Token → ERC20Token (depends on: Vault)")
}

func TestPlanRenderer_RenderDryRun(t *testing.T) {
	result := &usecase.DeployResult{
		Plan:    testPlan(),
		Network: &config.Network{Name: "sepolia"},
		DryRun:  true,
		Outcomes: []*usecase.ComponentOutcome{
			{
				Name:   "Vault",
				Status: usecase.ComponentSkipped,
				Record: &models.DeploymentRecord{Address: "0x00000000000000000000000000000000000000aa"},
			},
			{
				Name:   "Token",
				Status: usecase.ComponentPlanned,
				Args: models.ResolvedArgs{
					{Value: "Token"},
					{Value: "<Vault>", Pending: true},
				},
			},
		},
	}

	var buf bytes.Buffer
	NewPlanRenderer(&buf).RenderDryRun(result)

	out := buf.String()
	assert.Contains(t, out, "skip (deployed at 0x00000000000000000000000000000000000000aa)")
	assert.Contains(t, out, "Token, <Vault>")
	assert.Contains(t, out, "Dry run: 1 to deploy, 1 already deployed, 0 unresolvable. Nothing was submitted.")
}

func TestPlanRenderer_RenderDeployResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		result := &usecase.DeployResult{
			Plan:    testPlan(),
			Network: &config.Network{Name: "sepolia"},
			Outcomes: []*usecase.ComponentOutcome{
				{Name: "Vault", Status: usecase.ComponentSkipped, Record: &models.DeploymentRecord{Address: "0xaa"}},
				{Name: "Token", Status: usecase.ComponentDeployed, Record: &models.DeploymentRecord{Address: "0xbb"}, Submissions: 2},
			},
			Duration: 1500 * time.Millisecond,
		}

		var buf bytes.Buffer
		NewPlanRenderer(&buf).RenderDeployResult(result)

		out := buf.String()
		assert.Contains(t, out, "🎉 Deployed core.yaml to sepolia")
		assert.Contains(t, out, "Already deployed")
		assert.Contains(t, out, "0xbb")
		assert.Contains(t, out, "• Deployed: 1")
		assert.Contains(t, out, "• Submissions: 2")
		assert.Contains(t, out, "• Duration: 1.5s")
		assert.NotContains(t, out, "Failed:")
	})

	t.Run("failure blocks dependents", func(t *testing.T) {
		result := &usecase.DeployResult{
			Plan:    testPlan(),
			Network: &config.Network{Name: "sepolia"},
			Outcomes: []*usecase.ComponentOutcome{
				{Name: "Vault", Status: usecase.ComponentFailed, Err: errors.New("execution reverted"), Submissions: 3},
				{Name: "Token", Status: usecase.ComponentBlocked, BlockedBy: "Vault"},
			},
		}

		var buf bytes.Buffer
		NewPlanRenderer(&buf).RenderDeployResult(result)

		out := buf.String()
		assert.Contains(t, out, "❌ Deployment of core.yaml to sepolia did not complete")
		assert.Contains(t, out, "execution reverted")
		assert.Contains(t, out, "waiting on Vault")
		assert.Contains(t, out, "• Failed: 1")
		assert.Contains(t, out, "• Blocked: 1")
	})
}

func TestDeploymentsRenderer(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewDeploymentsRenderer(&buf).RenderDeploymentList(&usecase.DeploymentListResult{}))
		assert.Equal(t, "No deployments found\n", buf.String())
	})

	t.Run("grouped by network", func(t *testing.T) {
		result := &usecase.DeploymentListResult{
			Deployments: []*models.DeploymentRecord{
				{Component: "Vault", Network: "anvil", ChainID: 31337, Address: "0xaa", Status: models.DeploymentStatusConfirmed, ProxyKind: models.ProxyKindUUPS},
				{Component: "Token", Network: "sepolia", Status: models.DeploymentStatusFailed, ProxyKind: models.ProxyKindNone},
			},
			Summary: usecase.DeploymentSummary{
				Total:    2,
				ByStatus: map[models.DeploymentStatus]int{models.DeploymentStatusFailed: 1, models.DeploymentStatusConfirmed: 1},
			},
		}

		var buf bytes.Buffer
		require.NoError(t, NewDeploymentsRenderer(&buf).RenderDeploymentList(result))

		out := buf.String()
		assert.Contains(t, out, " anvil ")
		assert.Contains(t, out, "chain 31337")
		assert.Contains(t, out, " sepolia ")
		assert.Contains(t, out, "Confirmed")
		assert.Contains(t, out, "Total: 2 deployments (1 failed)")
		assert.Less(t, bytes.Index(buf.Bytes(), []byte("anvil")), bytes.Index(buf.Bytes(), []byte("sepolia")))
	})
}

func TestDeploymentRenderer(t *testing.T) {
	verifiedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	current := &models.DeploymentRecord{
		ID:           "4f1b2c3d-aaaa-bbbb-cccc-000000000000",
		Component:    "Vault",
		Network:      "sepolia",
		Address:      "0xaa",
		LogicAddress: "0xbb",
		Status:       models.DeploymentStatusConfirmed,
		ProxyKind:    models.ProxyKindTransparent,
		Artifact:     "Vault",
		Initializer:  "initialize",
		ResolvedArgs: []string{"0x00000000000000000000000000000000000000cc"},
		Attempts:     1,
		Verification: models.VerificationInfo{Status: models.VerificationStatusVerified, URL: "https://sepolia.etherscan.io/address/0xaa", VerifiedAt: &verifiedAt},
	}
	failed := &models.DeploymentRecord{
		ID:        "0a0b0c0d-aaaa-bbbb-cccc-000000000000",
		Component: "Vault",
		Network:   "sepolia",
		Status:    models.DeploymentStatusFailed,
		Attempts:  3,
	}

	var buf bytes.Buffer
	err := NewDeploymentRenderer(&buf).RenderDeployment(&usecase.ShowDeploymentResult{
		Current: current,
		History: []*models.DeploymentRecord{failed, current},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Deployment: Vault on sepolia")
	assert.Contains(t, out, "Implementation: 0xbb")
	assert.Contains(t, out, "0. 0x00000000000000000000000000000000000000cc")
	assert.Contains(t, out, "Verified - https://sepolia.etherscan.io/address/0xaa")
	assert.Contains(t, out, "0a0b0c0d")
	assert.Contains(t, out, "4f1b2c3d")
	assert.NotContains(t, out, "4f1b2c3d-")
}

func TestNetworksRenderer(t *testing.T) {
	result := &usecase.ListNetworksResult{
		Networks: []usecase.NetworkStatus{
			{Name: "anvil", ChainID: 31337, Deployments: 3, HasFactory: true},
			{Name: "sepolia", ChainID: 11155111, Unset: []string{"SEPOLIA_RPC_URL"}},
			{Name: "broken", Error: errors.New("missing rpc_url")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewNetworksRenderer(&buf).RenderNetworksList(result))

	out := buf.String()
	assert.Contains(t, out, "✅ anvil - Chain ID: 31337 (3 deployments)")
	assert.Contains(t, out, "✅ sepolia - Chain ID: 11155111\n")
	assert.Contains(t, out, "no proxy_factory")
	assert.Contains(t, out, "unset: SEPOLIA_RPC_URL")
	assert.Contains(t, out, "❌ broken - Error: missing rpc_url")
}

func TestVerifyRenderer(t *testing.T) {
	network := &config.Network{Name: "sepolia"}
	record := &models.DeploymentRecord{
		Component:    "Vault",
		Verification: models.VerificationInfo{URL: "https://sepolia.etherscan.io/address/0xaa"},
	}

	tests := []struct {
		name   string
		result *usecase.VerifyResult
		want   []string
	}{
		{
			name:   "verified",
			result: &usecase.VerifyResult{Record: record, Network: network},
			want:   []string{"✅ Verified Vault on sepolia", "https://sepolia.etherscan.io/address/0xaa"},
		},
		{
			name:   "skipped",
			result: &usecase.VerifyResult{Record: record, Network: network, Skipped: true},
			want:   []string{"Vault is already verified on sepolia", "Use --force"},
		},
		{
			name:   "failed",
			result: &usecase.VerifyResult{Record: record, Network: network, Err: errors.New("bytecode mismatch")},
			want:   []string{"❌ Verification of Vault failed: bytecode mismatch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, NewVerifyRenderer(&buf).RenderVerifyResult(tt.result))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestConfigRenderer(t *testing.T) {
	root := t.TempDir()
	result := &usecase.ShowConfigResult{
		Config: &config.RuntimeConfig{
			ProjectRoot: root,
			DataDir:     root + "/.catapult",
			NetworkName: "sepolia",
			Deploy:      config.DeploySettings{Workers: 2, BaseDelay: config.Duration{Duration: time.Second}},
			File: &config.FileConfig{
				Networks: map[string]config.NetworkFileConfig{"sepolia": {}},
			},
		},
		ConfigPath: root + "/catapult.toml",
	}

	var buf bytes.Buffer
	require.NoError(t, NewConfigRenderer(&buf).RenderConfig(result))

	out := buf.String()
	assert.Contains(t, out, "no catapult.toml found")
	assert.Contains(t, out, "Network:     sepolia")
	assert.Contains(t, out, "workers:      2")
	assert.Contains(t, out, "max_attempts: (default)")
	assert.Contains(t, out, "base_delay:   1s")
	assert.Contains(t, out, "Networks: 1 configured")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "❌ Deploy failed", FormatError("deploy failed"))
	assert.Equal(t, "✅ done", FormatSuccess("done"))
	assert.Equal(t, "Not Run", title("NOT RUN"))
	assert.Equal(t, "-", orDash(""))
}
