package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

func init() {
	color.NoColor = true
}

func TestDeployProgress_NonInteractive(t *testing.T) {
	var out bytes.Buffer
	p := NewDeployProgress(&out, false)
	ctx := context.Background()

	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageComponentStarting, Component: "Token", Current: 1, Total: 2, Message: "Deploying Token"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageComponentSubmitted, Component: "Token", Message: "Waiting for Token (0x1234...)"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageComponentRetrying, Component: "Token", Message: "Retrying Token after timeout (attempt 2)"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageComponentCompleted, Component: "Token", Message: "Deployed Token at 0xabc"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageComponentFailed, Component: "Vault", Message: "Failed to deploy Vault: reverted"})
	p.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageDeployCompleted})

	assert.Equal(t, "[1/2] Deploying Token\n"+
		"Waiting for Token (0x1234...)\n"+
		"↻ Retrying Token after timeout (attempt 2)\n"+
		"✓ Deployed Token at 0xabc\n"+
		"✗ Failed to deploy Vault: reverted\n", out.String())
	assert.Empty(t, p.inflight)
}

func TestDeployProgress_Suffix(t *testing.T) {
	p := NewDeployProgress(&bytes.Buffer{}, false)
	p.inflight["Vault"] = "Waiting for Vault (0x2)"
	assert.Equal(t, "Waiting for Vault (0x2)", p.suffix())

	p.inflight["Token"] = "Waiting for Token (0x1)"
	assert.Equal(t, "Waiting for Token, Vault", p.suffix())
}

func TestVerifyProgress(t *testing.T) {
	var out bytes.Buffer
	v := NewVerifyProgress(&out, false)

	v.OnProgress(context.Background(), usecase.ProgressEvent{Stage: usecase.StageVerifying, Message: "Verifying Token on sepolia"})
	v.OnProgress(context.Background(), usecase.ProgressEvent{Stage: usecase.StageVerified})
	v.Error("boom")

	assert.Contains(t, out.String(), "Verifying Token on sepolia\n")
	assert.Contains(t, out.String(), "Verification finished in ")
	assert.Contains(t, out.String(), "boom\n")
}
