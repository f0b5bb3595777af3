package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// VerifyParams selects the deployment to verify
type VerifyParams struct {
	Component   string
	NetworkName string
	// Force re-verifies a deployment already marked verified
	Force bool
}

// VerifyResult contains the result of verification
type VerifyResult struct {
	Record  *models.DeploymentRecord
	Network *config.Network
	// Skipped is set when the record was already verified and Force was not given
	Skipped bool
	Err     error
}

// Success reports whether the deployment ended verified
func (r *VerifyResult) Success() bool {
	return r.Err == nil
}

// VerifyDeployment requests source verification for a recorded deployment
// and writes the outcome back to the ledger
type VerifyDeployment struct {
	ledger          DeploymentLedger
	verifier        ContractVerifier
	networkResolver NetworkResolver
	progress        ProgressSink
	log             *slog.Logger
}

// NewVerifyDeployment creates a new verify deployment use case
func NewVerifyDeployment(
	ledger DeploymentLedger,
	verifier ContractVerifier,
	networkResolver NetworkResolver,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyDeployment {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyDeployment{
		ledger:          ledger,
		verifier:        verifier,
		networkResolver: networkResolver,
		progress:        progress,
		log:             log.With("component", "verify"),
	}
}

// Run verifies the current record of a component. Verification failures
// are returned in the result; the error is reserved for lookups and the ledger.
func (v *VerifyDeployment) Run(ctx context.Context, params VerifyParams) (*VerifyResult, error) {
	network, err := v.networkResolver.ResolveNetwork(ctx, params.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network: %w", err)
	}

	record, err := v.ledger.Get(ctx, params.Component, network.Name)
	if err != nil {
		return nil, err
	}
	if !record.IsConfirmed() {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrNotDeployed, params.Component, network.Name)
	}

	result := &VerifyResult{Record: record, Network: network}
	if record.Verification.Status == models.VerificationStatusVerified && !params.Force {
		result.Skipped = true
		return result, nil
	}

	v.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageVerifying,
		Component: record.Component,
		Message:   fmt.Sprintf("Verifying %s on %s", record.Component, network.Name),
		Spinner:   true,
	})
	updated, err := recordVerification(ctx, v.verifier, v.ledger, record, network)
	v.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerified, Component: record.Component})
	if err != nil {
		return nil, err
	}
	result.Record = updated
	if updated.Verification.Status == models.VerificationStatusFailed {
		result.Err = errors.New(updated.Verification.Reason)
	}
	return result, nil
}

// recordVerification runs the verifier against a copy of record and appends
// the outcome to the ledger. Verifier failures land in the returned record;
// the error is the ledger's.
func recordVerification(
	ctx context.Context,
	verifier ContractVerifier,
	ledger DeploymentLedger,
	record *models.DeploymentRecord,
	network *config.Network,
) (*models.DeploymentRecord, error) {
	updated := record.Clone()
	now := time.Now()
	if err := verifier.Verify(ctx, updated, network); err != nil {
		updated.Verification.Status = models.VerificationStatusFailed
		updated.Verification.Reason = err.Error()
	} else {
		updated.Verification.Status = models.VerificationStatusVerified
		updated.Verification.Reason = ""
		updated.Verification.VerifiedAt = &now
	}
	updated.UpdatedAt = now
	if err := ledger.Put(context.WithoutCancel(ctx), updated); err != nil {
		return nil, err
	}
	return updated, nil
}
