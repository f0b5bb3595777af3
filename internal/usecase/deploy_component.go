package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 2 * time.Second
	defaultMaxDelay    = 30 * time.Second
	defaultProxyCode   = "ERC1967Proxy"
)

// DeployComponent deploys a single component and records the outcome.
// It is safe to call concurrently for different components.
type DeployComponent struct {
	ledger    DeploymentLedger
	artifacts ArtifactProvider
	encoder   CalldataEncoder
	settings  config.DeploySettings
	progress  ProgressSink
	log       *slog.Logger
	now       func() time.Time
}

// NewDeployComponent creates a new deployment executor
func NewDeployComponent(
	cfg *config.RuntimeConfig,
	ledger DeploymentLedger,
	artifacts ArtifactProvider,
	encoder CalldataEncoder,
	progress ProgressSink,
	log *slog.Logger,
) *DeployComponent {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployComponent{
		ledger:    ledger,
		artifacts: artifacts,
		encoder:   encoder,
		settings:  cfg.Deploy,
		progress:  progress,
		log:       log.With("component", "deploy"),
		now:       time.Now,
	}
}

// DeployComponentParams contains the inputs for one component deployment
type DeployComponentParams struct {
	Spec    *models.ComponentSpec
	Args    models.ResolvedArgs
	Session NetworkSession
	Network *config.Network
	Force   bool
	// Position and Total only feed progress events
	Position int
	Total    int
}

// DeployComponentResult describes what happened to one component
type DeployComponentResult struct {
	Record *models.DeploymentRecord
	// Skipped is set when an existing Confirmed record was reused
	Skipped     bool
	Submissions int
}

// Execute deploys the component unless it is already confirmed on the
// network. The ledger receives a Pending record before the first submission
// and exactly one terminal record afterwards.
func (d *DeployComponent) Execute(ctx context.Context, params DeployComponentParams) (*DeployComponentResult, error) {
	spec := params.Spec
	network := params.Session.Network()
	log := d.log.With("name", spec.Name, "network", network)

	existing, err := d.ledger.Get(ctx, spec.Name, network)
	if err != nil {
		return nil, err
	}
	if existing.IsConfirmed() && !params.Force {
		log.Debug("already deployed, skipping", "address", existing.Address)
		return &DeployComponentResult{Record: existing, Skipped: true}, nil
	}

	d.emit(ctx, params, StageComponentStarting, fmt.Sprintf("Deploying %s", spec.Name), nil)

	record := &models.DeploymentRecord{
		ID:           uuid.NewString(),
		Component:    spec.Name,
		Network:      network,
		ChainID:      params.Session.ChainID(),
		ProxyKind:    spec.ProxyKind,
		Artifact:     spec.ArtifactName(),
		ResolvedArgs: params.Args.Strings(),
		CreatedAt:    d.now(),
	}
	if spec.ProxyKind.IsProxied() {
		record.Initializer = spec.InitializerName()
	}

	req, err := d.buildRequest(ctx, spec, params)
	if err != nil {
		// Nothing was submitted so there is no Pending row to close
		deployErr := &domain.DeployError{
			Component: spec.Name,
			Class:     domain.FailurePermanent,
			Reason:    "malformed arguments",
			Err:       err,
		}
		if errors.Is(err, domain.ErrArtifactNotFound) {
			deployErr.Reason = "artifact not found"
		}
		if putErr := d.fail(ctx, record, deployErr); putErr != nil {
			return nil, putErr
		}
		return &DeployComponentResult{Record: record}, deployErr
	}
	if spec.ProxyKind.IsProxied() {
		record.Calldata = hexutil.Encode(req.InitCalldata)
	} else if len(req.ConstructorArgs) > 0 {
		record.Calldata = hexutil.Encode(req.ConstructorArgs)
	}

	record.Status = models.DeploymentStatusPending
	record.UpdatedAt = d.now()
	if err := d.ledger.Put(ctx, record.Clone()); err != nil {
		return nil, err
	}

	submissions := 0
	confirmation, err := retry.DoWithData(
		func() (*models.Confirmation, error) {
			if err := ctx.Err(); err != nil {
				return nil, retry.Unrecoverable(err)
			}
			submissions++

			// An attempt that reached the network runs to its outcome even
			// if the run is cancelled meanwhile
			inflight := context.WithoutCancel(ctx)
			handle, err := params.Session.Submit(inflight, req)
			if err != nil {
				return nil, err
			}
			record.TxHash = handle.Hash.Hex()
			if handle.LogicHash != (common.Hash{}) {
				record.LogicTxHash = handle.LogicHash.Hex()
			}
			d.emit(ctx, params, StageComponentSubmitted,
				fmt.Sprintf("Waiting for %s (%s)", spec.Name, shortHash(handle.Hash)), handle)

			return params.Session.WaitForConfirmation(inflight, handle)
		},
		retry.Context(ctx),
		retry.Attempts(uint(d.maxAttempts())),
		retry.Delay(d.baseDelay()),
		retry.MaxDelay(d.maxDelay()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 >= d.maxAttempts() {
				return
			}
			_, reason := Classify(err)
			log.Warn("transient failure, retrying", "attempt", n+1, "reason", reason, "error", err)
			d.emit(ctx, params, StageComponentRetrying,
				fmt.Sprintf("Retrying %s after %s (attempt %d)", spec.Name, reason, n+2), err)
		}),
	)
	record.Attempts = submissions

	if err != nil {
		class, reason := Classify(err)
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			class, reason = domain.FailurePermanent, "cancelled"
		}
		deployErr := &domain.DeployError{
			Component: spec.Name,
			Class:     class,
			Reason:    reason,
			Attempts:  submissions,
			Err:       err,
		}
		if putErr := d.fail(ctx, record, deployErr); putErr != nil {
			return nil, putErr
		}
		log.Error("deployment failed", "attempts", submissions, "reason", reason, "error", err)
		d.emit(ctx, params, StageComponentFailed,
			fmt.Sprintf("Failed to deploy %s: %s", spec.Name, reason), deployErr)
		return &DeployComponentResult{Record: record, Submissions: submissions}, deployErr
	}

	record.Status = models.DeploymentStatusConfirmed
	record.Address = confirmation.Address.Hex()
	if confirmation.LogicAddress != (common.Address{}) {
		record.LogicAddress = confirmation.LogicAddress.Hex()
	}
	record.DeployedAtBlock = confirmation.BlockNumber
	record.TxHash = confirmation.TxHash.Hex()
	record.Verification.Status = models.VerificationStatusUnverified
	record.UpdatedAt = d.now()
	if err := d.ledger.Put(context.WithoutCancel(ctx), record.Clone()); err != nil {
		return nil, err
	}

	log.Info("deployed", "address", record.Address, "block", record.DeployedAtBlock, "attempts", submissions)
	d.emit(ctx, params, StageComponentCompleted,
		fmt.Sprintf("Deployed %s at %s", spec.Name, record.Address), record)
	return &DeployComponentResult{Record: record, Submissions: submissions}, nil
}

// buildRequest loads the artifact and encodes the single deployment request
func (d *DeployComponent) buildRequest(ctx context.Context, spec *models.ComponentSpec, params DeployComponentParams) (*models.TxRequest, error) {
	artifact, err := d.artifacts.GetArtifact(ctx, spec.ArtifactName())
	if err != nil {
		return nil, err
	}

	req := &models.TxRequest{
		Component: spec.Name,
		ProxyKind: spec.ProxyKind,
		GasLimit:  d.settings.GasLimit,
	}
	values := params.Args.Values()

	if !spec.ProxyKind.IsProxied() {
		req.LogicCode, err = d.encoder.EncodeConstructor(artifact, values)
		if err != nil {
			return nil, fmt.Errorf("encode constructor of %s: %w", artifact.Name, err)
		}
		if len(req.LogicCode) >= len(artifact.Bytecode) {
			req.ConstructorArgs = req.LogicCode[len(artifact.Bytecode):]
		}
		return req, nil
	}

	// Proxied logic contracts are initialized through the proxy
	req.LogicCode, err = d.encoder.EncodeConstructor(artifact, nil)
	if err != nil {
		return nil, fmt.Errorf("encode logic creation of %s: %w", artifact.Name, err)
	}
	req.InitCalldata, err = d.encoder.EncodeInitializer(artifact, spec.InitializerName(), values)
	if err != nil {
		return nil, fmt.Errorf("encode %s.%s: %w", artifact.Name, spec.InitializerName(), err)
	}

	switch spec.ProxyKind {
	case models.ProxyKindUUPS:
		name := d.settings.ProxyCode
		if name == "" {
			name = defaultProxyCode
		}
		proxy, err := d.artifacts.GetArtifact(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("proxy creation code: %w", err)
		}
		req.ProxyCode = proxy.Bytecode
	case models.ProxyKindTransparent:
		if params.Network != nil && params.Network.ProxyAdmin != "" {
			if !common.IsHexAddress(params.Network.ProxyAdmin) {
				return nil, fmt.Errorf("invalid proxy admin %q for network %s", params.Network.ProxyAdmin, params.Network.Name)
			}
			req.Admin = common.HexToAddress(params.Network.ProxyAdmin)
		}
	}
	return req, nil
}

// fail writes the terminal Failed record for an attempt
func (d *DeployComponent) fail(ctx context.Context, record *models.DeploymentRecord, deployErr *domain.DeployError) error {
	record.Status = models.DeploymentStatusFailed
	record.Attempts = deployErr.Attempts
	record.Error = deployErr.Error()
	record.ErrorKind = domain.ErrorKind(deployErr)
	record.UpdatedAt = d.now()
	return d.ledger.Put(context.WithoutCancel(ctx), record.Clone())
}

func (d *DeployComponent) emit(ctx context.Context, params DeployComponentParams, stage, message string, metadata interface{}) {
	d.progress.OnProgress(ctx, ProgressEvent{
		Stage:     stage,
		Component: params.Spec.Name,
		Current:   params.Position,
		Total:     params.Total,
		Message:   message,
		Spinner:   stage == StageComponentSubmitted || stage == StageComponentRetrying,
		Metadata:  metadata,
	})
}

func (d *DeployComponent) maxAttempts() int {
	if d.settings.MaxAttempts > 0 {
		return d.settings.MaxAttempts
	}
	return defaultMaxAttempts
}

func (d *DeployComponent) baseDelay() time.Duration {
	if d.settings.BaseDelay.Duration > 0 {
		return d.settings.BaseDelay.Duration
	}
	return defaultBaseDelay
}

func (d *DeployComponent) maxDelay() time.Duration {
	if d.settings.MaxDelay.Duration > 0 {
		return d.settings.MaxDelay.Duration
	}
	return defaultMaxDelay
}

func shortHash(h common.Hash) string {
	s := h.Hex()
	return s[:10] + "..."
}
