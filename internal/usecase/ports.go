package usecase

import (
	"context"

	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// DeploymentLedger is the durable, append-only record of deployments.
// Put must be durable before it returns.
type DeploymentLedger interface {
	// Get returns the current record for (name, network), or nil when none exists
	Get(ctx context.Context, name, network string) (*models.DeploymentRecord, error)
	Put(ctx context.Context, record *models.DeploymentRecord) error
	// History returns every record written for (name, network), oldest first
	History(ctx context.Context, name, network string) ([]*models.DeploymentRecord, error)
	// List returns the current record of every component on a network
	List(ctx context.Context, network string) ([]*models.DeploymentRecord, error)
	Networks(ctx context.Context) ([]string, error)
}

// ArtifactProvider returns compiled interface descriptors by name
type ArtifactProvider interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// ConfigSource resolves EnvConstant keys for a network
type ConfigSource interface {
	Lookup(network, key string) (any, bool)
}

// ManifestLoader loads a deployment manifest from disk
type ManifestLoader interface {
	Load(ctx context.Context, path string) (*models.Manifest, error)
}

// NetworkSession is the narrow transport to one network with one signer.
// It never retries; retry policy belongs to the executor.
type NetworkSession interface {
	Network() string
	ChainID() uint64
	Submit(ctx context.Context, req *models.TxRequest) (*models.TxResult, error)
	WaitForConfirmation(ctx context.Context, handle *models.TxResult) (*models.Confirmation, error)
}

// SessionFactory opens a network session for a run
type SessionFactory interface {
	Open(ctx context.Context, network *config.Network) (NetworkSession, error)
}

// CalldataEncoder turns resolved arguments into calldata for an artifact
type CalldataEncoder interface {
	// EncodeInitializer packs a call to the named method (selector included)
	EncodeInitializer(artifact *models.Artifact, method string, args []any) ([]byte, error)
	// EncodeConstructor returns creation bytecode with constructor arguments appended
	EncodeConstructor(artifact *models.Artifact, args []any) ([]byte, error)
}

// ContractVerifier requests public source verification for a deployment
type ContractVerifier interface {
	Verify(ctx context.Context, record *models.DeploymentRecord, network *config.Network) error
}

// NetworkResolver resolves network identifiers to configuration
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, name string) (*config.Network, error)
}

// Confirmer asks the operator before state-changing runs
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ComponentSelector lets the operator pick one deployment record
type ComponentSelector interface {
	SelectComponent(ctx context.Context, records []*models.DeploymentRecord, prompt string) (*models.DeploymentRecord, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage     string
	Component string
	Current   int
	Total     int
	Message   string
	Spinner   bool
	Metadata  interface{}
}

// Progress stages emitted by the orchestrator
const (
	StagePlanCreated        = "plan_created"
	StageComponentStarting  = "component_starting"
	StageComponentSubmitted = "component_submitted"
	StageComponentRetrying  = "component_retrying"
	StageComponentCompleted = "component_completed"
	StageComponentFailed    = "component_failed"
	StageDeployCompleted    = "deploy_completed"
	StageVerifying          = "verifying"
	StageVerified           = "verified"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
