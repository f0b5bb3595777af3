package models

import (
	"time"
)

// DeploymentStatus represents the lifecycle state of a deployment record
type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "PENDING"
	DeploymentStatusConfirmed DeploymentStatus = "CONFIRMED"
	DeploymentStatusFailed    DeploymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is expected for this attempt
func (s DeploymentStatus) IsTerminal() bool {
	return s == DeploymentStatusConfirmed || s == DeploymentStatusFailed
}

// DeploymentRecord is one ledger row for a (component, network) attempt
type DeploymentRecord struct {
	// Core identification
	ID        string `json:"id"`        // attempt id, shared by the Pending row and its terminal row
	Component string `json:"component"` // manifest component name
	Network   string `json:"network"`   // network identifier, e.g. "sepolia"
	ChainID   uint64 `json:"chainId,omitempty"`

	// On-chain result
	Address         string `json:"address,omitempty"`      // proxy address (or the contract itself for proxy kind none)
	LogicAddress    string `json:"logicAddress,omitempty"` // implementation address
	DeployedAtBlock uint64 `json:"deployedAtBlock,omitempty"`
	TxHash          string `json:"txHash,omitempty"`
	LogicTxHash     string `json:"logicTxHash,omitempty"`

	Status    DeploymentStatus `json:"status"`
	Attempts  int              `json:"attempts,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"errorKind,omitempty"`

	// What was deployed
	ProxyKind    ProxyKind `json:"proxyKind"`
	Artifact     string    `json:"artifact"`
	Initializer  string    `json:"initializer,omitempty"`
	ResolvedArgs []string  `json:"resolvedArgs,omitempty"`
	Calldata     string    `json:"calldata,omitempty"` // hex initializer or constructor args

	// Verification (best effort, never affects Status)
	Verification VerificationInfo `json:"verification"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VerificationStatus represents the verification status
type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "UNVERIFIED"
	VerificationStatusVerified   VerificationStatus = "VERIFIED"
	VerificationStatusFailed     VerificationStatus = "FAILED"
)

// VerificationInfo contains verification details
type VerificationInfo struct {
	Status     VerificationStatus `json:"status,omitempty"`
	URL        string             `json:"url,omitempty"`
	VerifiedAt *time.Time         `json:"verifiedAt,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// IsConfirmed reports whether the record holds a usable on-chain address
func (r *DeploymentRecord) IsConfirmed() bool {
	return r != nil && r.Status == DeploymentStatusConfirmed && r.Address != ""
}

// Clone returns a copy safe to hand out of a store
func (r *DeploymentRecord) Clone() *DeploymentRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ResolvedArgs != nil {
		clone.ResolvedArgs = append([]string(nil), r.ResolvedArgs...)
	}
	if r.Verification.VerifiedAt != nil {
		t := *r.Verification.VerifiedAt
		clone.Verification.VerifiedAt = &t
	}
	return &clone
}

// Key returns the ledger key of the record
func (r *DeploymentRecord) Key() string {
	return r.Network + "/" + r.Component
}
