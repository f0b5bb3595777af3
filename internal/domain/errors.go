package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrLedger marks durability failures of the deployment ledger. The
	// orchestrator must not proceed with unrecorded state.
	ErrLedger = errors.New("ledger error")

	// ErrGraph marks manifest authoring errors found while building the plan
	ErrGraph = errors.New("graph error")

	// ErrArtifactNotFound is returned when no compiled artifact matches a component
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrNetworkNotConfigured is returned when a network id has no configuration
	ErrNetworkNotConfigured = errors.New("network not configured")

	// ErrNotDeployed is returned when a component has no confirmed record on a network
	ErrNotDeployed = errors.New("not deployed")
)

// CycleDetectedError is returned when component references form a cycle
type CycleDetectedError struct {
	Members []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("circular dependency detected involving components: %s", strings.Join(e.Members, ", "))
}

func (e *CycleDetectedError) Is(target error) bool { return target == ErrGraph }

// UnknownReferenceError is returned when a ComponentRef names a component absent from the manifest
type UnknownReferenceError struct {
	From        string
	To          string
	Suggestions []string
}

func (e *UnknownReferenceError) Error() string {
	msg := fmt.Sprintf("component '%s' references unknown component '%s'", e.From, e.To)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *UnknownReferenceError) Is(target error) bool { return target == ErrGraph }

// DuplicateComponentError is returned when two manifest entries share a name
type DuplicateComponentError struct {
	Name string
}

func (e *DuplicateComponentError) Error() string {
	return fmt.Sprintf("component '%s' is declared more than once", e.Name)
}

func (e *DuplicateComponentError) Is(target error) bool { return target == ErrGraph }

// MissingConfigError is returned when an EnvConstant key has no value.
// It is fatal for the component only.
type MissingConfigError struct {
	Component string
	Key       string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("component '%s': missing config value for '%s'", e.Component, e.Key)
}

// InvalidOverrideError is returned when a network override targets a position outside the base arguments
type InvalidOverrideError struct {
	Component string
	Network   string
	Index     int
	Arity     int
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("component '%s': override for network '%s' at position %d exceeds %d declared arguments",
		e.Component, e.Network, e.Index, e.Arity)
}

// DependencyNotReadyError is returned when a referenced component has no
// Confirmed record. With a correctly ordered plan this is an invariant
// violation and is fatal to the run.
type DependencyNotReadyError struct {
	Component  string
	Dependency string
	Status     string
}

func (e *DependencyNotReadyError) Error() string {
	status := e.Status
	if status == "" {
		status = "not deployed"
	}
	return fmt.Sprintf("component '%s': dependency '%s' is not ready (%s)", e.Component, e.Dependency, status)
}

// FailureClass separates errors worth retrying from those that are not
type FailureClass string

const (
	FailureTransient FailureClass = "transient"
	FailurePermanent FailureClass = "permanent"
)

// SubmitError is a network submission failure with a known class. Sessions
// return it when they can classify at the source (e.g. a reverted receipt).
type SubmitError struct {
	Class  FailureClass
	Reason string
	Err    error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Transient builds a retryable submission error
func Transient(reason string, err error) error {
	return &SubmitError{Class: FailureTransient, Reason: reason, Err: err}
}

// Permanent builds a non-retryable submission error
func Permanent(reason string, err error) error {
	return &SubmitError{Class: FailurePermanent, Reason: reason, Err: err}
}

// TimeoutError is returned when a submitted transaction is not confirmed in time
type TimeoutError struct {
	TxHash string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for confirmation of %s", e.TxHash)
}

// DeployError is the surfaced failure of the deployment executor
type DeployError struct {
	Component string
	Class     FailureClass
	Reason    string
	Attempts  int
	Err       error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy '%s' failed (%s %s after %d attempt(s)): %v",
		e.Component, e.Class, e.Reason, e.Attempts, e.Err)
}

func (e *DeployError) Unwrap() error { return e.Err }

// LedgerError is a durability failure of the ledger
type LedgerError struct {
	Op      string
	Network string
	Err     error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s (network %s): %v", e.Op, e.Network, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

func (e *LedgerError) Is(target error) bool { return target == ErrLedger }

// ErrorKind returns a short stable name for an error, used in summaries and ledger records
func ErrorKind(err error) string {
	var (
		cycle      *CycleDetectedError
		unknown    *UnknownReferenceError
		duplicate  *DuplicateComponentError
		missing    *MissingConfigError
		override   *InvalidOverrideError
		notReady   *DependencyNotReadyError
		deployErr  *DeployError
		submitErr  *SubmitError
		timeoutErr *TimeoutError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cycle):
		return "CycleDetected"
	case errors.As(err, &unknown):
		return "UnknownReference"
	case errors.As(err, &duplicate):
		return "DuplicateComponent"
	case errors.As(err, &missing):
		return "MissingConfig"
	case errors.As(err, &override):
		return "InvalidOverride"
	case errors.As(err, &notReady):
		return "DependencyNotReady"
	case errors.Is(err, ErrLedger):
		return "LedgerError"
	case errors.As(err, &deployErr):
		return "DeployError(" + string(deployErr.Class) + ")"
	case errors.As(err, &submitErr):
		return "SubmitError(" + string(submitErr.Class) + ")"
	case errors.As(err, &timeoutErr):
		return "Timeout"
	case errors.Is(err, ErrArtifactNotFound):
		return "ArtifactNotFound"
	}
	return "Error"
}
