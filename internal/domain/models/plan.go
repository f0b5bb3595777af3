package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DeploymentPlan is the topologically ordered set of components for one run.
// It is recomputed every run and never persisted.
type DeploymentPlan struct {
	Manifest string
	Steps    []*PlanStep
}

// PlanStep is one component in the plan together with its direct dependencies
type PlanStep struct {
	Index        int
	Spec         *ComponentSpec
	Dependencies []string
}

// Name returns the component name of the step
func (s *PlanStep) Name() string {
	return s.Spec.Name
}

// Names returns the component names in plan order
func (p *DeploymentPlan) Names() []string {
	names := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		names[i] = s.Spec.Name
	}
	return names
}

// Step returns the step for a component, or nil
func (p *DeploymentPlan) Step(name string) *PlanStep {
	for _, s := range p.Steps {
		if s.Spec.Name == name {
			return s
		}
	}
	return nil
}

// ResolvedArg is a concrete argument value plus where it came from
type ResolvedArg struct {
	Source ArgValue
	Value  any
	// Pending is set during dry runs when a reference targets a component
	// that has not been deployed yet.
	Pending bool
}

// ResolvedArgs is the ordered list of concrete arguments for one component
type ResolvedArgs []ResolvedArg

// Values returns the raw values in order
func (r ResolvedArgs) Values() []any {
	out := make([]any, len(r))
	for i, a := range r {
		out[i] = a.Value
	}
	return out
}

// Strings renders every value for display and for the ledger
func (r ResolvedArgs) Strings() []string {
	out := make([]string, len(r))
	for i, a := range r {
		out[i] = FormatValue(a.Value)
	}
	return out
}

// FormatValue renders a resolved argument value in a stable textual form
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case common.Address:
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case []byte:
		return hexutil.Encode(val)
	case *big.Int:
		return val.String()
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = FormatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}
