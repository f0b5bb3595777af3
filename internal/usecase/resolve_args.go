package usecase

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
)

// ResolveArgs turns declarative arguments into concrete values
type ResolveArgs struct {
	ledger DeploymentLedger
	env    ConfigSource
}

// NewResolveArgs creates a new argument resolver
func NewResolveArgs(ledger DeploymentLedger, env ConfigSource) *ResolveArgs {
	return &ResolveArgs{
		ledger: ledger,
		env:    env,
	}
}

// ResolveOptions controls resolution behaviour
type ResolveOptions struct {
	// DryRun lets references to undeployed components resolve to a
	// placeholder instead of failing
	DryRun bool
}

// Resolve resolves every argument of spec for network, in order. Network
// overrides replace base arguments at the same position.
func (r *ResolveArgs) Resolve(ctx context.Context, spec *models.ComponentSpec, network string, opts ResolveOptions) (models.ResolvedArgs, error) {
	for idx := range spec.Overrides[network] {
		if idx < 0 || idx >= len(spec.Args) {
			return nil, &domain.InvalidOverrideError{
				Component: spec.Name,
				Network:   network,
				Index:     idx,
				Arity:     len(spec.Args),
			}
		}
	}

	args := spec.ArgsFor(network)
	resolved := make(models.ResolvedArgs, 0, len(args))
	for _, arg := range args {
		value, pending, err := r.resolveValue(ctx, spec.Name, network, arg, opts)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, models.ResolvedArg{
			Source:  arg,
			Value:   value,
			Pending: pending,
		})
	}
	return resolved, nil
}

func (r *ResolveArgs) resolveValue(ctx context.Context, component, network string, arg models.ArgValue, opts ResolveOptions) (any, bool, error) {
	switch arg.Kind {
	case models.ArgEnvConstant:
		v, ok := r.env.Lookup(network, arg.Env)
		if !ok {
			return nil, false, &domain.MissingConfigError{Component: component, Key: arg.Env}
		}
		return v, false, nil

	case models.ArgComponentRef:
		record, err := r.ledger.Get(ctx, arg.Ref, network)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read dependency '%s': %w", arg.Ref, err)
		}
		if record.IsConfirmed() {
			return common.HexToAddress(record.Address), false, nil
		}
		if opts.DryRun {
			return fmt.Sprintf("<pending:%s>", arg.Ref), true, nil
		}
		notReady := &domain.DependencyNotReadyError{Component: component, Dependency: arg.Ref}
		if record != nil {
			notReady.Status = string(record.Status)
		}
		return nil, false, notReady

	case models.ArgLiteral:
		if !arg.IsList() {
			return arg.Value, false, nil
		}
		items := make([]any, 0, len(arg.Items))
		anyPending := false
		for _, item := range arg.Items {
			v, pending, err := r.resolveValue(ctx, component, network, item, opts)
			if err != nil {
				return nil, false, err
			}
			anyPending = anyPending || pending
			items = append(items, v)
		}
		return items, anyPending, nil
	}

	return nil, false, fmt.Errorf("component '%s': unknown argument kind %q", component, arg.Kind)
}
