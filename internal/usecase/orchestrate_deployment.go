package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/config"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// ComponentStatus is the per-run outcome of a component
type ComponentStatus string

const (
	ComponentDeployed ComponentStatus = "deployed"
	ComponentSkipped  ComponentStatus = "skipped"
	ComponentFailed   ComponentStatus = "failed"
	ComponentBlocked  ComponentStatus = "blocked"
	ComponentPlanned  ComponentStatus = "planned"
	ComponentNotRun   ComponentStatus = "not run"
)

// ComponentOutcome describes what one run did with one component
type ComponentOutcome struct {
	Name        string
	Status      ComponentStatus
	Record      *models.DeploymentRecord
	Args        models.ResolvedArgs
	Submissions int
	Err         error
	// BlockedBy names the failed dependency for blocked components
	BlockedBy string
	Duration  time.Duration
}

// OK reports whether dependents may rely on this component
func (o *ComponentOutcome) OK() bool {
	return o != nil && (o.Status == ComponentDeployed || o.Status == ComponentSkipped)
}

// DeployParams contains parameters for a deployment run
type DeployParams struct {
	ManifestPath string
	NetworkName  string
	Force        bool
	DryRun       bool
	Workers      int
	Verify       bool
}

// DeployResult contains the result of a deployment run
type DeployResult struct {
	Plan     *models.DeploymentPlan
	Network  *config.Network
	DryRun   bool
	Outcomes []*ComponentOutcome // plan order
	Duration time.Duration
}

// Success reports whether every component is deployed or was already deployed
func (r *DeployResult) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status != ComponentDeployed && o.Status != ComponentSkipped && o.Status != ComponentPlanned {
			return false
		}
	}
	return true
}

// FirstFailure returns the first failed component in plan order, falling
// back to the first blocked or unrun one
func (r *DeployResult) FirstFailure() *ComponentOutcome {
	for _, o := range r.Outcomes {
		if o.Status == ComponentFailed {
			return o
		}
	}
	for _, o := range r.Outcomes {
		if o.Status == ComponentBlocked || o.Status == ComponentNotRun {
			return o
		}
	}
	return nil
}

// Submissions returns the number of network submissions made during the run
func (r *DeployResult) Submissions() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Submissions
	}
	return total
}

// Count returns how many components ended in status
func (r *DeployResult) Count(status ComponentStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// OrchestrateDeployment drives a manifest to a network: plan, resolve,
// deploy with bounded concurrency and record everything in the ledger
type OrchestrateDeployment struct {
	cfg             *config.RuntimeConfig
	manifests       ManifestLoader
	planner         *BuildPlan
	resolver        *ResolveArgs
	deployer        *DeployComponent
	sessions        SessionFactory
	networkResolver NetworkResolver
	ledger          DeploymentLedger
	verifier        ContractVerifier
	progress        ProgressSink
	log             *slog.Logger
}

// NewOrchestrateDeployment creates a new orchestrator
func NewOrchestrateDeployment(
	cfg *config.RuntimeConfig,
	manifests ManifestLoader,
	planner *BuildPlan,
	resolver *ResolveArgs,
	deployer *DeployComponent,
	sessions SessionFactory,
	networkResolver NetworkResolver,
	ledger DeploymentLedger,
	verifier ContractVerifier,
	progress ProgressSink,
	log *slog.Logger,
) *OrchestrateDeployment {
	if progress == nil {
		progress = NopProgress{}
	}
	return &OrchestrateDeployment{
		cfg:             cfg,
		manifests:       manifests,
		planner:         planner,
		resolver:        resolver,
		deployer:        deployer,
		sessions:        sessions,
		networkResolver: networkResolver,
		ledger:          ledger,
		verifier:        verifier,
		progress:        progress,
		log:             log.With("component", "orchestrator"),
	}
}

// Plan loads the manifest and builds the deployment plan without touching any network
func (o *OrchestrateDeployment) Plan(ctx context.Context, manifestPath string) (*models.DeploymentPlan, error) {
	manifest, err := o.manifests.Load(ctx, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return o.planner.Build(manifest)
}

// Execute runs the deployment. Graph errors abort before any network
// activity. The returned error is non-nil only for run-level failures;
// per-component failures are reported in the result.
func (o *OrchestrateDeployment) Execute(ctx context.Context, params DeployParams) (*DeployResult, error) {
	started := time.Now()

	plan, err := o.Plan(ctx, params.ManifestPath)
	if err != nil {
		return nil, err
	}

	network, err := o.networkResolver.ResolveNetwork(ctx, params.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve network: %w", err)
	}

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StagePlanCreated,
		Total:    len(plan.Steps),
		Metadata: plan,
	})

	result := &DeployResult{
		Plan:     plan,
		Network:  network,
		DryRun:   params.DryRun,
		Outcomes: make([]*ComponentOutcome, len(plan.Steps)),
	}

	if params.DryRun {
		err = o.dryRun(ctx, plan, network, params, result)
	} else {
		err = o.run(ctx, plan, network, params, result)
	}
	for i, outcome := range result.Outcomes {
		if outcome == nil {
			result.Outcomes[i] = &ComponentOutcome{Name: plan.Steps[i].Name(), Status: ComponentNotRun}
		}
	}
	result.Duration = time.Since(started)

	o.progress.OnProgress(ctx, ProgressEvent{
		Stage:    StageDeployCompleted,
		Total:    len(plan.Steps),
		Metadata: result,
	})
	return result, err
}

// dryRun resolves every component against the current ledger and reports
// what a real run would do
func (o *OrchestrateDeployment) dryRun(ctx context.Context, plan *models.DeploymentPlan, network *config.Network, params DeployParams, result *DeployResult) error {
	for i, step := range plan.Steps {
		outcome := &ComponentOutcome{Name: step.Name(), Status: ComponentPlanned}
		result.Outcomes[i] = outcome

		existing, err := o.ledger.Get(ctx, step.Name(), network.Name)
		if err != nil {
			return err
		}
		outcome.Record = existing
		if existing.IsConfirmed() && !params.Force {
			outcome.Status = ComponentSkipped
		}

		args, err := o.resolver.Resolve(ctx, step.Spec, network.Name, ResolveOptions{DryRun: true})
		if err != nil {
			if errors.Is(err, domain.ErrLedger) {
				return err
			}
			outcome.Status = ComponentFailed
			outcome.Err = err
			continue
		}
		outcome.Args = args
	}
	return nil
}

// run schedules components once every dependency is terminal. A failed
// dependency blocks its dependents, independent branches keep going.
func (o *OrchestrateDeployment) run(ctx context.Context, plan *models.DeploymentPlan, network *config.Network, params DeployParams, result *DeployResult) error {
	session, err := o.sessions.Open(ctx, network)
	if err != nil {
		return fmt.Errorf("failed to open session for %s: %w", network.Name, err)
	}
	if closer, ok := session.(io.Closer); ok {
		defer closer.Close()
	}

	n := len(plan.Steps)
	position := make(map[string]int, n)
	for i, step := range plan.Steps {
		position[step.Name()] = i
	}

	remaining := make([]int, n)
	dependents := make([][]int, n)
	for i, step := range plan.Steps {
		remaining[i] = len(step.Dependencies)
		for _, dep := range step.Dependencies {
			j := position[dep]
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range plan.Steps {
		if remaining[i] == 0 {
			ready = append(ready, i)
		}
	}

	limit := o.workers(params)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	done := make(chan int, n)
	blockedBy := make([]string, n)
	finished := 0
	running := 0

	// complete settles a finished step and releases or blocks its dependents
	var complete func(idx int)
	complete = func(idx int) {
		finished++
		outcome := result.Outcomes[idx]
		// dependents of a step that never started stay not run
		if outcome.Status == ComponentNotRun {
			return
		}
		for _, dep := range dependents[idx] {
			remaining[dep]--
			if !outcome.OK() && blockedBy[dep] == "" {
				blockedBy[dep] = outcome.Name
			}
			if remaining[dep] > 0 {
				continue
			}
			if blockedBy[dep] != "" {
				result.Outcomes[dep] = &ComponentOutcome{
					Name:      plan.Steps[dep].Name(),
					Status:    ComponentBlocked,
					BlockedBy: blockedBy[dep],
					Err: &domain.DependencyNotReadyError{
						Component:  plan.Steps[dep].Name(),
						Dependency: blockedBy[dep],
						Status:     string(outcome.Status),
					},
				}
				o.log.Warn("component blocked", "name", plan.Steps[dep].Name(), "dependency", blockedBy[dep])
				complete(dep)
				continue
			}
			pos, _ := slices.BinarySearch(ready, dep)
			ready = slices.Insert(ready, pos, dep)
		}
	}

	aborted := false
	for finished < n && !aborted {
		// dispatch only into free slots so g.Go never parks a step that
		// would start after cancellation
		for len(ready) > 0 && running < limit && gctx.Err() == nil {
			idx := ready[0]
			ready = ready[1:]
			step := plan.Steps[idx]
			running++
			g.Go(func() error {
				defer func() { done <- idx }()
				if gctx.Err() != nil {
					result.Outcomes[idx] = &ComponentOutcome{Name: step.Name(), Status: ComponentNotRun}
					return nil
				}
				outcome, err := o.deployStep(gctx, step, network, session, params, n)
				result.Outcomes[idx] = outcome
				return err
			})
		}

		if running == 0 {
			break
		}
		select {
		case idx := <-done:
			running--
			complete(idx)
		case <-gctx.Done():
			aborted = true
		}
	}

	runErr := g.Wait()
	close(done)
	for idx := range done {
		complete(idx)
	}

	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	return runErr
}

// deployStep resolves and deploys one component. Errors it returns abort
// the whole run; component-local failures only populate the outcome.
func (o *OrchestrateDeployment) deployStep(ctx context.Context, step *models.PlanStep, network *config.Network, session NetworkSession, params DeployParams, total int) (*ComponentOutcome, error) {
	started := time.Now()
	outcome := &ComponentOutcome{Name: step.Name()}
	defer func() { outcome.Duration = time.Since(started) }()

	args, err := o.resolver.Resolve(ctx, step.Spec, network.Name, ResolveOptions{})
	if err != nil {
		outcome.Status = ComponentFailed
		outcome.Err = err
		if isRunFatal(err) {
			return outcome, err
		}
		o.log.Error("argument resolution failed", "name", step.Name(), "error", err)
		return outcome, nil
	}
	outcome.Args = args

	res, err := o.deployer.Execute(ctx, DeployComponentParams{
		Spec:     step.Spec,
		Args:     args,
		Session:  session,
		Network:  network,
		Force:    params.Force,
		Position: step.Index + 1,
		Total:    total,
	})
	if res != nil {
		outcome.Record = res.Record
		outcome.Submissions = res.Submissions
	}
	if err != nil {
		outcome.Status = ComponentFailed
		outcome.Err = err
		if isRunFatal(err) {
			return outcome, err
		}
		return outcome, nil
	}

	if res.Skipped {
		outcome.Status = ComponentSkipped
		return outcome, nil
	}
	outcome.Status = ComponentDeployed

	if (params.Verify || o.cfg.Deploy.Verify || step.Spec.Verify) && o.verifier != nil {
		o.verify(ctx, outcome.Record, network)
	}
	return outcome, nil
}

// verify requests source verification. Failures are recorded on the record
// and never change its status.
func (o *OrchestrateDeployment) verify(ctx context.Context, record *models.DeploymentRecord, network *config.Network) {
	updated, err := recordVerification(ctx, o.verifier, o.ledger, record, network)
	if err != nil {
		o.log.Warn("failed to record verification", "name", record.Component, "error", err)
		return
	}
	if updated.Verification.Status == models.VerificationStatusFailed {
		o.log.Warn("verification failed", "name", record.Component, "error", updated.Verification.Reason)
	}
	*record = *updated
}

func (o *OrchestrateDeployment) workers(params DeployParams) int {
	switch {
	case params.Workers > 0:
		return params.Workers
	case o.cfg.Deploy.Workers > 0:
		return o.cfg.Deploy.Workers
	}
	return defaultWorkers
}

// isRunFatal reports whether err must stop the whole run rather than one component
func isRunFatal(err error) bool {
	var notReady *domain.DependencyNotReadyError
	return errors.Is(err, domain.ErrLedger) ||
		errors.As(err, &notReady) ||
		errors.Is(err, context.Canceled) && !isDeployError(err)
}

func isDeployError(err error) bool {
	var deployErr *domain.DeployError
	return errors.As(err, &deployErr)
}
