package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// PlanRenderer renders deployment plans and run summaries
type PlanRenderer struct {
	out io.Writer
}

// NewPlanRenderer creates a new plan renderer
func NewPlanRenderer(out io.Writer) *PlanRenderer {
	return &PlanRenderer{
		out: out,
	}
}

// RenderPlan displays the ordered components of a plan
func (r *PlanRenderer) RenderPlan(plan *models.DeploymentPlan, network string) {
	if network != "" {
		fmt.Fprintf(r.out, "\n🎯 Deploying %s to %s\n", plan.Manifest, network)
	}
	headerStyle.Fprintf(r.out, "📋 Deployment plan: %d components\n", len(plan.Steps))
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for i, step := range plan.Steps {
		fmt.Fprintf(r.out, "%d. ", i+1)
		nameStyle.Fprint(r.out, step.Name())

		fmt.Fprint(r.out, " → ")
		artifactStyle.Fprint(r.out, step.Spec.ArtifactName())
		if step.Spec.ProxyKind.IsProxied() {
			fmt.Fprintf(r.out, " [%s]", step.Spec.ProxyKind)
		}

		if len(step.Dependencies) > 0 {
			faintStyle.Fprintf(r.out, " (depends on: %s)", strings.Join(step.Dependencies, ", "))
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprintln(r.out)
}

// RenderDryRun shows what a run would do with each component
func (r *PlanRenderer) RenderDryRun(result *usecase.DeployResult) {
	r.RenderPlan(result.Plan, result.Network.Name)

	t := newTable()
	t.AppendHeader(table.Row{"#", "Component", "Action", "Arguments"})
	for i, outcome := range result.Outcomes {
		var action, args string
		switch outcome.Status {
		case usecase.ComponentSkipped:
			action = faintStyle.Sprintf("skip (deployed at %s)", outcome.Record.Address)
		case usecase.ComponentFailed:
			action = failureStyle.Sprint("cannot deploy")
			args = failureStyle.Sprint(outcome.Err)
		default:
			action = pendingStyle.Sprint("deploy")
		}
		if args == "" {
			args = formatArgs(outcome.Args)
		}
		t.AppendRow(table.Row{i + 1, outcome.Name, action, args})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	deploys := result.Count(usecase.ComponentPlanned)
	fmt.Fprintf(r.out, "Dry run: %d to deploy, %d already deployed, %d unresolvable. Nothing was submitted.\n",
		deploys, result.Count(usecase.ComponentSkipped), result.Count(usecase.ComponentFailed))
}

// RenderDeployResult renders the per-component summary of a finished run
func (r *PlanRenderer) RenderDeployResult(result *usecase.DeployResult) {
	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 70))

	t := newTable()
	t.AppendHeader(table.Row{"Component", "Status", "Address", "Attempts", "Detail"})
	for _, outcome := range result.Outcomes {
		var address string
		if outcome.Record != nil {
			address = outcome.Record.Address
		}
		t.AppendRow(table.Row{
			outcome.Name,
			outcomeText(outcome.Status),
			orDash(address),
			outcome.Submissions,
			outcomeDetail(outcome),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out)

	if result.Success() {
		successStyle.Fprintf(r.out, "🎉 Deployed %s to %s", result.Plan.Manifest, result.Network.Name)
		fmt.Fprintln(r.out)
	} else {
		failureStyle.Fprintf(r.out, "❌ Deployment of %s to %s did not complete", result.Plan.Manifest, result.Network.Name)
		fmt.Fprintln(r.out)
	}

	fmt.Fprintf(r.out, "\n📊 Summary:\n")
	fmt.Fprintf(r.out, "  • Deployed: %d\n", result.Count(usecase.ComponentDeployed))
	fmt.Fprintf(r.out, "  • Already deployed: %d\n", result.Count(usecase.ComponentSkipped))
	if n := result.Count(usecase.ComponentFailed); n > 0 {
		fmt.Fprintf(r.out, "  • Failed: %d\n", n)
	}
	if n := result.Count(usecase.ComponentBlocked); n > 0 {
		fmt.Fprintf(r.out, "  • Blocked: %d\n", n)
	}
	if n := result.Count(usecase.ComponentNotRun); n > 0 {
		fmt.Fprintf(r.out, "  • Not run: %d\n", n)
	}
	fmt.Fprintf(r.out, "  • Submissions: %d\n", result.Submissions())
	fmt.Fprintf(r.out, "  • Duration: %s\n", result.Duration.Round(time.Millisecond))
}

func outcomeText(status usecase.ComponentStatus) string {
	switch status {
	case usecase.ComponentDeployed:
		return successStyle.Sprint(title(string(status)))
	case usecase.ComponentSkipped:
		return faintStyle.Sprint("Already deployed")
	case usecase.ComponentFailed:
		return failureStyle.Sprint(title(string(status)))
	case usecase.ComponentBlocked:
		return blockedStyle.Sprint(title(string(status)))
	}
	return title(string(status))
}

func outcomeDetail(outcome *usecase.ComponentOutcome) string {
	switch {
	case outcome.Status == usecase.ComponentBlocked:
		return "waiting on " + outcome.BlockedBy
	case outcome.Err != nil:
		return fmt.Sprintf("%s: %v", domain.ErrorKind(outcome.Err), outcome.Err)
	case outcome.Record != nil && outcome.Record.Verification.Status != "":
		return verificationText(outcome.Record.Verification)
	}
	return ""
}

func formatArgs(args models.ResolvedArgs) string {
	if len(args) == 0 {
		return faintStyle.Sprint("(none)")
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		s := models.FormatValue(arg.Value)
		if arg.Pending {
			s = pendingStyle.Sprint(s)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}
