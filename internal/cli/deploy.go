package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/app"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/domain"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// DefaultManifest is used when --manifest is not given
const DefaultManifest = "catapult.yaml"

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	var (
		manifestPath string
		force        bool
		dryRun       bool
		yes          bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy every component of a manifest to a network",
		Long: `Deploy the components of a manifest to a network in dependency order.

Components already confirmed in the ledger are skipped unless --force is given.
A failed component blocks its dependents; unrelated components still deploy.`,
		Example: `  # Deploy catapult.yaml to sepolia
  catapult deploy --network sepolia

  # Show what would be deployed without submitting anything
  catapult deploy -n sepolia -m contracts/core.yaml --dry-run

  # Redeploy everything, verify sources, no prompt
  catapult deploy -n sepolia --force --verify --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.NetworkName == "" {
				return fmt.Errorf("no network specified, use --network or CATAPULT_NETWORK")
			}

			params := usecase.DeployParams{
				ManifestPath: resolveManifestPath(app, manifestPath),
				NetworkName:  app.Config.NetworkName,
				Force:        force,
				DryRun:       dryRun,
				Workers:      app.Config.Deploy.Workers,
				Verify:       app.Config.Deploy.Verify,
			}
			renderer := render.NewPlanRenderer(cmd.OutOrStdout())

			if !dryRun {
				plan, err := app.OrchestrateDeployment.Plan(cmd.Context(), params.ManifestPath)
				if err != nil {
					return err
				}
				renderer.RenderPlan(plan, params.NetworkName)
			}

			if !dryRun && !yes && !app.Config.NonInteractive {
				confirmed, err := app.Confirmer.Confirm(cmd.Context(),
					fmt.Sprintf("Deploy to %s", params.NetworkName))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Deployment cancelled.")
					return nil
				}
			}

			result, err := app.OrchestrateDeployment.Execute(cmd.Context(), params)
			if result != nil {
				if dryRun {
					renderer.RenderDryRun(result)
				} else {
					renderer.RenderDeployResult(result)
				}
			}
			if err != nil {
				return err
			}
			return deployExitError(result)
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", DefaultManifest, "Manifest file to deploy")
	cmd.Flags().BoolVar(&force, "force", false, "Redeploy components already confirmed in the ledger")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build the plan and resolve arguments without submitting")
	cmd.Flags().Int("workers", 0, "Maximum concurrent deployments (default from catapult.toml, else 4)")
	cmd.Flags().Bool("verify", false, "Verify sources on the block explorer after each deployment")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the deployment plan of a manifest",
		Long: `Show the components of a manifest in deployment order.

With --network the arguments are resolved against the ledger and the
command reports what a deploy would do, like deploy --dry-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			path := resolveManifestPath(app, manifestPath)
			renderer := render.NewPlanRenderer(cmd.OutOrStdout())

			if app.Config.NetworkName == "" {
				plan, err := app.OrchestrateDeployment.Plan(cmd.Context(), path)
				if err != nil {
					return err
				}
				renderer.RenderPlan(plan, "")
				return nil
			}

			result, err := app.OrchestrateDeployment.Execute(cmd.Context(), usecase.DeployParams{
				ManifestPath: path,
				NetworkName:  app.Config.NetworkName,
				DryRun:       true,
			})
			if err != nil {
				return err
			}
			renderer.RenderDryRun(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", DefaultManifest, "Manifest file to plan")

	return cmd
}

// resolveManifestPath falls back to the project root for relative paths
// that do not exist in the working directory
func resolveManifestPath(app *app.App, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(app.Config.ProjectRoot, path)
}

// deployExitError turns an unsuccessful run into a command error naming
// the first component that did not deploy
func deployExitError(result *usecase.DeployResult) error {
	if result.Success() {
		return nil
	}
	first := result.FirstFailure()
	if first == nil {
		return fmt.Errorf("deployment did not complete")
	}
	switch first.Status {
	case usecase.ComponentFailed:
		return fmt.Errorf("%s failed (%s): %w", first.Name, domain.ErrorKind(first.Err), first.Err)
	case usecase.ComponentBlocked:
		return fmt.Errorf("%s blocked by %s", first.Name, first.BlockedBy)
	default:
		return fmt.Errorf("%s was not deployed", first.Name)
	}
}
