package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/domain/models"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		component string
		status    string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployments from the ledger",
		Long: `List the current deployment of every component in the ledger.

Without --network every network with a ledger is listed.`,
		Example: `  # List all deployments
  catapult list

  # List sepolia deployments that failed
  catapult list -n sepolia --status failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			var deploymentStatus models.DeploymentStatus
			if status != "" {
				switch deploymentStatus = models.DeploymentStatus(strings.ToUpper(status)); deploymentStatus {
				case models.DeploymentStatusConfirmed, models.DeploymentStatusPending, models.DeploymentStatusFailed:
				default:
					return fmt.Errorf("invalid status: %s (valid: confirmed, pending, failed)", status)
				}
			}

			result, err := app.ListDeployments.Run(cmd.Context(), usecase.ListDeploymentsParams{
				NetworkName: app.Config.NetworkName,
				Component:   component,
				Status:      deploymentStatus,
			})
			if err != nil {
				return err
			}

			return render.NewDeploymentsRenderer(cmd.OutOrStdout()).RenderDeploymentList(result)
		},
	}

	cmd.Flags().StringVar(&component, "component", "", "Filter by component name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (confirmed, pending, failed)")

	return cmd
}
