package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [component]",
		Short: "Show a deployment and its history",
		Long: `Show the current ledger record of a component on a network together
with every recorded attempt.

Without a component name you are asked to pick one from the ledger.`,
		Example: `  catapult show Vault --network sepolia
  catapult show -n sepolia`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			if app.Config.NetworkName == "" {
				return fmt.Errorf("no network specified, use --network or CATAPULT_NETWORK")
			}

			var component string
			if len(args) > 0 {
				component = args[0]
			} else {
				list, err := app.ListDeployments.Run(cmd.Context(), usecase.ListDeploymentsParams{
					NetworkName: app.Config.NetworkName,
				})
				if err != nil {
					return err
				}
				selected, err := app.Selector.SelectComponent(cmd.Context(), list.Deployments, "Select a component")
				if err != nil {
					return err
				}
				component = selected.Component
			}

			result, err := app.ShowDeployment.Run(cmd.Context(), usecase.ShowDeploymentParams{
				Component:   component,
				NetworkName: app.Config.NetworkName,
			})
			if err != nil {
				return fmt.Errorf("failed to show deployment: %w", err)
			}

			return render.NewDeploymentRenderer(cmd.OutOrStdout()).RenderDeployment(result)
		},
	}

	return cmd
}
