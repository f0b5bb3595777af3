package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/catapult/internal/cli/render"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "verify [component]",
		Short: "Verify a deployed component on the block explorer",
		Long: `Verify the source of a confirmed deployment with forge and record the
outcome in the ledger. Verification never changes the deployment status.`,
		Example: `  catapult verify Vault --network sepolia
  catapult verify Vault -n sepolia --force   # verify again even if already verified`,
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
				selected, err := app.Selector.SelectComponent(cmd.Context(), list.Deployments, "Select a component to verify")
				if err != nil {
					return err
				}
				component = selected.Component
			}

			result, err := app.VerifyDeployment.Run(cmd.Context(), usecase.VerifyParams{
				Component:   component,
				NetworkName: app.Config.NetworkName,
				Force:       force,
			})
			if err != nil {
				return err
			}

			if err := render.NewVerifyRenderer(cmd.OutOrStdout()).RenderVerifyResult(result); err != nil {
				return err
			}
			if !result.Success() {
				return fmt.Errorf("verification of %s failed", component)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-verify even if already verified")

	return cmd
}
