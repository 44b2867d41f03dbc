package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the plan to a network profile",
		Long: `Deploy every contract of the plan in order, waiting for each transaction to be
confirmed before the next one is submitted, then run the post-deploy actions.

The plan and profile are validated before anything is sent. On failure the
failed step, its fault kind and every address deployed so far are printed,
and the command exits with status 1. A failed run can be continued with
--resume, which reuses the recorded addresses after checking they hold code.

Interrupting (Ctrl-C) waits for the in-flight transaction and stops before
the next step.`,
		Example: `  # Deploy the built-in plan to a local node
  vault-deployer deploy --network local

  # Validate against testnet without sending anything
  vault-deployer deploy --network testnet --dry-run

  # Continue a failed mainnet run, machine-readable output
  vault-deployer deploy --network mainnet --resume --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config

			// Stop between steps on SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			params := usecase.DeployPlanParams{
				Network:  cfg.Network,
				PlanPath: cfg.PlanPath,
				Resume:   cfg.Resume,
				DryRun:   cfg.DryRun,
				Yes:      cfg.Yes,
			}

			result, runErr := app.DeployPlan.Run(ctx, params)

			renderer := render.NewDeployRenderer(cmd.OutOrStdout())
			if cfg.JSON {
				if err := renderer.RenderJSON(result, runErr); err != nil {
					return err
				}
			} else {
				renderer.RenderResult(result, runErr)
			}

			if runErr != nil {
				return &reportedError{err: runErr}
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.Flags().Bool("resume", false, "Continue the last failed run of this plan on this network")
	cmd.Flags().Bool("dry-run", false, "Validate the plan and profile, then stop before connecting")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt of protected profiles")
	cmd.Flags().Duration("confirm-timeout", 0, "Override the profile's per-transaction confirmation timeout")

	return cmd
}
