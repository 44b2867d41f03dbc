package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show and validate a deployment plan",
		Long: `Show the deployment plan and run the pre-flight checks: references, constructor
arguments and artifacts. With --network the contract size limit of that profile
is checked as well. Nothing is sent to any node.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowPlan.Run(cmd.Context(), usecase.ShowPlanParams{
				PlanPath: app.Config.PlanPath,
				Network:  app.Config.Network,
			})
			if err != nil {
				return err
			}

			renderer := render.NewPlanRenderer(cmd.OutOrStdout())
			if err := renderer.RenderPlan(result); err != nil {
				return err
			}

			if !result.Valid() {
				return &reportedError{err: fmt.Errorf("plan has %d issue(s)", len(result.Issues))}
			}
			return nil
		},
	}

	return cmd
}
