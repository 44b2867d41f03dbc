package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// NewVerifyCmd creates the verify command
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [step...]",
		Short: "Verify deployed contracts on block explorers",
		Long: `Verify the sources of the contracts recorded in deployments/<network>.json on
the profile's Etherscan-compatible explorer and on Sourcify, using
forge verify-contract.

Examples:
  vault-deployer verify --network mainnet                # every contract in the manifest
  vault-deployer verify Strategy Vault --network mainnet # selected steps only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.VerifyDeployment.Run(cmd.Context(), usecase.VerifyDeploymentParams{
				Network:   app.Config.Network,
				Contracts: args,
			})
			if err != nil {
				return err
			}

			renderer := render.NewVerifyRenderer(cmd.OutOrStdout())
			if err := renderer.RenderVerifyResult(result); err != nil {
				return err
			}

			if result.Failed > 0 {
				return &reportedError{err: fmt.Errorf("%d verification(s) failed", result.Failed)}
			}
			return nil
		},
	}

	return cmd
}
