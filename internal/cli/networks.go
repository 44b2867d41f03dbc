package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List network profiles",
		Long: `List the network profiles from deploy.toml (or the built-in ones when the file
has no [profiles] table) and whether their credentials are available.

No node is contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{})
			if err != nil {
				return err
			}

			renderer := render.NewNetworksRenderer(cmd.OutOrStdout())
			return renderer.RenderNetworksList(result)
		},
	}

	return cmd
}
