package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/progress"
	"github.com/trebuchet-org/vault-deployer/internal/app"
	"github.com/trebuchet-org/vault-deployer/internal/cli/render"
	"github.com/trebuchet-org/vault-deployer/internal/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// reportedError wraps a failure whose details were already rendered
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command and returns the process exit code
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), render.FormatError(err))
		}
		return 1
	}
	return 0
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vault-deployer",
		Short: "Deploys the reward sentinel, strategy and vault contracts in order",
		Long: `vault-deployer runs a deployment plan against a network profile: each contract is
deployed and confirmed before the next one starts, then the post-deploy
configuration calls run in order. The first failure stops the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			quiet := v.GetBool("json") || v.GetBool("non_interactive")
			sink := progressSinkFor(cmd.Name(), quiet, cmd.OutOrStdout(), cmd.ErrOrStderr())

			// Initialize app with DI
			appInstance, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network profile (e.g. local, testnet, mainnet)")
	rootCmd.PersistentFlags().StringP("plan", "p", "", "Deployment plan file (defaults to the built-in plan)")
	rootCmd.PersistentFlags().String("artifacts", "", "Compiled artifacts directory (defaults to deploy.toml compiler.artifacts)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall command timeout (0 disables)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	planCmd := NewPlanCmd()
	planCmd.GroupID = "main"
	rootCmd.AddCommand(planCmd)

	verifyCmd := NewVerifyCmd()
	verifyCmd.GroupID = "main"
	rootCmd.AddCommand(verifyCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// progressSinkFor picks the progress sink of a command. Quiet runs get no progress output.
func progressSinkFor(cmdName string, quiet bool, out, errOut io.Writer) usecase.ProgressSink {
	if quiet {
		return progress.NewNopSink()
	}
	switch cmdName {
	case "deploy":
		return progress.NewDeployProgress(render.NewDeployRenderer(out))
	case "verify":
		return progress.NewVerifyProgress(errOut, isTerminal(errOut))
	default:
		return progress.NewNopSink()
	}
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
