package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysrpc/internal/config"
	"github.com/rileyhilliard/sysrpc/internal/errors"
	"github.com/rileyhilliard/sysrpc/internal/logger"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sysrpc",
		Short: "Show live host stats in your Discord profile",
		Long: `sysrpc samples CPU, memory, disk and network usage on a fixed interval
and shows one stat at a time as your Discord Rich Presence.

The Discord desktop client must be running on the same machine. Without a
client id (or with --console) the stats are printed to the terminal instead.

Examples:
  sysrpc
  sysrpc --rpc-update-interval 15 --show-os
  sysrpc --console --show-swap`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return runPresence(cmd.Context(), cfg, defaultRunDeps(cmd.OutOrStdout()))
		},
	}

	config.RegisterFlags(cmd.Flags())
	config.RegisterPersistentFlags(cmd.PersistentFlags())
	cmd.SetFlagErrorFunc(flagError)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSampleCmd())
	return cmd
}

// setupLogging applies --log-level and --no-color to the shared logger.
func setupLogging(cmd *cobra.Command) error {
	level, _ := cmd.Flags().GetString(config.FlagLogLevel)
	if err := logger.SetLevel(level); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Unknown log level '%s'", level),
			"Use one of: debug, info, warn, error")
	}
	if noColor, err := cmd.Flags().GetBool(config.FlagNoColor); err == nil && noColor {
		logger.DisableColors()
	}
	return nil
}

// flagError turns cobra/pflag parse errors into CONFIG errors.
func flagError(cmd *cobra.Command, err error) error {
	return errors.WrapWithCode(err, errors.ErrConfig,
		"Invalid command-line arguments",
		fmt.Sprintf("Run '%s --help' to see valid flags", cmd.CommandPath()))
}

// Execute runs the root command and exits non-zero on error. SIGINT and
// SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprint(os.Stderr, errors.Render(err))
		if code, ok := errors.GetExitCode(err); ok {
			os.Exit(code)
		}
		os.Exit(1)
	}
}
