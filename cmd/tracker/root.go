package main

import (
	"context"
	"os/signal"
	"syscall"

	"freight-tracker/internal/app"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(app.NewTracker)
}

func buildRootCommand(factory trackerFactory) *cobra.Command {
	var configDir string

	ctx := newCommandContext(&configDir, factory)

	rootCmd := &cobra.Command{
		Use:           "tracker",
		Short:         "Track LTL freight shipments across carrier websites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing the .env file")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newPickupCommand(ctx))
	rootCmd.AddCommand(newCarriersCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}

// signalContext cancels on SIGINT/SIGTERM so in-flight browsers get killed.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
