package main

import (
	"context"
	"fmt"

	"github.com/abdulachik/readmewatch/internal/app"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping [profile]",
	Short: "Send the startup notification",
	Long: `Send the startup embed for a profile to the configured webhook and exit.
Useful to verify DISCORD_WEBHOOK_URL before starting the monitor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateForNotify(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Scheduler.Announce(ctx); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Startup notification sent for %s.\n", a.Profile.Name)
	return nil
}
