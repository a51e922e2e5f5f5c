package main

import (
	"context"
	"fmt"
	"io"

	"github.com/abdulachik/readmewatch/internal/app"
	"github.com/abdulachik/readmewatch/internal/db"
	"github.com/spf13/cobra"
)

const historyTimeFormat = "2006-01-02 15:04:05"

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [profile]",
	Short: "Show recorded checks and notifications",
	Long: `Display recent checks and notification attempts recorded in the
history database. Requires DATABASE_PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of entries to show per table")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if err := cfg.ValidateForHistory(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	store, err := app.OpenStore(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	return printHistory(ctx, cmd.OutOrStdout(), store, cfg.ProfileName, historyLimit)
}

func printHistory(ctx context.Context, w io.Writer, store *db.Store, profile string, limit int) error {
	totalChecks, err := store.CountChecks(ctx, profile)
	if err != nil {
		return fmt.Errorf("count checks: %w", err)
	}

	delivered, err := store.CountDeliveredNotifications(ctx, profile)
	if err != nil {
		return fmt.Errorf("count notifications: %w", err)
	}

	checks, err := store.ListRecentChecks(ctx, db.ListRecentChecksParams{
		Profile: profile,
		Limit:   int64(limit),
	})
	if err != nil {
		return fmt.Errorf("list checks: %w", err)
	}

	notifications, err := store.ListRecentNotifications(ctx, db.ListRecentNotificationsParams{
		Profile: profile,
		Limit:   int64(limit),
	})
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	fmt.Fprintf(w, "=== History: %s ===\n\n", profile)
	fmt.Fprintf(w, "Checks: %d\n", totalChecks)
	fmt.Fprintf(w, "Delivered notifications: %d\n\n", delivered)

	if len(checks) > 0 {
		fmt.Fprintln(w, "Recent checks:")
		for _, c := range checks {
			status := "unchanged"
			switch {
			case c.Error.Valid:
				status = "error: " + c.Error.String
			case c.Changed:
				status = "changed"
			}
			fmt.Fprintf(w, "  %s  %-24s %s\n", c.CheckedAt.Local().Format(historyTimeFormat), c.Fingerprint, status)
		}
		fmt.Fprintln(w)
	}

	if len(notifications) > 0 {
		fmt.Fprintln(w, "Recent notifications:")
		for _, n := range notifications {
			status := "delivered"
			if !n.Delivered {
				status = "failed"
				if n.Error.Valid {
					status += ": " + n.Error.String
				}
			}
			fmt.Fprintf(w, "  %s  %-7s %s (%s)\n", n.SentAt.Local().Format(historyTimeFormat), n.Kind, n.Summary, status)
		}
		fmt.Fprintln(w)
	}

	return nil
}
