package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var checkMode bool

var rootCmd = &cobra.Command{
	Use:   "readmewatch [profile]",
	Short: "Watch a GitHub README and announce changes to Discord",
	Long: `readmewatch polls a file in a GitHub repository and posts a Discord
embed whenever it changes. In records mode it extracts the job table and
announces only newly added rows.

The profile comes from the first argument, or MONITOR_ENV (default: test).

Examples:
  readmewatch               # Watch the test profile
  readmewatch prod          # Watch the prod profile
  readmewatch --check prod  # Fetch the prod table once and print its records`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	// Load .env file if present
	_ = godotenv.Load()

	setupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))

	rootCmd.Flags().BoolVar(&checkMode, "check", false, "Fetch the table once, print the extracted records and exit")
}

// setupLogging installs the default text logger on stderr, teeing to a
// rotating file when path is set.
func setupLogging(levelName, path string) {
	level := parseLevel(levelName)

	var w io.Writer = os.Stderr
	if path != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			LocalTime:  true,
		})
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
}

// parseLevel accepts debug, info, warn and error (any case), defaulting to info.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if checkMode {
		return runCheck(cmd.Context(), cfg, cmd.OutOrStdout())
	}
	return runWatch(cfg)
}

// loadConfig loads configuration and applies an optional profile argument.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if len(args) > 0 {
		cfg, err = cfg.WithProfile(args[0])
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
