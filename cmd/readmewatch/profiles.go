package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/notify"
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List available profiles",
	Long:  `List built-in profiles and any loaded from PROFILES_FILE. The active profile is marked with *.`,
	Args:  cobra.NoArgs,
	RunE:  runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	printProfiles(cmd.OutOrStdout(), cfg.Profiles(), cfg.ProfileName)
	return nil
}

func printProfiles(w io.Writer, profiles map[string]config.Profile, active string) {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := profiles[name]
		marker := " "
		if name == active {
			marker = "*"
		}

		fmt.Fprintf(w, "%s %s: %s\n", marker, name, p.Description)
		fmt.Fprintf(w, "    source:   %s\n", p.SourceURL)
		fmt.Fprintf(w, "    target:   %s\n", p.TargetURL)
		fmt.Fprintf(w, "    interval: %s\n", notify.FormatInterval(p.Interval))
		fmt.Fprintf(w, "    mode:     %s\n", p.Mode)
		if p.Mode == config.ModeRecords {
			fmt.Fprintf(w, "    table:    %s, %s\n", p.Format(), windowLabel(p.MaxRecords))
		}
		if p.Private {
			fmt.Fprintf(w, "    private:  requires GITHUB_TOKEN\n")
		}
		if err := p.Validate(); err != nil {
			fmt.Fprintf(w, "    invalid:  %v\n", err)
		}
	}
}

func windowLabel(n int) string {
	if n == 0 {
		return "all rows"
	}
	return fmt.Sprintf("first %d rows", n)
}
