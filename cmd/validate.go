// =============================================================================
// Unclaimed Funds Consolidator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which loads and validates the
// configuration without processing anything. Useful before pointing a run at
// a shared drive: it confirms the source root is reachable and creates the
// output and log directories.
//
// COMMAND USAGE:
//   consolidator validate
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without processing any files",

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		fmt.Println("Configuration OK")
		fmt.Printf("  Source root:       %s\n", cfg.SourceRoot)
		fmt.Printf("  Output directory:  %s\n", cfg.OutputDir)
		fmt.Printf("  Log directory:     %s\n", cfg.LogDir)
		fmt.Printf("  Year threshold:    %d\n", cfg.YearThreshold)
		fmt.Printf("  Exclusion marker:  %q\n", cfg.ExclusionMarker)
		fmt.Printf("  Source marker:     %q\n", cfg.SourceMarker)
		fmt.Printf("  Header marker:     %q\n", cfg.HeaderMarker)
		fmt.Printf("  CSV retry:         %d attempts, %s delay\n",
			cfg.CSVRetry.Attempts, cfg.CSVRetry.Delay.Value())
		fmt.Printf("  Workbook retry:    %d attempts, %s delay\n",
			cfg.WorkbookRetry.Attempts, cfg.WorkbookRetry.Delay.Value())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
