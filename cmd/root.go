// =============================================================================
// Unclaimed Funds Consolidator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (consolidator)
//   ├── consolidateCmd (consolidator consolidate)
//   ├── validateCmd    (consolidator validate)
//   └── versionCmd     (consolidator version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/unclaimed-funds-consolidator/internal/config"
	"github.com/ginjaninja78/unclaimed-funds-consolidator/pkg/utils"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// defaultConfigFile is used when --config is not given; if the file does not
// exist the built-in defaults apply.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug-level logging when set.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "Unclaimed Funds Consolidator - Merge yearly source files into aggregated CSVs",

	Long: `Unclaimed Funds Consolidator walks a shared-drive tree of year-named
folders holding unclaimed-funds exports (CSV and spreadsheet), classifies each
folder and file by year and category, and appends every data row into one
aggregated CSV per (year, category) pair.

Key Features:
  - Pension / Group / Survivor classification from folder and file names
  - Handles both .csv exports and multi-sheet workbooks
  - Bounded retry when a source file is held open by another process
  - Per-run timestamped log mirrored to the console

Example Usage:
  consolidator consolidate                     # Run with config.yaml (or defaults)
  consolidator consolidate --source //dmf/2024 # Override the source root
  consolidator consolidate --dry-run           # Walk and classify, write nothing
  consolidator validate                        # Check configuration without processing`,

	Run: func(cmd *cobra.Command, args []string) {
		// No subcommand given: print the help message.
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug-level logging",
	)
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// loadConfig loads the configuration file named by --config. When the flag
// is left at its default and no such file exists, the built-in defaults are
// used; an explicitly named file must exist.
func loadConfig() (*config.Config, error) {
	if cfgFile == defaultConfigFile && !utils.FileExists(cfgFile) {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}
