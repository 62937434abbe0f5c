// =============================================================================
// Unclaimed Funds Consolidator - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration. Everything the
// pipeline tunes lives here: folder paths, the year inclusion threshold, the
// marker strings driving folder/file classification, and the retry bounds for
// contended source files.
//
// CONFIGURATION FILE:
//   A single YAML file (config.yaml by default, overridable with --config).
//   Missing fields fall back to defaults; required directories are created on
//   load so a fresh checkout runs without manual setup.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// DURATION TYPE
// =============================================================================

// Duration wraps time.Duration so YAML values can be written as "2s", "500ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Value returns the underlying time.Duration.
func (d Duration) Value() time.Duration {
	return time.Duration(d)
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// RetrySettings bounds the retry loop around one source-file format.
// CSV and workbook sources are tuned independently; the reference setup uses
// a longer delay for CSV sources than for workbooks.
type RetrySettings struct {
	// Attempts is the maximum number of tries before a file is given up on.
	Attempts int `yaml:"attempts"`

	// Delay is the fixed wait between attempts. Fixed delay, not backoff:
	// the contending process is an interactive one that releases the file
	// within a handful of seconds or not at all.
	Delay Duration `yaml:"delay"`
}

// Config holds the full application configuration.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// SourceRoot is the directory containing the year-named source folders.
	// Default: "./source"
	SourceRoot string `yaml:"source_root"`

	// OutputDir is where the aggregated {year}{category}.csv files are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// LogDir is where per-run Log-{timestamp}.txt files are written.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// =========================================================================
	// INCLUSION / EXCLUSION RULES
	// =========================================================================

	// YearThreshold excludes folders whose extracted year falls below it.
	// Default: 2024
	YearThreshold int `yaml:"year_threshold"`

	// LegacyWorkbookYear is the one year whose loose workbook files are
	// skipped because equivalent CSV exports already exist. A data-migration
	// special case, not general policy.
	// Default: 2011
	LegacyWorkbookYear int `yaml:"legacy_workbook_year"`

	// ExclusionMarker excludes any folder whose path contains it.
	// Default: "RPS"
	ExclusionMarker string `yaml:"exclusion_marker"`

	// SourceMarker marks subfolders whose files are primary input.
	// Default: "Source"
	SourceMarker string `yaml:"source_marker"`

	// EmptyMarker marks files that are logged and skipped without processing.
	// The check is case-sensitive. Default: "EMPTY"
	EmptyMarker string `yaml:"empty_marker"`

	// SurvivorMarker routes a file to the Survivor output regardless of its
	// folder's category. The check is case-insensitive. Default: "SURVIVOR"
	SurvivorMarker string `yaml:"survivor_marker"`

	// HeaderMarker identifies header lines/rows to drop. A delimited line is
	// a header when it contains the marker (case-sensitive); a workbook row
	// is a header when its first cell contains it. Default: "Account"
	HeaderMarker string `yaml:"header_marker"`

	// =========================================================================
	// RETRY SETTINGS
	// =========================================================================

	// CSVRetry bounds retries for delimited-text sources.
	// Default: 5 attempts, 2s delay.
	CSVRetry RetrySettings `yaml:"csv_retry"`

	// WorkbookRetry bounds retries for spreadsheet sources.
	// Default: 5 attempts, 500ms delay.
	WorkbookRetry RetrySettings `yaml:"workbook_retry"`

	// =========================================================================
	// DISPATCH SETTINGS
	// =========================================================================

	// WorkbookExtensions lists the file extensions handled by the workbook
	// reader. Extensions are compared case-insensitively.
	// Default: [".xlsx", ".xlsm"]
	WorkbookExtensions []string `yaml:"workbook_extensions"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls run log verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// =============================================================================
// LOADING FUNCTIONS
// =============================================================================

// Load reads the configuration from a YAML file and applies defaults.
// Validation is a separate step: commands apply their flag overrides first,
// then call Validate on the final values.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read or parsed.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every field set to its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.SourceRoot == "" {
		cfg.SourceRoot = "./source"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "./logs"
	}
	if cfg.YearThreshold == 0 {
		cfg.YearThreshold = 2024
	}
	if cfg.LegacyWorkbookYear == 0 {
		cfg.LegacyWorkbookYear = 2011
	}
	if cfg.ExclusionMarker == "" {
		cfg.ExclusionMarker = "RPS"
	}
	if cfg.SourceMarker == "" {
		cfg.SourceMarker = "Source"
	}
	if cfg.EmptyMarker == "" {
		cfg.EmptyMarker = "EMPTY"
	}
	if cfg.SurvivorMarker == "" {
		cfg.SurvivorMarker = "SURVIVOR"
	}
	if cfg.HeaderMarker == "" {
		cfg.HeaderMarker = "Account"
	}
	if cfg.CSVRetry.Attempts == 0 {
		cfg.CSVRetry.Attempts = 5
	}
	if cfg.CSVRetry.Delay == 0 {
		cfg.CSVRetry.Delay = Duration(2 * time.Second)
	}
	if cfg.WorkbookRetry.Attempts == 0 {
		cfg.WorkbookRetry.Attempts = 5
	}
	if cfg.WorkbookRetry.Delay == 0 {
		cfg.WorkbookRetry.Delay = Duration(500 * time.Millisecond)
	}
	if len(cfg.WorkbookExtensions) == 0 {
		cfg.WorkbookExtensions = []string{".xlsx", ".xlsm"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks the configuration and creates the output and log
// directories if they don't exist. The source root is checked but never
// created; a missing source tree is a caller mistake, not something to
// paper over with an empty directory.
func (cfg *Config) Validate() error {
	if cfg.CSVRetry.Attempts < 1 || cfg.WorkbookRetry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}

	for _, dir := range []string{cfg.OutputDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(cfg.SourceRoot); err != nil {
		return fmt.Errorf("source root %s: %w", cfg.SourceRoot, err)
	}

	return nil
}
