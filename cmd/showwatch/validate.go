package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/showgrid/showwatch/config"
	"github.com/showgrid/showwatch/roster"
)

// validateCmd validates a config file and its roster without running.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file and its roster",
	Long: `Validate a showwatch configuration file without starting a run.

This command parses the YAML, expands environment variables, validates all
fields, and counts the usable rows in the referenced roster. It's useful
for CI/CD pipelines or pre-run checks.

Exit codes:
  0 - Config and roster are valid
  1 - Config is invalid (error details printed to stderr)

Example:
  showwatch validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	entries, err := roster.Load(cfg.Roster)
	if err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Stop threshold: %s\n", cfg.StopThreshold.Duration())
	fmt.Printf("  Retry budget:   %d\n", cfg.RetryBudget)
	fmt.Printf("  Adapter:        %s\n", cfg.Adapter)
	fmt.Printf("  Roster:         %s (%d cinemas)\n", cfg.Roster, len(entries))
	if cfg.Postgres.DSN != "" {
		fmt.Printf("  Postgres:       enabled (schema %s)\n", cfg.Postgres.Schema)
	}

	return nil
}
