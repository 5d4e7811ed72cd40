// Package main is the entry point for the showwatch CLI.
//
// Usage:
//
//	showwatch run -c config.yaml                       # Monitor the roster
//	showwatch run -c config.yaml --stop-threshold 120  # Override the threshold
//	showwatch validate -c config.yaml                  # Validate config + roster
//	showwatch version                                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "showwatch",
	Short: "A deadline-aware cinema availability monitor",
	Long: `Showwatch monitors a fixed roster of cinemas for a single day.

It polls each cinema's schedule, rescans each one based on the soonest
show that has not yet reached its stop threshold, and appends one final
availability snapshot per cinema to an append-only CSV (and optionally
Postgres). The process exits on its own once every cinema is done.

Quick start:
  1. Create a config file (showwatch.yaml) and a roster CSV
  2. Run: showwatch run -c showwatch.yaml --stop-threshold 120

Example config:
  stop_threshold: 120s
  roster: appdata/cinemas.csv
  adapter: http
  base_url: https://upstream.example.com`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	// optional local env files; missing files are fine
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this showwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("showwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
