// Package main implements the coachd daemon: the session notebook, report,
// and webhook service for conversational financial coaching.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location.
	configPath string
	// version information, set via ldflags at build time.
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "coachd",
	Short: "Financial coaching session daemon",
	Long: `coachd maintains session notebooks for conversational financial coaching:
it correlates partner conversation webhooks to local sessions, extracts
financial data from transcripts, and generates post-session reports.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/coachd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the coachd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("coachd %s\n", version)
	},
}
