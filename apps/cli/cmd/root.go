package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "httprun",
	Short: "Plain text HTTP request files. No magic.",
	Long: `httprun executes .http request files: plain text files that look
like actual HTTP requests, with in-place and environment variable
substitution and optional JavaScript handler scripts for assertions.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
