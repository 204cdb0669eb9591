package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/httprun/packages/core/runner"
	"github.com/abdul-hamid-achik/httprun/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the requests in a .http file",
	Long: `Run executes every request in a .http file in order, substituting
variables, sending each request, and evaluating any attached handler
script.

Examples:
  httprun run api.http
  httprun run api.http --env staging
  httprun run api.http --name createUser
  httprun run api.http --index 2
  httprun run api.http --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

var (
	envFlag     string
	envFileFlag string
	nameFlag    string
	indexFlag   int
	verboseFlag bool
	dryRunFlag  bool
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", "", "Environment profile to use from http-client.env.json")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", "", "Path to the environment profile file (default: http-client.env.json next to the request file)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only requests whose name contains this substring")
	runCmd.Flags().IntVar(&indexFlag, "index", 0, "Run only the request at this 1-based position (takes precedence over --name)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print full request/response headers and bodies and handler log() output alongside results")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Resolve and print requests without sending them")
}

func runCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(verboseFlag),
	)
	formatter.FormatHeader(version)

	cfg := &runner.Config{
		EnvFile:    envFileFlag,
		Profile:    envFlag,
		NameFilter: nameFlag,
		Index:      indexFlag,
		Verbose:    verboseFlag,
		DryRun:     dryRunFlag,
		Timeout:    30 * time.Second,
	}

	r := runner.NewRunner(cfg)

	result, err := r.RunFile(path)
	if err != nil {
		formatter.FormatError(err)
		return err
	}

	formatter.FormatResult(result)

	if result.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
