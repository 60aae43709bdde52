// Command tourneyctl is the operator-facing backend CLI: check_config,
// clean, start_tournament, shutdown, report, export_results, get_diffs,
// rescore_invalid_progs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tourney/pkg/logging"
)

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

var stateDir string

var rootCmd = &cobra.Command{
	Use:           "tourneyctl",
	Short:         "Operate a running or offline tournament",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the command tree and exits with ExitCodeError on failure.
func Execute() {
	logging.InitForCLI(logging.LevelInfo, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "./state", "root directory of this tournament's persistent state")
}
