// Command tourney-submit is the frontend CLI a CI pipeline invokes once per
// submission stage: check_eligibility, compile, validate_tests,
// validate_progs, submit. Each subcommand is a thin wrapper around one
// validator.Pipeline method, translating its Result into an exit code and
// stdout traces.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tourney/pkg/logging"
)

// Exit codes for tourney-submit. A stage Result with Success == false is
// the expected "this submission failed validation" outcome and exits 1, as
// does a submitter login that is not on the approved list; anything that
// kept the pipeline from even running (bad --state-dir, malformed config)
// exits 2.
const (
	ExitCodeSuccess = 0
	ExitCodeFailed  = 1
	ExitCodeError   = 2
)

var stateDir string

var rootCmd = &cobra.Command{
	Use:   "tourney-submit",
	Short: "Run one stage of a submission through the tournament's validation pipeline",
	// SilenceUsage and SilenceErrors: a stage Result's own traces are
	// printed to stdout before the exit code carries the outcome; cobra's
	// default "Error: ..." banner would just repeat that in less detail.
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the command tree and exits the process with the exit code
// the stage Result (or setup error) implies.
func Execute() {
	logging.InitForCLI(logging.LevelInfo, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if ce, ok := err.(*cliError); ok {
			if ce.code != ExitCodeFailed {
				fmt.Fprintln(os.Stderr, ce.err)
			}
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCodeError)
	}
}

// cliError carries an explicit exit code through cobra's error return path.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func failf(code int, format string, args ...any) error {
	return &cliError{code: code, err: fmt.Errorf(format, args...)}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "./state", "root directory of this tournament's persistent state")
}
