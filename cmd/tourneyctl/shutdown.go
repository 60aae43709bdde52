package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tourney/internal/flagstore"
	"tourney/pkg/logging"
)

var shutdownMessage string

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Ask a running tournament daemon to exit after its current request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := flagstore.New(stateDir)
		if !flags.Get(flagstore.Alive) {
			return fmt.Errorf("tournament is not running")
		}
		if err := flags.Set(flagstore.ShuttingDown, true); err != nil {
			return err
		}
		logging.Audit(logging.AuditEvent{
			Action:  "shutdown_requested",
			Outcome: "success",
			Details: shutdownMessage,
		})
		fmt.Println("Shutdown requested; the daemon will exit after the request it is currently processing. Queued requests stay in the queue.")
		return nil
	},
}

func init() {
	shutdownCmd.Flags().StringVar(&shutdownMessage, "message", "", "reason recorded in the audit log alongside this shutdown request")
	rootCmd.AddCommand(shutdownCmd)
}
