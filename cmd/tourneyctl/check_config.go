package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/tourneyconfig"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check_config",
	Short: "Validate this tournament's configuration files without starting it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := bootstrap.Paths{StateDir: stateDir}
		if err := paths.EnsureDirs(); err != nil {
			return fmt.Errorf("creating state tree: %w", err)
		}

		assignCfg, err := tourneyconfig.LoadAssignmentConfig(paths.ConfigDir())
		if err != nil {
			return err
		}
		if _, err := tourneyconfig.LoadApprovedSubmittersConfig(paths.ConfigDir()); err != nil {
			return err
		}
		if _, err := tourneyconfig.LoadServerConfig(paths.ConfigDir()); err != nil {
			return err
		}

		result := tourneyconfig.CheckAssignmentConfig(assignCfg, assignment.RegisteredTypes())
		if !result.Success {
			return fmt.Errorf("%s", result.Traces)
		}

		fmt.Println("Configuration OK")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}
