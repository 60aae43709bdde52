package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"tourney/internal/bootstrap"
	"tourney/internal/flagstore"
	"tourney/internal/scheduler"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove all submissions, tournament state, and configuration, resetting this tournament to pristine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := flagstore.New(stateDir)
		if flags.Get(flagstore.Alive) {
			return fmt.Errorf("tournament is still online; run shutdown first")
		}

		paths := bootstrap.Paths{StateDir: stateDir}
		dirs := []string{
			paths.PreValidationDir(),
			paths.StagedDir(),
			paths.TourneyDir(),
			paths.HeadToHeadDir(),
		}
		files := []string{
			paths.StateFile(),
			paths.TracesLog(),
			paths.ResultsFile(),
			filepath.Join(paths.ConfigDir(), "assignment_config.json"),
			filepath.Join(paths.ConfigDir(), "approved_submitters.json"),
			filepath.Join(paths.ConfigDir(), "server_config.json"),
			filepath.Join(paths.ConfigDir(), "email_config.json"),
		}

		archives, err := filepath.Glob(filepath.Join(paths.SnapshotArchiveDir(), "snapshot_*.json"))
		if err != nil {
			return err
		}
		files = append(files, archives...)

		if err := scheduler.Clean(dirs, files, flags); err != nil {
			return err
		}
		fmt.Println("Tournament reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
