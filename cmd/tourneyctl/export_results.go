package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tourney/internal/bootstrap"
	"tourney/internal/resultsserver"
	"tourney/internal/snapshot"
)

var exportResultsOut string

var exportResultsCmd = &cobra.Command{
	Use:   "export_results",
	Short: "Write the tournament's most recently saved scoreboard as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := bootstrap.Load(stateDir)
		if err != nil {
			return fmt.Errorf("loading tournament state: %w", err)
		}

		snap, err := resultsserver.FileSnapshotReader(res.Paths.ResultsFile())()
		if err != nil {
			return fmt.Errorf("reading %s: %w", res.Paths.ResultsFile(), err)
		}

		out := exportResultsOut
		if out == "" {
			out = res.Paths.StudentResultsCSV()
		}
		if err := snapshot.SaveCSV(out, snap, res.Tests, res.Progs); err != nil {
			return err
		}
		fmt.Println("Wrote", out)
		return nil
	},
}

func init() {
	exportResultsCmd.Flags().StringVar(&exportResultsOut, "out", "", "CSV output path (default: student_results.csv under --state-dir)")
	rootCmd.AddCommand(exportResultsCmd)
}
