package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tourney/internal/bootstrap"
	"tourney/internal/resultsserver"
	"tourney/internal/scoretable"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the tournament's most recently saved scoreboard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := bootstrap.Paths{StateDir: stateDir}
		snap, err := resultsserver.FileSnapshotReader(paths.ResultsFile())()
		if err != nil {
			return fmt.Errorf("reading %s: %w", paths.ResultsFile(), err)
		}

		switch reportFormat {
		case "table", "":
			fmt.Print(scoretable.Render(snap))
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		default:
			return fmt.Errorf("unknown --format %q, want table or json", reportFormat)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "table", "output format: table or json")
	rootCmd.AddCommand(reportCmd)
}
