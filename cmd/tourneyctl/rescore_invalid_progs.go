package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/snapshot"
)

var invalidMarkers = map[string]bool{"Y": true, "y": true, "True": true, "true": true, "X": true, "x": true}
var validMarkers = map[string]bool{"N": true, "n": true, "": true}

var rescoreInvalidProgsCmd = &cobra.Command{
	Use:   "rescore_invalid_progs",
	Short: "Zero out the score of every prog marked invalid in the diffs CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := bootstrap.Load(stateDir)
		if err != nil {
			return fmt.Errorf("loading tournament state: %w", err)
		}

		f, err := os.Open(res.Paths.ProgDiffsCSV())
		if err != nil {
			return fmt.Errorf("opening %s (run get_diffs first): %w", res.Paths.ProgDiffsCSV(), err)
		}
		defer f.Close()

		r := csv.NewReader(f)
		header, err := r.Read()
		if err != nil {
			return fmt.Errorf("reading %s header: %w", res.Paths.ProgDiffsCSV(), err)
		}
		col := columnIndex(header)

		numInvalid := 0
		for {
			record, err := r.Read()
			if err != nil {
				break
			}
			marker := record[col["invalid?"]]
			submitter := record[col["submitter"]]
			switch {
			case invalidMarkers[marker]:
				progs, err := res.Adapter.ProgramsList(filepath.Join(res.Paths.TourneyDir(), submitter))
				if err != nil {
					return fmt.Errorf("listing %s's programs: %w", submitter, err)
				}
				for _, prog := range progs {
					res.State.InvalidateProg(assignment.Submitter(submitter), prog)
				}
				numInvalid += len(progs)
			case validMarkers[marker]:
				continue
			default:
				return fmt.Errorf("unrecognised value %q in the 'invalid?' column for %s; use one of %v for valid or %v for invalid",
					marker, submitter, []string{"N", "n", "(empty)"}, []string{"Y", "y", "X", "x"})
			}
		}

		if err := res.State.Save(res.Paths.StateFile()); err != nil {
			return fmt.Errorf("saving tournament state: %w", err)
		}

		snap := snapshot.Build(res.State, res.Adapter, res.Tests, res.Progs, time.Now(), 0)
		if err := snapshot.Save(res.Paths.ResultsFile(), snap, res.Paths.SnapshotArchiveDir(), true); err != nil {
			return err
		}

		fmt.Printf("%d invalid programs have had their score set to zero\n", numInvalid)
		return nil
	},
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

func init() {
	rootCmd.AddCommand(rescoreInvalidProgsCmd)
}
