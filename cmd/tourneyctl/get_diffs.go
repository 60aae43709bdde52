package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/resultsserver"
)

var getDiffsCmd = &cobra.Command{
	Use:   "get_diffs",
	Short: "Diff every submitter's programs against their submission's original program",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := bootstrap.Load(stateDir)
		if err != nil {
			return fmt.Errorf("loading tournament state: %w", err)
		}

		snap, err := resultsserver.FileSnapshotReader(res.Paths.ResultsFile())()
		if err != nil {
			return fmt.Errorf("reading %s (run start_tournament at least once first): %w", res.Paths.ResultsFile(), err)
		}

		entries, err := os.ReadDir(res.Paths.TourneyDir())
		if err != nil {
			return fmt.Errorf("listing %s: %w", res.Paths.TourneyDir(), err)
		}

		type row struct {
			submitter   string
			testsEvaded int
			diff        string
		}
		var rows []row
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			submitter := e.Name()
			diffText, err := res.Adapter.Diffs(filepath.Join(res.Paths.TourneyDir(), submitter), res.Config.SourceAssgDir)
			if err != nil {
				return fmt.Errorf("diffing %s's submission: %w", submitter, err)
			}
			evaded := 0
			if result, ok := snap.Results[assignment.Submitter(submitter)]; ok {
				for _, n := range result.Progs {
					evaded += n
				}
			}
			rows = append(rows, row{submitter: submitter, testsEvaded: evaded, diff: diffText})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].testsEvaded > rows[j].testsEvaded })

		out := res.Paths.ProgDiffsCSV()
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		defer f.Close()

		w := csv.NewWriter(f)
		if err := w.Write([]string{"submitter", "num_tests_evaded", "diff", "invalid?"}); err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Write([]string{r.submitter, fmt.Sprint(r.testsEvaded), r.diff, ""}); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}

		fmt.Printf("Diff file written to %s.\n"+
			"Mark invalid mutants with one of [Y y X x] in the 'invalid?' column, "+
			"then run rescore_invalid_progs.\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getDiffsCmd)
}
