package snapshot

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"tourney/internal/assignment"
)

// WriteCSV writes one row per submitter: their raw per-test bug-detection
// count, their raw per-prog test-evasion count, and their two normalized
// scores, with tests/progs/submitters all in sorted order for a stable
// column layout across snapshots. Grounded on
// original_source/tournament/state/tourney_snapshot.py's write_csv.
func WriteCSV(w io.Writer, snap Snapshot, tests []assignment.Test, progs []assignment.Prog) error {
	sortedTests := append([]assignment.Test(nil), tests...)
	sort.Slice(sortedTests, func(i, j int) bool { return sortedTests[i] < sortedTests[j] })
	sortedProgs := append([]assignment.Prog(nil), progs...)
	sort.Slice(sortedProgs, func(i, j int) bool { return sortedProgs[i] < sortedProgs[j] })

	writer := csv.NewWriter(w)

	header := []string{"Student"}
	for _, test := range sortedTests {
		header = append(header, string(test))
	}
	for _, prog := range sortedProgs {
		header = append(header, string(prog))
	}
	header = append(header, "normalised_bug_scores", "normalised_prog_scores")
	if err := writer.Write(header); err != nil {
		return err
	}

	submitters := make([]assignment.Submitter, 0, len(snap.Results))
	for submitter := range snap.Results {
		submitters = append(submitters, submitter)
	}
	sort.Slice(submitters, func(i, j int) bool { return submitters[i] < submitters[j] })

	for _, submitter := range submitters {
		result := snap.Results[submitter]
		row := []string{string(submitter)}
		for _, test := range sortedTests {
			row = append(row, strconv.Itoa(result.Tests[test]))
		}
		for _, prog := range sortedProgs {
			row = append(row, strconv.Itoa(result.Progs[prog]))
		}
		row = append(row, formatScore(result.NormalizedTestScore), formatScore(result.NormalizedProgScore))
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}
