// Package snapshot reduces a tournament's current cross-product state into
// a ranked scoreboard: per-submitter bug-detection and test-evasion
// averages, normalized test/prog scores, and the snapshot's own metadata
// (when it was taken, how long the triggering submission took to process).
// Grounded on original_source/tournament/state/tourney_snapshot.py.
package snapshot

import (
	"time"

	"tourney/internal/assignment"
	"tourney/internal/tourneystate"
)

// SubmitterResult is one submitter's row in a Snapshot.
type SubmitterResult struct {
	LatestSubmissionDate *time.Time               `json:"latest_submission_date"`
	Tests                map[assignment.Test]int  `json:"tests"`
	Progs                map[assignment.Prog]int  `json:"progs"`
	AverageTestsPerSuite float64                  `json:"average_tests_per_suite"`
	AverageBugsDetected  float64                  `json:"average_bugs_detected"`
	AverageTestsEvaded   float64                  `json:"average_tests_evaded"`
	NormalizedTestScore  float64                  `json:"normalised_test_score"`
	NormalizedProgScore  float64                  `json:"normalised_prog_score"`
}

// Snapshot is the full scoreboard taken at one point in time.
type Snapshot struct {
	SnapshotDate                time.Time                                `json:"snapshot_date"`
	TimeToProcessLastSubmission float64                                  `json:"time_to_process_last_submission"`
	NumSubmitters                int                                     `json:"num_submitters"`
	Results                      map[assignment.Submitter]SubmitterResult `json:"results"`
	BestAverageBugsDetected      float64                                 `json:"best_average_bugs_detected"`
	BestAverageTestsEvaded       float64                                 `json:"best_average_tests_evaded"`
}

// Build reduces state into a Snapshot taken at reportTime, following the
// five-step procedure: per-submitter raw averages, then best-in-tournament
// normalization via the adapter's two scoring formulas.
func Build(state *tourneystate.State, adapter assignment.Adapter, tests []assignment.Test, progs []assignment.Prog, reportTime time.Time, processingDuration time.Duration) Snapshot {
	snap := Snapshot{
		SnapshotDate:                reportTime,
		TimeToProcessLastSubmission: processingDuration.Seconds(),
		Results:                     make(map[assignment.Submitter]SubmitterResult),
	}

	submitters := state.Submitters()
	snap.NumSubmitters = len(submitters)

	for _, submitter := range submitters {
		numTests := state.NumTests(submitter)
		avgSuiteSize := 1.0
		if len(numTests) > 0 {
			total := 0
			for _, n := range numTests {
				total += n
			}
			avgSuiteSize = float64(total) / float64(len(numTests))
		}

		result := SubmitterResult{
			LatestSubmissionDate: state.LatestSubmissionDate(submitter),
			Tests:                make(map[assignment.Test]int, len(tests)),
			Progs:                make(map[assignment.Prog]int, len(progs)),
			AverageTestsPerSuite: avgSuiteSize,
		}

		totalBugsDetected := 0
		for _, test := range tests {
			n := state.BugsDetected(submitter, test, progs)
			result.Tests[test] = n
			totalBugsDetected += n
		}
		if len(tests) > 0 {
			result.AverageBugsDetected = float64(totalBugsDetected) / float64(len(tests))
		}

		totalTestsEvaded := 0
		for _, prog := range progs {
			n := state.TestsEvaded(submitter, prog, tests)
			result.Progs[prog] = n
			totalTestsEvaded += n
		}
		if len(progs) > 0 {
			result.AverageTestsEvaded = float64(totalTestsEvaded) / float64(len(progs))
		}

		snap.Results[submitter] = result
	}

	for _, result := range snap.Results {
		if result.AverageBugsDetected > snap.BestAverageBugsDetected {
			snap.BestAverageBugsDetected = result.AverageBugsDetected
		}
		if result.AverageTestsEvaded > snap.BestAverageTestsEvaded {
			snap.BestAverageTestsEvaded = result.AverageTestsEvaded
		}
	}

	for submitter, result := range snap.Results {
		result.NormalizedTestScore = adapter.NormalizeTestScore(
			result.AverageBugsDetected, snap.BestAverageBugsDetected, int(result.AverageTestsPerSuite))
		result.NormalizedProgScore = adapter.NormalizeProgScore(
			result.AverageTestsEvaded, snap.BestAverageTestsEvaded)
		snap.Results[submitter] = result
	}

	rescaleTestScoresToTopMark(snap.Results)

	return snap
}

// rescaleTestScoresToTopMark rescales every submitter's NormalizedTestScore
// so the highest-scoring submitter lands on exactly topTestScore. The
// adapter's own formula (e.g. JUnit's 25/(ln(suiteSize)+10)) has no reason
// to peak there for a realistic suite size, so a final rescale pass is
// needed on top of the per-submitter normalization.
const topTestScore = 2.5

func rescaleTestScoresToTopMark(results map[assignment.Submitter]SubmitterResult) {
	max := 0.0
	for _, result := range results {
		if result.NormalizedTestScore > max {
			max = result.NormalizedTestScore
		}
	}
	if max == 0 {
		return
	}
	for submitter, result := range results {
		result.NormalizedTestScore = result.NormalizedTestScore / max * topTestScore
		results[submitter] = result
	}
}
