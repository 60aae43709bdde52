package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tourney/internal/assignment"
	"tourney/internal/tourneystate"
)

type fakeAdapter struct{}

func (fakeAdapter) TestList(string) ([]assignment.Test, error)     { return nil, nil }
func (fakeAdapter) ProgramsList(string) ([]assignment.Prog, error) { return nil, nil }
func (fakeAdapter) IsProgUnique(assignment.Prog, string) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (fakeAdapter) CheckDiff(string, assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (fakeAdapter) RunTest(context.Context, assignment.Test, assignment.Prog, string, bool) (assignment.TestResult, string, error) {
	return assignment.NotTested, "", nil
}
func (fakeAdapter) NumTests(string) int                                    { return 0 }
func (fakeAdapter) PrepSubmission(string, string) (assignment.Result, error) { return assignment.Ok(), nil }
func (fakeAdapter) CompileProg(string, assignment.Prog) (assignment.Result, error) { return assignment.Ok(), nil }
func (fakeAdapter) CompileTest(string, assignment.Test) (assignment.Result, error) { return assignment.Ok(), nil }
func (fakeAdapter) DetectNewTests(string, string) ([]assignment.Test, error) { return nil, nil }
func (fakeAdapter) DetectNewProgs(string, string) ([]assignment.Prog, error) { return nil, nil }
func (fakeAdapter) PrepTestStage(assignment.Submitter, assignment.Submitter, string) error {
	return nil
}

// NormalizeTestScore and NormalizeProgScore scale raw against best onto
// 0..100 so the tests can assert known values; Build then rescales the
// test scores so the top one is 2.5.
func (fakeAdapter) NormalizeTestScore(raw, best float64, suiteSize int) float64 {
	if best == 0 {
		return 0
	}
	return raw / best * 100
}
func (fakeAdapter) NormalizeProgScore(raw, best float64) float64 {
	if best == 0 {
		return 0
	}
	return raw / best * 100
}
func (fakeAdapter) Diffs(string, string) (string, error) { return "", nil }

var _ assignment.Adapter = fakeAdapter{}

func TestBuildComputesAveragesAndBestInTournament(t *testing.T) {
	submitters := map[assignment.Submitter]string{"alice": "a@e", "bob": "b@e"}
	tests := []assignment.Test{"t1", "t2"}
	progs := []assignment.Prog{"p1"}
	state := tourneystate.New(submitters, tests, progs)

	state.SetResult("alice", "bob", "t1", "p1", assignment.BugFound)
	state.SetResult("alice", "bob", "t2", "p1", assignment.NoBugsDetected)
	state.SetResult("bob", "alice", "t1", "p1", assignment.NoBugsDetected)
	state.SetResult("bob", "alice", "t2", "p1", assignment.NoBugsDetected)

	snap := Build(state, fakeAdapter{}, tests, progs, time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC), time.Second)

	require.Equal(t, 2, snap.NumSubmitters)
	alice := snap.Results["alice"]
	require.Equal(t, 0.5, alice.AverageBugsDetected)
	require.Equal(t, 0.5, snap.BestAverageBugsDetected)
}

func TestBuildRescalesTopScorerToTwoPointFive(t *testing.T) {
	submitters := map[assignment.Submitter]string{"alice": "a@e", "bob": "b@e"}
	tests := []assignment.Test{"t1"}
	progs := []assignment.Prog{"p1"}
	state := tourneystate.New(submitters, tests, progs)

	state.SetResult("alice", "bob", "t1", "p1", assignment.BugFound)
	state.SetResult("bob", "alice", "t1", "p1", assignment.NoBugsDetected)

	snap := Build(state, fakeAdapter{}, tests, progs, time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC), time.Second)

	require.Equal(t, 2.5, snap.Results["alice"].NormalizedTestScore, "top scorer must land on exactly 2.5")
	require.Equal(t, 0.0, snap.Results["bob"].NormalizedTestScore)
}

func TestSaveWritesAtomicallyAndArchives(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "tourney_results.json")
	snap := Snapshot{SnapshotDate: time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC), Results: map[assignment.Submitter]SubmitterResult{}}

	require.NoError(t, Save(resultsPath, snap, dir, true))
	_, err := os.Stat(resultsPath)
	require.NoError(t, err, "expected results file to exist")
	archivePath := filepath.Join(dir, "snapshot_2026_07_31__12_00_00.json")
	_, err = os.Stat(archivePath)
	require.NoError(t, err, "expected archived snapshot file to exist")
}

func TestWriteCSVSortsColumnsAndRows(t *testing.T) {
	snap := Snapshot{
		Results: map[assignment.Submitter]SubmitterResult{
			"bob": {
				Tests:               map[assignment.Test]int{"t1": 1, "t2": 0},
				Progs:               map[assignment.Prog]int{"p1": 2},
				NormalizedTestScore: 50,
				NormalizedProgScore: 25,
			},
			"alice": {
				Tests:               map[assignment.Test]int{"t1": 2, "t2": 1},
				Progs:               map[assignment.Prog]int{"p1": 0},
				NormalizedTestScore: 100,
				NormalizedProgScore: 0,
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, snap, []assignment.Test{"t2", "t1"}, []assignment.Prog{"p1"}))

	out := buf.String()
	wantHeader := "Student,t1,t2,p1,normalised_bug_scores,normalised_prog_scores\n"
	require.Equal(t, wantHeader, out[:len(wantHeader)])
	aliceIdx := indexOf(out, "alice,")
	bobIdx := indexOf(out, "bob,")
	require.True(t, aliceIdx != -1 && bobIdx != -1 && aliceIdx < bobIdx, "expected alice's row before bob's row, got %q", out)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
