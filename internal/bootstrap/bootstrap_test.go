package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tourney/internal/assignment"
	"tourney/internal/tourneyconfig"
)

func TestPathsLayoutMatchesStateDirTree(t *testing.T) {
	p := Paths{StateDir: "/tmp/tourney-state"}

	if got, want := p.ConfigDir(), filepath.Join("/tmp/tourney-state", "config"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
	if got, want := p.SubmissionsDir(), filepath.Join("/tmp/tourney-state", "submissions"); got != want {
		t.Errorf("SubmissionsDir() = %q, want %q", got, want)
	}
	if got, want := p.PreValidationDir(), filepath.Join(p.SubmissionsDir(), "pre_validation"); got != want {
		t.Errorf("PreValidationDir() = %q, want %q", got, want)
	}
	if got, want := p.TourneyDir(), filepath.Join(p.SubmissionsDir(), "tourney"); got != want {
		t.Errorf("TourneyDir() = %q, want %q", got, want)
	}
}

func TestEnsureDirsCreatesEveryDir(t *testing.T) {
	root := t.TempDir()
	p := Paths{StateDir: filepath.Join(root, "state")}

	if err := p.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error: %v", err)
	}
	for _, dir := range p.Dirs() {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist, stat err: %v", dir, err)
		}
	}
}

func TestLoadWritesDefaultsAndReportsNoConfigDefined(t *testing.T) {
	root := t.TempDir()
	stateDir := filepath.Join(root, "state")

	_, err := Load(stateDir)
	if err == nil {
		t.Fatal("expected Load on an empty state dir to report no config defined, got nil error")
	}
	if !errors.Is(err, tourneyconfig.ErrNoConfigDefined) {
		t.Errorf("expected ErrNoConfigDefined, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(stateDir, "config", "assignment_config.json")); err != nil {
		t.Errorf("expected default assignment_config.json to be written: %v", err)
	}
}

type fakeAdapter struct {
	tests []assignment.Test
	progs []assignment.Prog
}

func (f fakeAdapter) TestList(string) ([]assignment.Test, error)     { return f.tests, nil }
func (f fakeAdapter) ProgramsList(string) ([]assignment.Prog, error) { return f.progs, nil }
func (f fakeAdapter) IsProgUnique(assignment.Prog, string) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (f fakeAdapter) CheckDiff(string, assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (f fakeAdapter) RunTest(_ context.Context, _ assignment.Test, _ assignment.Prog, _ string, _ bool) (assignment.TestResult, string, error) {
	return assignment.NotTested, "", nil
}
func (f fakeAdapter) NumTests(string) int { return 0 }
func (f fakeAdapter) PrepSubmission(string, string) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (f fakeAdapter) CompileProg(string, assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (f fakeAdapter) CompileTest(string, assignment.Test) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (f fakeAdapter) DetectNewTests(string, string) ([]assignment.Test, error) { return nil, nil }
func (f fakeAdapter) DetectNewProgs(string, string) ([]assignment.Prog, error) { return nil, nil }
func (f fakeAdapter) PrepTestStage(assignment.Submitter, assignment.Submitter, string) error {
	return nil
}
func (f fakeAdapter) NormalizeTestScore(raw, best float64, suiteSize int) float64 { return raw }
func (f fakeAdapter) NormalizeProgScore(raw, best float64) float64              { return raw }
func (f fakeAdapter) Diffs(string, string) (string, error)                     { return "", nil }

func TestDiscoverTestsAndProgsUnionsAcrossSubmitterDirs(t *testing.T) {
	root := t.TempDir()
	tourneyDir := filepath.Join(root, "tourney")
	for _, name := range []string{"alice", "bob"} {
		if err := os.MkdirAll(filepath.Join(tourneyDir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	adapter := perSubmitterAdapter{
		"alice": fakeAdapter{tests: []assignment.Test{"t1"}, progs: []assignment.Prog{"p1"}},
		"bob":   fakeAdapter{tests: []assignment.Test{"t2"}, progs: []assignment.Prog{"p1", "p2"}},
	}

	tests, progs, err := discoverTestsAndProgs(adapter, tourneyDir)
	if err != nil {
		t.Fatalf("discoverTestsAndProgs() error: %v", err)
	}
	if len(tests) != 2 || len(progs) != 2 {
		t.Errorf("expected 2 tests and 2 progs, got tests=%v progs=%v", tests, progs)
	}
}

func TestDiscoverTestsAndProgsToleratesMissingTourneyDir(t *testing.T) {
	tests, progs, err := discoverTestsAndProgs(fakeAdapter{}, filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("expected nil error for missing tourney dir, got %v", err)
	}
	if tests != nil || progs != nil {
		t.Errorf("expected nil tests/progs, got %v %v", tests, progs)
	}
}

// perSubmitterAdapter dispatches TestList/ProgramsList by the trailing path
// element of submissionDir, letting one fake stand in for several
// submitters' distinct test/prog sets in TestDiscoverTestsAndProgsUnions...
type perSubmitterAdapter map[string]fakeAdapter

func (p perSubmitterAdapter) TestList(submissionDir string) ([]assignment.Test, error) {
	return p[filepath.Base(submissionDir)].TestList(submissionDir)
}
func (p perSubmitterAdapter) ProgramsList(submissionDir string) ([]assignment.Prog, error) {
	return p[filepath.Base(submissionDir)].ProgramsList(submissionDir)
}
func (p perSubmitterAdapter) IsProgUnique(prog assignment.Prog, submissionDir string) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (p perSubmitterAdapter) CheckDiff(string, assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (p perSubmitterAdapter) RunTest(_ context.Context, _ assignment.Test, _ assignment.Prog, _ string, _ bool) (assignment.TestResult, string, error) {
	return assignment.NotTested, "", nil
}
func (p perSubmitterAdapter) NumTests(string) int { return 0 }
func (p perSubmitterAdapter) PrepSubmission(string, string) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (p perSubmitterAdapter) CompileProg(string, assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (p perSubmitterAdapter) CompileTest(string, assignment.Test) (assignment.Result, error) {
	return assignment.Ok(), nil
}
func (p perSubmitterAdapter) DetectNewTests(string, string) ([]assignment.Test, error) { return nil, nil }
func (p perSubmitterAdapter) DetectNewProgs(string, string) ([]assignment.Prog, error) { return nil, nil }
func (p perSubmitterAdapter) PrepTestStage(assignment.Submitter, assignment.Submitter, string) error {
	return nil
}
func (p perSubmitterAdapter) NormalizeTestScore(raw, best float64, suiteSize int) float64 { return raw }
func (p perSubmitterAdapter) NormalizeProgScore(raw, best float64) float64              { return raw }
func (p perSubmitterAdapter) Diffs(string, string) (string, error)                     { return "", nil }
