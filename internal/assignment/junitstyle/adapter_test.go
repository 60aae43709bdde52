package junitstyle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tourney/internal/assignment"
)

var _ assignment.Adapter = (*adapter)(nil)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTestListAndProgramsListExcludeOriginal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tests", "TestA.java"), "")
	writeFile(t, filepath.Join(dir, "tests", "TestB.java"), "")
	writeFile(t, filepath.Join(dir, "programs", "original", "Prog.java"), "")
	writeFile(t, filepath.Join(dir, "programs", "mut1", "Prog.java"), "")

	a := New(dir, dir, "").(*adapter)

	tests, err := a.TestList(dir)
	if err != nil || len(tests) != 2 {
		t.Fatalf("TestList = %v, %v", tests, err)
	}

	progs, err := a.ProgramsList(dir)
	if err != nil || len(progs) != 1 || progs[0] != "mut1" {
		t.Fatalf("ProgramsList = %v, %v", progs, err)
	}
}

func TestRunTestClassifiesOutcomes(t *testing.T) {
	dir := t.TempDir()
	a := New(dir, dir, "exit 0 # %s %s").(*adapter)
	result, _, err := a.RunTest(context.Background(), "T", "P", dir, false)
	if err != nil || result != assignment.NoBugsDetected {
		t.Fatalf("expected NoBugsDetected, got %v, %v", result, err)
	}

	a = New(dir, dir, "exit 1 # %s %s").(*adapter)
	result, _, err = a.RunTest(context.Background(), "T", "P", dir, false)
	if err != nil || result != assignment.BugFound {
		t.Fatalf("expected BugFound, got %v, %v", result, err)
	}

	a = New(dir, dir, ">&2 echo 'Parallel execution timed out'; exit 1 # %s %s").(*adapter)
	result, _, err = a.RunTest(context.Background(), "T", "P", dir, false)
	if err != nil || result != assignment.Timeout {
		t.Fatalf("expected Timeout, got %v, %v", result, err)
	}
}

func TestNumTestsParsesTracesOrDefaults(t *testing.T) {
	a := &adapter{}
	if n := a.NumTests("Tests run: 7, Failures: 0"); n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
	if n := a.NumTests("no matching line here"); n != 20 {
		t.Errorf("expected default of 20, got %d", n)
	}
}

func TestNormalizeScores(t *testing.T) {
	a := &adapter{}
	if got := a.NormalizeProgScore(0, 10); got != 0 {
		t.Errorf("best=0 should yield 0, got %v", got)
	}
	if got := a.NormalizeProgScore(5, 10); got != 1.25 {
		t.Errorf("expected 1.25, got %v", got)
	}
	if got := a.NormalizeTestScore(0, 1, 20); got != 0 {
		t.Errorf("raw=0 should yield 0, got %v", got)
	}
}

func TestCompileProgAndCompileTestAreNoOps(t *testing.T) {
	a := &adapter{}
	if result, err := a.CompileProg("anywhere", "p1"); err != nil || !result.Success {
		t.Fatalf("expected CompileProg to always succeed, got %v, %v", result, err)
	}
	if result, err := a.CompileTest("anywhere", "t1"); err != nil || !result.Success {
		t.Fatalf("expected CompileTest to always succeed, got %v, %v", result, err)
	}
}

func TestCheckDiffRejectsImportChanges(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "programs", "original", "Prog.java"), "import java.util.List;\nclass Prog {}\n")
	writeFile(t, filepath.Join(dir, "programs", "mut1", "Prog.java"), "import java.util.Map;\nclass Prog {}\n")

	a := &adapter{}
	result, err := a.CheckDiff(dir, "mut1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Fatal("expected failure when imports are modified")
	}
}

func TestCheckDiffRejectsMultipleChangeLocations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "programs", "original", "Prog.java"), "class Prog {\n  int a = 1;\n  int x = 0;\n  int b = 2;\n}\n")
	writeFile(t, filepath.Join(dir, "programs", "mut1", "Prog.java"), "class Prog {\n  int a = 9;\n  int x = 0;\n  int b = 9;\n}\n")

	a := &adapter{}
	result, err := a.CheckDiff(dir, "mut1")
	if err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Fatal("expected failure when more than one code location changed")
	}
}

func TestCheckDiffAcceptsSingleLocationChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "programs", "original", "Prog.java"), "class Prog {\n  int a = 1;\n}\n")
	writeFile(t, filepath.Join(dir, "programs", "mut1", "Prog.java"), "class Prog {\n  int a = 9;\n}\n")

	a := &adapter{}
	result, err := a.CheckDiff(dir, "mut1")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("expected a single-location change to be accepted, got: %s", result.Traces)
	}
}

func TestDetectNewTestsReturnsAllWhenNoPriorSubmission(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tests", "TestA.java"), "")
	a := New(dir, dir, "").(*adapter)

	tests, err := a.DetectNewTests(dir, filepath.Join(dir, "does-not-exist"))
	if err != nil || len(tests) != 1 {
		t.Fatalf("expected all tests when no prior submission, got %v, %v", tests, err)
	}
}
