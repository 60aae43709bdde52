package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/snapshot"

	_ "tourney/internal/assignment/junitstyle"
)

func TestGetDiffsWritesOneRowPerSubmitter(t *testing.T) {
	stateDir = t.TempDir()
	defer func() { stateDir = "" }()

	paths := bootstrap.Paths{StateDir: stateDir}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	writeAssignmentConfig(t, paths.ConfigDir(), assignmentConfigFor(t))

	for _, submitter := range []string{"alice", "bob"} {
		if err := os.MkdirAll(filepath.Join(paths.TourneyDir(), submitter, "programs"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	snap := snapshot.Snapshot{Results: map[assignment.Submitter]snapshot.SubmitterResult{
		"alice": {Progs: map[assignment.Prog]int{"p1": 2}},
		"bob":   {Progs: map[assignment.Prog]int{"p1": 5}},
	}}
	if err := snapshot.Save(paths.ResultsFile(), snap, paths.SnapshotArchiveDir(), false); err != nil {
		t.Fatal(err)
	}

	if err := getDiffsCmd.RunE(getDiffsCmd, nil); err != nil {
		t.Fatalf("get_diffs RunE error: %v", err)
	}

	data, err := os.ReadFile(paths.ProgDiffsCSV())
	if err != nil {
		t.Fatalf("reading %s: %v", paths.ProgDiffsCSV(), err)
	}
	out := string(data)
	if !strings.Contains(out, "alice") || !strings.Contains(out, "bob") {
		t.Errorf("expected both submitters in diffs CSV, got %q", out)
	}
}
