package main

import (
	"os"
	"path/filepath"
	"testing"

	"tourney/internal/bootstrap"
	"tourney/internal/flagstore"
)

func TestCleanRefusesWhileTournamentAlive(t *testing.T) {
	stateDir = t.TempDir()
	defer func() { stateDir = "" }()

	flags := flagstore.New(stateDir)
	if err := flags.Set(flagstore.Alive, true); err != nil {
		t.Fatal(err)
	}

	if err := cleanCmd.RunE(cleanCmd, nil); err == nil {
		t.Fatal("expected clean to refuse while ALIVE is set, got nil error")
	}
}

func TestCleanRemovesStateAndClearsFlags(t *testing.T) {
	stateDir = t.TempDir()
	defer func() { stateDir = "" }()

	paths := bootstrap.Paths{StateDir: stateDir}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.StateFile(), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(paths.TourneyDir(), "alice"), 0o755); err != nil {
		t.Fatal(err)
	}

	flags := flagstore.New(stateDir)
	if err := flags.Set(flagstore.SubmissionsClosed, true); err != nil {
		t.Fatal(err)
	}

	if err := cleanCmd.RunE(cleanCmd, nil); err != nil {
		t.Fatalf("clean RunE error: %v", err)
	}

	if _, err := os.Stat(paths.StateFile()); !os.IsNotExist(err) {
		t.Errorf("expected %s to be removed, stat err: %v", paths.StateFile(), err)
	}
	if entries, err := os.ReadDir(paths.TourneyDir()); err == nil && len(entries) != 0 {
		t.Errorf("expected %s to be emptied, entries=%v", paths.TourneyDir(), entries)
	} else if err != nil && !os.IsNotExist(err) {
		t.Errorf("unexpected error reading %s: %v", paths.TourneyDir(), err)
	}
	if flags.Get(flagstore.SubmissionsClosed) {
		t.Error("expected clean to clear SubmissionsClosed")
	}
}
