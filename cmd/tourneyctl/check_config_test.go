package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"tourney/internal/bootstrap"
	"tourney/internal/tourneyconfig"

	_ "tourney/internal/assignment/junitstyle"
)

func assignmentConfigFor(t *testing.T) tourneyconfig.AssignmentConfig {
	t.Helper()
	return tourneyconfig.AssignmentConfig{AssignmentType: "junit", SourceAssgDir: t.TempDir()}
}

func writeAssignmentConfig(t *testing.T, configDir string, cfg tourneyconfig.AssignmentConfig) {
	t.Helper()
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "assignment_config.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"approved_submitters.json", "server_config.json"} {
		if err := os.WriteFile(filepath.Join(configDir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCheckConfigSucceedsForRegisteredAssignmentType(t *testing.T) {
	stateDir = t.TempDir()
	defer func() { stateDir = "" }()

	paths := bootstrap.Paths{StateDir: stateDir}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	writeAssignmentConfig(t, paths.ConfigDir(), tourneyconfig.AssignmentConfig{
		AssignmentType: "junit",
		SourceAssgDir:  t.TempDir(),
	})

	if err := checkConfigCmd.RunE(checkConfigCmd, nil); err != nil {
		t.Errorf("check_config RunE error: %v", err)
	}
}

func TestCheckConfigFailsForUnknownAssignmentType(t *testing.T) {
	stateDir = t.TempDir()
	defer func() { stateDir = "" }()

	paths := bootstrap.Paths{StateDir: stateDir}
	if err := paths.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	writeAssignmentConfig(t, paths.ConfigDir(), tourneyconfig.AssignmentConfig{
		AssignmentType: "not_a_real_type",
		SourceAssgDir:  t.TempDir(),
	})

	if err := checkConfigCmd.RunE(checkConfigCmd, nil); err == nil {
		t.Fatal("expected an error for an unregistered assignment type, got nil")
	}
}
