package tourneyconfig

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadAssignmentConfigWritesDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadAssignmentConfig(dir)
	if !errors.Is(err, ErrNoConfigDefined) {
		t.Fatalf("expected ErrNoConfigDefined, got %v", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, assignmentConfigFile)); statErr != nil {
		t.Fatalf("expected default config to be written: %v", statErr)
	}
}

func TestLoadAssignmentConfigReadsExisting(t *testing.T) {
	dir := t.TempDir()
	contents := `{"assignment_type": "junit", "source_assg_dir": "/tmp/assg"}`
	if err := os.WriteFile(filepath.Join(dir, assignmentConfigFile), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAssignmentConfig(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssignmentType != "junit" || cfg.SourceAssgDir != "/tmp/assg" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadServerConfigDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadServerConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 8080 {
		t.Fatalf("unexpected default server config: %+v", cfg)
	}
}

func TestLoadEmailConfigMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	cfg, ok, err := LoadEmailConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected ok=false when email_config.json is absent")
	}
	if !reflect.DeepEqual(cfg, EmailConfig{}) {
		t.Fatalf("expected zero value, got %+v", cfg)
	}
}

func TestApprovedSubmittersLookup(t *testing.T) {
	cfg := ApprovedSubmittersConfig{Submitters: []ApprovedSubmitter{
		{Login: "jdoe", Name: "j.doe"},
	}}
	name, ok := cfg.Lookup("jdoe")
	if !ok || name != "j.doe" {
		t.Fatalf("expected lookup to succeed, got %q, %v", name, ok)
	}
	if _, ok := cfg.Lookup("nobody"); ok {
		t.Fatal("expected lookup of unknown login to fail")
	}
}
