package main

import (
	"testing"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/tourneyconfig"
)

func TestResolveSubmitterMapsApprovedLogin(t *testing.T) {
	res := &bootstrap.Resources{
		Approved: tourneyconfig.ApprovedSubmittersConfig{
			Submitters: []tourneyconfig.ApprovedSubmitter{
				{Login: "alice-gh", Name: "alice"},
			},
		},
	}

	submitter, err := resolveSubmitter(res, "alice-gh")
	if err != nil {
		t.Fatalf("resolveSubmitter() error: %v", err)
	}
	if submitter != "alice" {
		t.Errorf("resolveSubmitter() = %q, want %q", submitter, "alice")
	}
}

func TestResolveSubmitterRejectsUnknownLogin(t *testing.T) {
	res := &bootstrap.Resources{}

	_, err := resolveSubmitter(res, "mallory")
	if err == nil {
		t.Fatal("expected an error for an unapproved login, got nil")
	}
	ce, ok := err.(*cliError)
	if !ok {
		t.Fatalf("expected *cliError, got %T", err)
	}
	if ce.code != ExitCodeFailed {
		t.Errorf("expected ExitCodeFailed, got %d", ce.code)
	}
}

func TestPrintResultReturnsNilOnSuccess(t *testing.T) {
	if err := printResult(assignment.Ok()); err != nil {
		t.Errorf("printResult(success) error: %v", err)
	}
}

func TestPrintResultFailsOnUnsuccessfulStage(t *testing.T) {
	err := printResult(assignment.Fail("stage failed"))
	if err == nil {
		t.Fatal("expected an error for an unsuccessful stage result, got nil")
	}
	ce, ok := err.(*cliError)
	if !ok {
		t.Fatalf("expected *cliError, got %T", err)
	}
	if ce.code != ExitCodeFailed {
		t.Errorf("expected ExitCodeFailed, got %d", ce.code)
	}
}
