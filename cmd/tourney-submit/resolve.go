package main

import (
	"errors"
	"fmt"

	"tourney/internal/assignment"
	"tourney/internal/bootstrap"
	"tourney/internal/tourneyconfig"
)

// loadResources wires up bootstrap.Resources rooted at --state-dir, turning
// tourneyconfig.ErrNoConfigDefined into the distinct "fix your config and
// try again" message CheckEligibility's operators expect.
func loadResources() (*bootstrap.Resources, error) {
	res, err := bootstrap.Load(stateDir)
	if err != nil {
		if errors.Is(err, tourneyconfig.ErrNoConfigDefined) {
			return nil, failf(ExitCodeError, "%v\nEdit the config file that was just written under %s and try again.", err, stateDir)
		}
		return nil, failf(ExitCodeError, "loading tournament state: %w", err)
	}
	return res, nil
}

// resolveSubmitter maps a submitter's commit/CI login to the canonical
// submitter name tournament state is keyed by.
func resolveSubmitter(res *bootstrap.Resources, login string) (assignment.Submitter, error) {
	name, ok := res.Approved.Lookup(login)
	if !ok {
		return "", failf(ExitCodeFailed,
			"submitter %q is not on the approved submitters list", login)
	}
	return assignment.Submitter(name), nil
}

// printResult writes a stage's traces to stdout/stderr and returns the
// exit-code error cobra should propagate, or nil on success.
func printResult(result assignment.Result) error {
	if result.Traces != "" {
		fmt.Println(result.Traces)
	}
	if !result.Success {
		return failf(ExitCodeFailed, "stage failed")
	}
	return nil
}
