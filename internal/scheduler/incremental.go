package scheduler

import (
	"context"
	"fmt"

	"tourney/internal/assignment"
	"tourney/internal/tourneystate"
)

// pairJob describes one (tester, testee) cell of the cross product: run
// tester's tests against testee's programs, reusing tourneystate's prior
// results for any test/prog that isn't in the new set.
type pairJob struct {
	tester, testee assignment.Submitter
	newTests       []assignment.Test
	newProgs       []assignment.Prog
}

type pairResult struct {
	tester, testee assignment.Submitter
	testSet        tourneystate.TestSet
}

func containsTest(tests []assignment.Test, t assignment.Test) bool {
	for _, x := range tests {
		if x == t {
			return true
		}
	}
	return false
}

func containsProg(progs []assignment.Prog, p assignment.Prog) bool {
	for _, x := range progs {
		if x == p {
			return true
		}
	}
	return false
}

// runPair executes one pairJob in scratchDir, rerunning only the cells
// whose test or prog appears in job's new sets; every other cell copies
// its previously recorded result straight out of state. This is the
// incremental-rerun rule: a submission only invalidates the cells it could
// plausibly have changed.
func (s *Scheduler) runPair(ctx context.Context, scratchDir string, job pairJob) (pairResult, error) {
	if err := s.Adapter.PrepTestStage(job.tester, job.testee, scratchDir); err != nil {
		return pairResult{}, fmt.Errorf("scheduler: prep test stage %s/%s: %w", job.tester, job.testee, err)
	}

	testerDir := s.submitterDir(job.tester)
	testeeDir := s.submitterDir(job.testee)

	tests, err := s.Adapter.TestList(testerDir)
	if err != nil {
		return pairResult{}, fmt.Errorf("scheduler: listing tests for %s: %w", job.tester, err)
	}
	progs, err := s.Adapter.ProgramsList(testeeDir)
	if err != nil {
		return pairResult{}, fmt.Errorf("scheduler: listing progs for %s: %w", job.testee, err)
	}

	testSet := make(tourneystate.TestSet, len(tests))
	for _, test := range tests {
		testSet[test] = make(map[assignment.Prog]assignment.TestResult, len(progs))
		for _, prog := range progs {
			if containsTest(job.newTests, test) || containsProg(job.newProgs, prog) {
				result, _, err := s.Adapter.RunTest(ctx, test, prog, scratchDir, false)
				if err != nil {
					s.logRunTestError(job.tester, job.testee, test, prog, err)
					result = s.State.Get(job.tester, job.testee, test, prog)
				}
				s.observeOutcome(result)
				testSet[test][prog] = result
			} else {
				testSet[test][prog] = s.State.Get(job.tester, job.testee, test, prog)
			}
		}
	}

	return pairResult{tester: job.tester, testee: job.testee, testSet: testSet}, nil
}
