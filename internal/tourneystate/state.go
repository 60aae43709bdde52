// Package tourneystate maintains the cross-product record of which
// submitters' tests have detected or missed which submitters' mutated
// programs, and persists that record to disk so it survives a daemon
// restart.
package tourneystate

import (
	"sync"
	"time"

	"tourney/internal/assignment"
)

// TestSet is one tester-vs-testee cell of the tournament cross product:
// TestSet[test][prog] is the outcome of running tester's test against
// testee's prog.
type TestSet map[assignment.Test]map[assignment.Prog]assignment.TestResult

// SubmitterState holds everything tracked for a single submitter.
type SubmitterState struct {
	Email                string
	LatestSubmissionDate *time.Time
	TestResults          map[assignment.Submitter]TestSet
	NumTests             map[assignment.Test]int
}

// State is the full tournament cross product, guarded by a mutex even
// though the scheduler is presently the sole writer: CLI commands
// (get_diffs, export_results) read it concurrently from a separate
// process's perspective is not possible, but concurrent workers within the
// scheduler's own errgroup write distinct cells and a reader goroutine
// (the results server) must never observe a torn map.
type State struct {
	mu         sync.RWMutex
	submitters map[assignment.Submitter]*SubmitterState
}

// New builds an empty State seeded with defaultTestSet cells for every
// (tester, testee) pair drawn from submitters, excluding self-pairs.
func New(submitters map[assignment.Submitter]string, tests []assignment.Test, progs []assignment.Prog) *State {
	s := &State{submitters: make(map[assignment.Submitter]*SubmitterState, len(submitters))}
	for submitter, email := range submitters {
		s.submitters[submitter] = &SubmitterState{
			Email:       email,
			TestResults: make(map[assignment.Submitter]TestSet),
			NumTests:    make(map[assignment.Test]int),
		}
	}
	for tester := range s.submitters {
		for testee := range s.submitters {
			if tester == testee {
				continue
			}
			s.submitters[tester].TestResults[testee] = defaultTestSet(tests, progs)
		}
	}
	return s
}

func defaultTestSet(tests []assignment.Test, progs []assignment.Prog) TestSet {
	ts := make(TestSet, len(tests))
	for _, test := range tests {
		ts[test] = make(map[assignment.Prog]assignment.TestResult, len(progs))
		for _, prog := range progs {
			ts[test][prog] = assignment.NotTested
		}
	}
	return ts
}

// Submitters returns the full list of submitters tracked in state.
func (s *State) Submitters() []assignment.Submitter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]assignment.Submitter, 0, len(s.submitters))
	for submitter := range s.submitters {
		out = append(out, submitter)
	}
	return out
}

// Get returns the recorded outcome of tester's test against testee's prog.
func (s *State) Get(tester, testee assignment.Submitter, test assignment.Test, prog assignment.Prog) assignment.TestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	testSet, ok := s.submitters[tester].TestResults[testee]
	if !ok {
		return assignment.NotTested
	}
	progResults, ok := testSet[test]
	if !ok {
		return assignment.NotTested
	}
	return progResults[prog]
}

// SetResult records the outcome of tester's test against testee's prog.
func (s *State) SetResult(tester, testee assignment.Submitter, test assignment.Test, prog assignment.Prog, result assignment.TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	testSet, ok := s.submitters[tester].TestResults[testee]
	if !ok {
		testSet = TestSet{}
		s.submitters[tester].TestResults[testee] = testSet
	}
	if testSet[test] == nil {
		testSet[test] = map[assignment.Prog]assignment.TestResult{}
	}
	testSet[test][prog] = result
}

// SetTimeOfSubmission records when submitter's latest accepted submission
// arrived.
func (s *State) SetTimeOfSubmission(submitter assignment.Submitter, when time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.submitters[submitter]; ok {
		st.LatestSubmissionDate = &when
	}
}

// SetNumTests records how many individual test cases submitter's test
// suite contains, used by the JUnit-style normalization formula.
func (s *State) SetNumTests(submitter assignment.Submitter, test assignment.Test, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.submitters[submitter]; ok {
		st.NumTests[test] = n
	}
}

// NumTests returns the recorded test counts for submitter.
func (s *State) NumTests(submitter assignment.Submitter) map[assignment.Test]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[assignment.Test]int)
	if st, ok := s.submitters[submitter]; ok {
		for k, v := range st.NumTests {
			out[k] = v
		}
	}
	return out
}

// LatestSubmissionDate returns submitter's latest accepted submission time,
// or nil if they have never submitted.
func (s *State) LatestSubmissionDate(submitter assignment.Submitter) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.submitters[submitter]; ok {
		return st.LatestSubmissionDate
	}
	return nil
}

// Email returns submitter's recorded contact email.
func (s *State) Email(submitter assignment.Submitter) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.submitters[submitter]; ok {
		return st.Email
	}
	return ""
}

// BugsDetected counts, across every testee and every prog, how many cells
// where tester's test ran against some testee's prog resulted in the bug
// being found (BugFound or Timeout both count as detection).
func (s *State) BugsDetected(tester assignment.Submitter, test assignment.Test, progs []assignment.Prog) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	st, ok := s.submitters[tester]
	if !ok {
		return 0
	}
	for testee, testSet := range st.TestResults {
		if testee == tester {
			continue
		}
		results, ok := testSet[test]
		if !ok {
			continue
		}
		for _, prog := range progs {
			switch results[prog] {
			case assignment.BugFound, assignment.Timeout:
				count++
			}
		}
	}
	return count
}

// TestsEvaded counts, across every tester, how many cells where some
// tester's test ran against testee's prog resulted in the mutation evading
// detection (NoBugsDetected).
func (s *State) TestsEvaded(testee assignment.Submitter, prog assignment.Prog, tests []assignment.Test) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for tester, st := range s.submitters {
		if tester == testee {
			continue
		}
		testSet, ok := st.TestResults[testee]
		if !ok {
			continue
		}
		for _, test := range tests {
			if results, ok := testSet[test]; ok && results[prog] == assignment.NoBugsDetected {
				count++
			}
		}
	}
	return count
}

// InvalidateProg marks every recorded outcome against testee's prog as
// BugFound: the prog is known-bad, so every tester that failed to flag it
// evaded detection and every tester's detection credit for it must be
// preserved. Used by the rescore_invalid_progs operator command after a prog
// is discovered to be broken (e.g. it does not compile under some other
// submitter's harness).
func (s *State) InvalidateProg(testee assignment.Submitter, prog assignment.Prog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tester, st := range s.submitters {
		if tester == testee {
			continue
		}
		testSet, ok := st.TestResults[testee]
		if !ok {
			continue
		}
		for test := range testSet {
			testSet[test][prog] = assignment.BugFound
		}
	}
}
