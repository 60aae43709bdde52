package tourneystate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tourney/internal/assignment"
)

// wireSubmitterState is the on-disk JSON shape for one submitter's record.
type wireSubmitterState struct {
	Email                string                          `json:"email"`
	LatestSubmissionDate *time.Time                      `json:"latest_submission_date"`
	TestResults          map[assignment.Submitter]TestSet `json:"test_results"`
	NumTests             map[assignment.Test]int          `json:"num_tests"`
}

// Load reads the tournament state file at path, if present, and merges it
// with a freshly-initialized state for approvedSubmitters: submitters no
// longer approved are dropped, newly approved submitters start blank, and
// every retained (tester, testee) pair keeps its prior TestSet. This
// mirrors the original tournament's initialise_state_from_file behavior,
// which lets the approved submitters list change between runs without
// discarding unrelated history.
func Load(path string, approvedSubmitters map[assignment.Submitter]string, tests []assignment.Test, progs []assignment.Prog) (*State, error) {
	fresh := New(approvedSubmitters, tests, progs)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fresh, nil
		}
		return nil, fmt.Errorf("tourneystate: reading %s: %w", path, err)
	}

	var onDisk map[assignment.Submitter]wireSubmitterState
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("tourneystate: parsing %s: %w", path, err)
	}

	for tester, st := range fresh.submitters {
		prior, ok := onDisk[tester]
		if !ok {
			continue
		}
		st.LatestSubmissionDate = prior.LatestSubmissionDate
		for testee := range st.TestResults {
			if priorSet, ok := prior.TestResults[testee]; ok {
				st.TestResults[testee] = priorSet
			}
		}
		for test, n := range prior.NumTests {
			st.NumTests[test] = n
		}
	}

	return fresh, nil
}

// Save atomically writes state to path via a temp file in the same
// directory followed by a rename, so a crash mid-write never corrupts the
// previously saved state.
func (s *State) Save(path string) error {
	s.mu.RLock()
	wire := make(map[assignment.Submitter]wireSubmitterState, len(s.submitters))
	for submitter, st := range s.submitters {
		wire[submitter] = wireSubmitterState{
			Email:                st.Email,
			LatestSubmissionDate: st.LatestSubmissionDate,
			TestResults:          st.TestResults,
			NumTests:             st.NumTests,
		}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("tourneystate: marshaling state: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tourney_state-*.tmp")
	if err != nil {
		return fmt.Errorf("tourneystate: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tourneystate: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tourneystate: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tourneystate: renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
