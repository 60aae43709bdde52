// Package validator runs the four-stage submission pipeline a submitter's
// work must pass through before it becomes eligible to be scheduled against
// the rest of the tournament: eligibility, compilation, test validation,
// and program validation. Each stage asserts that the previous stage's
// flag is already set, mirroring the daemon/flags.py two-step protocol the
// original tournament uses to make partially-validated submissions safe to
// resume after a crash.
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tourney/internal/assignment"
	"tourney/internal/flagstore"
	"tourney/internal/queue"
	"tourney/pkg/logging"
)

const subsystem = "validator"

// StaleSubmissionAge is how long a prior, still-present pre-validation
// directory must sit untouched before a new submission from the same
// submitter is allowed to replace it.
const StaleSubmissionAge = 15 * time.Minute

// Pipeline runs the validation stages for one assignment configuration.
type Pipeline struct {
	Adapter          assignment.Adapter
	AssignmentName   string
	SourceAssgDir    string
	PreValidationDir string
	StagedDir        string
	Flags            *flagstore.Store
}

// New builds a Pipeline. preValidationDir is the root directory holding
// each submitter's in-progress pre_validation/<submitter> subdirectory;
// stagedDir is where Submit moves a fully validated submission once it is
// ready for the scheduler to pick up.
func New(adapter assignment.Adapter, assignmentName, sourceAssgDir, preValidationDir, stagedDir string, flags *flagstore.Store) *Pipeline {
	return &Pipeline{
		Adapter:          adapter,
		AssignmentName:   assignmentName,
		SourceAssgDir:    sourceAssgDir,
		PreValidationDir: preValidationDir,
		StagedDir:        stagedDir,
		Flags:            flags,
	}
}

func (p *Pipeline) preValDir(submitter assignment.Submitter) string {
	return filepath.Join(p.PreValidationDir, string(submitter))
}

// CheckEligibility verifies the tournament is online, the submitted
// assignment name matches configuration, submissions are not closed, and
// no unexpired prior submission is still being validated. It does not
// check that the submitter is approved. On success it copies the unmodified assignment source
// into the submitter's pre-validation directory and marks stage ELIG.
func (p *Pipeline) CheckEligibility(submitter assignment.Submitter, submittedAssgName, submissionDir string, submissionsClosed bool) assignment.Result {
	if !p.Flags.Get(flagstore.Alive) {
		return assignment.Fail("Error: The tournament is not currently online.")
	}
	if submittedAssgName != p.AssignmentName {
		return assignment.Fail(fmt.Sprintf(
			"Error: The submitted assignment %q does not match the assignment this tournament is configured for: %q",
			submittedAssgName, p.AssignmentName))
	}
	if submissionsClosed {
		return assignment.Fail(fmt.Sprintf(
			"Cannot make a new submission at %s. Submissions have been closed", time.Now().Format(time.RFC3339)))
	}

	preValDir := p.preValDir(submitter)
	if info, err := os.Stat(preValDir); err == nil && info.IsDir() {
		age := time.Since(info.ModTime())
		if age < StaleSubmissionAge {
			return assignment.Fail(fmt.Sprintf(
				"Error: A prior submission is still being validated. Please wait %s to push a new commit.",
				(StaleSubmissionAge - age).Round(time.Second)))
		}
		if err := os.RemoveAll(preValDir); err != nil {
			return assignment.Fail(fmt.Sprintf("Error clearing stale prior submission: %v", err))
		}
	}

	if err := copyDir(p.SourceAssgDir, preValDir); err != nil {
		return assignment.Fail(fmt.Sprintf("Error copying source assignment: %v", err))
	}

	result, err := p.Adapter.PrepSubmission(submissionDir, preValDir)
	if err != nil {
		logging.Error(subsystem, err, "prep_submission failed for %s", submitter)
	}
	if !result.Success {
		os.RemoveAll(preValDir)
		return result
	}

	if err := flagstore.SetStage(preValDir, flagstore.StageEligible, true); err != nil {
		return assignment.Fail(err.Error())
	}
	return assignment.Ok()
}

// Compile asserts the eligibility stage has run, then compiles every
// program under test and every test in the submitter's pre-validation
// directory via the adapter's CompileProg/CompileTest, recording a
// human-readable trace of each compilation outcome.
func (p *Pipeline) Compile(submitter assignment.Submitter) assignment.Result {
	preValDir := p.preValDir(submitter)
	if !flagstore.HasStage(preValDir, flagstore.StageEligible) {
		return assignment.Fail("eligibility check must pass before compilation")
	}

	var trace strings.Builder
	trace.WriteString("Compiling programs:")
	allOK := true

	progs, err := p.Adapter.ProgramsList(preValDir)
	if err != nil {
		return assignment.Fail(err.Error())
	}
	for _, prog := range progs {
		result, err := p.Adapter.CompileProg(preValDir, prog)
		if err != nil {
			logging.Error(subsystem, err, "compiling program %s failed", prog)
		}
		fmt.Fprintf(&trace, "\n\t%s compilation %s", prog, outcomeLabel(result))
		allOK = allOK && result.Success
	}

	trace.WriteString("\n\nCompiling tests:")
	tests, err := p.Adapter.TestList(preValDir)
	if err != nil {
		return assignment.Fail(err.Error())
	}
	for _, test := range tests {
		result, err := p.Adapter.CompileTest(preValDir, test)
		if err != nil {
			logging.Error(subsystem, err, "compiling test %s failed", test)
		}
		fmt.Fprintf(&trace, "\n\t%s compilation %s", test, outcomeLabel(result))
		allOK = allOK && result.Success
	}

	if !allOK {
		os.RemoveAll(preValDir)
		return assignment.Result{Success: false, Traces: trace.String()}
	}
	if err := flagstore.SetStage(preValDir, flagstore.StageCompiled, true); err != nil {
		return assignment.Fail(err.Error())
	}
	return assignment.Result{Success: allOK, Traces: trace.String()}
}

func outcomeLabel(r assignment.Result) string {
	if r.Success {
		return "SUCCESS"
	}
	return "FAILED.\n" + r.Traces
}

// ValidateTests asserts the compile stage has run, then runs every test in
// the submitter's suite against the assignment's unmodified "original"
// program. Every test must report NoBugsDetected: any other outcome means
// the test suite raises a false positive against correct code, and the
// whole pre-validation directory is discarded. On success the detected
// test-suite sizes are recorded for later score normalization and the
// TESTS_VALID stage flag is set.
func (p *Pipeline) ValidateTests(submitter assignment.Submitter) assignment.Result {
	preValDir := p.preValDir(submitter)
	if !flagstore.HasStage(preValDir, flagstore.StageCompiled) {
		return assignment.Fail("compile stage must pass before test validation")
	}

	tests, err := p.Adapter.TestList(preValDir)
	if err != nil {
		return assignment.Fail(err.Error())
	}

	var trace strings.Builder
	trace.WriteString("Validation results:")
	allValid := true
	numTests := make(map[assignment.Test]int, len(tests))

	for _, test := range tests {
		result, traces, err := p.Adapter.RunTest(context.Background(), test, assignment.Prog("original"), preValDir, false)
		if err != nil {
			logging.Error(subsystem, err, "run_test failed for %s on original", test)
		}
		fmt.Fprintf(&trace, "\n\t%s test %s", test, testValidationLabel(result, traces))

		allValid = allValid && result == assignment.NoBugsDetected
		if allValid {
			numTests[test] = p.Adapter.NumTests(traces)
		}
	}

	if !allValid {
		os.RemoveAll(preValDir)
		return assignment.Result{Success: false, Traces: trace.String()}
	}

	if err := writeNumTestsFile(preValDir, numTests); err != nil {
		return assignment.Fail(err.Error())
	}
	if err := flagstore.SetStage(preValDir, flagstore.StageTestsValid, true); err != nil {
		return assignment.Fail(err.Error())
	}
	return assignment.Result{Success: true, Traces: trace.String()}
}

// NumTestsFileName is the name of the JSON file recording each test's
// detected sub-test count, written into a submission directory by
// ValidateTests and read back by the scheduler once that submission is
// promoted into the tournament.
const NumTestsFileName = "num_tests.json"

func writeNumTestsFile(dir string, numTests map[assignment.Test]int) error {
	data, err := json.MarshalIndent(numTests, "", "  ")
	if err != nil {
		return fmt.Errorf("validator: marshaling %s: %w", NumTestsFileName, err)
	}
	if err := os.WriteFile(filepath.Join(dir, NumTestsFileName), data, 0o644); err != nil {
		return fmt.Errorf("validator: writing %s: %w", NumTestsFileName, err)
	}
	return nil
}

// ReadNumTestsFile reads back the per-test suite sizes recorded by
// ValidateTests for a submission directory.
func ReadNumTestsFile(dir string) (map[assignment.Test]int, error) {
	data, err := os.ReadFile(filepath.Join(dir, NumTestsFileName))
	if err != nil {
		return nil, fmt.Errorf("validator: reading %s: %w", NumTestsFileName, err)
	}
	var numTests map[assignment.Test]int
	if err := json.Unmarshal(data, &numTests); err != nil {
		return nil, fmt.Errorf("validator: parsing %s: %w", NumTestsFileName, err)
	}
	return numTests, nil
}

func testValidationLabel(result assignment.TestResult, traces string) string {
	switch result {
	case assignment.Timeout:
		return "FAIL    - Timeout"
	case assignment.NoBugsDetected:
		return "SUCCESS - No bugs detected in original program"
	case assignment.BugFound:
		return "FAIL    - Test falsely reports error in original code\n" + traces
	case assignment.UnexpectedReturnCode:
		return "FAIL    - Unrecognised return code found\n" + traces
	default:
		return fmt.Sprintf("ERROR   - unexpected test result: %s", result)
	}
}

// ValidateProgs asserts the test-validation stage has run, then runs every
// test against every program under test using a proof-of-concept input
// (usePOC=true). Every cell must report BugFound: a program whose mutation
// is never detected even with a POC cannot contribute to the tournament. On
// success the SUBMISSION_READY stage flag is set and the pre-validation
// directory is ready to be staged.
func (p *Pipeline) ValidateProgs(submitter assignment.Submitter) assignment.Result {
	preValDir := p.preValDir(submitter)
	if !flagstore.HasStage(preValDir, flagstore.StageTestsValid) {
		return assignment.Fail("test validation must pass before program validation")
	}

	tests, err := p.Adapter.TestList(preValDir)
	if err != nil {
		return assignment.Fail(err.Error())
	}
	progs, err := p.Adapter.ProgramsList(preValDir)
	if err != nil {
		return assignment.Fail(err.Error())
	}

	var trace strings.Builder
	trace.WriteString("Validation results:")
	allValid := true

	for _, prog := range progs {
		unique, err := p.Adapter.IsProgUnique(prog, preValDir)
		if err != nil {
			return assignment.Fail(err.Error())
		}
		if !unique.Success {
			fmt.Fprintf(&trace, "\n\t%s FAIL - %s", prog, unique.Traces)
			allValid = false
			continue
		}

		diffOK, err := p.Adapter.CheckDiff(preValDir, prog)
		if err != nil {
			return assignment.Fail(err.Error())
		}
		if !diffOK.Success {
			fmt.Fprintf(&trace, "\n\t%s FAIL - %s", prog, diffOK.Traces)
			allValid = false
			continue
		}

		for _, test := range tests {
			result, _, err := p.Adapter.RunTest(context.Background(), test, prog, preValDir, true)
			if err != nil {
				logging.Error(subsystem, err, "run_test (use_poc) failed for %s/%s", test, prog)
			}
			fmt.Fprintf(&trace, "\n\t%s %s test %s", prog, test, progValidationLabel(result))
			allValid = allValid && result == assignment.BugFound
		}
	}

	if !allValid {
		os.RemoveAll(preValDir)
		return assignment.Result{Success: false, Traces: trace.String()}
	}

	if err := flagstore.SetStage(preValDir, flagstore.StageProgsValid, true); err != nil {
		return assignment.Fail(err.Error())
	}
	return assignment.Result{Success: true, Traces: trace.String()}
}

func progValidationLabel(result assignment.TestResult) string {
	switch result {
	case assignment.Timeout:
		return "FAIL    - Timeout"
	case assignment.NoBugsDetected:
		return "FAIL    - Test suite does not detect error"
	case assignment.BugFound:
		return "SUCCESS - Test suite detects error"
	default:
		return fmt.Sprintf("ERROR   - unexpected test result: %s", result)
	}
}

// Submit asserts the program-validation stage has run, then moves the
// submitter's pre-validation directory into the staged queue as a ready
// submission request, removing any of the submitter's still-unprocessed
// prior requests first (last-submission-wins), matching
// daemon/fs_queue.py's queue_submission.
func (p *Pipeline) Submit(submitter assignment.Submitter, submissionTime time.Time, q *queue.Queue) assignment.Result {
	preValDir := p.preValDir(submitter)
	if !flagstore.HasStage(preValDir, flagstore.StageProgsValid) {
		return assignment.Fail("program validation must pass before submission")
	}

	if err := q.RemovePreviousOccurrences(submitter); err != nil {
		return assignment.Fail(err.Error())
	}

	stagedDir := filepath.Join(p.StagedDir, queue.SubmissionDirName(submitter, submissionTime))
	if err := os.Rename(preValDir, stagedDir); err != nil {
		return assignment.Fail(fmt.Sprintf("Error staging submission: %v", err))
	}
	if err := p.Flags.MarkSubmissionReady(stagedDir); err != nil {
		return assignment.Fail(err.Error())
	}

	if err := flagstore.SetStage(stagedDir, flagstore.StageSubmitted, true); err != nil {
		return assignment.Fail(err.Error())
	}

	return assignment.Result{Success: true, Traces: fmt.Sprintf(
		"Submission successfully made by %s at %s", submitter, submissionTime.Format(time.RFC3339))}
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	cmd := exec.Command("cp", "-rf", src, dst)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cp -rf %s %s: %w: %s", src, dst, err, stderr.String())
	}
	return nil
}
