// Package assignment defines the pluggable contract between the scheduler
// and the per-course-assignment logic that knows how to compile a
// submission, enumerate its tests and programs under test, and run one test
// against one program.
package assignment

// Submitter identifies a student or team that has submitted work.
type Submitter string

// Test identifies a single test (or, for a fuzzer-style assignment, the
// single pseudo-test representing the fuzzer itself).
type Test string

// Prog identifies a single mutated program under test.
type Prog string

// TestResult is the outcome of running one Test against one Prog.
type TestResult string

const (
	// NoBugsDetected means the test suite ran to completion and found no
	// discrepancy in the program under test: the mutant evaded detection.
	NoBugsDetected TestResult = "NO_BUGS_DETECTED"
	// BugFound means the test suite detected the injected mutation.
	BugFound TestResult = "BUG_FOUND"
	// Timeout means the test run did not complete within its allotted
	// time and was killed.
	Timeout TestResult = "TIMEOUT"
	// NotTested is the zero value for cells that have not yet been
	// scheduled.
	NotTested TestResult = "NOT_TESTED"
	// CompilationFailed means the program under test (or the test suite
	// itself) failed to build.
	CompilationFailed TestResult = "COMPILATION_FAILED"
	// UnexpectedReturnCode means the test harness exited with a status
	// the adapter does not know how to interpret.
	UnexpectedReturnCode TestResult = "UNEXPECTED_RETURN_CODE"
)

// Result is the outcome of a validation step: whether it succeeded, and the
// raw traces produced by whatever command was run, for display to the
// submitter on failure.
type Result struct {
	Success bool
	Traces  string
}

// Ok builds a successful Result carrying no traces.
func Ok() Result {
	return Result{Success: true}
}

// Fail builds a failed Result carrying diagnostic traces.
func Fail(traces string) Result {
	return Result{Success: false, Traces: traces}
}
