package assignment

import (
	"context"
	"fmt"
)

// Adapter is the capability contract an assignment type must satisfy to be
// run through the tournament scheduler. Each assignment type (JUnit-style,
// fuzzer-style, ...) supplies one concrete implementation, selected at
// daemon startup from the "assignment_type" configuration key.
type Adapter interface {
	// TestList returns the tests available in a submission.
	TestList(submissionDir string) ([]Test, error)

	// ProgramsList returns the programs under test available in a
	// submission.
	ProgramsList(submissionDir string) ([]Prog, error)

	// IsProgUnique reports whether prog is novel relative to the other
	// programs already present in submissionDir.
	IsProgUnique(prog Prog, submissionDir string) (Result, error)

	// CheckDiff enforces the mutation-scope policy against prog's diff
	// from the unmodified "original" program: no changes to imports or
	// dependencies, and no more than a handful of code locations touched.
	CheckDiff(submissionDir string, prog Prog) (Result, error)

	// RunTest runs test against prog and returns the outcome plus any
	// traces produced. usePOC substitutes a proof-of-concept input for
	// assignments (fuzzers) whose tests are otherwise non-deterministic.
	RunTest(ctx context.Context, test Test, prog Prog, submissionDir string, usePOC bool) (TestResult, string, error)

	// NumTests parses the number of individual test cases run from the
	// traces produced by RunTest, for use in JUnit-style normalization.
	// Assignment types with no meaningful notion of sub-test count (such
	// as fuzzers) may always return 0.
	NumTests(traces string) int

	// PrepSubmission copies the files relevant to this assignment type
	// out of submissionDir into destinationDir, which is assumed to
	// already hold a copy of the unmodified assignment source.
	PrepSubmission(submissionDir, destinationDir string) (Result, error)

	// CompileProg compiles prog within submissionDir, if this assignment
	// type requires a separate compilation step for programs under test.
	CompileProg(submissionDir string, prog Prog) (Result, error)

	// CompileTest compiles or generates test, if this assignment type
	// requires a separate step before it can be run (a fuzzer-style
	// assignment runs a generator script here; a JUnit-style assignment
	// has nothing extra to do, since its test classes compile alongside
	// the program they run against).
	CompileTest(submissionDir string, test Test) (Result, error)

	// DetectNewTests compares oldSubmission to newSubmission and returns
	// the tests that changed.
	DetectNewTests(newSubmission, oldSubmission string) ([]Test, error)

	// DetectNewProgs compares oldSubmission to newSubmission and returns
	// the programs under test that changed.
	DetectNewProgs(newSubmission, oldSubmission string) ([]Prog, error)

	// PrepTestStage arranges testStageDir so that tester's tests can be
	// run against testee's programs under test, typically by symlinking
	// or copying compiled artifacts into place.
	PrepTestStage(tester, testee Submitter, testStageDir string) error

	// NormalizeTestScore scores a submitter's test suite relative to the
	// best observed raw score and suite size.
	NormalizeTestScore(raw float64, best float64, suiteSize int) float64

	// NormalizeProgScore scores a submitter's programs under test
	// relative to the best observed raw score.
	NormalizeProgScore(raw float64, best float64) float64

	// Diffs returns a textual diff of each of newSubmission's programs
	// against that submission's own "original" program, for the get_diffs
	// operator command. The shipped adapters do not read oldSubmission.
	Diffs(newSubmission, oldSubmission string) (string, error)
}

// Factory constructs an Adapter from an assignment-specific config blob
// (already unmarshaled from assignment_config.json by internal/tourneyconfig).
type Factory func(config map[string]any) (Adapter, error)

var registry = map[string]Factory{}

// Register associates an assignment_type config value with a Factory. Each
// adapter package calls this from an init function.
func Register(assignmentType string, factory Factory) {
	registry[assignmentType] = factory
}

// New looks up the factory registered for assignmentType and invokes it.
func New(assignmentType string, config map[string]any) (Adapter, error) {
	factory, ok := registry[assignmentType]
	if !ok {
		return nil, fmt.Errorf("assignment: no adapter registered for type %q", assignmentType)
	}
	return factory(config)
}

// RegisteredTypes lists every assignment_type currently registered, for
// validating assignment_config.json against what this build actually
// supports.
func RegisteredTypes() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}
