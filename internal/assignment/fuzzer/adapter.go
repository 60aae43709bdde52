// Package fuzzer implements the assignment.Adapter contract for
// fuzzer-style assignments: submitters contribute a fuzzer plus a set of
// proof-of-concept inputs, and the "test suite" is a single pseudo-test
// ("fuzzer") run against each program under test via ./run_tests.sh.
package fuzzer

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"tourney/internal/assignment"
	"tourney/internal/procgroup"
	"tourney/pkg/logging"
)

const (
	subsystem = "assignment.fuzzer"

	// FuzzerTest is the sole pseudo-test exposed by this assignment type.
	FuzzerTest assignment.Test = "fuzzer"

	// defaultRunTimeout bounds a single ./run_tests.sh invocation. Left
	// unconfigurable: a misbehaving fuzzer that never terminates should
	// not be able to wedge the whole tournament, regardless of what the
	// assignment_config.json says.
	defaultRunTimeout = 30 * time.Second

	// compileTestTimeout bounds ./run_fuzzer.sh, which regenerates the
	// submitter's test corpus and runs considerably longer than a single
	// test execution.
	compileTestTimeout = 5 * time.Minute
)

// Config holds the assignment_config.json fields consumed by this adapter.
type Config struct {
	SourceAssgDir string `json:"source_assg_dir"`
	TourneyDir    string `json:"tourney_dir"`
}

type adapter struct {
	sourceAssgDir string
	tourneyDir    string
}

func init() {
	assignment.Register("fuzzer", newFromConfig)
}

func newFromConfig(raw map[string]any) (assignment.Adapter, error) {
	sourceDir, _ := raw["source_assg_dir"].(string)
	if sourceDir == "" {
		return nil, fmt.Errorf("fuzzer: assignment_config.json missing source_assg_dir")
	}
	tourneyDir, _ := raw["tourney_dir"].(string)
	return New(sourceDir, tourneyDir), nil
}

// New builds a fuzzer adapter directly, without going through the
// config-driven registry.
func New(sourceAssgDir, tourneyDir string) assignment.Adapter {
	return &adapter{sourceAssgDir: sourceAssgDir, tourneyDir: tourneyDir}
}

func (a *adapter) TestList(string) ([]assignment.Test, error) {
	return []assignment.Test{FuzzerTest}, nil
}

func (a *adapter) ProgramsList(submissionDir string) ([]assignment.Prog, error) {
	entries, err := os.ReadDir(filepath.Join(submissionDir, "src"))
	if err != nil {
		return nil, err
	}
	excluded := map[string]bool{"original": true, "include": true}
	var names []string
	for _, e := range entries {
		if excluded[e.Name()] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	progs := make([]assignment.Prog, len(names))
	for i, n := range names {
		progs[i] = assignment.Prog(n)
	}
	return progs, nil
}

func (a *adapter) IsProgUnique(prog assignment.Prog, submissionDir string) (assignment.Result, error) {
	progs, err := a.ProgramsList(submissionDir)
	if err != nil {
		return assignment.Result{}, err
	}
	progDir := filepath.Join(submissionDir, "src", string(prog))
	for _, other := range progs {
		if other == prog {
			continue
		}
		otherDir := filepath.Join(submissionDir, "src", string(other))
		cmd := exec.Command("diff", "-rq", progDir, otherDir)
		if cmd.Run() == nil {
			return assignment.Fail(fmt.Sprintf("program %s is identical to %s", prog, other)), nil
		}
	}
	return assignment.Ok(), nil
}

var (
	includeLineRegexp   = regexp.MustCompile(`(?m)^[<>]\s*#include`)
	changeLocationRegex = regexp.MustCompile(`(?m)^[0-9]{1,4}(a|c|d)[0-9]{1,4}.*$`)
	addedLineRegexp     = regexp.MustCompile(`(?m)^>.*$`)
	commentLineRegexp   = regexp.MustCompile(`^>\s*//`)
)

// CheckDiff enforces the mutation-scope policy: a submitted program may not
// touch #includes, and may change at most 3 code locations across at most
// 30 added/modified lines, matching check_diff's looser allowance for this
// assignment type relative to junitstyle's.
func (a *adapter) CheckDiff(submissionDir string, prog assignment.Prog) (assignment.Result, error) {
	cmd := exec.Command("diff", "-rw", "original", string(prog))
	cmd.Dir = filepath.Join(submissionDir, "src")
	out, _ := cmd.Output()
	progDiff := string(out)

	if includeLineRegexp.MatchString(progDiff) {
		return assignment.Fail(fmt.Sprintf("#includes have been modified:\n\n%s", progDiff)), nil
	}
	if changes := changeLocationRegex.FindAllString(progDiff, -1); len(changes) > 3 {
		return assignment.Fail(fmt.Sprintf("Code changed in more than 3 locations: %v\n\n%s", changes, progDiff)), nil
	}
	newLines := 0
	for _, line := range addedLineRegexp.FindAllString(progDiff, -1) {
		if !commentLineRegexp.MatchString(line) {
			newLines++
		}
	}
	if newLines > 30 {
		return assignment.Fail(fmt.Sprintf("More than 30 lines modified (excluding single line // comments):\n\n%s", progDiff)), nil
	}
	return assignment.Ok(), nil
}

func (a *adapter) RunTest(ctx context.Context, test assignment.Test, prog assignment.Prog, submissionDir string, usePOC bool) (assignment.TestResult, string, error) {
	binPath := filepath.Join(submissionDir, "bin", string(prog))
	if _, err := os.Stat(binPath); err != nil {
		out, buildErr := a.compile(ctx, prog, submissionDir)
		if buildErr != nil {
			return assignment.CompilationFailed, out, nil
		}
	}

	args := []string{string(prog)}
	if usePOC {
		args = append(args, "--use-poc")
	}
	cmd := exec.Command("./run_tests.sh", args...)
	cmd.Dir = submissionDir
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	err, timedOut := procgroup.RunWithTimeout(cmd, defaultRunTimeout)
	if timedOut {
		return assignment.Timeout, out.String(), nil
	}
	if err == nil {
		return assignment.NoBugsDetected, out.String(), nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return assignment.BugFound, out.String(), nil
	}
	logging.Error(subsystem, err, "run_tests.sh failed to execute for %s/%s", test, prog)
	return assignment.UnexpectedReturnCode, out.String(), err
}

func (a *adapter) compile(ctx context.Context, prog assignment.Prog, submissionDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "make", fmt.Sprintf("VERSIONS=%s", prog))
	cmd.Dir = submissionDir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// NumTests is not meaningful for fuzzer-style assignments: the normalization
// formulas for this assignment type do not use suite size.
func (a *adapter) NumTests(string) int {
	return 0
}

// CompileProg builds prog with AddressSanitizer instrumentation via the
// submission's Makefile, the same `make VERSIONS=<prog>` invocation RunTest
// falls back to lazily when no binary is present yet.
func (a *adapter) CompileProg(submissionDir string, prog assignment.Prog) (assignment.Result, error) {
	out, err := a.compile(context.Background(), prog, submissionDir)
	if err != nil {
		return assignment.Fail(out), nil
	}
	return assignment.Ok(), nil
}

// CompileTest regenerates the submitter's test corpus by running
// ./run_fuzzer.sh, which the submitter's own fuzzer uses to populate
// tests/ with fresh inputs.
func (a *adapter) CompileTest(submissionDir string, test assignment.Test) (assignment.Result, error) {
	cmd := exec.Command("./run_fuzzer.sh")
	cmd.Dir = submissionDir
	var out strings.Builder
	cmd.Stdout = &out
	cmd.Stderr = &out

	err, timedOut := procgroup.RunWithTimeout(cmd, compileTestTimeout)
	if timedOut {
		return assignment.Fail(fmt.Sprintf("generating tests with ./run_fuzzer.sh timed out after %s", compileTestTimeout)), nil
	}
	if err != nil {
		return assignment.Fail(out.String()), nil
	}
	return assignment.Ok(), nil
}

func (a *adapter) PrepSubmission(submissionDir, destinationDir string) (assignment.Result, error) {
	for _, folder := range []string{"fuzzer", "poc"} {
		if err := replaceDir(filepath.Join(submissionDir, folder), filepath.Join(destinationDir, folder)); err != nil {
			return assignment.Fail(err.Error()), err
		}
	}

	progs, err := a.ProgramsList(submissionDir)
	if err != nil {
		return assignment.Fail(err.Error()), err
	}
	for _, prog := range progs {
		src := filepath.Join(submissionDir, "src", string(prog))
		dst := filepath.Join(destinationDir, "src", string(prog))
		if err := replaceDir(src, dst); err != nil {
			return assignment.Fail(err.Error()), err
		}
	}

	cmd := exec.Command("./run_fuzzer.sh")
	cmd.Dir = destinationDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return assignment.Fail(string(out)), nil
	}
	return assignment.Ok(), nil
}

func replaceDir(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
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

// DetectNewTests always returns the full test list: fuzzers regenerate
// their corpus randomly on every submission, so there is no notion of an
// unchanged test between submissions.
func (a *adapter) DetectNewTests(newSubmission, oldSubmission string) ([]assignment.Test, error) {
	return a.TestList(newSubmission)
}

func (a *adapter) DetectNewProgs(newSubmission, oldSubmission string) ([]assignment.Prog, error) {
	if _, err := os.Stat(oldSubmission); err != nil {
		return a.ProgramsList(newSubmission)
	}
	all, err := a.ProgramsList(newSubmission)
	if err != nil {
		return nil, err
	}
	var changed []assignment.Prog
	for _, prog := range all {
		newPath := filepath.Join(newSubmission, "src", string(prog))
		oldPath := filepath.Join(oldSubmission, "src", string(prog))
		cmd := exec.Command("diff", "-rq", newPath, oldPath)
		if cmd.Run() != nil {
			changed = append(changed, prog)
		}
	}
	return changed, nil
}

func (a *adapter) PrepTestStage(tester, testee assignment.Submitter, testStageDir string) error {
	testerDir := filepath.Join(a.tourneyDir, string(tester))
	testeeDir := filepath.Join(a.tourneyDir, string(testee))

	if err := relink(testStageDir, "tests", filepath.Join(testerDir, "tests")); err != nil {
		return err
	}
	return relink(testStageDir, "bin", filepath.Join(testeeDir, "bin"))
}

func relink(stageDir, rel, target string) error {
	link := filepath.Join(stageDir, rel)
	if err := os.RemoveAll(link); err != nil {
		return err
	}
	return os.Symlink(target, link)
}

func (a *adapter) NormalizeTestScore(raw, best float64, suiteSize int) float64 {
	if best == 0 {
		return 0
	}
	return roundTo2((raw / best) * 2.5)
}

func (a *adapter) NormalizeProgScore(raw, best float64) float64 {
	if best == 0 {
		return 0
	}
	return roundTo2((raw / best) * 2.5)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (a *adapter) Diffs(newSubmission, oldSubmission string) (string, error) {
	progs, err := a.ProgramsList(newSubmission)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, prog := range progs {
		cmd := exec.Command("diff", "-r", "original", string(prog))
		cmd.Dir = filepath.Join(newSubmission, "src")
		out, _ := cmd.Output()
		fmt.Fprintf(&sb, "=== %s ===\n%s\n", prog, strings.TrimSpace(string(out)))
	}
	return sb.String(), nil
}
