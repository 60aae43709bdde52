// Package junitstyle implements the assignment.Adapter contract for
// assignments built around an Ant/JUnit test harness: each test is a JUnit
// test class, each program under test is compiled against the submitter's
// test classes via `ant test -Dtest=... -Dprogram=...`.
package junitstyle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tourney/internal/assignment"
	"tourney/pkg/logging"
)

const subsystem = "assignment.junitstyle"

var testsRunRegexp = regexp.MustCompile(`Tests run: ([0-9]+)`)

// Config holds the assignment_config.json fields consumed by this adapter.
type Config struct {
	SourceAssgDir string `json:"source_assg_dir"`
	TourneyDir    string `json:"tourney_dir"`
	TestCommand   string `json:"test_command,omitempty"`
}

type adapter struct {
	sourceAssgDir string
	tourneyDir    string
	testCommand   string
}

func init() {
	assignment.Register("junit", newFromConfig)
}

func newFromConfig(raw map[string]any) (assignment.Adapter, error) {
	sourceDir, _ := raw["source_assg_dir"].(string)
	if sourceDir == "" {
		return nil, fmt.Errorf("junitstyle: assignment_config.json missing source_assg_dir")
	}
	tourneyDir, _ := raw["tourney_dir"].(string)
	cmd, _ := raw["test_command"].(string)
	if cmd == "" {
		cmd = `ant test -Dtest="%s" -Dprogram="%s"`
	}
	return New(sourceDir, tourneyDir, cmd), nil
}

// New builds a junitstyle adapter directly, without going through the
// config-driven registry. sourceAssgDir is the unmodified assignment
// source, used to discover the canonical test and program lists. tourneyDir
// is the root directory holding each submitter's latest accepted submission
// (state/submissions/tourney/<submitter>), used to locate the tester and
// testee code during PrepTestStage.
func New(sourceAssgDir, tourneyDir, testCommand string) assignment.Adapter {
	return &adapter{sourceAssgDir: sourceAssgDir, tourneyDir: tourneyDir, testCommand: testCommand}
}

func (a *adapter) TestList(submissionDir string) ([]assignment.Test, error) {
	return listDir[assignment.Test](filepath.Join(submissionDir, "tests"), nil)
}

func (a *adapter) ProgramsList(submissionDir string) ([]assignment.Prog, error) {
	return listDir[assignment.Prog](filepath.Join(submissionDir, "programs"), map[string]bool{"original": true})
}

func listDir[T ~string](dir string, exclude map[string]bool) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if exclude != nil && exclude[e.Name()] {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	out := make([]T, len(names))
	for i, n := range names {
		out[i] = T(n)
	}
	return out, nil
}

func (a *adapter) IsProgUnique(prog assignment.Prog, submissionDir string) (assignment.Result, error) {
	progs, err := a.ProgramsList(submissionDir)
	if err != nil {
		return assignment.Result{}, err
	}
	progDir := filepath.Join(submissionDir, "programs", string(prog))
	for _, other := range progs {
		if other == prog {
			continue
		}
		otherDir := filepath.Join(submissionDir, "programs", string(other))
		if dirsIdentical(progDir, otherDir) {
			return assignment.Fail(fmt.Sprintf("program %s is identical to %s", prog, other)), nil
		}
	}
	return assignment.Ok(), nil
}

func dirsIdentical(a, b string) bool {
	cmd := exec.Command("diff", "-rq", a, b)
	return cmd.Run() == nil
}

var (
	importLineRegexp    = regexp.MustCompile(`(?m)^[<>]\s*import`)
	changeLocationRegex = regexp.MustCompile(`(?m)^[0-9]{1,4}(a|c|d)[0-9]{1,4}.*$`)
	addedLineRegexp     = regexp.MustCompile(`(?m)^>.*$`)
	commentLineRegexp   = regexp.MustCompile(`^>\s*//`)
)

// CheckDiff enforces the mutation-scope policy: a submitted program may not
// touch imports, and may change at most one code location, matching
// check_diff's single-change-site rule for this assignment type.
func (a *adapter) CheckDiff(submissionDir string, prog assignment.Prog) (assignment.Result, error) {
	cmd := exec.Command("diff", "-rw", "original", string(prog))
	cmd.Dir = filepath.Join(submissionDir, "programs")
	out, _ := cmd.Output()
	progDiff := string(out)

	if importLineRegexp.MatchString(progDiff) {
		return assignment.Fail(fmt.Sprintf("imports have been modified:\n\n%s", progDiff)), nil
	}
	if changes := changeLocationRegex.FindAllString(progDiff, -1); len(changes) > 1 {
		return assignment.Fail(fmt.Sprintf("Code changed in more than 1 location: %v\n\n%s", changes, progDiff)), nil
	}
	newLines := 0
	for _, line := range addedLineRegexp.FindAllString(progDiff, -1) {
		if !commentLineRegexp.MatchString(line) {
			newLines++
		}
	}
	if newLines > 1 {
		return assignment.Fail(fmt.Sprintf("More than 1 line modified (excluding single line // comments):\n\n%s", progDiff)), nil
	}
	return assignment.Ok(), nil
}

func (a *adapter) RunTest(ctx context.Context, test assignment.Test, prog assignment.Prog, submissionDir string, usePOC bool) (assignment.TestResult, string, error) {
	command := fmt.Sprintf(a.testCommand, test, prog)
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = submissionDir
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	traces := stdout.String()

	if strings.Contains(stderr.String(), "Parallel execution timed out") {
		return assignment.Timeout, traces, nil
	}
	if err == nil {
		return assignment.NoBugsDetected, traces, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return assignment.BugFound, traces, nil
	}
	logging.Error(subsystem, err, "run_test failed to execute for %s/%s", test, prog)
	return assignment.UnexpectedReturnCode, traces, err
}

func (a *adapter) NumTests(traces string) int {
	match := testsRunRegexp.FindStringSubmatch(traces)
	if match == nil {
		logging.Warn(subsystem, "could not find 'Tests run: N' in traces, defaulting to 20")
		return 20
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 20
	}
	return n
}

// CompileProg is a no-op: Ant compiles every program under test as part of
// the `ant test` invocation in RunTest, so there is nothing to do ahead of
// time.
func (a *adapter) CompileProg(submissionDir string, prog assignment.Prog) (assignment.Result, error) {
	return assignment.Ok(), nil
}

// CompileTest is a no-op for the same reason as CompileProg.
func (a *adapter) CompileTest(submissionDir string, test assignment.Test) (assignment.Result, error) {
	return assignment.Ok(), nil
}

func (a *adapter) PrepSubmission(submissionDir, destinationDir string) (assignment.Result, error) {
	if err := replaceDir(filepath.Join(submissionDir, "tests"), filepath.Join(destinationDir, "tests")); err != nil {
		return assignment.Fail(err.Error()), err
	}
	progs, err := a.ProgramsList(submissionDir)
	if err != nil {
		return assignment.Fail(err.Error()), err
	}
	for _, prog := range progs {
		src := filepath.Join(submissionDir, "programs", string(prog))
		dst := filepath.Join(destinationDir, "programs", string(prog))
		if err := replaceDir(src, dst); err != nil {
			return assignment.Fail(err.Error()), err
		}
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

func (a *adapter) DetectNewTests(newSubmission, oldSubmission string) ([]assignment.Test, error) {
	if _, err := os.Stat(oldSubmission); err != nil {
		return a.TestList(newSubmission)
	}
	all, err := a.TestList(newSubmission)
	if err != nil {
		return nil, err
	}
	return diffFiltered[assignment.Test](all, newSubmission, oldSubmission, "tests")
}

func (a *adapter) DetectNewProgs(newSubmission, oldSubmission string) ([]assignment.Prog, error) {
	if _, err := os.Stat(oldSubmission); err != nil {
		return a.ProgramsList(newSubmission)
	}
	all, err := a.ProgramsList(newSubmission)
	if err != nil {
		return nil, err
	}
	return diffFiltered[assignment.Prog](all, newSubmission, oldSubmission, "programs")
}

func diffFiltered[T ~string](all []T, newSubmission, oldSubmission, subdir string) ([]T, error) {
	var changed []T
	for _, item := range all {
		newPath := filepath.Join(newSubmission, subdir, string(item))
		oldPath := filepath.Join(oldSubmission, subdir, string(item))
		if !dirsIdentical(newPath, oldPath) {
			changed = append(changed, item)
		}
	}
	return changed, nil
}

func (a *adapter) PrepTestStage(tester, testee assignment.Submitter, testStageDir string) error {
	for _, dir := range []string{filepath.Join(testStageDir, ".depcache"), filepath.Join(testStageDir, "classes")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	testerFiles := []string{".depcache/tests", "tests", "classes/tests"}
	testeeFiles := []string{".depcache/programs", "programs", "classes/programs"}

	testerDir := filepath.Join(a.tourneyDir, string(tester))
	testeeDir := filepath.Join(a.tourneyDir, string(testee))

	for _, rel := range testerFiles {
		if err := relink(testStageDir, rel, filepath.Join(testerDir, rel)); err != nil {
			return err
		}
	}
	for _, rel := range testeeFiles {
		if err := relink(testStageDir, rel, filepath.Join(testeeDir, rel)); err != nil {
			return err
		}
	}
	return nil
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
	score := (raw / best) / (math.Log(float64(suiteSize)) + 10)
	score *= 25
	return roundTo2(score)
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
		cmd.Dir = filepath.Join(newSubmission, "programs")
		out, _ := cmd.Output()
		fmt.Fprintf(&sb, "=== %s ===\n%s\n", prog, strings.TrimSpace(string(out)))
	}
	return sb.String(), nil
}
