// Package scheduler runs the single long-running daemon loop: pop the
// oldest ready item off the submission/report queue, and either run a
// newly accepted submission's tests against the rest of the tournament's
// programs (and vice versa) or rebuild the scoreboard snapshot. Submission
// processing fans out over a bounded worker pool, rerunning only the cells
// a submission could plausibly have changed and copying every other cell
// forward from the existing tournament state.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"tourney/internal/assignment"
	"tourney/internal/flagstore"
	"tourney/internal/metrics"
	"tourney/internal/notify"
	"tourney/internal/queue"
	"tourney/internal/tourneystate"
	"tourney/internal/validator"
	"tourney/pkg/logging"
)

const subsystem = "scheduler"

// BuildReport is called whenever a report request reaches the front of the
// queue. It is a function value rather than a direct import of
// internal/snapshot so this package's dependency surface stays limited to
// what it actually orchestrates.
type BuildReport func(ctx context.Context, state *tourneystate.State) error

// Scheduler owns the daemon's main loop.
type Scheduler struct {
	Adapter     assignment.Adapter
	State       *tourneystate.State
	Queue       *queue.Queue
	Flags       *flagstore.Store
	Notifier    notify.Notifier
	Metrics     *metrics.Collector
	BuildReport BuildReport

	SourceAssgDir string // unmodified assignment source, re-copied into each scratch dir
	TourneyDir    string // root holding each submitter's currently accepted submission
	HeadToHeadDir string // scratch space for the worker pool, wiped at the start of each pass
	StateFilePath string // where tourneystate.State.Save persists to

	Workers      int           // defaults to runtime.NumCPU()
	PollInterval time.Duration // defaults to 2s
}

func (s *Scheduler) workers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s *Scheduler) pollInterval() time.Duration {
	if s.PollInterval > 0 {
		return s.PollInterval
	}
	return 2 * time.Second
}

func (s *Scheduler) submitterDir(submitter assignment.Submitter) string {
	return filepath.Join(s.TourneyDir, string(submitter))
}

// Run drives the daemon loop until ctx is canceled, the ALIVE flag is
// cleared, or SHUTDOWN is requested. A panic anywhere in one pass is
// recovered, logged, reported through Notifier, and clears ALIVE before
// Run returns, mirroring the original daemon's top-level crash handler:
// there is no automatic restart, the process is expected to exit.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error(subsystem, fmt.Errorf("%v", r), "scheduler panic, shutting down")
			_ = s.Notifier.NotifyCrash(ctx, "tourney scheduler crashed", fmt.Sprintf("%v", r))
			_ = s.Flags.Set(flagstore.Alive, false)
			err = fmt.Errorf("scheduler: recovered panic: %v", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if !s.Flags.Get(flagstore.Alive) || s.Flags.Get(flagstore.ShuttingDown) {
			return nil
		}

		if depth, err := s.Queue.Depth(); err == nil {
			s.Metrics.SetQueueDepth(depth)
		}

		req, ok, err := s.Queue.PeekOldest()
		if err != nil {
			logging.Error(subsystem, err, "polling queue failed")
			time.Sleep(s.pollInterval())
			continue
		}
		if !ok {
			time.Sleep(s.pollInterval())
			continue
		}

		if err := s.process(ctx, req); err != nil {
			logging.Error(subsystem, err, "processing %s failed", req.Name)
		}
		if err := os.RemoveAll(req.Path); err != nil {
			logging.Error(subsystem, err, "removing queue entry %s", req.Name)
		}
	}
}

func (s *Scheduler) process(ctx context.Context, req queue.Request) error {
	if req.IsReport {
		if s.BuildReport == nil {
			return nil
		}
		return s.BuildReport(ctx, s.State)
	}
	return s.processSubmission(ctx, req)
}

// processSubmission promotes a validated submission into the tournament,
// determines which tests/programs are new relative to the submitter's
// prior submission, runs the submitter's tests against every other
// submitter's programs (and every other submitter's tests against the
// submitter's programs) incrementally, and persists the resulting state.
// Grounded on run_submission/run_tests.
func (s *Scheduler) processSubmission(ctx context.Context, req queue.Request) error {
	start := time.Now()
	submitter := req.Submitter
	oldDir := s.submitterDir(submitter)

	var newTests []assignment.Test
	var newProgs []assignment.Prog
	var err error
	if _, statErr := os.Stat(oldDir); statErr == nil {
		newTests, err = s.Adapter.DetectNewTests(req.Path, oldDir)
		if err != nil {
			return fmt.Errorf("scheduler: detecting new tests: %w", err)
		}
		newProgs, err = s.Adapter.DetectNewProgs(req.Path, oldDir)
		if err != nil {
			return fmt.Errorf("scheduler: detecting new progs: %w", err)
		}
	} else {
		newTests, err = s.Adapter.TestList(req.Path)
		if err != nil {
			return fmt.Errorf("scheduler: listing tests: %w", err)
		}
		newProgs, err = s.Adapter.ProgramsList(req.Path)
		if err != nil {
			return fmt.Errorf("scheduler: listing progs: %w", err)
		}
	}

	numTests, err := validator.ReadNumTestsFile(req.Path)
	if err != nil {
		logging.Warn(subsystem, "no num_tests.json found for %s: %v", submitter, err)
		numTests = map[assignment.Test]int{}
	}

	if err := promoteSubmission(req.Path, oldDir); err != nil {
		return fmt.Errorf("scheduler: promoting submission for %s: %w", submitter, err)
	}

	s.State.SetTimeOfSubmission(submitter, req.Time)
	for test, n := range numTests {
		s.State.SetNumTests(submitter, test, n)
	}

	logging.Info(subsystem, "processing submission for %s: %d new tests, %d new progs",
		submitter, len(newTests), len(newProgs))

	results, err := s.runCrossProduct(ctx, submitter, newTests, newProgs)
	if err != nil {
		return err
	}
	for _, r := range results {
		for test, byProg := range r.testSet {
			for prog, result := range byProg {
				s.State.SetResult(r.tester, r.testee, test, prog, result)
			}
		}
	}

	if err := s.State.Save(s.StateFilePath); err != nil {
		return fmt.Errorf("scheduler: saving tournament state: %w", err)
	}

	s.Metrics.ObserveSubmissionDuration(time.Since(start).Seconds())
	logging.Info(subsystem, "submission from %s tested in %s", submitter, time.Since(start).Round(time.Millisecond))
	return nil
}

// runCrossProduct dispatches the submitter's tests against every other
// submitter's programs, and every other submitter's tests against the
// submitter's programs, over a pool of worker scratch directories bounded
// by s.workers().
func (s *Scheduler) runCrossProduct(ctx context.Context, submitter assignment.Submitter, newTests []assignment.Test, newProgs []assignment.Prog) ([]pairResult, error) {
	p := newPool(s.HeadToHeadDir, s.SourceAssgDir, s.workers())
	if err := p.reset(); err != nil {
		return nil, err
	}

	var jobs []pairJob
	for _, other := range s.State.Submitters() {
		if other == submitter {
			continue
		}
		jobs = append(jobs, pairJob{tester: submitter, testee: other, newTests: newTests})
		jobs = append(jobs, pairJob{tester: other, testee: submitter, newProgs: newProgs})
	}

	ordinals := p.ordinals()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())

	results := make([]pairResult, len(jobs))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			ordinal := <-ordinals
			defer func() { ordinals <- ordinal }()

			scratchDir, err := p.scratchDir(ordinal)
			if err != nil {
				return err
			}
			result, err := s.runPair(gctx, scratchDir, job)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Scheduler) logRunTestError(tester, testee assignment.Submitter, test assignment.Test, prog assignment.Prog, err error) {
	logging.Error(subsystem, err, "run_test failed for %s/%s on %s/%s, keeping prior result", tester, testee, test, prog)
}

func (s *Scheduler) observeOutcome(result assignment.TestResult) {
	s.Metrics.IncAdapterOutcome(string(result))
}

// promoteSubmission replaces oldDir with the contents of newDir. A rename
// is attempted first since it is atomic and free; if newDir and oldDir
// live on different filesystems the rename fails and a copy+remove is
// used instead.
func promoteSubmission(newDir, oldDir string) error {
	if err := os.RemoveAll(oldDir); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(oldDir), 0o755); err != nil {
		return err
	}
	if err := os.Rename(newDir, oldDir); err == nil {
		return nil
	}
	if err := copyDir(newDir, oldDir); err != nil {
		return err
	}
	return os.RemoveAll(newDir)
}

// Clean removes all submissions, scheduling state, and configuration,
// resetting the daemon to a pristine state. Grounded on
// original_source/tournament/main.py's clean(), which the operator CLI
// refuses to run while the tournament is online.
func Clean(dirs []string, files []string, flags *flagstore.Store) error {
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("scheduler: clean: removing %s: %w", dir, err)
		}
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("scheduler: clean: removing %s: %w", f, err)
		}
	}
	return flags.ClearAll()
}
