package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"tourney/internal/assignment"
	"tourney/internal/flagstore"
	"tourney/internal/queue"
	"tourney/internal/tourneyconfig"
	"tourney/internal/tourneystate"
	"tourney/internal/validator"
)

// Resources holds everything a CLI subcommand needs to act on a tournament,
// loaded once from a --state-dir.
type Resources struct {
	Paths    Paths
	Config   tourneyconfig.AssignmentConfig
	Approved tourneyconfig.ApprovedSubmittersConfig
	Server   tourneyconfig.ServerConfig
	Adapter  assignment.Adapter
	Flags    *flagstore.Store
	Queue    *queue.Queue
	State    *tourneystate.State

	Tests []assignment.Test
	Progs []assignment.Prog
}

// Load assembles Resources rooted at stateDir, creating the directory tree
// if it does not already exist. A missing assignment_config.json or
// approved_submitters.json surfaces tourneyconfig.ErrNoConfigDefined, which
// callers should treat as the fatal "configuration error" of spec.md §7:
// the default has just been written and the operator must fill it in.
func Load(stateDir string) (*Resources, error) {
	paths := Paths{StateDir: stateDir}
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("bootstrap: creating state tree: %w", err)
	}

	assignCfg, err := tourneyconfig.LoadAssignmentConfig(paths.ConfigDir())
	if err != nil {
		return nil, err
	}
	approved, err := tourneyconfig.LoadApprovedSubmittersConfig(paths.ConfigDir())
	if err != nil {
		return nil, err
	}
	serverCfg, err := tourneyconfig.LoadServerConfig(paths.ConfigDir())
	if err != nil {
		return nil, err
	}

	adapter, err := assignment.New(assignCfg.AssignmentType, map[string]any{
		"source_assg_dir": assignCfg.SourceAssgDir,
		"tourney_dir":     paths.TourneyDir(),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: building assignment adapter: %w", err)
	}

	flags := flagstore.New(paths.StateDir)
	q := queue.New(paths.StagedDir(), flags)

	submitters := make(map[assignment.Submitter]string, len(approved.Submitters))
	for _, s := range approved.Submitters {
		submitters[assignment.Submitter(s.Name)] = s.Email
	}

	tests, progs, err := discoverTestsAndProgs(adapter, paths.TourneyDir())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: discovering tests/progs: %w", err)
	}

	state, err := tourneystate.Load(paths.StateFile(), submitters, tests, progs)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: loading tournament state: %w", err)
	}

	return &Resources{
		Paths:    paths,
		Config:   assignCfg,
		Approved: approved,
		Server:   serverCfg,
		Adapter:  adapter,
		Flags:    flags,
		Queue:    q,
		State:    state,
		Tests:    tests,
		Progs:    progs,
	}, nil
}

// NewValidatorPipeline builds the staged validation pipeline this tournament
// uses, rooted at r's pre-validation directory.
func (r *Resources) NewValidatorPipeline() *validator.Pipeline {
	return validator.New(r.Adapter, r.Config.AssignmentType, r.Config.SourceAssgDir, r.Paths.PreValidationDir(), r.Paths.StagedDir(), r.Flags)
}

// RefreshTestsAndProgs re-unions r.Tests/r.Progs across every submitter
// currently promoted into the tourney directory. A long-running daemon
// calls this before building each new report snapshot, since the set
// discovered once at Load time goes stale as more submitters are accepted.
func (r *Resources) RefreshTestsAndProgs() error {
	tests, progs, err := discoverTestsAndProgs(r.Adapter, r.Paths.TourneyDir())
	if err != nil {
		return fmt.Errorf("bootstrap: refreshing tests/progs: %w", err)
	}
	r.Tests, r.Progs = tests, progs
	return nil
}

// discoverTestsAndProgs unions the tests and programs under test across
// every submitter already promoted into tourneyDir, since no single
// submission is guaranteed to define the full set the scheduler has ever
// seen (a submitter's own tests are fixed by the assignment, but the prog
// set grows as more submitters' mutants enter the tournament).
func discoverTestsAndProgs(adapter assignment.Adapter, tourneyDir string) ([]assignment.Test, []assignment.Prog, error) {
	entries, err := os.ReadDir(tourneyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	testSet := map[assignment.Test]struct{}{}
	progSet := map[assignment.Prog]struct{}{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(tourneyDir, e.Name())
		tests, err := adapter.TestList(dir)
		if err != nil {
			continue
		}
		for _, t := range tests {
			testSet[t] = struct{}{}
		}
		progs, err := adapter.ProgramsList(dir)
		if err != nil {
			continue
		}
		for _, p := range progs {
			progSet[p] = struct{}{}
		}
	}

	tests := make([]assignment.Test, 0, len(testSet))
	for t := range testSet {
		tests = append(tests, t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i] < tests[j] })

	progs := make([]assignment.Prog, 0, len(progSet))
	for p := range progSet {
		progs = append(progs, p)
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i] < progs[j] })

	return tests, progs, nil
}
