// Package bootstrap assembles the concrete components (config, adapter,
// flag store, queue, tournament state) both CLIs need from a single
// --state-dir root, mirroring the teacher's own config.GetDefaultConfigPathOrPanic
// + one-shot "load everything the command needs" pattern used at the top of
// each cobra RunE.
package bootstrap

import (
	"os"
	"path/filepath"
)

// Paths resolves every well-known file and directory under a tournament's
// state root, matching spec.md §6's persistent state layout tree exactly
// (state-dir stands in for the tree's unlabeled root).
type Paths struct {
	StateDir string
}

// DefaultPaths returns the paths rooted at ./state, the default --state-dir.
func DefaultPaths() Paths {
	return Paths{StateDir: "./state"}
}

func (p Paths) ConfigDir() string         { return filepath.Join(p.StateDir, "config") }
func (p Paths) StateFile() string         { return filepath.Join(p.StateDir, "tourney_state.json") }
func (p Paths) ResultsFile() string       { return filepath.Join(p.StateDir, "tourney_results.json") }
func (p Paths) SubmissionsDir() string    { return filepath.Join(p.StateDir, "submissions") }
func (p Paths) PreValidationDir() string  { return filepath.Join(p.SubmissionsDir(), "pre_validation") }
func (p Paths) StagedDir() string         { return filepath.Join(p.SubmissionsDir(), "staged") }
func (p Paths) TourneyDir() string        { return filepath.Join(p.SubmissionsDir(), "tourney") }
func (p Paths) HeadToHeadDir() string     { return filepath.Join(p.SubmissionsDir(), "head_to_head") }
func (p Paths) ProgDiffsCSV() string      { return filepath.Join(p.StateDir, "submitter_prog_diffs.csv") }
func (p Paths) StudentResultsCSV() string { return filepath.Join(p.StateDir, "student_results.csv") }
func (p Paths) TracesLog() string         { return filepath.Join(p.StateDir, "tournament_traces.log") }

// SnapshotArchiveDir is where Save archives a timestamped copy of every
// snapshot it writes, alongside the live tourney_results.json.
func (p Paths) SnapshotArchiveDir() string { return p.StateDir }

// Dirs lists every directory EnsureDirs must create.
func (p Paths) Dirs() []string {
	return []string{
		p.ConfigDir(),
		p.PreValidationDir(),
		p.StagedDir(),
		p.TourneyDir(),
		p.HeadToHeadDir(),
	}
}

// EnsureDirs creates every directory in Dirs, if not already present.
func (p Paths) EnsureDirs() error {
	for _, dir := range p.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
