// Package flagstore implements presence-as-boolean signaling between the
// scheduler daemon and the CLI front ends: whether a flag "is set" is
// whether a particular file exists on disk. This makes flag state trivially
// crash-safe (a crashed process leaves the filesystem exactly as it was)
// and lets shell-level tooling (operators, cron jobs) inspect daemon state
// without an RPC.
package flagstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Flag identifies a daemon-wide signal.
type Flag string

const (
	// Alive is present for the entire lifetime of a healthy scheduler
	// daemon process; its absence tells clients the tournament is not
	// currently running.
	Alive Flag = "alive"
	// ShuttingDown is set by a shutdown request. The scheduler checks it
	// before taking each request from the queue and exits once it is set,
	// leaving any still-queued requests in place.
	ShuttingDown Flag = "shutdown"
	// SubmissionsClosed, when set, causes the validator pipeline to
	// reject new submissions ahead of a deadline while still allowing
	// the scheduler to finish processing the backlog.
	SubmissionsClosed Flag = "subs_closed"
)

// readyFileName marks a submission directory as fully copied. Two
// goroutines independently copy submissions into and out of the staging
// directory; this file prevents a reader from observing a partially copied
// tree.
const readyFileName = ".ready"

// Store manages daemon-wide and per-submission flags rooted at a state
// directory.
type Store struct {
	dir string
}

// New returns a Store that keeps its flag files under dir. dir must already
// exist.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(flag Flag) string {
	return filepath.Join(s.dir, "."+string(flag))
}

// Set creates or removes the file backing flag depending on value.
func (s *Store) Set(flag Flag, value bool) error {
	if value {
		f, err := os.OpenFile(s.path(flag), os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("flagstore: set %s: %w", flag, err)
		}
		return f.Close()
	}
	if err := os.Remove(s.path(flag)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("flagstore: clear %s: %w", flag, err)
	}
	return nil
}

// Get reports whether flag is currently set.
func (s *Store) Get(flag Flag) bool {
	_, err := os.Stat(s.path(flag))
	return err == nil
}

// ClearAll removes every daemon-wide flag. Used by the daemon on both
// startup (to clear stale state from a prior crash) and the `clean`
// operator command.
func (s *Store) ClearAll() error {
	for _, flag := range []Flag{Alive, ShuttingDown, SubmissionsClosed} {
		if err := s.Set(flag, false); err != nil {
			return err
		}
	}
	return nil
}

// MarkSubmissionReady flags submissionDir as fully copied.
func (s *Store) MarkSubmissionReady(submissionDir string) error {
	f, err := os.OpenFile(filepath.Join(submissionDir, readyFileName), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("flagstore: mark submission ready: %w", err)
	}
	return f.Close()
}

// SubmissionReady reports whether submissionDir has been fully copied.
func (s *Store) SubmissionReady(submissionDir string) bool {
	_, err := os.Stat(filepath.Join(submissionDir, readyFileName))
	return err == nil
}

// StageFlag marks completion of one stage of the per-submission validation
// pipeline. Each stage's flag file lives inside that submission's own
// working directory, so stage state travels with the submission rather than
// being keyed by submitter name in a central table.
type StageFlag string

const (
	StageEligible   StageFlag = "ELIG"
	StageCompiled   StageFlag = "COMPILED"
	StageTestsValid StageFlag = "TESTS_VALID"
	StageProgsValid StageFlag = "PROGS_VALID"
	StageSubmitted  StageFlag = "SUBMISSION_READY"
)

// SetStage creates or removes the stage flag file inside submissionDir.
func SetStage(submissionDir string, stage StageFlag, value bool) error {
	path := filepath.Join(submissionDir, "."+string(stage))
	if value {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("flagstore: set stage %s: %w", stage, err)
		}
		return f.Close()
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("flagstore: clear stage %s: %w", stage, err)
	}
	return nil
}

// HasStage reports whether submissionDir has completed stage.
func HasStage(submissionDir string, stage StageFlag) bool {
	_, err := os.Stat(filepath.Join(submissionDir, "."+string(stage)))
	return err == nil
}
