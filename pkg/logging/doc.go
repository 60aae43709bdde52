// Package logging provides a structured logging system for the tournament
// engine that supports both one-shot CLI execution (tourneyctl,
// tourney-submit) and the long-running scheduler daemon, built on top of
// log/slog.
//
// # Execution Modes
//
//   - CLI Mode: direct text output to stdout/stderr via slog.TextHandler.
//   - Daemon Mode: same text output, plus every entry is additionally sent
//     over a buffered channel so a crash handler can attach recent log
//     history to a notification without re-parsing the text stream.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//	logging.Info("validator", "submission %s passed eligibility check", submitter)
//	logging.Error("scheduler", err, "worker %d failed pair %s/%s", id, tester, testee)
//
// Log entries carry a subsystem tag (validator, queue, scheduler,
// resultsserver, ...) to make filtering straightforward downstream.
package logging
