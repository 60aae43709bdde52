package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tourney/internal/assignment"
)

const timestampFileLayout = "2006_01_02__15_04_05"

// Save writes snap as tourney_results.json at resultsPath, atomically via
// a tempfile-then-rename, and additionally archives a timestamped copy
// under reportDir (e.g. reportDir/snapshot_2026_07_31__12_00_00.json) when
// archive is true. Grounded on write_snapshot's two json.dump calls.
func Save(resultsPath string, snap Snapshot, reportDir string, archive bool) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: marshaling: %w", err)
	}

	if err := writeAtomic(resultsPath, data); err != nil {
		return err
	}

	if archive {
		archivePath := filepath.Join(reportDir, "snapshot_"+snap.SnapshotDate.Format(timestampFileLayout)+".json")
		if err := os.WriteFile(archivePath, data, 0o644); err != nil {
			return fmt.Errorf("snapshot: archiving to %s: %w", archivePath, err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("snapshot: renaming into %s: %w", path, err)
	}
	return nil
}

// SaveCSV writes student_results.csv at csvPath.
func SaveCSV(csvPath string, snap Snapshot, tests []assignment.Test, progs []assignment.Prog) error {
	f, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("snapshot: creating %s: %w", csvPath, err)
	}
	defer f.Close()
	return WriteCSV(f, snap, tests, progs)
}
