package queue

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tourney/internal/assignment"
	"tourney/internal/flagstore"
)

func newTestQueue(t *testing.T) (*Queue, string) {
	t.Helper()
	dir := t.TempDir()
	fs := flagstore.New(dir)
	return New(dir, fs), dir
}

func TestPeekOldestSkipsNotReadySubmissions(t *testing.T) {
	q, dir := newTestQueue(t)
	name := SubmissionDirName("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := os.MkdirAll(filepath.Join(dir, name), 0o755); err != nil {
		t.Fatal(err)
	}

	_, ok, err := q.PeekOldest()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected not-ready submission to be skipped")
	}
}

func TestPeekOldestReturnsReadySubmissionInOrder(t *testing.T) {
	q, dir := newTestQueue(t)
	fs := flagstore.New(dir)

	older := SubmissionDirName("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := SubmissionDirName("bob", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	for _, name := range []string{older, newer} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := fs.MarkSubmissionReady(p); err != nil {
			t.Fatal(err)
		}
	}
	// force distinct mtimes on the directories themselves
	now := time.Now()
	os.Chtimes(filepath.Join(dir, older), now.Add(-time.Hour), now.Add(-time.Hour))
	os.Chtimes(filepath.Join(dir, newer), now, now)

	req, ok, err := q.PeekOldest()
	if err != nil || !ok {
		t.Fatalf("expected a ready request, got ok=%v err=%v", ok, err)
	}
	if req.Submitter != "alice" {
		t.Errorf("expected oldest submission (alice) first, got %s", req.Submitter)
	}
}

func TestDepthCountsAllStagedEntriesRegardlessOfReadiness(t *testing.T) {
	q, dir := newTestQueue(t)

	notReady := SubmissionDirName("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := os.MkdirAll(filepath.Join(dir, notReady), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := q.CreateReportRequest(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	depth, err := q.Depth()
	if err != nil {
		t.Fatal(err)
	}
	if depth != 2 {
		t.Errorf("Depth() = %d, want 2", depth)
	}
}

func TestPeekOldestParsesSubmitterIdContainingDots(t *testing.T) {
	q, dir := newTestQueue(t)
	fs := flagstore.New(dir)

	name := SubmissionDirName("jane.doe", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := fs.MarkSubmissionReady(p); err != nil {
		t.Fatal(err)
	}

	req, ok, err := q.PeekOldest()
	if err != nil || !ok {
		t.Fatalf("expected a ready request, got ok=%v err=%v", ok, err)
	}
	if req.Submitter != "jane.doe" {
		t.Errorf("expected submitter %q, got %q", "jane.doe", req.Submitter)
	}
}

func TestCreateReportRequestIsRecognisedAsReport(t *testing.T) {
	q, _ := newTestQueue(t)
	reportTime := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if err := q.CreateReportRequest(reportTime); err != nil {
		t.Fatal(err)
	}

	req, ok, err := q.PeekOldest()
	if err != nil || !ok {
		t.Fatalf("expected report request to be found, got ok=%v err=%v", ok, err)
	}
	if !req.IsReport {
		t.Error("expected IsReport to be true")
	}
	if !req.Time.Equal(reportTime) {
		t.Errorf("expected time %v, got %v", reportTime, req.Time)
	}
}

func TestRemovePreviousOccurrencesRemovesQueuedSubmission(t *testing.T) {
	q, dir := newTestQueue(t)
	fs := flagstore.New(dir)

	oldSubmission := SubmissionDirName("alice", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p := filepath.Join(dir, oldSubmission)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := fs.MarkSubmissionReady(p); err != nil {
		t.Fatal(err)
	}

	if err := q.RemovePreviousOccurrences(assignment.Submitter("alice")); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("expected stale submission to be removed")
	}
}
