package scoretable

import (
	"strings"
	"testing"
	"time"

	"tourney/internal/assignment"
	"tourney/internal/snapshot"
)

func TestRenderOrdersRowsByCombinedScoreDescending(t *testing.T) {
	t1 := time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC)
	snap := snapshot.Snapshot{
		NumSubmitters: 2,
		Results: map[assignment.Submitter]snapshot.SubmitterResult{
			"alice": {NormalizedTestScore: 90, NormalizedProgScore: 5, LatestSubmissionDate: &t1},
			"bob":   {NormalizedTestScore: 10, NormalizedProgScore: 0},
		},
	}

	out := Render(snap)

	aliceIdx := strings.Index(out, "alice")
	bobIdx := strings.Index(out, "bob")
	if aliceIdx == -1 || bobIdx == -1 {
		t.Fatalf("expected both submitters rendered, got %q", out)
	}
	if aliceIdx > bobIdx {
		t.Errorf("expected alice (higher score) before bob, got %q", out)
	}
	if !strings.Contains(out, "no submission") {
		t.Errorf("expected bob's missing submission date to render, got %q", out)
	}
}

func TestRenderSharesRankAcrossTies(t *testing.T) {
	snap := snapshot.Snapshot{
		Results: map[assignment.Submitter]snapshot.SubmitterResult{
			"alice": {NormalizedTestScore: 50, NormalizedProgScore: 0},
			"bob":   {NormalizedTestScore: 50, NormalizedProgScore: 0},
		},
	}

	out := Render(snap)
	lines := strings.Split(out, "\n")
	var rankLines []string
	for _, l := range lines {
		if strings.Contains(l, "alice") || strings.Contains(l, "bob") {
			rankLines = append(rankLines, l)
		}
	}
	if len(rankLines) != 2 {
		t.Fatalf("expected 2 data rows, got %d: %v", len(rankLines), rankLines)
	}
	if !strings.Contains(rankLines[0], "1") || !strings.Contains(rankLines[1], "1") {
		t.Errorf("expected both tied rows to show rank 1, got %v", rankLines)
	}
}
