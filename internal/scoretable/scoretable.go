// Package scoretable renders a Snapshot as a go-pretty table for
// `tourneyctl report --format=table`, the CLI-side counterpart of
// internal/resultsserver's HTML rendering.
package scoretable

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"tourney/internal/assignment"
	"tourney/internal/snapshot"
	strutil "tourney/pkg/strings"
)

// maxTraceWidth bounds how much of a submitter's name column takes up,
// truncated through pkg/strings the way the teacher clips tool descriptions.
const maxTraceWidth = 40

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

// Render writes snap as a ranked table ordered by combined normalized
// score, ties broken by submitter name.
func Render(snap snapshot.Snapshot) string {
	t := newTable()

	headers := table.Row{
		text.FgHiCyan.Sprint("RANK"),
		text.FgHiCyan.Sprint("SUBMITTER"),
		text.FgHiCyan.Sprint("BUG SCORE"),
		text.FgHiCyan.Sprint("EVASION SCORE"),
		text.FgHiCyan.Sprint("LAST SUBMITTED"),
	}
	t.AppendHeader(headers)

	type row struct {
		submitter assignment.Submitter
		result    snapshot.SubmitterResult
		score     float64
	}
	rows := make([]row, 0, len(snap.Results))
	for submitter, result := range snap.Results {
		rows = append(rows, row{
			submitter: submitter,
			result:    result,
			score:     result.NormalizedTestScore + result.NormalizedProgScore,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].submitter < rows[j].submitter
	})

	rank := 0
	prevScore := -1.0
	for _, r := range rows {
		if r.score != prevScore {
			rank++
			prevScore = r.score
		}
		t.AppendRow(table.Row{
			rank,
			strutil.TruncateDescription(string(r.submitter), maxTraceWidth),
			formatScore(r.result.NormalizedTestScore),
			formatScore(r.result.NormalizedProgScore),
			formatSubmissionDate(r.result),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d submitters", snap.NumSubmitters)})

	var out strings.Builder
	t.SetOutputMirror(&out)
	t.Render()
	return out.String()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func formatSubmissionDate(r snapshot.SubmitterResult) string {
	if r.LatestSubmissionDate == nil {
		return text.FgHiBlack.Sprint("no submission")
	}
	return r.LatestSubmissionDate.Format("2006-01-02 15:04:05")
}
