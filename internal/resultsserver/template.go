package resultsserver

import (
	"html/template"
	"io"
	"sort"
	"strconv"
	"time"

	"tourney/internal/assignment"
	"tourney/internal/snapshot"
)

// resultsPage is the view model fed to resultsTemplate: a ranked list of
// rows, ties sharing the same rank, matching _table_body_from_results'
// "prev_score" tracking. The next distinct score takes the next
// consecutive rank (1, 1, 2), so no rank number is skipped.
type resultsPage struct {
	SnapshotDate   string
	QueuedRequests int
	ProcessingTime float64
	NumSubmitters  int
	Rows           []resultsRow
}

type resultsRow struct {
	Rank           string
	Submitter      string
	SubmissionDate string
	TestScores     []int
	ProgScores     []int
	HasSubmission  bool
}

const resultsHTML = `<!DOCTYPE html>
<html>
<body>
<h1>Results as of {{.SnapshotDate}}</h1>
<p>There are {{.QueuedRequests}} submissions awaiting processing.</p>
<p>The most recent submission took {{.ProcessingTime}} seconds to process.</p>
<table style="width:100%" align="center">
<tr><th align="center">Rank</th><th align="center">Name</th><th align="center">Date of submission</th><th align="center">Bugs detected</th><th align="center">Tests evaded</th></tr>
{{range .Rows}}<tr>
<td align="center">{{.Rank}}</td>
<td align="center">{{.Submitter}}</td>
<td align="center">{{.SubmissionDate}}</td>
<td align="center">{{.TestScores}}</td>
<td align="center">{{.ProgScores}}</td>
</tr>
{{end}}</table>
</body>
</html>`

var resultsTemplate = template.Must(template.New("results").Parse(resultsHTML))

func renderResults(w io.Writer, snap snapshot.Snapshot, queuedRequests int) error {
	page := resultsPage{
		SnapshotDate:   snap.SnapshotDate.Format(time.DateTime),
		QueuedRequests: queuedRequests,
		ProcessingTime: snap.TimeToProcessLastSubmission,
		NumSubmitters:  snap.NumSubmitters,
		Rows:           rankedRows(snap),
	}
	return resultsTemplate.Execute(w, page)
}

func rankedRows(snap snapshot.Snapshot) []resultsRow {
	type scored struct {
		submitter assignment.Submitter
		result    snapshot.SubmitterResult
		score     float64
	}
	entries := make([]scored, 0, len(snap.Results))
	for submitter, result := range snap.Results {
		entries = append(entries, scored{
			submitter: submitter,
			result:    result,
			score:     result.NormalizedTestScore + result.NormalizedProgScore,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].submitter < entries[j].submitter
	})

	rows := make([]resultsRow, 0, len(entries))
	rank := 0
	prevScore := -1.0
	for _, e := range entries {
		if e.result.LatestSubmissionDate == nil {
			rows = append(rows, resultsRow{Rank: "-", Submitter: string(e.submitter), SubmissionDate: "No submission"})
			continue
		}
		if e.score != prevScore {
			rank++
			prevScore = e.score
		}
		rows = append(rows, resultsRow{
			Rank:           strconv.Itoa(rank),
			Submitter:      string(e.submitter),
			SubmissionDate: e.result.LatestSubmissionDate.Format(time.DateTime),
			TestScores:     sortedValues(e.result.Tests, testKeys(e.result.Tests)),
			ProgScores:     sortedProgValues(e.result.Progs, progKeys(e.result.Progs)),
			HasSubmission:  true,
		})
	}
	return rows
}

func testKeys(m map[assignment.Test]int) []assignment.Test {
	keys := make([]assignment.Test, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func progKeys(m map[assignment.Prog]int) []assignment.Prog {
	keys := make([]assignment.Prog, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedValues(m map[assignment.Test]int, keys []assignment.Test) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func sortedProgValues(m map[assignment.Prog]int, keys []assignment.Prog) []int {
	out := make([]int, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
