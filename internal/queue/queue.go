// Package queue implements a crash-safe FIFO backed entirely by directory
// entries in a staging directory: a submission request is a directory named
// "submission.<submitter>.<timestamp>.<uuid>", a report request is an empty
// file named "report_request.<timestamp>.<uuid>". Ordering is by filesystem
// modification time, so the queue survives a daemon restart with no
// separate index to go stale.
package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourney/internal/assignment"
	"tourney/internal/flagstore"
)

const (
	reportRequestPrefix     = "report_request."
	submissionRequestPrefix = "submission."

	timeLayout = "2006_01_02__15_04_05"
)

// Queue manages the staging directory's FIFO.
type Queue struct {
	stagingDir string
	flags      *flagstore.Store
}

// New returns a Queue rooted at stagingDir. stagingDir must already exist.
func New(stagingDir string, flags *flagstore.Store) *Queue {
	return &Queue{stagingDir: stagingDir, flags: flags}
}

// Request identifies one popped item: either a submission or a report
// request, distinguished by IsReport.
type Request struct {
	Name      string
	Path      string
	IsReport  bool
	Submitter assignment.Submitter // zero value for report requests
	Time      time.Time
}

// PeekOldest returns the oldest ready entry in the staging directory, or
// ok=false if the queue is empty. A submission directory that has not yet
// finished being copied in (missing its ready flag) is skipped, since a
// reader racing the writer must never observe a partial submission.
func (q *Queue) PeekOldest() (Request, bool, error) {
	entries, err := os.ReadDir(q.stagingDir)
	if err != nil {
		return Request{}, false, fmt.Errorf("queue: reading %s: %w", q.stagingDir, err)
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		name := e.Name()
		path := filepath.Join(q.stagingDir, name)
		if isSubmission(name) && !q.flags.SubmissionReady(path) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: name, modTime: info.ModTime()})
	}
	if len(candidates) == 0 {
		return Request{}, false, nil
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.Before(candidates[j].modTime) })

	oldest := candidates[0]
	return q.describe(oldest.name)
}

func (q *Queue) describe(name string) (Request, bool, error) {
	path := filepath.Join(q.stagingDir, name)
	if isReport(name) {
		t, err := reportRequestTime(name)
		if err != nil {
			return Request{}, false, err
		}
		return Request{Name: name, Path: path, IsReport: true, Time: t}, true, nil
	}
	submitter, t, err := submissionRequestDetails(name)
	if err != nil {
		return Request{}, false, err
	}
	return Request{Name: name, Path: path, Submitter: submitter, Time: t}, true, nil
}

// Depth reports how many requests are currently waiting in the staging
// directory, submission or report, ready or not. Used for the queue_depth
// gauge and the results page's "N queued" line.
func (q *Queue) Depth() (int, error) {
	entries, err := os.ReadDir(q.stagingDir)
	if err != nil {
		return 0, fmt.Errorf("queue: reading %s: %w", q.stagingDir, err)
	}
	return len(entries), nil
}

// RemovePreviousOccurrences deletes any queued-but-not-yet-processed
// submission directories for submitter that were queued after the most
// recent report request (or anywhere in the queue, if there is no report
// request); entries older than that report request are kept. This
// implements last-submission-wins: if a
// submitter pushes twice before the scheduler gets to either, only the
// newer one needs to run.
func (q *Queue) RemovePreviousOccurrences(submitter assignment.Submitter) error {
	entries, err := os.ReadDir(q.stagingDir)
	if err != nil {
		return fmt.Errorf("queue: reading %s: %w", q.stagingDir, err)
	}

	type candidate struct {
		name    string
		modTime time.Time
	}
	var candidates []candidate
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{name: e.Name(), modTime: info.ModTime()})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].modTime.After(candidates[j].modTime) })

	for _, c := range candidates {
		if isReport(c.name) {
			break
		}
		if !isSubmission(c.name) {
			continue
		}
		sub, _, err := submissionRequestDetails(c.name)
		if err != nil {
			continue
		}
		if sub == submitter {
			if err := os.RemoveAll(filepath.Join(q.stagingDir, c.name)); err != nil {
				return fmt.Errorf("queue: removing stale submission %s: %w", c.name, err)
			}
		}
	}
	return nil
}

// CreateReportRequest enqueues a report request timestamped at t. A uuid
// suffix disambiguates two report requests landing in the same second,
// which a bare timestamp can't.
func (q *Queue) CreateReportRequest(t time.Time) error {
	name := reportRequestPrefix + t.Format(timeLayout) + "." + uuid.NewString()
	f, err := os.OpenFile(filepath.Join(q.stagingDir, name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("queue: creating report request: %w", err)
	}
	return f.Close()
}

// SubmissionDirName returns the staging directory name for a submission
// from submitter at submissionTime, without creating anything. The uuid
// suffix disambiguates two submissions from the same submitter landing in
// the same second.
func SubmissionDirName(submitter assignment.Submitter, submissionTime time.Time) string {
	return submissionRequestPrefix + string(submitter) + "." + submissionTime.Format(timeLayout) + "." + uuid.NewString()
}

func isReport(name string) bool {
	return strings.HasPrefix(name, reportRequestPrefix)
}

func isSubmission(name string) bool {
	return strings.HasPrefix(name, submissionRequestPrefix)
}

func reportRequestTime(name string) (time.Time, error) {
	parts := strings.SplitN(name, ".", 3)
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("queue: malformed report request name %q", name)
	}
	return time.Parse(timeLayout, parts[1])
}

// submissionRequestDetails parses a submission directory name of the form
// "submission.<submitter>.<timestamp>.<uuid>". The submitter segment may
// itself contain dots, so the submitter is everything between the prefix
// and the last two dot-separated segments (timestamp, then uuid).
func submissionRequestDetails(name string) (assignment.Submitter, time.Time, error) {
	rest := strings.TrimPrefix(name, submissionRequestPrefix)
	parts := strings.Split(rest, ".")
	if len(parts) < 3 {
		return "", time.Time{}, fmt.Errorf("queue: malformed submission request name %q", name)
	}
	timestampPart := parts[len(parts)-2]
	submitterParts := parts[:len(parts)-2]
	t, err := time.Parse(timeLayout, timestampPart)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("queue: parsing timestamp in %q: %w", name, err)
	}
	return assignment.Submitter(strings.Join(submitterParts, ".")), t, nil
}
