// Package resultsserver serves a read-only, ranked HTML scoreboard of the
// current tournament snapshot. Grounded on
// original_source/tournament/reporting/results_server.py's
// TourneyResultsHandler and _server_assassin watchdog thread.
package resultsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourney/internal/flagstore"
	"tourney/internal/snapshot"
	"tourney/pkg/logging"
)

const subsystem = "resultsserver"

// SnapshotReader loads the most recently written tourney_results.json.
type SnapshotReader func() (snapshot.Snapshot, error)

// Server serves the results page and, alongside it, a Prometheus /metrics
// endpoint on the same listener.
type Server struct {
	Addr          string
	ReadSnapshot  SnapshotReader
	QueueDepth    func() int
	Flags         *flagstore.Store
	WatchInterval time.Duration
	// Metrics, when set, exposes /metrics on the same listener as the
	// results page rather than requiring a second port.
	Metrics prometheus.Gatherer

	httpServer *http.Server
}

func (s *Server) watchInterval() time.Duration {
	if s.WatchInterval > 0 {
		return s.WatchInterval
	}
	return 5 * time.Second
}

// Handler builds the http.Handler this server exposes at "/": GET and HEAD
// return the rendered table, anything else is 501 Not Implemented, matching
// the original handler's POST rejection.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleResults)
	if s.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not supported", http.StatusNotImplemented)
		return
	}

	snap, err := s.ReadSnapshot()
	if err != nil {
		logging.Error(subsystem, err, "reading snapshot")
		http.Error(w, "no results available yet", http.StatusServiceUnavailable)
		return
	}

	queued := 0
	if s.QueueDepth != nil {
		queued = s.QueueDepth()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method == http.MethodHead {
		return
	}
	if err := renderResults(w, snap, queued); err != nil {
		logging.Error(subsystem, err, "rendering results page")
	}
}

// ListenAndServe starts the HTTP server on Addr and blocks until ctx is
// canceled or the ALIVE flag is cleared by another process, at which point
// the server shuts down gracefully. This replaces the Python
// _server_assassin thread's 5-second poll loop with a Go select over a
// ticker and ctx.Done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.Addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(subsystem, "results server listening on %s", s.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	ticker := time.NewTicker(s.watchInterval())
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		case <-ctx.Done():
			return s.shutdown()
		case <-ticker.C:
			if s.Flags != nil && !s.Flags.Get(flagstore.Alive) {
				logging.Info(subsystem, "ALIVE flag cleared, shutting down results server")
				return s.shutdown()
			}
		}
	}
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// FileSnapshotReader returns a SnapshotReader that reads and parses
// tourney_results.json from path every call.
func FileSnapshotReader(path string) SnapshotReader {
	return func() (snapshot.Snapshot, error) {
		return readSnapshotFile(path)
	}
}

func readSnapshotFile(path string) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	return snap, nil
}
