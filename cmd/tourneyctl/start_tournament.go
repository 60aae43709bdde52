package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tourney/internal/bootstrap"
	"tourney/internal/flagstore"
	"tourney/internal/metrics"
	"tourney/internal/notify"
	"tourney/internal/resultsserver"
	"tourney/internal/scheduler"
	"tourney/internal/snapshot"
	"tourney/internal/tourneystate"
	"tourney/pkg/logging"
)

var startTournamentCmd = &cobra.Command{
	Use:   "start_tournament",
	Short: "Run the scheduler daemon and results server until shut down",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTournament(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(startTournamentCmd)
}

func runTournament(ctx context.Context) error {
	logging.InitForDaemon(logging.LevelInfo, os.Stderr)

	res, err := bootstrap.Load(stateDir)
	if err != nil {
		return fmt.Errorf("loading tournament state: %w", err)
	}

	if err := res.Flags.ClearAll(); err != nil {
		return fmt.Errorf("clearing stale flags: %w", err)
	}
	if err := res.Flags.Set(flagstore.Alive, true); err != nil {
		return fmt.Errorf("setting ALIVE: %w", err)
	}
	defer res.Flags.Set(flagstore.Alive, false)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	sched := &scheduler.Scheduler{
		Adapter:       res.Adapter,
		State:         res.State,
		Queue:         res.Queue,
		Flags:         res.Flags,
		Notifier:      notify.LoggingNotifier{},
		Metrics:       collector,
		BuildReport:   buildReport(res),
		SourceAssgDir: res.Config.SourceAssgDir,
		TourneyDir:    res.Paths.TourneyDir(),
		HeadToHeadDir: res.Paths.HeadToHeadDir(),
		StateFilePath: res.Paths.StateFile(),
	}

	server := &resultsserver.Server{
		Addr:         fmt.Sprintf("%s:%d", res.Server.Host, res.Server.Port),
		ReadSnapshot: resultsserver.FileSnapshotReader(res.Paths.ResultsFile()),
		QueueDepth:   func() int { return queueDepth(res) },
		Flags:        res.Flags,
		Metrics:      reg,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("tourneyctl", "systemd notify ready failed: %v", err)
	} else if sent {
		logging.Info("tourneyctl", "notified systemd readiness")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := sched.Run(gctx)
		// Run returns nil on a shutdown request, which does not cancel gctx;
		// clearing ALIVE lets the results server's watchdog stop as well.
		if clearErr := res.Flags.Set(flagstore.Alive, false); clearErr != nil {
			logging.Warn("tourneyctl", "clearing ALIVE: %v", clearErr)
		}
		return err
	})
	g.Go(func() error { return server.ListenAndServe(gctx) })

	err = g.Wait()

	if _, notifyErr := daemon.SdNotify(false, daemon.SdNotifyStopping); notifyErr != nil {
		logging.Warn("tourneyctl", "systemd notify stopping failed: %v", notifyErr)
	}
	return err
}

func queueDepth(res *bootstrap.Resources) int {
	depth, err := res.Queue.Depth()
	if err != nil {
		return 0
	}
	return depth
}

// buildReport closes over res and wires a fresh snapshot build/save into
// the scheduler's report-request handling: refresh the tests/progs union
// (new submitters may have been promoted since the last report), reduce
// state, and persist both the JSON snapshot and its CSV companion.
func buildReport(res *bootstrap.Resources) scheduler.BuildReport {
	return func(ctx context.Context, state *tourneystate.State) error {
		if err := res.RefreshTestsAndProgs(); err != nil {
			return err
		}
		snap := snapshot.Build(state, res.Adapter, res.Tests, res.Progs, time.Now(), 0)
		if err := snapshot.Save(res.Paths.ResultsFile(), snap, res.Paths.SnapshotArchiveDir(), true); err != nil {
			return err
		}
		return snapshot.SaveCSV(res.Paths.StudentResultsCSV(), snap, res.Tests, res.Progs)
	}
}
