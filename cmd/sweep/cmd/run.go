package cmd

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/fortuna/rinkscout/internal/export"
	"github.com/fortuna/rinkscout/internal/progress"
	"github.com/fortuna/rinkscout/internal/scheduler"
	"github.com/fortuna/rinkscout/internal/session"
	"github.com/fortuna/rinkscout/internal/store"
	"github.com/fortuna/rinkscout/internal/store/repository"
)

var (
	runSeason  string
	runDataDir string
	runDriver  string
	runOnly    []string
	runMax     int
	runWeekly  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape every configured league once, or weekly with --weekly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		leagues, err := scheduler.LoadLeagues(leaguesFile)
		if err != nil {
			return err
		}
		leagues, err = selectLeagues(leagues, runOnly, runMax)
		if err != nil {
			return err
		}

		if runDriver != "" {
			cfg.Driver = runDriver
		}
		if runSeason != "" {
			cfg.DefaultSeason = runSeason
		}
		if runDataDir != "" {
			cfg.DataDir = runDataDir
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var sinks []session.ResultSink
		if cfg.DatabaseURL != "" {
			db, err := store.Open(ctx, cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}
			sinks = append(sinks, repository.NewResultRepository(db))
		}

		controller := session.NewController(session.ControllerConfig{
			Factory:       cfg.DriverFactory(log),
			Components:    session.Components{Ingest: cfg.Ingest(), Scraper: cfg.Scraper(), Logger: log},
			DefaultSeason: cfg.DefaultSeason,
			Sinks:         sinks,
			Observers:     []progress.Observer{progress.ObserverFunc(logProgress)},
			Logger:        log,
		})
		defer func() {
			if err := controller.Cleanup(); err != nil {
				log.Warn("driver cleanup error", "err", err)
			}
		}()

		sched := scheduler.New(controller, leagues, cfg.Scheduler(), scheduler.WithLogger(log))
		if runWeekly {
			return sched.Run(ctx)
		}

		data, err := sched.Sweep(ctx)
		if len(data) > 0 {
			export.Summary(cmd.OutOrStdout(), data)
		}
		if errors.Is(err, context.Canceled) {
			log.Warn("sweep interrupted, partial results exported")
			return nil
		}
		if err == nil && len(data) == 0 {
			return errors.New("no data scraped")
		}
		return err
	},
}

// selectLeagues filters leagues by name and caps teams per league.
func selectLeagues(all []scheduler.League, only []string, maxTeams int) ([]scheduler.League, error) {
	var out []scheduler.League
	for _, l := range all {
		if len(only) > 0 && !slices.Contains(only, l.Name) {
			continue
		}
		if maxTeams > 0 && (l.MaxTeams == 0 || l.MaxTeams > maxTeams) {
			l.MaxTeams = maxTeams
		}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil, errors.Newf("no leagues match %v", only)
	}
	return out, nil
}

func logProgress(ev progress.Event) {
	switch ev.Phase {
	case progress.PhaseCompleted, progress.PhaseError, progress.PhaseStopped, progress.PhaseFinished, progress.PhaseETA:
		log.Info(ev.Message, "current", ev.Current, "total", ev.Total, "percent", ev.Percentage)
	default:
		log.Debug(ev.Message, "phase", string(ev.Phase))
	}
}

func init() {
	runCmd.Flags().StringVar(&runSeason, "season", "", "season to scrape, e.g. 2025-2026")
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "output directory for JSON and CSV exports")
	runCmd.Flags().StringVar(&runDriver, "driver", "", "page driver: chrome or http")
	runCmd.Flags().StringSliceVar(&runOnly, "league", nil, "only scrape these leagues (repeatable)")
	runCmd.Flags().IntVar(&runMax, "max-teams", 0, "cap teams per league (0 = all)")
	runCmd.Flags().BoolVar(&runWeekly, "weekly", false, "keep running and sweep at SWEEP_WEEKDAY/SWEEP_HOUR")
	rootCmd.AddCommand(runCmd)
}
