package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"text-tagger/config"
	"text-tagger/scheduler"
)

var (
	extraURLs []string
	runNow    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full tagging cycle",
	Long: `Run one full cycle: tag the documents with the current weights, score
every tag against its document, and learn new weights from the scores.

Examples:
  tagger run
  tagger run --url https://example.com/post -o json`,
	RunE: runCycle,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run cycles on the configured schedule",
	Long: `Run the full cycle on the configured schedule (HH:MM daily or a cron
expression) until interrupted. SIGHUP reloads the config file: the schedule,
folders, sources and learning tiers are applied without a restart.

Examples:
  tagger schedule
  tagger schedule --now`,
	RunE: runSchedule,
}

func init() {
	runCmd.Flags().StringSliceVar(&extraURLs, "url", nil, "Additional page URL to tag (repeatable)")
	scheduleCmd.Flags().BoolVar(&runNow, "now", false, "Run one cycle immediately before waiting")
	rootCmd.AddCommand(runCmd, scheduleCmd)
}

// withURLs appends the --url flags to the configured sources.
func withURLs(c config.Config) config.Config {
	c.Sources = append(append([]string(nil), c.Sources...), extraURLs...)
	return c
}

func runCycle(cmd *cobra.Command, args []string) error {
	a, err := newApp(withURLs(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.runner.Run(cmd.Context())
	a.recordLastRun(res)
	if printErr := printResult(cmd.OutOrStdout(), res); printErr != nil {
		return printErr
	}
	return err
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := scheduler.New(cfg.Timezone)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Held by a running cycle and by a config reload.
	var mu sync.Mutex
	cycle := func() {
		mu.Lock()
		defer mu.Unlock()
		res, err := a.runner.Run(ctx)
		a.recordLastRun(res)
		if err != nil {
			slog.Error("scheduled run failed", "error", err)
		}
	}

	if err := sched.Schedule(cfg.Schedule, cycle); err != nil {
		return fmt.Errorf("schedule pipeline: %w", err)
	}
	if runNow {
		cycle()
	}
	sched.Start()
	slog.Info("scheduler started", "schedule", cfg.Schedule, "next", sched.Next())

	current := cfg.Schedule
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigCh {
		if sig != syscall.SIGHUP {
			slog.Info("received signal, shutting down", "signal", sig)
			break
		}

		mu.Lock()
		c, err := a.reload(cfgFile)
		mu.Unlock()
		if err != nil {
			slog.Error("config reload failed, keeping previous config", "error", err)
			continue
		}
		if c.Schedule != current {
			if err := sched.Schedule(c.Schedule, cycle); err != nil {
				slog.Error("reschedule failed, keeping previous schedule", "error", err)
			} else {
				current = c.Schedule
			}
		}
		slog.Info("config reloaded", "schedule", current, "next", sched.Next())
	}

	cancel()
	sched.Stop()
	slog.Info("shutdown complete")
	return nil
}
