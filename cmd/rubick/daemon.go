// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/gclm/rubick/internal/observability"
	"github.com/gclm/rubick/internal/plugin"
)

const shutdownTimeout = 5 * time.Second

// upgrader is the installer subset the upgrade job drives.
type upgrader interface {
	List(ctx context.Context) ([]string, error)
	Upgrade(ctx context.Context, name string)
}

// upgradeJob upgrades every installed plugin whose name matches match.
type upgradeJob struct {
	inst    upgrader
	match   string
	metrics *observability.Metrics
}

// run performs one pass. Per-plugin failures are swallowed by Upgrade; only
// listing failures are returned.
func (j *upgradeJob) run(ctx context.Context) (err error) {
	managed := 0
	defer func() {
		if j.metrics != nil {
			j.metrics.RecordUpgradeRun(managed, err)
		}
	}()

	names, err := j.inst.List(ctx)
	if err != nil {
		return err
	}
	names, err = plugin.MatchNames(j.match, names)
	if err != nil {
		return err
	}
	managed = len(names)

	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		j.inst.Upgrade(ctx, name)
	}
	slog.Info("upgrade pass finished", "plugins", managed)
	return nil
}

func newDaemonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Serve metrics and upgrade plugins on a schedule",
		Long: `Daemon serves Prometheus metrics and health probes on metrics-addr
and upgrades installed plugins matching upgrade-match on upgrade-schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), a)
		},
	}
}

func runDaemon(ctx context.Context, a *app) error {
	inst, err := a.newInstaller(ctx)
	if err != nil {
		return fmt.Errorf("failed to create installer: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	job := &upgradeJob{inst: inst, match: a.cfg.UpgradeMatch}

	if a.cfg.MetricsAddr != "" {
		srv := a.deps.ObservabilityServerFactory(a.cfg.MetricsAddr, ready.Load)
		plugin.RegisterMetrics(srv.Registry())
		job.metrics = srv.Metrics()

		errCh, err := srv.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := srv.Stop(stopCtx); err != nil {
				slog.Warn("failed to stop observability server", "error", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, errCh, "observability")
	}

	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if a.cfg.UpgradeSchedule != "" {
		if _, err := sched.AddFunc(a.cfg.UpgradeSchedule, func() {
			if err := job.run(ctx); err != nil {
				slog.Warn("upgrade pass failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid upgrade schedule: %w", err)
		}
	}
	sched.Start()
	ready.Store(true)

	slog.Info("daemon started",
		"plugins_dir", a.cfg.PluginsDir,
		"registry", inst.Config().RegistryURL,
		"schedule", a.cfg.UpgradeSchedule)

	<-ctx.Done()

	ready.Store(false)
	select {
	case <-sched.Stop().Done():
	case <-time.After(shutdownTimeout):
		slog.Warn("upgrade pass still running at shutdown")
	}
	slog.Info("daemon stopped")
	return nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server failed", "server", name, "error", err)
			cancel()
		}
	}
}
