package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [urls...]",
		Short: "Run passes on a schedule until interrupted",
		Long: `watch runs a pass immediately and then on watch.schedule, which takes
a cron line or a descriptor such as "@every 5m". The targets file is
re-read before every pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindPassFlags(a.v, cmd)
			_ = a.v.BindPFlag("watch.schedule", cmd.Flags().Lookup("schedule"))

			cfg, log, closeLog, err := a.load()
			if err != nil {
				return err
			}
			defer closeLog()

			sched, err := config.ParseSchedule(cfg.Watch.Schedule)
			if err != nil {
				return fmt.Errorf("schedule: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p := &passer{cfg: cfg, fs: a.fs, log: log, out: cmd.OutOrStdout()}
			w := scheduler.NewWatcher(log, sched, func(ctx context.Context) error {
				sum, err := p.run(ctx, p.targets(args))
				if err == nil && sum.Skipped {
					fmt.Fprintln(cmd.ErrOrStderr(), "network unreachable; pass skipped")
				}
				return err
			})
			log.Info("watch_start", zap.String("schedule", cfg.Watch.Schedule))
			return w.Run(ctx)
		},
	}
	addPassFlags(cmd)
	cmd.Flags().String("schedule", "", "cron line or descriptor (default \"@every 5m\")")
	return cmd
}
