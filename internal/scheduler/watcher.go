package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PassFunc runs one monitoring pass.
type PassFunc func(ctx context.Context) error

// Watcher repeats passes on a cron schedule. A pass that is still running
// when the next one is due causes that tick to be skipped.
type Watcher struct {
	Logger   *zap.Logger
	Schedule cron.Schedule
	Pass     PassFunc

	passes atomic.Int64
}

func NewWatcher(logger *zap.Logger, schedule cron.Schedule, pass PassFunc) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{Logger: logger, Schedule: schedule, Pass: pass}
}

// Run does an immediate pass, then one per tick until ctx is cancelled.
// Only a failure of the first pass is returned; later failures are logged.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.run(ctx); err != nil {
		return fmt.Errorf("first pass: %w", err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{w.Logger})))
	c.Schedule(w.Schedule, cron.FuncJob(func() {
		if err := w.run(ctx); err != nil {
			w.Logger.Error("pass_failed", zap.Error(err))
		}
	}))
	c.Start()
	w.Logger.Info("watcher_started")

	<-ctx.Done()
	<-c.Stop().Done()
	w.Logger.Info("watcher_stopped", zap.Int64("passes", w.passes.Load()))
	return nil
}

func (w *Watcher) run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	w.passes.Add(1)
	return w.Pass(ctx)
}

// Passes reports how many passes have started.
func (w *Watcher) Passes() int64 { return w.passes.Load() }

// cronLogger routes cron's own messages into zap.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron_"+msg, zap.Any("kv", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron_"+msg, zap.Error(err), zap.Any("kv", kv))
}
