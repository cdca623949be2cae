package monitor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// Summary describes one finished pass.
type Summary struct {
	Probed        int  `json:"probed"`
	Alerts        int  `json:"alerts"`
	AlertFailures int  `json:"alert_failures"`
	Skipped       bool `json:"skipped"`
}

// Runner drives one monitoring pass: guard, probe, alert, persist.
// It owns Repo and Notifier; callers release both with Close.
type Runner struct {
	Logger   *zap.Logger
	Repo     repo.StateRepo
	Notifier notify.Notifier
	Guard    *Guard // nil disables the reachability check
	Probers  map[domain.CheckKind]probe.Prober
	Kinds    []domain.CheckKind

	Timeout             time.Duration
	Concurrency         int
	AlertOnReasonChange bool
	Out                 io.Writer

	now func() time.Time
}

func NewRunner(
	logger *zap.Logger,
	r repo.StateRepo,
	n notify.Notifier,
	guard *Guard,
	probers map[domain.CheckKind]probe.Prober,
	timeout time.Duration,
	concurrency int,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notify.Discard{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Runner{
		Logger:      logger,
		Repo:        r,
		Notifier:    n,
		Guard:       guard,
		Probers:     probers,
		Kinds:       domain.Kinds(),
		Timeout:     timeout,
		Concurrency: concurrency,
		now:         time.Now,
	}
}

type indexed struct {
	i   int
	dec domain.Decision
}

// Run performs a single pass over targets. Errors are fatal for the pass:
// probe setup failures and cancellation of ctx (nothing is alerted or
// saved) and save failures.
func (r *Runner) Run(ctx context.Context, targets []domain.Target) (Summary, error) {
	var sum Summary

	snap, err := r.Repo.Load(ctx)
	if err != nil {
		r.Logger.Warn("state_load_failed", zap.Error(err))
		snap = domain.NewSnapshot()
	}
	store := NewStore(snap)

	reachable := r.Guard == nil || r.Guard.Reachable(ctx)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if !reachable {
		sum.Skipped = true
		r.Logger.Error("network_unreachable", zap.Int("targets", len(targets)))
	} else {
		decisions, err := r.probeAll(ctx, store, targets)
		if err != nil {
			return sum, err
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Probed = len(decisions)
		for _, d := range decisions {
			r.printLine(d.StatusLine())
		}
		for _, d := range decisions {
			if !d.ShouldAlert {
				continue
			}
			sum.Alerts++
			if err := r.Notifier.Send(ctx, d.Subject(), d.Body()); err != nil {
				sum.AlertFailures++
				r.Logger.Error("alert_send_failed",
					zap.String("kind", string(d.Kind)),
					zap.String("target", d.Target.Name(d.Kind)),
					zap.Error(err),
				)
			}
		}
	}

	store.Touch(r.now())
	if err := r.Repo.Save(ctx, store.Snapshot()); err != nil {
		return sum, fmt.Errorf("save state: %w", err)
	}
	return sum, nil
}

func (r *Runner) probeAll(ctx context.Context, store *Store, targets []domain.Target) ([]domain.Decision, error) {
	det := NewDetector(store, r.Probers, r.Timeout, r.Logger)
	det.AlertOnReasonChange = r.AlertOnReasonChange
	if r.now != nil {
		det.now = r.now
	}

	p := pool.NewWithResults[indexed]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError().
		WithMaxGoroutines(r.Concurrency)

	n := 0
	for _, t := range targets {
		for _, k := range r.Kinds {
			i, t, k := n, t, k
			n++
			p.Go(func(ctx context.Context) (indexed, error) {
				d, err := det.Check(ctx, t, k)
				return indexed{i: i, dec: d}, err
			})
		}
	}
	res, err := p.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(res, func(a, b int) bool { return res[a].i < res[b].i })
	out := make([]domain.Decision, len(res))
	for i, x := range res {
		out[i] = x.dec
	}
	return out, nil
}

// printLine writes the diagnostic line for one check; lines follow input order.
func (r *Runner) printLine(line string) {
	if r.Out != nil {
		fmt.Fprintln(r.Out, line)
	}
}

// Close releases the state repo and the alert channel.
func (r *Runner) Close() error {
	var err error
	if r.Repo != nil {
		err = multierr.Append(err, r.Repo.Close())
	}
	if r.Notifier != nil {
		err = multierr.Append(err, r.Notifier.Close())
	}
	return err
}
