package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// Detector folds fresh observations into the store and decides which
// changes are worth an alert.
type Detector struct {
	Store   *Store
	Probers map[domain.CheckKind]probe.Prober
	Timeout time.Duration
	Logger  *zap.Logger

	// AlertOnReasonChange also alerts on Down->Down when the reason differs.
	AlertOnReasonChange bool

	now func() time.Time
}

func NewDetector(store *Store, probers map[domain.CheckKind]probe.Prober, timeout time.Duration, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		Store:   store,
		Probers: probers,
		Timeout: timeout,
		Logger:  logger,
		now:     time.Now,
	}
}

// Check probes t for kind k, updates the stored record and returns the decision.
// It errors on environment failures from the prober and when ctx itself was
// cancelled, in which case the store is left untouched.
func (d *Detector) Check(ctx context.Context, t domain.Target, k domain.CheckKind) (domain.Decision, error) {
	p := d.Probers[k]
	if p == nil {
		return domain.Decision{}, fmt.Errorf("no prober for %s checks", k)
	}

	pctx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := d.Timeout; timeout > 0 {
		if b, ok := p.(probe.Budgeter); ok {
			timeout = b.Budget(timeout)
		}
		pctx, cancel = context.WithTimeout(ctx, timeout)
	}
	start := d.now()
	obs, err := p.Probe(pctx, t)
	end := d.now()
	cancel()
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%s check of %s: %w", k, t.ID(), err)
	}
	// a probe cut short by the pass being cancelled says nothing about the target
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}
	elapsed := end.Sub(start)
	if obs.Elapsed > 0 {
		elapsed = obs.Elapsed
	}

	d.Logger.Info("check_timing",
		zap.String("kind", string(k)),
		zap.String("target", t.Name(k)),
		zap.Duration("elapsed", elapsed),
	)

	rec := domain.NewRecord(obs, elapsed, end)
	prior, seen := d.Store.Swap(t.ID(), k, rec)

	dec := domain.Decision{
		Target:         t,
		Kind:           k,
		Status:         rec.Status,
		ResponseTimeMS: rec.ResponseTimeMS,
		Headers:        rec.Headers,
	}
	if seen {
		ps := prior.Status
		dec.Prior = &ps
		dec.ShouldAlert = d.changed(ps, rec.Status)
	}

	if dec.ShouldAlert {
		d.Logger.Warn("status_changed",
			zap.String("kind", string(k)),
			zap.String("target", t.Name(k)),
			zap.String("from", prior.Status.String()),
			zap.String("to", rec.Status.String()),
		)
	}
	return dec, nil
}

func (d *Detector) changed(prior, cur domain.Status) bool {
	if !prior.SameState(cur) {
		return true
	}
	return d.AlertOnReasonChange && !cur.IsUp() && prior.Reason != cur.Reason
}
