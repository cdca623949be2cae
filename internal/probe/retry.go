package probe

import (
	"context"
	"time"

	"github.com/jpillora/backoff"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// RetryProber re-probes a Down result up to Attempts times in total, waiting
// a jittered exponential backoff between tries. Each attempt gets its own
// Timeout, so a timed-out attempt does not use up the later ones.
type RetryProber struct {
	Inner    Prober
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration // per attempt; zero leaves ctx as is

	now func() time.Time
}

func (r *RetryProber) attempts() int {
	if r.Attempts < 1 {
		return 1
	}
	return r.Attempts
}

// Budget is the longest a full run of attempts can take when each attempt
// is allowed perAttempt (used when r.Timeout is unset).
func (r *RetryProber) Budget(perAttempt time.Duration) time.Duration {
	if r.Timeout > 0 {
		perAttempt = r.Timeout
	}
	n := time.Duration(r.attempts())
	return n*perAttempt + (n-1)*8*r.Backoff
}

// Probe returns the last observation, with Elapsed covering only the
// attempt that produced it.
func (r *RetryProber) Probe(ctx context.Context, t domain.Target) (domain.Observation, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	b := &backoff.Backoff{Min: r.Backoff, Max: 8 * r.Backoff, Factor: 2, Jitter: true}

	var last domain.Observation
	for i := 0; i < r.attempts(); i++ {
		if i > 0 && r.Backoff > 0 {
			timer := time.NewTimer(b.Duration())
			select {
			case <-ctx.Done():
				timer.Stop()
				return last, nil
			case <-timer.C:
			}
		}
		obs, err := r.once(ctx, t, now)
		if err != nil {
			return obs, err
		}
		last = obs
		if obs.Status.IsUp() || ctx.Err() != nil {
			break
		}
	}
	return last, nil
}

func (r *RetryProber) once(ctx context.Context, t domain.Target, now func() time.Time) (domain.Observation, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	start := now()
	obs, err := r.Inner.Probe(ctx, t)
	if err == nil && obs.Elapsed == 0 {
		obs.Elapsed = now().Sub(start)
	}
	return obs, err
}
