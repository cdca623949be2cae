package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type step struct {
	status domain.Status
	took   time.Duration // fake clock
	delay  time.Duration // real time, to reorder completions
	err    error
}

// fakeProber returns the step configured for a target, advancing the clock
// by the step's duration so elapsed times are exact.
type fakeProber struct {
	clk   *fakeClock
	mu    sync.Mutex
	steps map[string]step
	calls int
}

func newFakeProber(clk *fakeClock) *fakeProber {
	return &fakeProber{clk: clk, steps: map[string]step{}}
}

func (f *fakeProber) set(endpoint string, s step) {
	f.mu.Lock()
	f.steps[endpoint] = s
	f.mu.Unlock()
}

func (f *fakeProber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProber) Probe(ctx context.Context, t domain.Target) (domain.Observation, error) {
	f.mu.Lock()
	f.calls++
	s, ok := f.steps[t.ID()]
	f.mu.Unlock()
	if !ok {
		s = step{status: domain.Up()}
	}
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	if f.clk != nil {
		f.clk.Advance(s.took)
	}
	if s.err != nil {
		return domain.Observation{}, s.err
	}
	obs := domain.Observation{Status: s.status}
	if s.status.IsUp() {
		obs.Metadata = domain.Header{"Server": {"test"}}
	}
	return obs, nil
}

type sent struct{ title, text string }

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []sent
	err    error
	closed int
}

func (n *fakeNotifier) Send(ctx context.Context, title, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{title, text})
	return n.err
}

func (n *fakeNotifier) Close() error {
	n.closed++
	return nil
}

type brokenRepo struct {
	*memory.Store
	loadErr error
	saveErr error
}

func (b *brokenRepo) Load(ctx context.Context) (domain.Snapshot, error) {
	if b.loadErr != nil {
		return domain.Snapshot{}, b.loadErr
	}
	return b.Store.Load(ctx)
}

func (b *brokenRepo) Save(ctx context.Context, s domain.Snapshot) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.Store.Save(ctx, s)
}

var errBoom = errors.New("boom")
