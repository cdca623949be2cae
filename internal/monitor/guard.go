package monitor

import (
	"context"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// DefaultGuardEndpoints are two unrelated sites; losing both means the
// monitoring host itself is offline.
var DefaultGuardEndpoints = []string{"http://www.google.com", "http://www.yahoo.com"}

// Guard checks that this process has outbound connectivity at all.
type Guard struct {
	Prober    probe.Prober
	Endpoints []domain.Target
	Timeout   time.Duration
}

func NewGuard(p probe.Prober, endpoints []string, timeout time.Duration) *Guard {
	if len(endpoints) == 0 {
		endpoints = DefaultGuardEndpoints
	}
	return &Guard{Prober: p, Endpoints: domain.NormalizeAll(endpoints), Timeout: timeout}
}

// Reachable is false only when every endpoint is down.
func (g *Guard) Reachable(ctx context.Context) bool {
	if len(g.Endpoints) == 0 {
		return true
	}
	for _, t := range g.Endpoints {
		if g.up(ctx, t) {
			return true
		}
	}
	return false
}

func (g *Guard) up(ctx context.Context, t domain.Target) bool {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	obs, err := g.Prober.Probe(ctx, t)
	return err == nil && obs.Status.IsUp()
}
