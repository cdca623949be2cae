package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// pingFunc sends one echo to addr and reports how many replies came back.
type pingFunc func(ctx context.Context, addr *net.IPAddr, timeout time.Duration, privileged bool) (int, error)

// HostProber checks the bare host with a single ICMP echo.
type HostProber struct {
	Timeout    time.Duration
	Privileged bool

	resolver resolver
	ping     pingFunc
}

func NewHostProber(timeout time.Duration, privileged bool) *HostProber {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HostProber{
		Timeout:    timeout,
		Privileged: privileged,
		resolver:   net.DefaultResolver,
		ping:       icmpPing,
	}
}

func (h *HostProber) Probe(ctx context.Context, t domain.Target) (domain.Observation, error) {
	addr, reason := resolveHost(ctx, h.resolver, t.Host, h.Timeout)
	if reason != "" {
		return domain.Observation{Status: domain.Down(reason)}, nil
	}

	recv, err := h.ping(ctx, addr, h.Timeout, h.Privileged)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return domain.Observation{}, fmt.Errorf("%w: icmp socket: %v", ErrSetup, err)
		}
		return domain.Observation{Status: domain.Down(ReasonUnknownError)}, nil
	}
	if recv == 0 {
		return domain.Observation{Status: domain.Down(ReasonNoResponse)}, nil
	}
	return domain.Observation{Status: domain.Up()}, nil
}

func icmpPing(ctx context.Context, addr *net.IPAddr, timeout time.Duration, privileged bool) (int, error) {
	pinger := probing.New(addr.String())
	pinger.SetIPAddr(addr)
	pinger.SetPrivileged(privileged)
	pinger.Count = 1
	pinger.Timeout = timeout

	if err := pinger.RunWithContext(ctx); err != nil {
		return 0, err
	}
	return pinger.Statistics().PacketsRecv, nil
}
