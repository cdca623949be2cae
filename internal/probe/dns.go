package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

type resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// resolveHost looks up host and prefers an IPv4 address. The returned reason
// is empty on success.
func resolveHost(ctx context.Context, r resolver, host string, timeout time.Duration) (*net.IPAddr, string) {
	host = strings.TrimSpace(host)
	if host == "" || strings.Contains(host, "://") {
		return nil, ReasonUnknownHost
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		var de *net.DNSError
		if errors.As(err, &de) {
			return nil, ReasonUnknownHost
		}
		return nil, ReasonUnknownError
	}
	if len(addrs) == 0 {
		return nil, ReasonUnknownHost
	}
	for i := range addrs {
		if addrs[i].IP.To4() != nil {
			return &addrs[i], ""
		}
	}
	return &addrs[0], ""
}
