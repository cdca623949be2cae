package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// DefaultAcceptedCodes are the status codes that count as Up: the site
// exists and answers even when redirecting or refusing access.
var DefaultAcceptedCodes = []int{http.StatusOK, http.StatusFound, http.StatusForbidden}

type WebProber struct {
	Client   *http.Client
	Accepted map[int]bool
}

func NewWebProber(timeout time.Duration, accepted []int) *WebProber {
	if len(accepted) == 0 {
		accepted = DefaultAcceptedCodes
	}
	set := make(map[int]bool, len(accepted))
	for _, c := range accepted {
		set[c] = true
	}
	return &WebProber{
		Client:   &http.Client{Timeout: timeout},
		Accepted: set,
	}
}

func (w *WebProber) Probe(ctx context.Context, t domain.Target) (domain.Observation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.Endpoint, nil)
	if err != nil {
		return domain.Observation{Status: domain.Down("invalid url")}, nil
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return domain.Observation{Status: domain.Down(transportReason(err))}, nil
	}
	defer resp.Body.Close()

	if !w.Accepted[resp.StatusCode] {
		return domain.Observation{Status: domain.Down(fmt.Sprintf("HTTP %d", resp.StatusCode))}, nil
	}
	return domain.Observation{Status: domain.Up(), Metadata: domain.Header(resp.Header.Clone())}, nil
}

func transportReason(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonUnknownHost
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ReasonTimeout
	}
	return ReasonUnknownError
}
