package probe

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// ErrSetup marks an environment failure (e.g. no permission to open an ICMP
// socket). It is not a per-target outcome and aborts the pass.
var ErrSetup = errors.New("probe setup failed")

// Down reasons shared by the probers.
const (
	ReasonNoResponse   = "no response from host"
	ReasonUnknownHost  = "unknown host"
	ReasonUnknownError = "unknown error"
	ReasonTimeout      = "timeout"
)

// Prober performs a single reachability check for a target.
// Ordinary unreachability is reported as a Down observation, never as an error.
type Prober interface {
	Probe(ctx context.Context, t domain.Target) (domain.Observation, error)
}

// Func adapts a function to the Prober interface.
type Func func(ctx context.Context, t domain.Target) (domain.Observation, error)

func (f Func) Probe(ctx context.Context, t domain.Target) (domain.Observation, error) {
	return f(ctx, t)
}

// Budgeter is implemented by probers that may take longer than one
// per-probe timeout, such as retries.
type Budgeter interface {
	Budget(perProbe time.Duration) time.Duration
}
