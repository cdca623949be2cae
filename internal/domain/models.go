package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CheckKind names the layer a probe looks at.
type CheckKind string

const (
	KindHost CheckKind = "host"
	KindWeb  CheckKind = "web"
)

// Kinds returns every check kind in the order a pass runs them.
func Kinds() []CheckKind { return []CheckKind{KindHost, KindWeb} }

func (k CheckKind) Valid() bool { return k == KindHost || k == KindWeb }

type State string

const (
	StateUp   State = "up"
	StateDown State = "down"
)

// Status is Up, or Down with an optional reason.
type Status struct {
	State  State  `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Up() Status { return Status{State: StateUp} }

func Down(reason string) Status { return Status{State: StateDown, Reason: reason} }

func (s Status) IsUp() bool { return s.State == StateUp }

// SameState compares the Up/Down tag only.
func (s Status) SameState(o Status) bool { return s.State == o.State }

func (s Status) String() string {
	if s.IsUp() {
		return string(StateUp)
	}
	if s.Reason == "" {
		return string(StateDown)
	}
	return fmt.Sprintf("%s (%s)", StateDown, s.Reason)
}

// Header is response metadata captured by web probes.
type Header map[string][]string

func (h Header) String() string {
	if len(h) == 0 {
		return ""
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, strings.Join(h[k], ", "))
	}
	return b.String()
}

func (h Header) clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Observation is the fresh result of one probe.
type Observation struct {
	Status   Status
	Metadata Header
	// Elapsed is set by probers that time themselves, such as retries,
	// which report the final attempt only. Zero means the caller measures.
	Elapsed time.Duration
}

// NoResponseTime marks a record whose status is not Up.
const NoResponseTime int64 = -1

// StatusRecord is the persisted last-known state for one target and kind.
// ResponseTimeMS is a measurement iff the status is Up and NoResponseTime otherwise.
type StatusRecord struct {
	Status
	ResponseTimeMS int64     `json:"rtime"`
	Headers        Header    `json:"headers,omitempty"`
	CheckedAt      time.Time `json:"checked_at"`
}

func NewRecord(obs Observation, elapsed time.Duration, at time.Time) StatusRecord {
	rt := NoResponseTime
	if obs.Status.IsUp() {
		rt = elapsed.Milliseconds()
		if rt < 0 {
			rt = 0
		}
	}
	return StatusRecord{
		Status:         obs.Status,
		ResponseTimeMS: rt,
		Headers:        obs.Metadata.clone(),
		CheckedAt:      at,
	}
}

// Valid reports whether the response-time sentinel agrees with the status.
func (r StatusRecord) Valid() bool {
	if r.IsUp() {
		return r.ResponseTimeMS >= 0
	}
	return r.ResponseTimeMS == NoResponseTime
}

func (r StatusRecord) clone() StatusRecord {
	r.Headers = r.Headers.clone()
	return r
}
