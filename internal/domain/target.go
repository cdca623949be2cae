package domain

import "strings"

// Target is a normalized endpoint plus the bare host derived from it.
type Target struct {
	Endpoint string `json:"endpoint"`
	Host     string `json:"host"`
}

// ID is the key a target's records are stored under.
func (t Target) ID() string { return t.Endpoint }

// Name returns what alerts call the target for the given kind.
func (t Target) Name(k CheckKind) string {
	if k == KindHost {
		return t.Host
	}
	return t.Endpoint
}

// Normalize prefixes http:// when raw has no http or https scheme and
// derives the host by dropping everything from the first ':' or '/' after the scheme.
func Normalize(raw string) Target {
	endpoint := strings.TrimSpace(raw)
	if !HasHTTPScheme(endpoint) {
		endpoint = "http://" + endpoint
	}
	rest := endpoint[strings.Index(endpoint, "//")+2:]
	host := rest
	if i := strings.IndexAny(rest, ":/"); i >= 0 {
		host = rest[:i]
	}
	return Target{Endpoint: endpoint, Host: host}
}

func HasHTTPScheme(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// NormalizeAll normalizes raw inputs in order, skipping blanks.
func NormalizeAll(raw []string) []Target {
	out := make([]Target, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, Normalize(r))
	}
	return out
}
