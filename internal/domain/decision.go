package domain

import "fmt"

// Decision is the per-pass outcome for one target and kind.
type Decision struct {
	Target         Target
	Kind           CheckKind
	Prior          *Status
	Status         Status
	ResponseTimeMS int64
	Headers        Header
	ShouldAlert    bool
}

// Subject is the alert subject line, carrying -1 when there is no response time.
func (d Decision) Subject() string {
	return fmt.Sprintf("%s: %s is %s. Response time: %d", d.Kind, d.Target.Name(d.Kind), d.Status, d.ResponseTimeMS)
}

// StatusLine is the diagnostic line printed for every check.
func (d Decision) StatusLine() string {
	rt := "N/A"
	if d.ResponseTimeMS != NoResponseTime {
		rt = fmt.Sprintf("%d ms", d.ResponseTimeMS)
	}
	return fmt.Sprintf("%s: %s is %s. Response time: %s", d.Kind, d.Target.Name(d.Kind), d.Status, rt)
}

// Body is the alert body: response headers for web checks, empty otherwise.
func (d Decision) Body() string {
	if d.Kind != KindWeb {
		return ""
	}
	return d.Headers.String()
}
