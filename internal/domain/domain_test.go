package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, endpoint, host string
	}{
		{"example.com", "http://example.com", "example.com"},
		{"https://example.com/path", "https://example.com/path", "example.com"},
		{"http://example.com:8080/x", "http://example.com:8080/x", "example.com"},
		{"example.com/a/b", "http://example.com/a/b", "example.com"},
		{"  site.test\n", "http://site.test", "site.test"},
	}
	for _, c := range cases {
		got := Normalize(c.in)
		if got.Endpoint != c.endpoint || got.Host != c.host {
			t.Fatalf("Normalize(%q)=%+v want endpoint=%q host=%q", c.in, got, c.endpoint, c.host)
		}
		if again := Normalize(got.Endpoint); again != got {
			t.Fatalf("Normalize not idempotent for %q: %+v then %+v", c.in, got, again)
		}
	}
}

func TestNormalizeAll_SkipsBlankLines(t *testing.T) {
	got := NormalizeAll([]string{"a.test", "", "   ", "https://b.test"})
	if len(got) != 2 || got[0].Host != "a.test" || got[1].Endpoint != "https://b.test" {
		t.Fatalf("unexpected targets: %+v", got)
	}
}

func TestNewRecord_SentinelFollowsStatus(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	up := NewRecord(Observation{Status: Up()}, 45*time.Millisecond, at)
	if up.ResponseTimeMS != 45 || !up.Valid() {
		t.Fatalf("up record wrong: %+v", up)
	}

	down := NewRecord(Observation{Status: Down("no response from host")}, 2*time.Second, at)
	if down.ResponseTimeMS != NoResponseTime || !down.Valid() {
		t.Fatalf("down record wrong: %+v", down)
	}

	bad := StatusRecord{Status: Down(""), ResponseTimeMS: 12}
	if bad.Valid() {
		t.Fatalf("down record with a response time must be invalid")
	}
}

func TestStatusString(t *testing.T) {
	if Up().String() != "up" {
		t.Fatalf("up: %q", Up().String())
	}
	if Down("").String() != "down" {
		t.Fatalf("bare down: %q", Down("").String())
	}
	if got := Down("unknown host").String(); got != "down (unknown host)" {
		t.Fatalf("down with reason: %q", got)
	}
	if !Down("a").SameState(Down("b")) || Up().SameState(Down("")) {
		t.Fatalf("SameState compares tags only")
	}
}

func TestDecisionFormatting(t *testing.T) {
	tg := Normalize("site.test/status")

	host := Decision{Target: tg, Kind: KindHost, Status: Down("unknown host"), ResponseTimeMS: NoResponseTime}
	if got := host.Subject(); got != "host: site.test is down (unknown host). Response time: -1" {
		t.Fatalf("host subject: %q", got)
	}
	if got := host.StatusLine(); got != "host: site.test is down (unknown host). Response time: N/A" {
		t.Fatalf("host line: %q", got)
	}
	if host.Body() != "" {
		t.Fatalf("host body must be empty")
	}

	web := Decision{Target: tg, Kind: KindWeb, Status: Up(), ResponseTimeMS: 45,
		Headers: Header{"Server": {"nginx"}, "Content-Type": {"text/html"}}}
	if got := web.Subject(); got != "web: http://site.test/status is up. Response time: 45" {
		t.Fatalf("web subject: %q", got)
	}
	if got := web.Body(); got != "Content-Type: text/html\r\nServer: nginx\r\n" {
		t.Fatalf("web body: %q", got)
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	s := NewSnapshot()
	s.Targets["http://a.test"] = map[CheckKind]StatusRecord{
		KindHost: {Status: Up(), ResponseTimeMS: 5},
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var probe struct {
		Targets map[string]map[string]map[string]any `json:"targets"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec := probe.Targets["http://a.test"]["host"]
	if rec["status"] != "up" || rec["rtime"].(float64) != 5 {
		t.Fatalf("unexpected record json: %s", b)
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := NewSnapshot()
	s.Targets["x"] = map[CheckKind]StatusRecord{KindWeb: {Status: Up(), Headers: Header{"A": {"1"}}}}
	c := s.Clone()
	c.Targets["x"][KindWeb].Headers["A"][0] = "2"
	if s.Targets["x"][KindWeb].Headers["A"][0] != "1" {
		t.Fatalf("clone shares header storage")
	}
}
