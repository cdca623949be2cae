package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"
)

type sentMail struct {
	from string
	to   []string
	raw  string
}

type fakeConn struct {
	sent   []sentMail
	fail   error
	closed int
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	if c.fail != nil {
		return c.fail
	}
	var b bytes.Buffer
	if _, err := msg.WriteTo(&b); err != nil {
		return err
	}
	c.sent = append(c.sent, sentMail{from: from, to: to, raw: b.String()})
	return nil
}

func (c *fakeConn) Close() error { c.closed++; return nil }

type fakeDialer struct {
	conn  *fakeConn
	dials int
	err   error
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func TestNewMail_Validation(t *testing.T) {
	if _, err := NewMail(MailConfig{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("want ErrNoRecipients, got %v", err)
	}
	if _, err := NewMail(MailConfig{To: []string{"ops@example.com"}, UseAuth: true, Username: "u"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("want ErrMissingCredentials, got %v", err)
	}
	m, err := NewMail(MailConfig{To: []string{"ops@example.com"}, UseAuth: true, Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	d := m.d.(*gomail.Dialer)
	if d.Host != gmailHost || d.Port != gmailPort {
		t.Fatalf("auth without host should use gmail relay, got %s:%d", d.Host, d.Port)
	}
	if m.From() == "" || !strings.Contains(m.From(), "@") {
		t.Fatalf("default from should be user@host, got %q", m.From())
	}
}

func TestNewMail_UnauthenticatedRelay(t *testing.T) {
	m, err := NewMail(MailConfig{To: []string{"a@example.com"}, Host: "relay.internal", From: "mon@example.com"})
	if err != nil {
		t.Fatalf("NewMail: %v", err)
	}
	d := m.d.(*gomail.Dialer)
	if d.Host != "relay.internal" || d.Port != 25 || d.Username != "" {
		t.Fatalf("unexpected dialer: %+v", d)
	}
}

func TestMail_DialsLazilyAndReusesConnection(t *testing.T) {
	m, _ := NewMail(MailConfig{To: []string{"a@example.com", "b@example.com"}, From: "mon@example.com"})
	conn := &fakeConn{}
	fd := &fakeDialer{conn: conn}
	m.d = fd

	if err := m.Close(); err != nil || fd.dials != 0 {
		t.Fatalf("close before any send must not dial: dials=%d err=%v", fd.dials, err)
	}

	for i := 0; i < 2; i++ {
		if err := m.Send(context.Background(), "host: a.test is down. Response time: -1", ""); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	if fd.dials != 1 || len(conn.sent) != 2 {
		t.Fatalf("want 1 dial and 2 messages, got dials=%d sent=%d", fd.dials, len(conn.sent))
	}
	got := conn.sent[0]
	if got.from != "mon@example.com" || len(got.to) != 2 {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if !strings.Contains(got.raw, "Subject: host: a.test is down. Response time: -1") {
		t.Fatalf("subject missing from message:\n%s", got.raw)
	}

	if err := m.Close(); err != nil || conn.closed != 1 {
		t.Fatalf("close: err=%v closed=%d", err, conn.closed)
	}
}

func TestMail_SendFailureRedials(t *testing.T) {
	m, _ := NewMail(MailConfig{To: []string{"a@example.com"}})
	conn := &fakeConn{fail: errors.New("451 try later")}
	fd := &fakeDialer{conn: conn}
	m.d = fd

	if err := m.Send(context.Background(), "s", "b"); err == nil {
		t.Fatalf("expected send error")
	}
	conn.fail = nil
	if err := m.Send(context.Background(), "s", "b"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if fd.dials != 2 {
		t.Fatalf("want redial after failure, got %d dials", fd.dials)
	}
}

func TestMail_DialError(t *testing.T) {
	m, _ := NewMail(MailConfig{To: []string{"a@example.com"}})
	m.d = &fakeDialer{err: errors.New("connection refused")}
	if err := m.Send(context.Background(), "s", ""); err == nil {
		t.Fatalf("expected dial error")
	}
}
