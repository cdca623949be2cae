package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"sync"

	"gopkg.in/gomail.v2"
)

var (
	ErrMissingCredentials = errors.New("authenticated relay needs both a username and a password")
	ErrNoRecipients       = errors.New("at least one alert recipient is required")
)

const (
	gmailHost = "smtp.gmail.com"
	gmailPort = 587
)

type MailConfig struct {
	UseAuth  bool
	Username string
	Password string
	Host     string
	Port     int
	From     string
	To       []string
}

type dialer interface {
	Dial() (gomail.SendCloser, error)
}

// Mail sends alerts through an SMTP relay. The connection is opened on the
// first alert and held until Close.
type Mail struct {
	from string
	to   []string
	d    dialer

	mu   sync.Mutex
	conn gomail.SendCloser
}

// NewMail validates cfg without touching the network.
func NewMail(cfg MailConfig) (*Mail, error) {
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipients
	}
	if cfg.UseAuth && (cfg.Username == "" || cfg.Password == "") {
		return nil, ErrMissingCredentials
	}

	host, port := cfg.Host, cfg.Port
	if host == "" {
		if cfg.UseAuth {
			host, port = gmailHost, gmailPort
		} else {
			host = "localhost"
		}
	}
	if port == 0 {
		port = 25
	}

	var d *gomail.Dialer
	if cfg.UseAuth {
		d = gomail.NewDialer(host, port, cfg.Username, cfg.Password)
	} else {
		d = &gomail.Dialer{Host: host, Port: port}
	}

	from := cfg.From
	if from == "" {
		from = defaultFrom()
	}
	return &Mail{from: from, to: cfg.To, d: d}, nil
}

func (m *Mail) Send(ctx context.Context, title, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		conn, err := m.d.Dial()
		if err != nil {
			return fmt.Errorf("smtp dial: %w", err)
		}
		m.conn = conn
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", title)
	msg.SetBody("text/plain", text)

	if err := gomail.Send(m.conn, msg); err != nil {
		// drop the connection so the next alert redials
		_ = m.conn.Close()
		m.conn = nil
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *Mail) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// From returns the sender address alerts use.
func (m *Mail) From() string { return m.from }

func defaultFrom() string {
	name := "sitewatch"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return name + "@" + host
}
