package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo/bolt"
	"github.com/hamed0406/sitewatch/internal/repo/file"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
)

func defaults(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load(config.New(afero.NewMemMapFs()), "")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg
}

func TestOpenState_Drivers(t *testing.T) {
	ctx := context.Background()
	cfg := defaults(t)

	r, err := openState(ctx, cfg, afero.NewMemMapFs(), zap.NewNop())
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := r.(*file.Repo); !ok {
		t.Fatalf("file driver gave %T", r)
	}

	cfg.State.Driver = "memory"
	if r, _ := openState(ctx, cfg, nil, zap.NewNop()); r == nil {
		t.Fatalf("memory driver gave nil")
	} else if _, ok := r.(*memory.Store); !ok {
		t.Fatalf("memory driver gave %T", r)
	}

	cfg.State.Driver = "bolt"
	cfg.State.Path = filepath.Join(t.TempDir(), "state.db")
	r, err = openState(ctx, cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("bolt: %v", err)
	}
	defer r.Close()
	if _, ok := r.(*bolt.Repo); !ok {
		t.Fatalf("bolt driver gave %T", r)
	}

	cfg.State.Driver = "redis"
	if _, err := openState(ctx, cfg, nil, zap.NewNop()); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

func TestBuildNotifier(t *testing.T) {
	cfg := defaults(t)
	n, err := buildNotifier(cfg)
	if err != nil {
		t.Fatalf("no channels: %v", err)
	}
	if _, ok := n.(notify.Discard); !ok {
		t.Fatalf("no channels gave %T", n)
	}

	cfg.Mail.Enabled = true
	cfg.Mail.To = []string{"ops@example.com"}
	cfg.Slack.Webhook = "https://hooks.slack.test/x"
	n, err = buildNotifier(cfg)
	if err != nil {
		t.Fatalf("mail+slack: %v", err)
	}
	if m, ok := n.(notify.Multi); !ok || len(m) != 2 {
		t.Fatalf("mail+slack gave %T %v", n, n)
	}

	cfg.Mail.UseAuth = true
	if _, err := buildNotifier(cfg); !errors.Is(err, notify.ErrMissingCredentials) {
		t.Fatalf("auth without credentials: err = %v", err)
	}

	cfg.Mail.UseAuth = false
	cfg.Mail.To = nil
	if _, err := buildNotifier(cfg); !errors.Is(err, notify.ErrNoRecipients) {
		t.Fatalf("enabled without recipients: err = %v", err)
	}
}

func TestBuildProbers_Retry(t *testing.T) {
	cfg := defaults(t)
	probers, _ := buildProbers(cfg)
	for k, p := range probers {
		if _, ok := p.(*probe.RetryProber); ok {
			t.Fatalf("%s prober wrapped with a single attempt", k)
		}
	}

	cfg.Retry.Attempts = 3
	probers, _ = buildProbers(cfg)
	for k, p := range probers {
		if rp, ok := p.(*probe.RetryProber); !ok || rp.Attempts != 3 || rp.Timeout != cfg.Timeout {
			t.Fatalf("%s prober = %T, want RetryProber with 3 attempts of %v", k, p, cfg.Timeout)
		}
	}
}

func TestPasser_SetupErrorBeforeProbing(t *testing.T) {
	cfg := defaults(t)
	cfg.State.Driver = "memory"
	cfg.Mail.Enabled = true
	cfg.Mail.UseAuth = true
	cfg.Mail.To = []string{"ops@example.com"}

	var out bytes.Buffer
	p := &passer{cfg: cfg, fs: afero.NewMemMapFs(), log: zap.NewNop(), out: &out}
	_, err := p.run(context.Background(), p.targets([]string{"site.test"}))
	if !errors.Is(err, notify.ErrMissingCredentials) {
		t.Fatalf("err = %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("probed despite setup failure: %q", out.String())
	}
}

func TestPasser_TargetsMergeArgsAndFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "sites.txt", []byte("b.test\n# c.test\n"), 0o644)
	cfg := defaults(t)
	cfg.TargetsFile = "sites.txt"

	p := &passer{cfg: cfg, fs: fs, log: zap.NewNop()}
	got := p.targets([]string{"a.test"})
	if len(got) != 2 || got[0].Endpoint != "http://a.test" || got[1].Host != "b.test" {
		t.Fatalf("targets = %+v", got)
	}
}

func TestCheckWithoutTargetsPrintsUsage(t *testing.T) {
	a := &app{fs: afero.NewMemMapFs(), v: config.New(afero.NewMemMapFs())}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"check"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected usage, got %q", out.String())
	}
}

func TestVersion(t *testing.T) {
	root := newRootCmd(&app{fs: afero.NewMemMapFs(), v: config.New(afero.NewMemMapFs())})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "sitewatch version dev") {
		t.Fatalf("out = %q", out.String())
	}
}

func TestPreflight(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "sites.txt", []byte("a.test\nb.test\n"), 0o644)
	v := config.New(fs)
	v.Set("targets_file", "sites.txt")
	v.Set("state.driver", "memory")

	root := newRootCmd(&app{fs: fs, v: v})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"preflight"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v (stderr %q)", err, errOut.String())
	}
	if !strings.Contains(out.String(), "✔ 2 targets in sites.txt") || !strings.Contains(out.String(), "preflight passed") {
		t.Fatalf("out = %q", out.String())
	}

	v.Set("mail.enabled", true)
	v.Set("mail.use_auth", true)
	v.Set("mail.to", []string{"ops@example.com"})
	root = newRootCmd(&app{fs: fs, v: v})
	errOut.Reset()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"preflight"})
	if err := root.Execute(); !errors.Is(err, errPreflight) {
		t.Fatalf("err = %v, want preflight failure", err)
	}
	if !strings.Contains(errOut.String(), "✖ alert channel") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}
