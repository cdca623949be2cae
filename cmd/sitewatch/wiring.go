package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/repo/bolt"
	"github.com/hamed0406/sitewatch/internal/repo/file"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
	"github.com/hamed0406/sitewatch/internal/repo/postgres"
)

func openState(ctx context.Context, cfg config.Config, fs afero.Fs, log *zap.Logger) (repo.StateRepo, error) {
	switch cfg.State.Driver {
	case "", "file":
		return file.NewWithFs(fs, cfg.State.Path), nil
	case "bolt":
		return bolt.Open(cfg.State.Path)
	case "postgres":
		s, err := postgres.New(ctx, cfg.State.DSN, cfg.State.Name, log)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", cfg.State.Driver)
	}
}

// buildNotifier fails on a malformed alert channel, before any probing.
func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	var out notify.Multi
	if cfg.Mail.Enabled {
		m, err := notify.NewMail(notify.MailConfig{
			UseAuth:  cfg.Mail.UseAuth,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			From:     cfg.Mail.From,
			To:       cfg.Mail.To,
		})
		if err != nil {
			return nil, fmt.Errorf("mail: %w", err)
		}
		out = append(out, m)
	}
	if cfg.Slack.Webhook != "" {
		out = append(out, notify.NewSlack(cfg.Slack.Webhook))
	}
	if len(out) == 0 {
		return notify.Discard{}, nil
	}
	return out, nil
}

func buildProbers(cfg config.Config) (map[domain.CheckKind]probe.Prober, probe.Prober) {
	web := probe.NewWebProber(cfg.Timeout, cfg.Web.AcceptedCodes)
	host := probe.NewHostProber(cfg.Timeout, cfg.ICMP.Privileged)
	probers := map[domain.CheckKind]probe.Prober{
		domain.KindHost: withRetry(host, cfg.Retry, cfg.Timeout),
		domain.KindWeb:  withRetry(web, cfg.Retry, cfg.Timeout),
	}
	return probers, web
}

func withRetry(p probe.Prober, rc config.RetryConfig, perAttempt time.Duration) probe.Prober {
	if rc.Attempts <= 1 {
		return p
	}
	return &probe.RetryProber{Inner: p, Attempts: rc.Attempts, Backoff: rc.Backoff, Timeout: perAttempt}
}

// sharedState keeps a long-lived repo open across passes.
type sharedState struct{ repo.StateRepo }

func (sharedState) Close() error { return nil }

// passer runs passes with one configuration. Each pass acquires its own
// alert channel and, unless state is shared, its own state handle.
type passer struct {
	cfg   config.Config
	fs    afero.Fs
	log   *zap.Logger
	out   io.Writer
	state repo.StateRepo // optional; owned by the caller
}

func (p *passer) run(ctx context.Context, targets []domain.Target) (sum monitor.Summary, err error) {
	n, err := buildNotifier(p.cfg)
	if err != nil {
		return sum, err
	}

	var state repo.StateRepo
	if p.state != nil {
		state = sharedState{p.state}
	} else if state, err = openState(ctx, p.cfg, p.fs, p.log); err != nil {
		return sum, multierr.Append(fmt.Errorf("state: %w", err), n.Close())
	}

	probers, guardProber := buildProbers(p.cfg)
	r := monitor.NewRunner(p.log, state, n,
		monitor.NewGuard(guardProber, p.cfg.Guard.Endpoints, p.cfg.Timeout),
		probers, p.cfg.Timeout, p.cfg.Concurrency)
	r.AlertOnReasonChange = p.cfg.Alert.OnReasonChange
	r.Out = p.out
	defer func() { err = multierr.Append(err, r.Close()) }()

	return r.Run(ctx, targets)
}

// targets merges urls with the configured targets file.
func (p *passer) targets(urls []string) []domain.Target {
	return domain.NormalizeAll(config.Targets(p.fs, p.log, urls, p.cfg.TargetsFile))
}
