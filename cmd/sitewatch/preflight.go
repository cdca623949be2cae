package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/sitewatch/internal/config"
)

var errPreflight = errors.New("preflight failed")

func newPreflightCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check configuration, alert channels and state without probing",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := false
			fail := func(msg string) { failed = true; fmt.Fprintln(errOut, "✖", msg) }
			warn := func(msg string) { fmt.Fprintln(errOut, "⚠", msg) }
			ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }

			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				fail(err.Error())
				return errPreflight
			}
			ok("config valid")

			n, err := buildNotifier(cfg)
			switch {
			case err != nil:
				fail("alert channel: " + err.Error())
			case !cfg.Mail.Enabled && cfg.Slack.Webhook == "":
				warn("no alert channel configured; changes will only be logged")
			default:
				if cfg.Mail.Enabled {
					ok("mail to " + strings.Join(cfg.Mail.To, ", "))
				}
				if cfg.Slack.Webhook != "" {
					ok("slack webhook set")
				}
			}
			if n != nil {
				_ = n.Close()
			}

			if cfg.TargetsFile == "" {
				warn("targets_file empty; targets must be passed as arguments")
			} else if lines, err := config.ReadTargetsFile(a.fs, cfg.TargetsFile); err != nil {
				fail(err.Error())
			} else {
				ok(fmt.Sprintf("%d targets in %s", len(lines), cfg.TargetsFile))
			}

			state, err := openState(cmd.Context(), cfg, a.fs, nil)
			if err != nil {
				fail("state: " + err.Error())
			} else {
				if snap, err := state.Load(cmd.Context()); err != nil {
					warn("state unreadable, next pass starts empty: " + err.Error())
				} else {
					ok(fmt.Sprintf("state %s: %d known targets", cfg.State.Driver, len(snap.Targets)))
				}
				_ = state.Close()
			}

			if cfg.Log.Level == "" && !cfg.Log.ResponseTime {
				warn("log level warn; use -t or log.level=info to record response times")
			}

			if failed {
				return errPreflight
			}
			ok("preflight passed")
			return nil
		},
	}
}
