package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [urls...]",
		Short: "Run one monitoring pass and exit",
		Example: `  sitewatch check example.com https://api.example.com/health
  sitewatch check -f sites.txt -d ops@example.com
  sitewatch check -f sites.txt -g -u me@gmail.com -p secret -d ops@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindPassFlags(a.v, cmd)
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			if len(args) == 0 && cfg.TargetsFile == "" {
				return cmd.Help()
			}

			log, closeLog, err := openLog(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			p := &passer{cfg: cfg, fs: a.fs, log: log, out: cmd.OutOrStdout()}
			sum, err := p.run(cmd.Context(), p.targets(args))
			if err != nil {
				log.Error("pass_failed", zap.Error(err))
				return err
			}
			if sum.Skipped {
				fmt.Fprintln(cmd.ErrOrStderr(), "network unreachable; pass skipped")
			}
			return nil
		},
	}
	addPassFlags(cmd)
	return cmd
}
