package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/logging"
)

type app struct {
	fs      afero.Fs
	v       *viper.Viper
	cfgFile string
}

func newApp() *app {
	fs := afero.NewOsFs()
	return &app{fs: fs, v: config.New(fs)}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sitewatch",
		Short: "Watch hosts and websites, alert when they go up or down",
		Long: `sitewatch probes each target twice per pass: an ICMP echo to the host
and an HTTP GET to the endpoint. The last known status of every check is
persisted between passes and an alert goes out whenever a check flips
between up and down. The first observation of a target is a baseline.

Run "sitewatch check" from cron, or "sitewatch watch" to schedule passes
in-process.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./sitewatch.yaml or $HOME/.sitewatch/sitewatch.yaml)")
	pf.String("log-dir", "", "directory for sitewatch.log (default \"logs\")")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("console", false, "also log to stderr")
	bind(a.v, pf, map[string]string{
		"log.dir":     "log-dir",
		"log.level":   "log-level",
		"log.console": "console",
	})

	root.AddCommand(
		newCheckCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newPreflightCmd(a),
		newVersionCmd(),
	)
	return root
}

func bind(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// load reads config and opens the log file. The returned closer flushes it.
func (a *app) load() (config.Config, *zap.Logger, func() error, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, closeLog, err := openLog(cfg)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, log, closeLog, nil
}

func openLog(cfg config.Config) (*zap.Logger, func() error, error) {
	log, closeLog, err := logging.NewLogger(logging.Options{
		Dir:     cfg.Log.Dir,
		Level:   cfg.Log.EffectiveLevel(),
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return log, closeLog, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitewatch version %s\n", version)
		},
	}
}
