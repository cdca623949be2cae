package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/httpapi"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
	"github.com/hamed0406/sitewatch/internal/monitor"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the last known status over HTTP",
		Long: `serve exposes the persisted status read-only:

  GET  /healthz
  GET  /api/status
  GET  /api/status/target?url=example.com
  POST /api/check {"urls": [...]}   admin key; runs a pass now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bind(a.v, cmd.Flags(), map[string]string{
				"serve.addr":   "addr",
				"targets_file": "file",
			})

			cfg, log, closeLog, err := a.load()
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state, err := openState(ctx, cfg, a.fs, log)
			if err != nil {
				return err
			}
			defer state.Close()

			p := &passer{cfg: cfg, fs: a.fs, log: log, out: cmd.OutOrStdout(), state: state}
			api := httpapi.NewServer(log, state, func(ctx context.Context, urls []string) (monitor.Summary, error) {
				return p.run(ctx, p.targets(urls))
			})

			srv := &http.Server{
				Addr: cfg.Serve.Addr,
				Handler: api.Router(httpapi.RouterOptions{
					Keys:       apimw.Keys{Public: cfg.Serve.APIKeys, Admin: cfg.Serve.AdminKeys},
					CheckRPM:   cfg.Serve.CheckRPM,
					CheckBurst: cfg.Serve.CheckBurst,
					TrustProxy: cfg.Serve.TrustProxy,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Warn("api_listen", zap.String("addr", cfg.Serve.Addr))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default \"127.0.0.1:8080\")")
	cmd.Flags().StringP("file", "f", "", "targets file used by POST /api/check without urls")
	return cmd
}
