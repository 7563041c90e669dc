package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/fantasycards/pkg/config"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/tracing"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port   int
		noWarm bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog HTTP API",
		Long: `Starts the catalog HTTP API and, when enabled, the Prometheus metrics server.

Catalogs are warmed in the background; /ready reports 200 once warming
finished so load balancers can hold traffic until then.`,
		Example: `  # Start on the configured port
  catalog serve

  # Start on a custom port without warming
  catalog serve --port 3000 --no-warm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cleanup, err := root.bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			cfg, log := c.Config, c.Logger
			if port != 0 {
				cfg.Service.Port = port
			}

			ctx := cmd.Context()
			shutdownTracing, err := tracing.Setup(ctx, cfg.Service, cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					log.Warn("Tracing shutdown failed", interfaces.Error(err))
				}
			}()

			servers := []*http.Server{{
				Addr:              config.GetListenAddress(&cfg.Service),
				Handler:           c.Handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}}
			if cfg.Metrics.Enabled {
				mux := http.NewServeMux()
				mux.Handle(cfg.Metrics.Path, promhttp.Handler())
				servers = append(servers, &http.Server{
					Addr:              config.GetMetricsListenAddress(&cfg.Metrics),
					Handler:           mux,
					ReadHeaderTimeout: 10 * time.Second,
				})
			}

			serverErr := make(chan error, len(servers))
			for _, srv := range servers {
				go func() {
					log.Info("Listening", interfaces.String("addr", srv.Addr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						serverErr <- err
					}
				}()
			}

			if noWarm {
				c.Handler.SetReady(true)
			} else {
				go func() {
					counts, err := c.Service.Warm(ctx)
					if err != nil {
						log.Warn("Catalog warm-up incomplete", interfaces.Error(err))
					} else {
						log.Info("Catalogs warmed", interfaces.Any("entries", counts))
					}
					c.Handler.SetReady(true)
				}()
			}

			select {
			case <-ctx.Done():
			case err := <-serverErr:
				return err
			}

			log.Info("Shutting down servers")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
			defer cancel()
			c.Handler.SetReady(false)
			var errs []error
			for _, srv := range servers {
				if err := srv.Shutdown(shutdownCtx); err != nil {
					errs = append(errs, err)
				}
			}
			if err := errors.Join(errs...); err != nil {
				log.Error("Server shutdown failed", interfaces.Error(err))
				return err
			}
			log.Info("Servers stopped")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&noWarm, "no-warm", false, "Skip warming catalogs at startup")

	return cmd
}
