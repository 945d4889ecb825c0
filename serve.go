package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/royalty-statement-converter/internal/api"
	"github.com/insightdelivered/royalty-statement-converter/internal/config"
	"github.com/insightdelivered/royalty-statement-converter/internal/convert"
	"github.com/insightdelivered/royalty-statement-converter/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and web front end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr()
			}
			return runServer(cmd.Context(), cfg, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to SERVER_HOST:SERVER_PORT)")
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, addr string) error {
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	appCfg := api.AppConfig{
		StaticDir:   cfg.Server.StaticDir,
		MaxUploadMB: cfg.Server.MaxUploadMB,
	}
	if cfg.Observability.MetricsEnabled {
		appCfg.Metrics = reg
	}

	h := api.NewHandler(convert.New(logger, metrics.New(reg)), logger, version)
	app := api.NewApp(h, appCfg)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", addr, "static_dir", cfg.Server.StaticDir, "metrics", cfg.Observability.MetricsEnabled)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
