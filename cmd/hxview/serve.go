package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pthm/hxview"
	"github.com/pthm/hxview/lib/config"
	"github.com/pthm/hxview/lib/telemetry"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the demo server",
		Long: `Serve runs a demo page with two counter components. The page answers
full renders on GET and update renders on POST/PUT; component actions are
served under server.component_path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)

			handler, err := newServer(cfg, logger, prometheus.NewRegistry())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listen(ctx, cfg.Addr(), handler, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("host", "localhost", "host to bind to")
	flags.IntP("port", "p", 8080, "port to listen on")
	flags.String("state-key", "", "key for signing component state (empty ships plain JSON)")
	flags.Bool("sensitive", false, "encrypt component state instead of signing it")
	flags.Bool("metrics", true, "serve Prometheus metrics")
	bindFlag(v, "server.host", flags.Lookup("host"))
	bindFlag(v, "server.port", flags.Lookup("port"))
	bindFlag(v, "state.key", flags.Lookup("state-key"))
	bindFlag(v, "state.sensitive", flags.Lookup("sensitive"))
	bindFlag(v, "metrics.enabled", flags.Lookup("metrics"))
	return cmd
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newServer wires the demo page, the component registry and the metrics
// endpoint onto one router.
func newServer(cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry) (http.Handler, error) {
	opts := []hxview.Option{
		hxview.WithLogger(logger),
		hxview.WithHashlessTags(cfg.Render.HashlessTags...),
	}
	if cfg.State.Sealed() {
		codec, err := hxview.NewSealedCodec([]byte(cfg.State.Key), cfg.State.Sensitive)
		if err != nil {
			return nil, fmt.Errorf("state codec: %w", err)
		}
		opts = append(opts, hxview.WithStateCodec(codec))
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.Recoverer)

	if cfg.Metrics.Enabled {
		opts = append(opts, hxview.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(registry))))
		router.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	counter := newCounter(cfg.Server.ComponentPath)
	reg := hxview.NewRegistry(opts...)
	reg.Add(counter)
	router.Mount(cfg.Server.ComponentPath, reg.Handler())

	hxview.Page(demoPage(counter), opts...).Mount(router, "/")
	return router, nil
}

// listen serves h on addr until ctx is done, then shuts down gracefully.
func listen(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
