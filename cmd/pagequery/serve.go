package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quay/pagequery/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pages of tables over HTTP",
		Long: `Serve pages of the configured database's tables over HTTP.

Routes:
  GET /tables/{table}          one page of rows
  GET /tables/{table}/columns  the table's columns
  GET /metrics                 Prometheus metrics
  GET /healthz                 liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), a.cfg)
		},
	}
	fs := cmd.Flags()
	fs.String("addr", "", "listen address (default :8080)")
	fs.Uint("default-size", 0, "page size used when a request has none")
	fs.Uint("max-size", 0, "largest page size a request may ask for")
	fs.String("otlp-endpoint", "", "OTLP/HTTP endpoint URL for trace export")
	return cmd
}

func serve(ctx context.Context, cfg *Config) error {
	if cfg.Tracing.Endpoint != "" {
		shutdown, err := setupTracing(ctx, cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		defer func() {
			ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := shutdown(ctx); err != nil {
				slog.WarnContext(ctx, "trace provider shutdown", "reason", err)
			}
		}()
	}

	p, closeStore, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	r := chi.NewMux()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Mount("/", httpapi.NewHandler(p, httpapi.Options{
		Defaults: httpapi.Defaults{
			Size:    cfg.Page.DefaultSize,
			MaxSize: cfg.Page.MaxSize,
		},
	}))

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}
	eg.Go(func() error {
		slog.InfoContext(egctx, "listening", "addr", cfg.HTTP.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		slog.InfoContext(egctx, "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// SetupTracing installs a global trace provider exporting to the OTLP/HTTP
// endpoint.
func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("unable to create trace exporter: %w", err)
	}
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", "pagequery"),
			attribute.String("service.version", version()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to create trace resource: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
