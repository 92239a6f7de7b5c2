package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/diffcore/pkg/config"
	"github.com/Sumatoshi-tech/diffcore/pkg/mcp"
	"github.com/Sumatoshi-tech/diffcore/pkg/observability"
	"github.com/Sumatoshi-tech/diffcore/pkg/version"
)

const metricsReadHeaderTimeout = 5 * time.Second

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(globals *Globals) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes diffcore as tools that AI agents can discover and invoke:
  - diff_parse: Parse unified diff text into a structured document
  - diff_verify: Check that the parser reproduces a diff exactly

With --metrics-addr, Prometheus metrics are served on http://ADDR/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := globals.load(cmd)
			if err != nil {
				return err
			}

			if debug {
				cfg.Logging.Level = "debug"
			}

			providers, err := initMCPObservability(cfg, metricsAddr != "")
			if err != nil {
				return err
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			parseMetrics, err := observability.NewParseMetrics(providers.Meter)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				stop, serveErr := serveMetrics(metricsAddr, providers)
				if serveErr != nil {
					return serveErr
				}
				defer stop()
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:       providers.Logger,
				Metrics:      red,
				ParseMetrics: parseMetrics,
				Tracer:       providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

func initMCPObservability(cfg *config.Config, prometheus bool) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.Mode = observability.ModeMCP
	obsCfg.Prometheus = prometheus
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = true

	return observability.Init(obsCfg)
}

// serveMetrics starts the scrape endpoint in the background and returns a
// function that shuts it down.
func serveMetrics(addr string, providers observability.Providers) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.MetricsHandler)

	server := &http.Server{
		Handler:           observability.HTTPMiddleware(providers.Tracer, mux),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	logger := providers.Logger.With(slog.String("addr", listener.Addr().String()))

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", serveErr)
		}
	}()

	logger.Info("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsReadHeaderTimeout)
		defer cancel()

		shutdownErr := server.Shutdown(ctx)
		if shutdownErr != nil {
			logger.Warn("metrics server shutdown failed", "error", shutdownErr)
		}
	}, nil
}
