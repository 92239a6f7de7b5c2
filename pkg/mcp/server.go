// Package mcp serves diff parsing and verification as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/diffcore/pkg/observability"
	"github.com/Sumatoshi-tech/diffcore/pkg/version"
)

const serverName = "diffcore"

// ServerDeps holds the optional collaborators of a Server. Nil fields
// disable the matching concern.
type ServerDeps struct {
	// Logger receives per-call and SDK logs. Nil discards them.
	Logger *slog.Logger

	// Metrics records rate, errors and duration per tool.
	Metrics *observability.REDMetrics

	// ParseMetrics records parsed documents and context lookups.
	ParseMetrics *observability.ParseMetrics

	// Tracer opens one server span per tool call.
	Tracer trace.Tracer
}

// Server is an MCP server with the diffcore tools registered.
type Server struct {
	inner        *mcpsdk.Server
	tools        []string
	logger       *slog.Logger
	metrics      *observability.REDMetrics
	parseMetrics *observability.ParseMetrics
	tracer       trace.Tracer
}

// toolHandler is the typed handler shape accepted by mcpsdk.AddTool.
type toolHandler[In any] func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, ToolOutput, error)

// NewServer builds a server and registers every tool.
func NewServer(deps ServerDeps) *Server {
	logger := observability.Component(deps.Logger, "mcp")

	srv := &Server{
		inner: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: serverName, Version: version.Version},
			&mcpsdk.ServerOptions{Logger: logger},
		),
		logger:       logger,
		metrics:      deps.Metrics,
		parseMetrics: deps.ParseMetrics,
		tracer:       deps.Tracer,
	}

	addTool(srv, ToolNameParse, parseToolDescription, srv.handleParse)
	addTool(srv, ToolNameVerify, verifyToolDescription, srv.handleVerify)

	return srv
}

// ListToolNames returns the registered tool names in sorted order.
func (s *Server) ListToolNames() []string {
	return slices.Sorted(slices.Values(s.tools))
}

// Run serves over stdin and stdout until ctx is canceled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves over transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func addTool[In any](s *Server, name, description string, handler toolHandler[In]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{Name: name, Description: description}, instrument(s, name, handler))
	s.tools = append(s.tools, name)
}

// instrument wraps handler with a span, RED metrics and a debug log line.
// Sampled calls get a trailing "trace_id=<id>" text content.
func instrument[In any](s *Server, name string, handler toolHandler[In]) toolHandler[In] {
	op := "mcp." + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, ToolOutput, error) {
		start := time.Now()

		var span trace.Span
		if s.tracer != nil {
			ctx, span = s.tracer.Start(ctx, op,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attribute.String("mcp.tool", name)),
			)
			defer span.End()
		}

		if s.metrics != nil {
			defer s.metrics.TrackInflight(ctx, op)()
		}

		result, output, err := handler(ctx, req, input)

		status := observability.StatusOK
		if err != nil || (result != nil && result.IsError) {
			status = observability.StatusError
		}

		if span != nil {
			if status == observability.StatusError {
				span.SetStatus(codes.Error, "tool call failed")
			}

			if sc := span.SpanContext(); sc.IsSampled() && result != nil {
				result.Content = append(result.Content, &mcpsdk.TextContent{Text: "trace_id=" + sc.TraceID().String()})
			}
		}

		elapsed := time.Since(start)
		s.metrics.RecordRequest(ctx, op, status, elapsed)
		s.logger.DebugContext(ctx, "tool call",
			slog.String("tool", name),
			slog.String("status", status),
			slog.Duration("elapsed", elapsed),
		)

		return result, output, err
	}
}

const (
	parseToolDescription = "Parse a unified diff into a structured document with stable file and hunk ids, " +
		"content hashes and per-file statistics. " +
		"With repo_path, attaches surrounding source lines to every hunk."

	verifyToolDescription = "Parse a unified diff and check that the structured result reproduces " +
		"every hunk header and line of the input. Reports the first divergent token on mismatch."
)
