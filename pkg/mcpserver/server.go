package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/jsonutil"
	"github.com/auditdoc/auditdoc/pkg/metrics"
	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/telemetry"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds MCP server configuration. Nil fields get defaults: the
// default registry, a fresh renderer and resolver, no metrics, a no-op
// tracer and slog.Default().
type Config struct {
	Registry *schema.Registry
	Renderer *preview.Renderer
	Resolver *templateresolver.Resolver
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
	Logger   *slog.Logger
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wraps the MCP server with auditdoc functionality.
type Server struct {
	mcp     *mcp.Server
	reg     *schema.Registry
	render  *preview.Renderer
	resolve *templateresolver.Resolver
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	ready   atomic.Bool
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady flips the standalone /health endpoint from 503 to 200.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady reports whether MarkReady was called.
func (s *Server) IsReady() bool { return s.ready.Load() }

// New creates a new MCP server with all tools, resources, and prompts registered.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Server{
		reg:     cfg.Registry,
		render:  cfg.Renderer,
		resolve: cfg.Resolver,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		logger:  cfg.Logger,
	}
	if s.reg == nil {
		s.reg = schema.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.render == nil {
		r, err := preview.New(preview.Options{Logger: s.logger})
		if err != nil {
			return nil, fmt.Errorf("mcpserver: creating renderer: %w", err)
		}
		s.render = r
	}
	if s.resolve == nil {
		s.resolve = templateresolver.New("")
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    defaults.ToolName,
			Title:   "auditdoc template assistant",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// RunStdio runs the MCP server over stdio transport.
// This is the primary mode for IDE integrations (VS Code, Claude Desktop, Cursor).
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("mcp: serving on stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// StreamableHandler returns the bare streamable HTTP transport, for mounting
// inside a server that already provides its own middleware.
func (s *Server) StreamableHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)
}

// HTTPHandler returns the standalone HTTP handler with CORS support and a
// /health endpoint.
//
// The handler mounts:
//   - /health      → readiness/liveness probe (GET only)
//   - /mcp         → streamable HTTP transport
//   - /            → streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := s.StreamableHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return corsMiddleware(s.recoveryMiddleware(securityHeaders(mux)))
}

// handleHealth serves a readiness/liveness probe.
// Returns 200 once MarkReady was called, 503 Service Unavailable before.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"auditdoc-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"auditdoc-mcp"}`))
}

// corsMiddleware wraps an http.Handler with permissive CORS headers required
// by browser-based MCP clients.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		w.Header().Add("Vary", "Origin")

		if origin == "" {
			// No Origin header = non-browser client; skip CORS headers entirely.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware catches panics in HTTP handlers and returns a 500 error
// instead of killing the connection.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("mcp: panic in HTTP handler", "error", err, "stack", string(debug.Stack()))

				// Best-effort: if headers were already sent, WriteHeader is a no-op.
				w.Header().Set("Content-Type", defaults.ContentTypeJSON)
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeaders prevents MIME-sniffing and framing.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Tool registration
// ---------------------------------------------------------------------------

// addTool registers a tool whose handler is traced, counted and shielded
// from panics. A panicking handler yields an IsError result.
func (s *Server) addTool(tool *mcp.Tool, h mcp.ToolHandler) {
	name := tool.Name
	s.mcp.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (res *mcp.CallToolResult, err error) {
		start := time.Now()
		ctx, span := s.tracer.Start(ctx, "mcp.tool "+name,
			trace.WithAttributes(attribute.String("mcp.tool", name)))
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("mcp: panic in tool", "tool", name, "error", p, "stack", string(debug.Stack()))
				res, err = errorResult(fmt.Sprintf("internal error in %s", name)), nil
			}
			failed := err != nil || (res != nil && res.IsError)
			var spanErr error
			if failed {
				spanErr = fmt.Errorf("tool %s failed", name)
			}
			telemetry.End(span, spanErr)
			s.metrics.RecordToolCall(name, failed)
			s.logger.Debug("mcp: tool call", "tool", name, "failed", failed, "duration", time.Since(start))
		}()
		return h(ctx, req)
	})
}

// ---------------------------------------------------------------------------
// Helpers — result builders
// ---------------------------------------------------------------------------

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the LLM can see the error
// and self-correct rather than raising a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// readOnly is the annotation set shared by every tool: local, side-effect
// free and repeatable.
func readOnly(title string) *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
		Title:          title,
	}
}

// ---------------------------------------------------------------------------
// Server Instructions
// ---------------------------------------------------------------------------

const serverInstructions = `You are operating auditdoc, the template assistant of a penetration test report platform. Report templates are written in Handlebars-style markup and bind to a fixed catalog of data domains (audit, scope, client, company, creator, collaborators, reviewers, findings, sections, stats, auditStatus, procedure, verifications, document).

## TOOL SELECTION GUIDE

| User Intent | Tool |
|---|---|
| "What data can a template use?" | list_schemas |
| "Which fields does findings have?" | get_schema |
| "Show me example data" | get_sample_data |
| "Insert the audit date" | generate_variable |
| "Loop over the findings" | generate_loop |
| "Only show this when..." | generate_conditional |
| "Is findings.0.cvssv3 a valid variable?" | validate_variable |
| "Check my template" | validate_template |
| "What will this look like?" | render_preview |
| "Which templates ship with auditdoc?" | list_templates |

## RULES

1. Never invent variable paths. Look the field up with get_schema, or check it with validate_variable.
2. Array domains (findings, scope, collaborators, ...) are iterated with generate_loop; inside the loop use the loop variable (e.g. f.title), not findings.0.title.
3. Numeric segments in a path are array indices: findings.0.title is valid.
4. After writing or changing a template, run validate_template and render_preview before returning it.
5. Unknown paths are warnings, not errors: the template still renders, the value is just empty.

## RESOURCES

- auditdoc://version: server version and tool inventory
- auditdoc://schemas: the full catalog
- auditdoc://schemas/{key}: one domain
- auditdoc://sample-data: the preview dataset
- auditdoc://templates: bundled and on-disk templates
- auditdoc://templates/{name}: template source`
