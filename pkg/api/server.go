// Package api serves the schema catalog, the syntax generators and the
// template tools over HTTP/JSON.
//
// Routes:
//
//	GET  /schemas                       domain summaries
//	GET  /schemas/all                   every domain, in catalog order
//	GET  /schemas/sample-data           the preview dataset
//	GET  /schemas/{key}                 one domain, 404 when unknown
//	POST /schemas/generate-variable     {schemaKey, fieldPath, options}
//	POST /schemas/generate-loop         {schemaKey, itemVar}
//	POST /schemas/generate-conditional  {variable, operator, value}
//	POST /schemas/validate              {variablePath}
//	POST /schemas/validate-template     {template, name, strict}
//	POST /schemas/preview               {template} or {name}
//	GET  /templates                     bundled and on-disk templates
//	GET  /health                        readiness probe
//	GET  /metrics                       Prometheus exposition
//	     /mcp                           MCP streamable HTTP transport
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/auditdoc/auditdoc/pkg/config"
	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/metrics"
	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
)

// Options wires the server's collaborators. Nil fields get defaults:
// the default registry, a fresh renderer and resolver, no metrics, a no-op
// tracer and slog.Default().
type Options struct {
	Server   config.ServerConfig
	Registry *schema.Registry
	Renderer *preview.Renderer
	Resolver *templateresolver.Resolver
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
	Logger   *slog.Logger
	MCP      http.Handler // mounted at /mcp when non-nil
}

// Server is the HTTP API.
type Server struct {
	opts    Options
	reg     *schema.Registry
	render  *preview.Renderer
	resolve *templateresolver.Resolver
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	limiter *rate.Limiter // nil when rate limiting is off
	ready   atomic.Bool
	handler http.Handler
}

// New builds the server and its handler chain.
func New(opts Options) (*Server, error) {
	s := &Server{
		opts:    opts,
		reg:     opts.Registry,
		render:  opts.Renderer,
		resolve: opts.Resolver,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		logger:  opts.Logger,
	}
	if s.reg == nil {
		s.reg = schema.Default()
	}
	if s.render == nil {
		r, err := preview.New(preview.Options{Logger: opts.Logger})
		if err != nil {
			return nil, fmt.Errorf("api: creating renderer: %w", err)
		}
		s.render = r
	}
	if s.resolve == nil {
		s.resolve = templateresolver.New("")
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.Server.RateLimit > 0 {
		burst := opts.Server.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.Server.RateLimit), burst)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler { return s.handler }

// MarkReady flips /health from 503 to 200.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady reports whether MarkReady was called.
func (s *Server) IsReady() bool { return s.ready.Load() }

func (s *Server) validator(strict bool) *templatevalidator.Validator {
	return &templatevalidator.Validator{StrictMode: strict, Catalog: s.reg}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /schemas", etag(http.HandlerFunc(s.handleList)))
	mux.Handle("GET /schemas/all", etag(http.HandlerFunc(s.handleAll)))
	mux.Handle("GET /schemas/sample-data", etag(http.HandlerFunc(s.handleSampleData)))
	mux.Handle("GET /schemas/{key}", etag(http.HandlerFunc(s.handleGet)))
	mux.HandleFunc("POST /schemas/generate-variable", s.handleGenerateVariable)
	mux.HandleFunc("POST /schemas/generate-loop", s.handleGenerateLoop)
	mux.HandleFunc("POST /schemas/generate-conditional", s.handleGenerateConditional)
	mux.HandleFunc("POST /schemas/validate", s.handleValidate)
	mux.HandleFunc("POST /schemas/validate-template", s.handleValidateTemplate)
	mux.HandleFunc("POST /schemas/preview", s.handlePreview)
	mux.HandleFunc("GET /templates", s.handleTemplates)
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.opts.MCP != nil {
		mux.Handle("/mcp", s.opts.MCP)
		mux.Handle("/mcp/", s.opts.MCP)
	}

	var h http.Handler = mux
	h = s.rateLimit(h)
	h = securityHeaders(h)
	h = s.recovery(h)
	h = s.observe(h)
	h = requestID(h)
	h = cors(s.opts.Server.CORS)(h)
	return h
}

// handleHealth serves a readiness/liveness probe.
// Returns 200 once MarkReady was called, 503 Service Unavailable before.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, code := "ok", http.StatusOK
	if !s.IsReady() {
		status, code = "starting", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":  status,
		"service": defaults.ToolName,
		"version": defaults.Version,
	})
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests for up to defaults.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
		ReadTimeout:       s.opts.Server.ReadTimeout,
		IdleTimeout:       s.opts.Server.IdleTimeout,
		MaxHeaderBytes:    defaults.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.MarkReady()
	s.logger.Info("api: listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("api: stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.opts.Server.Addr
	if addr == "" {
		addr = defaults.ServerAddr
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
