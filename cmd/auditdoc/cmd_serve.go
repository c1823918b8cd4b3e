package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/auditdoc/auditdoc/pkg/api"
	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/mcpserver"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API: schema catalog, syntax generators, validation and
previews under /schemas, template listing under /templates, /health,
/metrics and, unless disabled, the MCP endpoint at /mcp.

Examples:
  auditdoc serve
  auditdoc serve --addr 127.0.0.1:9000 --mcp=false
  AUDITDOC_SERVER_RATE_LIMIT=0 auditdoc serve`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default "+defaults.ServerAddr+")")
	cmd.Flags().Bool("mcp", true, "mount the MCP endpoint at /mcp")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("server.mcp", cmd.Flags().Lookup("mcp"))
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	tp, err := a.telemetry(ctx)
	if err != nil {
		return err
	}
	defer a.shutdownTelemetry(ctx, tp)

	m, err := a.metrics()
	if err != nil {
		return err
	}
	render, err := a.renderer()
	if err != nil {
		return err
	}
	resolve := a.resolver()

	var mcpHandler http.Handler
	if a.cfg.Server.MCP {
		ms, err := mcpserver.New(&mcpserver.Config{
			Registry: a.reg,
			Renderer: render,
			Resolver: resolve,
			Metrics:  m,
			Tracer:   tp.Tracer(),
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		mcpHandler = ms.StreamableHandler()
	}

	srv, err := api.New(api.Options{
		Server:   a.cfg.Server,
		Registry: a.reg,
		Renderer: render,
		Resolver: resolve,
		Metrics:  m,
		Tracer:   tp.Tracer(),
		Logger:   a.logger,
		MCP:      mcpHandler,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func (a *app) mcpCmd() *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server",
		Long: `Start an MCP server exposing the schema catalog, syntax generators,
validation and previews as tools, resources and prompts.

Transports:
  (default)        stdio, for IDE integration
  --http <addr>    streamable HTTP, for remote or container deployments

Examples:
  auditdoc mcp
  auditdoc mcp --http :8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMCP(cmd.Context(), httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP address to listen on (e.g. :8081); disables stdio")
	return cmd
}

func (a *app) runMCP(parent context.Context, httpAddr string) error {
	ctx, cancel := signalContext(parent)
	defer cancel()

	tp, err := a.telemetry(ctx)
	if err != nil {
		return err
	}
	defer a.shutdownTelemetry(ctx, tp)

	m, err := a.metrics()
	if err != nil {
		return err
	}
	render, err := a.renderer()
	if err != nil {
		return err
	}
	srv, err := mcpserver.New(&mcpserver.Config{
		Registry: a.reg,
		Renderer: render,
		Resolver: a.resolver(),
		Metrics:  m,
		Tracer:   tp.Tracer(),
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	if httpAddr == "" {
		srv.MarkReady()
		return srv.RunStdio(ctx)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("mcp: listen %s: %w", httpAddr, err)
	}
	httpSrv := &http.Server{
		Handler:           srv.HTTPHandler(),
		ReadHeaderTimeout: defaults.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		// No WriteTimeout: streamable HTTP responses are long-lived.
		IdleTimeout:    a.cfg.Server.IdleTimeout,
		MaxHeaderBytes: defaults.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Serve(ln) }()
	srv.MarkReady()
	a.logger.Info("mcp: listening", "addr", ln.Addr().String(), "transport", "http")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.ShutdownTimeout)
	defer shutdownCancel()
	a.logger.Info("mcp: shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mcp: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
