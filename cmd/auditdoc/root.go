package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/auditdoc/auditdoc/pkg/config"
	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/metrics"
	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/telemetry"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
	"github.com/auditdoc/auditdoc/pkg/ui"
)

// errChecksFailed is returned after a command has printed failing checks.
var errChecksFailed = errors.New("one or more checks failed")

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	noColor bool

	cfg    config.Config
	logger *slog.Logger
	reg    *schema.Registry

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut, reg: schema.Default()}

	root := &cobra.Command{
		Use:   defaults.ToolName,
		Short: "Report template data catalog and syntax assistant",
		Long: `auditdoc describes the data available to pentest report templates,
generates template syntax for it, validates variable paths and templates,
and renders previews against sample data.

It serves the same operations over an HTTP API and as an MCP server.`,
		Version:           defaults.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .auditdoc/config.yaml, then ~/.config/auditdoc/config.yaml)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("templates-dir", "", "on-disk report template directory")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("templates.dir", pf.Lookup("templates-dir"))

	root.AddCommand(
		a.serveCmd(),
		a.mcpCmd(),
		a.schemasCmd(),
		a.validateCmd(),
		a.generateCmd(),
		a.previewCmd(),
		a.templatesCmd(),
		a.versionCmd(),
	)
	return root
}

// load reads configuration and sets up logging and terminal styling.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.NewLogger(a.errOut)
	ui.Configure(a.out, a.noColor)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.logger.Debug("config: loaded", "file", used, "command", cmd.Name())
	}
	return nil
}

func (a *app) renderer() (*preview.Renderer, error) {
	r, err := preview.New(preview.Options{
		Currency: a.cfg.Preview.Currency,
		Locale:   a.cfg.Preview.Locale,
		CacheTTL: a.cfg.Preview.CacheTTL,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	return r, nil
}

func (a *app) resolver() *templateresolver.Resolver {
	r := templateresolver.New(a.cfg.Templates.Dir)
	r.Logger = a.logger
	return r
}

func (a *app) metrics() (*metrics.Metrics, error) {
	if !a.cfg.Metrics.Enabled {
		return nil, nil
	}
	return metrics.New()
}

func (a *app) telemetry(ctx context.Context) (*telemetry.Provider, error) {
	if !a.cfg.Telemetry.Enabled {
		return telemetry.Noop(), nil
	}
	return telemetry.New(ctx, telemetry.Options{
		Endpoint:    a.cfg.Telemetry.Endpoint,
		ServiceName: a.cfg.Telemetry.ServiceName,
		Insecure:    a.cfg.Telemetry.Insecure,
	})
}

// shutdownTelemetry flushes spans even when ctx is already cancelled.
func (a *app) shutdownTelemetry(ctx context.Context, tp *telemetry.Provider) {
	if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
		a.logger.Warn("telemetry: shutdown failed", "error", err)
	}
}
