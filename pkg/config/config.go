// Package config loads auditdoc settings from a YAML file, AUDITDOC_*
// environment variables and command line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/auditdoc/auditdoc/pkg/defaults"
)

// Config holds all configuration options for auditdoc.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"` // requests per second, 0 disables limiting
	Burst       int           `mapstructure:"burst"`
	CORS        []string      `mapstructure:"cors"` // allowed origins; "*" allows any
	MCP         bool          `mapstructure:"mcp"`  // mount the MCP endpoint at /mcp
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"` // OTLP/gRPC collector host:port
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// TemplatesConfig locates on-disk report templates.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// PreviewConfig holds preview renderer settings.
type PreviewConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Currency string        `mapstructure:"currency"` // ISO 4217 code
	Locale   string        `mapstructure:"locale"`   // BCP 47 tag, empty for the default printer
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// Defaults returns a Config with the values used when nothing is configured.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:        defaults.ServerAddr,
			ReadTimeout: defaults.ReadTimeout,
			IdleTimeout: defaults.IdleTimeout,
			RateLimit:   defaults.RateLimit,
			Burst:       defaults.RateBurst,
			CORS:        []string{"*"},
			MCP:         true,
		},
		Metrics: MetricsConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			Endpoint:    defaults.OTLPEndpoint,
			Insecure:    true,
			ServiceName: defaults.ToolName,
		},
		Templates: TemplatesConfig{Dir: defaults.TemplateDir},
		Preview: PreviewConfig{
			CacheTTL: defaults.PreviewCacheTTL,
			Currency: defaults.CurrencyCode,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.burst", d.Server.Burst)
	v.SetDefault("server.cors", d.Server.CORS)
	v.SetDefault("server.mcp", d.Server.MCP)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", d.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	v.SetDefault("telemetry.service_name", d.Telemetry.ServiceName)
	v.SetDefault("templates.dir", d.Templates.Dir)
	v.SetDefault("preview.cache_ttl", d.Preview.CacheTTL)
	v.SetDefault("preview.currency", d.Preview.Currency)
	v.SetDefault("preview.locale", d.Preview.Locale)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration into a Config.
//
// Config lookup order:
//  1. file, when non-empty
//  2. .auditdoc/config.yaml (current directory)
//  3. ~/.config/auditdoc/config.yaml (user config)
//
// A missing config file is not an error. Flags bound to v before Load take
// precedence over both the file and the environment.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(defaults.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	local := filepath.Join(defaults.ConfigDir, "config.yaml")
	switch {
	case file != "":
		v.SetConfigFile(file)
	case fileExists(local):
		v.SetConfigFile(local)
	default:
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", defaults.ToolName))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("%w: reading config: %v", ErrInvalidConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decoding config: %v", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr", ErrMissingRequired)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rate_limit must not be negative, got %v", ErrInvalidConfig, c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.Burst < 1 {
		return fmt.Errorf("%w: server.burst must be at least 1 when rate limiting, got %d", ErrInvalidConfig, c.Server.Burst)
	}
	if c.Server.ReadTimeout < 0 || c.Server.IdleTimeout < 0 {
		return fmt.Errorf("%w: server timeouts must not be negative", ErrInvalidConfig)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("%w: telemetry.endpoint is required when telemetry is enabled", ErrMissingRequired)
		}
		if c.Telemetry.ServiceName == "" {
			return fmt.Errorf("%w: telemetry.service_name is required when telemetry is enabled", ErrMissingRequired)
		}
	}
	if c.Preview.CacheTTL < 0 {
		return fmt.Errorf("%w: preview.cache_ttl must not be negative, got %v", ErrInvalidConfig, c.Preview.CacheTTL)
	}
	if _, err := currency.ParseISO(c.Preview.Currency); err != nil {
		return fmt.Errorf("%w: preview.currency %q is not an ISO 4217 code", ErrInvalidConfig, c.Preview.Currency)
	}
	if c.Preview.Locale != "" {
		if _, err := language.Parse(c.Preview.Locale); err != nil {
			return fmt.Errorf("%w: preview.locale %q: %v", ErrInvalidConfig, c.Preview.Locale, err)
		}
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be \"text\" or \"json\", got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: log.level must be debug, info, warn or error, got %q", ErrInvalidConfig, l.Level)
}

// NewLogger builds the slog logger described by l, writing to w.
// An invalid level falls back to info.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
