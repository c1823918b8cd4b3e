// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for runtime configuration defaults.
//
// Usage:
//
//	srv.Addr = defaults.ServerAddr
//	w.Header().Set("Content-Type", defaults.ContentTypeJSON)
//
// DO NOT hardcode listen addresses, timeouts or limits elsewhere.
// Reference the appropriate constant from this package instead.
package defaults

import (
	"fmt"
	"time"
)

// Version is the current auditdoc version
const Version = "1.3.0"

// ============================================================================
// IDENTITY
// ============================================================================

const (
	// ToolName is the lowercase binary / service name
	ToolName = "auditdoc"

	// ToolNameDisplay is the human-readable product name
	ToolNameDisplay = "AuditDoc"

	// EnvPrefix prefixes every environment variable read through viper
	EnvPrefix = "AUDITDOC"

	// TemplateDirEnv overrides the on-disk report template directory
	TemplateDirEnv = "AUDITDOC_TEMPLATE_DIR"
)

// ============================================================================
// SERVER SETTINGS
// ============================================================================

const (
	// ServerAddr is the default HTTP listen address
	ServerAddr = ":8080"

	// ReadHeaderTimeout guards against slowloris clients
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout bounds the full request read
	ReadTimeout = 30 * time.Second

	// IdleTimeout releases idle keep-alive connections
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is the graceful drain window on SIGINT/SIGTERM
	ShutdownTimeout = 15 * time.Second

	// MaxHeaderBytes caps request header size (1 MB)
	MaxHeaderBytes = 1 << 20

	// MaxBodyBytes caps JSON request bodies (2 MB, enough for large templates)
	MaxBodyBytes = 2 << 20

	// RateLimit is the steady-state requests per second per server
	RateLimit = 100

	// RateBurst is the token bucket size
	RateBurst = 200
)

// ============================================================================
// TELEMETRY SETTINGS
// ============================================================================

const (
	// OTLPEndpoint is the default OTLP/gRPC collector address
	OTLPEndpoint = "localhost:4317"

	// TelemetryShutdown bounds span flushing on exit
	TelemetryShutdown = 5 * time.Second

	// TelemetryConnect bounds exporter construction
	TelemetryConnect = 10 * time.Second
)

// ============================================================================
// PREVIEW SETTINGS
// ============================================================================

const (
	// PreviewCacheTTL is how long a rendered preview stays cached
	PreviewCacheTTL = 10 * time.Minute

	// PreviewCacheCleanup is the cache janitor interval
	PreviewCacheCleanup = 30 * time.Minute

	// CurrencyCode is the ISO 4217 code used by formatCurrency
	CurrencyCode = "EUR"
)

// ============================================================================
// DIRECTORIES
// ============================================================================

const (
	// TemplateDir is the on-disk report template directory
	TemplateDir = "./templates/report"

	// ConfigDir is the project-local configuration directory
	ConfigDir = ".auditdoc"
)

// ============================================================================
// CONTENT TYPES
// ============================================================================

const (
	// ContentTypeJSON is application/json
	ContentTypeJSON = "application/json"

	// ContentTypeText is text/plain
	ContentTypeText = "text/plain; charset=utf-8"
)

// UserAgent returns the identification string used in logs and banners.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", ToolName, Version)
}
