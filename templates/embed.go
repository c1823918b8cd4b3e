// Package templates embeds the bundled report templates.
//
// The embedded set is the last step of the template resolution chain, so the
// CLI, the API and the MCP server always have a working set of templates to
// list, check and preview, whatever the installation method.
//
// Usage:
//
//	data, _ := templates.FS.ReadFile("report/executive-summary.hbs")
package templates

import "embed"

// FS contains the bundled report templates. Paths match the on-disk
// templates/ layout minus this Go file.
//
//go:embed report/*.hbs
var FS embed.FS
