// Package mcpserver exposes the auditdoc schema catalog and template tools
// as a Model Context Protocol (MCP) server, so that AI assistants can help
// write and review report templates.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes three categories
// of capabilities:
//
//   - Tools:     list_schemas, get_schema, get_sample_data, the three
//     generate_* syntax generators, validate_variable, validate_template,
//     render_preview and list_templates
//   - Resources: the catalog, single domains, the sample dataset and the
//     bundled templates
//   - Prompts:   guided template drafting and review
//
// Every tool is read-only and local: no network access, no side effects.
// Invalid input produces an IsError result the model can read and correct,
// never a protocol error.
//
// # Transports
//
//   - stdio:  Communicates over stdin/stdout. Used by IDE integrations.
//   - HTTP:   Streamable HTTP. Mounted at /mcp by the API server, or served
//     standalone with its own /health probe.
//
// # Usage
//
//	srv, err := mcpserver.New(&mcpserver.Config{})
//	if err != nil { ... }
//	err = srv.RunStdio(ctx)
package mcpserver
