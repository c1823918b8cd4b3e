package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/jsonutil"
	"github.com/auditdoc/auditdoc/pkg/schema"
)

const (
	uriScheme     = "auditdoc://"
	uriVersion    = uriScheme + "version"
	uriSchemas    = uriScheme + "schemas"
	uriSampleData = uriScheme + "sample-data"
	uriTemplates  = uriScheme + "templates"
)

// registerResources adds all catalog resources to the MCP server.
func (s *Server) registerResources() {
	s.addVersionResource()
	s.addSchemasResource()
	s.addSchemaByKeyResource()
	s.addSampleDataResource()
	s.addTemplatesResource()
	s.addTemplateByNameResource()
}

// jsonContents marshals v into a single JSON resource content block.
func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := jsonutil.MarshalIndent(v, "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: string(data)},
		},
	}, nil
}

// lastSegment extracts the trailing path segment: auditdoc://schemas/audit → audit.
func lastSegment(uri string) string {
	if idx := strings.LastIndex(uri, "/"); idx >= 0 {
		return uri[idx+1:]
	}
	return ""
}

// ═══════════════════════════════════════════════════════════════════════════
// auditdoc://version — Server capabilities and version
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addVersionResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriVersion,
			Name:        "auditdoc version",
			Description: "Server version, capabilities, and tool inventory.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonContents(uriVersion, map[string]any{
				"name":    defaults.ToolName,
				"version": defaults.Version,
				"tools":   toolNames,
				"domains": s.reg.Keys(),
			})
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// auditdoc://schemas — Full catalog, auditdoc://schemas/{key} — one domain
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addSchemasResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriSchemas,
			Name:        "Schema catalog",
			Description: "Every data domain with its fields, keyed by domain, in catalog order.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonContents(uriSchemas, s.reg)
		},
	)
}

func (s *Server) addSchemaByKeyResource() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: uriSchemas + "/{key}",
			Name:        "Schema by key",
			Description: "One data domain (e.g. audit, findings) with its key inlined.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			uri := req.Params.URI
			d, ok := s.reg.Lookup(lastSegment(uri))
			if !ok {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return jsonContents(uri, schema.Keyed{Domain: d})
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// auditdoc://sample-data — The preview dataset
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addSampleDataResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriSampleData,
			Name:        "Sample data",
			Description: "Example values for every domain, used by previews.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonContents(uriSampleData, schema.SampleData())
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// auditdoc://templates — Template list, auditdoc://templates/{name} — source
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addTemplatesResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			URI:         uriTemplates,
			Name:        "Report templates",
			Description: "Templates available by name, with their front matter metadata.",
			MIMEType:    "application/json",
		},
		func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			infos, err := s.resolve.List()
			if err != nil {
				return nil, err
			}
			return jsonContents(uriTemplates, infos)
		},
	)
}

func (s *Server) addTemplateByNameResource() {
	s.mcp.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: uriTemplates + "/{name}",
			Name:        "Template source",
			Description: "Source of one report template, front matter included.",
			MIMEType:    "text/x-handlebars-template",
		},
		func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			uri := req.Params.URI
			src, _, err := s.resolve.ReadName(lastSegment(uri))
			if err != nil {
				if isNotFound(err) {
					return nil, mcp.ResourceNotFoundError(uri)
				}
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: uri, MIMEType: "text/x-handlebars-template", Text: src},
				},
			}, nil
		},
	)
}
