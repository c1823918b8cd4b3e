package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/syntax"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
	"github.com/auditdoc/auditdoc/pkg/varpath"
)

// toolNames lists every registered tool, in registration order.
var toolNames = []string{
	"list_schemas", "get_schema", "get_sample_data",
	"generate_variable", "generate_loop", "generate_conditional",
	"validate_variable", "validate_template", "render_preview", "list_templates",
}

// registerTools adds all template tools to the MCP server.
func (s *Server) registerTools() {
	s.addListSchemasTool()
	s.addGetSchemaTool()
	s.addGetSampleDataTool()
	s.addGenerateVariableTool()
	s.addGenerateLoopTool()
	s.addGenerateConditionalTool()
	s.addValidateVariableTool()
	s.addValidateTemplateTool()
	s.addRenderPreviewTool()
	s.addListTemplatesTool()
}

// emptySchema is the input schema of tools without arguments.
func emptySchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

// ═══════════════════════════════════════════════════════════════════════════
// list_schemas — Browse the domain catalog
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListSchemasTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "list_schemas",
			Title: "List Data Domains",
			Description: `List every data domain a report template can bind to.

USE THIS TOOL WHEN:
• The user asks "what data can I use in a template?"
• You need the key of a domain before calling get_schema or generate_variable

Returns one entry per domain: key, label, icon, description, isArray, isComputed and fieldCount (top-level fields only).`,
			InputSchema: emptySchema(),
			Annotations: readOnly("List Data Domains"),
		},
		s.handleListSchemas,
	)
}

func (s *Server) handleListSchemas(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.reg.List())
}

// ═══════════════════════════════════════════════════════════════════════════
// get_schema — One domain with its fields
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGetSchemaTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "get_schema",
			Title: "Get Data Domain",
			Description: `Show one data domain with all of its fields, their types, examples, enum options and nested fields.

USE THIS TOOL WHEN:
• You need the exact field names of a domain before writing a variable
• You need the allowed values of an enum field (e.g. findings.status)

EXAMPLE INPUTS:
• {"key": "findings"}
• {"key": "audit"}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type":        "string",
						"description": "Domain key as returned by list_schemas.",
					},
				},
				"required": []string{"key"},
			},
			Annotations: readOnly("Get Data Domain"),
		},
		s.handleGetSchema,
	)
}

type getSchemaArgs struct {
	Key string `json:"key"`
}

func (s *Server) handleGetSchema(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args getSchemaArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'key' (string).", err)), nil
	}
	if args.Key == "" {
		return errorResult("'key' is required. Call list_schemas to see the available keys."), nil
	}
	d, ok := s.reg.Lookup(args.Key)
	if !ok {
		return errorResult(fmt.Sprintf("Schema '%s' not found. Available: %s.", args.Key, strings.Join(s.reg.Keys(), ", "))), nil
	}
	return jsonResult(schema.Keyed{Domain: d})
}

// ═══════════════════════════════════════════════════════════════════════════
// get_sample_data — The preview dataset
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGetSampleDataTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "get_sample_data",
			Title: "Get Sample Data",
			Description: `Return the example dataset used for previews, shaped like the catalog: one entry per domain, array domains as lists of records.

USE THIS TOOL WHEN:
• You want to see what a variable will render to
• You are explaining a domain to the user with concrete values`,
			InputSchema: emptySchema(),
			Annotations: readOnly("Get Sample Data"),
		},
		s.handleGetSampleData,
	)
}

func (s *Server) handleGetSampleData(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(schema.SampleData())
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_variable — Substitution markup for one field
// ═══════════════════════════════════════════════════════════════════════════

func formatNames() []string {
	out := make([]string, 0, len(syntax.Formats()))
	for _, f := range syntax.Formats() {
		out = append(out, string(f))
	}
	return out
}

func (s *Server) addGenerateVariableTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "generate_variable",
			Title: "Generate Variable Markup",
			Description: `Generate the markup that inserts one field into a template, optionally wrapped in a formatting helper.

EXAMPLE INPUTS:
• {"schemaKey": "audit", "fieldPath": "name"} → {{audit.name}}
• {"schemaKey": "audit", "fieldPath": "date", "format": "date"} → {{formatDate audit.date "DD/MM/YYYY"}}
• Inside a findings loop aliased f: {"schemaKey": "findings", "fieldPath": "title", "isLoop": true, "loopVar": "f"} → {{f.title}}

FORMATS: ` + strings.Join(formatNames(), ", ") + `. Any other format is ignored.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schemaKey": map[string]any{"type": "string", "description": "Domain key."},
					"fieldPath": map[string]any{"type": "string", "description": "Dotted field path inside the domain."},
					"format": map[string]any{
						"type":        "string",
						"description": "Optional formatting helper: " + strings.Join(formatNames(), ", ") + ". Other values produce the plain reference.",
					},
					"isLoop":  map[string]any{"type": "boolean", "description": "The markup goes inside an each loop."},
					"loopVar": map[string]any{"type": "string", "description": "Loop alias replacing the domain key when isLoop is set."},
				},
				"required": []string{"schemaKey", "fieldPath"},
			},
			Annotations: readOnly("Generate Variable Markup"),
		},
		s.handleGenerateVariable,
	)
}

type generateVariableArgs struct {
	SchemaKey string        `json:"schemaKey"`
	FieldPath string        `json:"fieldPath"`
	Format    syntax.Format `json:"format"`
	IsLoop    bool          `json:"isLoop"`
	LoopVar   string        `json:"loopVar"`
}

func (s *Server) handleGenerateVariable(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateVariableArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.SchemaKey == "" || args.FieldPath == "" {
		return errorResult("'schemaKey' and 'fieldPath' are required."), nil
	}
	out := syntax.Variable(args.SchemaKey, args.FieldPath, syntax.Options{
		Format:  args.Format,
		IsLoop:  args.IsLoop,
		LoopVar: args.LoopVar,
	})
	return jsonResult(map[string]string{"syntax": out})
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_loop — each block over an array domain
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGenerateLoopTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "generate_loop",
			Title: "Generate Loop Block",
			Description: `Generate the opening and closing markup of a loop over an array domain.

EXAMPLE INPUTS:
• {"schemaKey": "findings", "itemVar": "f"} → {{#each findings as |f|}} … {{/each}}
• {"schemaKey": "scope"} → alias defaults to "item"`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schemaKey": map[string]any{"type": "string", "description": "Array domain key."},
					"itemVar":   map[string]any{"type": "string", "description": "Per-item alias, default \"item\"."},
				},
				"required": []string{"schemaKey"},
			},
			Annotations: readOnly("Generate Loop Block"),
		},
		s.handleGenerateLoop,
	)
}

type generateLoopArgs struct {
	SchemaKey string `json:"schemaKey"`
	ItemVar   string `json:"itemVar"`
}

func (s *Server) handleGenerateLoop(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateLoopArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.SchemaKey == "" {
		return errorResult("'schemaKey' is required."), nil
	}
	return jsonResult(syntax.Loop(args.SchemaKey, args.ItemVar))
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_conditional — if/eq/unless blocks
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGenerateConditionalTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "generate_conditional",
			Title: "Generate Conditional Block",
			Description: `Generate a conditional section.

EXAMPLE INPUTS:
• {"variable": "audit.summary"} → {{#if audit.summary}} … {{else}} … {{/if}}
• {"variable": "f.severity", "operator": "eq", "value": "Critical"} → {{#if (eq f.severity "Critical")}}
• {"variable": "findings", "operator": "unless"} → {{#unless findings}} … {{/unless}}`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"variable": map[string]any{"type": "string", "description": "Variable reference to test."},
					"operator": map[string]any{"type": "string", "description": "if (default), eq, or any block helper name."},
					"value":    map[string]any{"description": "Comparison value for eq."},
				},
				"required": []string{"variable"},
			},
			Annotations: readOnly("Generate Conditional Block"),
		},
		s.handleGenerateConditional,
	)
}

type generateConditionalArgs struct {
	Variable string `json:"variable"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

func (s *Server) handleGenerateConditional(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateConditionalArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.Variable == "" {
		return errorResult("'variable' is required."), nil
	}
	return jsonResult(syntax.Conditional(args.Variable, args.Operator, args.Value))
}

// ═══════════════════════════════════════════════════════════════════════════
// validate_variable — Check one dotted path
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addValidateVariableTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "validate_variable",
			Title: "Validate Variable Path",
			Description: `Check that a dotted variable path addresses a field of the catalog. Numeric segments are array indices and are skipped.

EXAMPLE INPUTS:
• {"variablePath": "findings.0.title"} → {"valid": true}
• {"variablePath": "audit.nope"} → {"valid": false, "error": "Field 'nope' not found in path"}

A failed check is a normal result, not a tool error.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"variablePath": map[string]any{"type": "string", "description": "Dotted path, e.g. audit.date."},
				},
				"required": []string{"variablePath"},
			},
			Annotations: readOnly("Validate Variable Path"),
		},
		s.handleValidateVariable,
	)
}

type validateVariableArgs struct {
	VariablePath string `json:"variablePath"`
}

func (s *Server) handleValidateVariable(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args validateVariableArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.VariablePath == "" {
		return errorResult("'variablePath' is required."), nil
	}
	res := varpath.Validate(s.reg, args.VariablePath)
	s.metrics.RecordValidation(res.Kind)
	return jsonResult(res)
}

// ═══════════════════════════════════════════════════════════════════════════
// validate_template / render_preview — Whole templates
// ═══════════════════════════════════════════════════════════════════════════

// templateSchema is the input schema shared by the whole-template tools.
func templateSchema(extra map[string]any) map[string]any {
	props := map[string]any{
		"template": map[string]any{"type": "string", "description": "Template source. Takes precedence over name."},
		"name":     map[string]any{"type": "string", "description": "Bundled or on-disk template name, e.g. findings."},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]any{"type": "object", "properties": props}
}

type templateArgs struct {
	Template string `json:"template"`
	Name     string `json:"name"`
	Strict   bool   `json:"strict"`
}

// source returns the template text for args and a label for it.
func (s *Server) source(args templateArgs) (src, label string, err error) {
	if args.Template != "" {
		label = args.Name
		if label == "" {
			label = "inline"
		}
		return args.Template, label, nil
	}
	if args.Name == "" {
		return "", "", errors.New("'template' or 'name' is required")
	}
	return s.resolve.ReadName(args.Name)
}

func (s *Server) addValidateTemplateTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "validate_template",
			Title: "Validate Template",
			Description: `Check a whole template: block structure, front matter, and every variable reference (loop aliases are resolved to domain.0.field form before checking).

Unknown variables are warnings; unbalanced blocks are errors. With strict, warnings count as errors.

EXAMPLE INPUTS:
• {"template": "{{#each findings as |f|}}{{f.title}}{{/each}}"}
• {"name": "findings", "strict": true}`,
			InputSchema: templateSchema(map[string]any{
				"strict": map[string]any{"type": "boolean", "description": "Treat warnings as errors."},
			}),
			Annotations: readOnly("Validate Template"),
		},
		s.handleValidateTemplate,
	)
}

func (s *Server) handleValidateTemplate(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args templateArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	src, label, err := s.source(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	v := &templatevalidator.Validator{StrictMode: args.Strict, Catalog: s.reg}
	return jsonResult(v.ValidateSource(label, src))
}

func (s *Server) addRenderPreviewTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "render_preview",
			Title: "Render Preview",
			Description: `Render a template against the sample dataset and return the output with any warnings (unknown helpers, missing values).

USE THIS TOOL WHEN:
• The user asks what a template will look like
• You changed a template and want to check the result before returning it

EXAMPLE INPUTS:
• {"template": "Client: {{client.name}}"}
• {"name": "executive-summary"}`,
			InputSchema: templateSchema(nil),
			Annotations: readOnly("Render Preview"),
		},
		s.handleRenderPreview,
	)
}

func (s *Server) handleRenderPreview(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args templateArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	src, _, err := s.source(args)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	res, err := templatevalidator.RenderSample(s.render, src)
	if err != nil {
		s.metrics.RecordPreview(false, 0, err)
		var pe *preview.ParseError
		if errors.As(err, &pe) {
			return errorResult(fmt.Sprintf("template syntax error at line %d: %s. Fix the block structure and retry.", pe.Line, pe.Msg)), nil
		}
		return errorResult(err.Error()), nil
	}
	s.metrics.RecordPreview(res.Cached, len(res.Warnings), nil)
	return jsonResult(res)
}

// ═══════════════════════════════════════════════════════════════════════════
// list_templates — Bundled and on-disk templates
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListTemplatesTool() {
	s.addTool(
		&mcp.Tool{
			Name:  "list_templates",
			Title: "List Templates",
			Description: `List the report templates available by name: the bundled ones plus any in the configured templates directory, which override bundled templates of the same name.

Use a returned name with validate_template or render_preview.`,
			InputSchema: emptySchema(),
			Annotations: readOnly("List Templates"),
		},
		s.handleListTemplates,
	)
}

func (s *Server) handleListTemplates(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.resolve.List()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(infos)
}

// isNotFound reports whether err means a template name did not resolve.
func isNotFound(err error) bool {
	return errors.Is(err, templateresolver.ErrNotFound)
}
