package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts adds all guided workflow prompts to the MCP server.
func (s *Server) registerPrompts() {
	s.addDraftTemplatePrompt()
	s.addReviewTemplatePrompt()
}

// userPrompt wraps text as the single user message of a prompt result.
func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text}},
		},
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// draft_template — Write a new report section
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addDraftTemplatePrompt() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        "draft_template",
			Description: "Draft a new report template section bound to the catalog, then validate and preview it.",
			Arguments: []*mcp.PromptArgument{
				{Name: "section", Description: "What the section covers, e.g. 'findings summary table'", Required: true},
				{Name: "domains", Description: "Comma-separated domains to use, e.g. 'findings,stats'. Default: decide from the section.", Required: false},
			},
		},
		func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			section := req.Params.Arguments["section"]
			if section == "" {
				return nil, fmt.Errorf("'section' argument is required")
			}
			domains := "the domains that fit the section (call list_schemas)"
			if d := strings.TrimSpace(req.Params.Arguments["domains"]); d != "" {
				domains = d
			}

			return userPrompt(fmt.Sprintf("Draft template: %s", section), fmt.Sprintf(`Write a report template section: %s.

## Step 1: Pick the data
Use %s. For each domain, call get_schema and note the exact field names. Never guess a field name.

## Step 2: Build the markup
- Insert single values with generate_variable (use format "date" for dates, "currency" for amounts).
- Iterate array domains with generate_loop and use the loop variable inside the loop.
- Wrap optional parts with generate_conditional.

## Step 3: Check
Call validate_template with strict=true on the draft. Fix every reported error and warning.

## Step 4: Preview
Call render_preview and show the user both the template source and the rendered preview.`, section, domains)), nil
		},
	)
}

// ═══════════════════════════════════════════════════════════════════════════
// review_template — Audit an existing template
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addReviewTemplatePrompt() {
	s.mcp.AddPrompt(
		&mcp.Prompt{
			Name:        "review_template",
			Description: "Review an existing template: find invalid variables, suggest the correct field, and preview the fix.",
			Arguments: []*mcp.PromptArgument{
				{Name: "name", Description: "Template name as returned by list_templates", Required: true},
			},
		},
		func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			name := req.Params.Arguments["name"]
			if name == "" {
				return nil, fmt.Errorf("'name' argument is required")
			}

			return userPrompt(fmt.Sprintf("Review template: %s", name), fmt.Sprintf(`Review the report template %q.

1. Read auditdoc://templates/%s to get the source.
2. Call validate_template with {"name": %q, "strict": true}.
3. For every warning about an unknown schema or field, call get_schema on the domain and find the intended field.
4. Propose a corrected template and check it with validate_template and render_preview.
5. Summarise the changes as a table: original variable, replacement, reason.`, name, name, name)), nil
		},
	)
}
