package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/auditdoc/auditdoc/pkg/config"
	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/jsonutil"
	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/syntax"
	"github.com/auditdoc/auditdoc/pkg/templateresolver"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
)

// isolate runs the test in an empty directory so no real config file or
// template directory is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv(defaults.TemplateDirEnv, "")
	return dir
}

type result struct {
	out, errOut string
	err         error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	isolate(t)
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func decodeOut[T any](t *testing.T, r result) T {
	t.Helper()
	require.NoError(t, r.err, r.errOut)
	var v T
	require.NoError(t, jsonutil.Unmarshal([]byte(r.out), &v), r.out)
	return v
}

// =============================================================================
// schemas
// =============================================================================

func TestSchemasList(t *testing.T) {
	r := run(t, "", "schemas", "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "Is Array")
	for _, key := range schema.Default().Keys() {
		assert.Contains(t, r.out, key)
	}
}

func TestSchemasList_JSON(t *testing.T) {
	got := decodeOut[[]schema.Summary](t, run(t, "", "schemas", "list", "-o", "json"))
	require.Len(t, got, schema.Default().Len())
	assert.Equal(t, "audit", got[0].Key)
}

func TestSchemasShow(t *testing.T) {
	r := run(t, "", "schemas", "show", "audit")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "audit.date_start")
	assert.Contains(t, r.out, "audit.customFields.label")
	assert.Contains(t, r.out, "ACME Web Application Pentest")
}

func TestSchemasShow_JSON(t *testing.T) {
	got := decodeOut[map[string]any](t, run(t, "", "schemas", "show", "findings", "-o", "json"))
	assert.Equal(t, "findings", got["key"])
	assert.Equal(t, true, got["isArray"])
}

func TestSchemasShow_Unknown(t *testing.T) {
	r := run(t, "", "schemas", "show", "nope")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), `schema "nope" not found`)
}

func TestSchemasAll_YAML(t *testing.T) {
	r := run(t, "", "schemas", "all", "-o", "yaml")
	require.NoError(t, r.err)
	assert.True(t, strings.HasPrefix(r.out, "audit:\n"), r.out[:min(len(r.out), 80)])

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(r.out), &doc))
	assert.Len(t, doc, schema.Default().Len())
}

func TestSchemasAll_Table(t *testing.T) {
	r := run(t, "", "schemas", "all")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "findings.title")
	assert.Contains(t, r.out, "client.company.name")
}

func TestSchemasSample(t *testing.T) {
	got := decodeOut[map[string]any](t, run(t, "", "schemas", "sample"))
	audit, ok := got["audit"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ACME Web Application Pentest", audit["name"])
}

func TestOutputFormat_Invalid(t *testing.T) {
	r := run(t, "", "schemas", "list", "-o", "xml")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), `unknown output format "xml"`)
}

// =============================================================================
// validate
// =============================================================================

func TestValidate(t *testing.T) {
	r := run(t, "", "validate", "audit.name", "findings.0.title")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "audit.name")
	assert.Contains(t, r.out, "findings.0.title")
}

func TestValidate_Failure(t *testing.T) {
	r := run(t, "", "validate", "audit.name", "audit.nope", "nope.x")
	require.ErrorIs(t, r.err, errChecksFailed)
	assert.Contains(t, r.out, "Field 'nope' not found in path")
	assert.Contains(t, r.out, "Schema 'nope' not found")
}

func TestValidate_JSON(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	cmd := newRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "audit.name", "audit..name", "-o", "json"})
	require.ErrorIs(t, cmd.Execute(), errChecksFailed)

	var got []map[string]any
	require.NoError(t, jsonutil.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, map[string]any{"path": "audit.name", "valid": true}, got[0])
	assert.Equal(t, "Empty segment at position 1 in path", got[1]["error"])
}

func TestValidate_NoArgs(t *testing.T) {
	assert.Error(t, run(t, "", "validate").err)
}

// =============================================================================
// generate
// =============================================================================

func TestGenerateVariable(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"audit", "name"}, "{{audit.name}}"},
		{[]string{"audit", "date", "--format", "date"}, `{{formatDate audit.date "DD/MM/YYYY"}}`},
		{[]string{"findings", "title", "--loop", "--loop-var", "f", "--format", "uppercase"}, "{{uppercase f.title}}"},
		{[]string{"audit", "name", "--format", "sparkly"}, "{{audit.name}}"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			r := run(t, "", append([]string{"generate", "variable"}, tt.args...)...)
			require.NoError(t, r.err)
			assert.Equal(t, tt.want+"\n", r.out)
		})
	}
}

func TestGenerateVariable_JSON(t *testing.T) {
	got := decodeOut[map[string]string](t, run(t, "", "gen", "variable", "audit", "budget", "--format", "currency", "-o", "json"))
	assert.Equal(t, map[string]string{"syntax": "{{formatCurrency audit.budget}}"}, got)
}

func TestGenerateLoop(t *testing.T) {
	r := run(t, "", "generate", "loop", "findings", "--item-var", "f")
	require.NoError(t, r.err)
	assert.Equal(t, "{{#each findings as |f|}}\n{{/each}}\n", r.out)

	got := decodeOut[syntax.LoopBlock](t, run(t, "", "generate", "loop", "scope", "-o", "json"))
	assert.Equal(t, "item", got.ItemVar)
}

func TestGenerateConditional(t *testing.T) {
	r := run(t, "", "generate", "conditional", "f.severity", "--operator", "eq", "--value", "critical")
	require.NoError(t, r.err)
	assert.Equal(t, "{{#if (eq f.severity \"critical\")}}\n{{else}}\n{{/if}}\n", r.out)

	got := decodeOut[syntax.ConditionalBlock](t, run(t, "", "generate", "conditional", "audit.summary", "-o", "json"))
	assert.Equal(t, "{{#if audit.summary}}", got.Start)

	// eq without --value falls back to the generic block helper.
	got = decodeOut[syntax.ConditionalBlock](t, run(t, "", "generate", "conditional", "x", "--operator", "eq", "-o", "json"))
	assert.Equal(t, "{{#eq x}}", got.Start)
}

// =============================================================================
// preview
// =============================================================================

func TestPreview_Stdin(t *testing.T) {
	r := run(t, "Report: {{uppercase audit.name}}", "preview", "-")
	require.NoError(t, r.err)
	assert.Equal(t, "Report: ACME WEB APPLICATION PENTEST", r.out)
	assert.Empty(t, r.errOut)
}

func TestPreview_Named(t *testing.T) {
	r := run(t, "", "preview", "findings")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "SQL Injection in login form")
}

func TestPreview_Warnings(t *testing.T) {
	r := run(t, "{{audit.nope}}", "preview", "-", "-o", "json")
	got := decodeOut[preview.Result](t, r)
	assert.NotEmpty(t, got.Warnings)
}

func TestPreview_ParseError(t *testing.T) {
	r := run(t, "{{#if audit.name}}\nunclosed", "preview", "-")
	require.ErrorIs(t, r.err, preview.ErrSyntax)
	assert.Contains(t, r.err.Error(), "stdin")
}

func TestPreview_NotFound(t *testing.T) {
	r := run(t, "", "preview", "missing")
	assert.ErrorIs(t, r.err, templateresolver.ErrNotFound)
}

// =============================================================================
// templates
// =============================================================================

func TestTemplatesList(t *testing.T) {
	got := decodeOut[[]templateresolver.TemplateInfo](t, run(t, "", "templates", "list", "-o", "json"))
	names := make([]string, 0, len(got))
	for _, info := range got {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"executive-summary", "findings", "scope"}, names)

	r := run(t, "", "templates", "list")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "embedded:report/scope.hbs")
}

func TestTemplatesCheck_Bundled(t *testing.T) {
	r := run(t, "", "templates", "check", "--strict")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, "embedded:report/findings.hbs")
}

func TestTemplatesCheck_Invalid(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hbs"), []byte("{{#each findings}}\n{{title}}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.hbs"), []byte("{{audit.nope}}"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"templates", "check", "./bad.hbs", "./loose.hbs", "missing", "-o", "json"})
	require.ErrorIs(t, cmd.Execute(), errChecksFailed)

	var summary templatevalidator.ValidationSummary
	require.NoError(t, jsonutil.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 2, summary.InvalidFiles)
	assert.Equal(t, 1, summary.TotalWarnings)
}

func TestTemplatesCheck_WatchRequiresTable(t *testing.T) {
	r := run(t, "", "templates", "check", "--watch", "-o", "json")
	assert.Error(t, r.err)
}

// syncBuffer is written by the command goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTemplatesCheck_Watch(t *testing.T) {
	dir := isolate(t)
	tmplDir := filepath.Join(dir, "report")
	require.NoError(t, os.Mkdir(tmplDir, 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	cmd := newRootCmd(&out, &syncBuffer{})
	cmd.SetArgs([]string{"templates", "check", "--watch", "--templates-dir", tmplDir})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "watching") },
		5*time.Second, 20*time.Millisecond)

	p := filepath.Join(tmplDir, "draft.hbs")
	require.NoError(t, os.WriteFile(p, []byte("{{audit.nope}}"), 0o644))
	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, p) && strings.Contains(s, "Field 'nope' not found in path")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

// =============================================================================
// servers
// =============================================================================

func runUntil(t *testing.T, d time.Duration, args ...string) error {
	t.Helper()
	isolate(t)
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	cmd := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func TestServe_StopsOnCancel(t *testing.T) {
	assert.NoError(t, runUntil(t, 200*time.Millisecond, "serve", "--addr", "127.0.0.1:0"))
}

func TestServe_BadAddr(t *testing.T) {
	assert.Error(t, runUntil(t, time.Second, "serve", "--addr", "not-an-address"))
}

func TestMCPHTTP_StopsOnCancel(t *testing.T) {
	assert.NoError(t, runUntil(t, 200*time.Millisecond, "mcp", "--http", "127.0.0.1:0"))
}

// =============================================================================
// root
// =============================================================================

func TestVersion(t *testing.T) {
	got := decodeOut[versionInfo](t, run(t, "", "version", "-o", "json"))
	assert.Equal(t, defaults.ToolName, got.Name)
	assert.Equal(t, defaults.Version, got.Version)

	r := run(t, "", "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.out, defaults.Version)
}

func TestConfigFlag_Missing(t *testing.T) {
	r := run(t, "", "--config", "absent.yaml", "version")
	assert.ErrorIs(t, r.err, config.ErrInvalidConfig)
}

func TestConfigFile_Applies(t *testing.T) {
	dir := isolate(t)
	tmplDir := filepath.Join(dir, "tmpl")
	require.NoError(t, os.Mkdir(tmplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "custom.hbs"), []byte("{{audit.name}}"), 0o644))
	cfgPath := filepath.Join(dir, "auditdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("templates:\n  dir: "+tmplDir+"\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "preview", "custom"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ACME Web Application Pentest", out.String())
}

func TestLogLevelFlag(t *testing.T) {
	r := run(t, "{{audit.name}}", "--log-level", "debug", "--log-format", "json", "preview", "-")
	require.NoError(t, r.err)
	assert.Contains(t, r.errOut, `"msg":"preview: rendered"`)
}

func TestToYAML(t *testing.T) {
	v := struct {
		B string `json:"b"`
		A string `json:"a"`
		N []int  `json:"n"`
	}{B: "1", A: "x", N: []int{1, 2}}
	data, err := toYAML(v)
	require.NoError(t, err)
	assert.Equal(t, "b: \"1\"\na: x\nn:\n    - 1\n    - 2\n", string(data))
}
