package templatevalidator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditdoc/auditdoc/templates"
)

const validTemplate = `---
name: Findings table
description: One row per finding
language: en
domains: [audit, findings, stats]
---
# {{audit.name}} ({{formatDate audit.date "DD/MM/YYYY"}})
{{#each findings as |f|}}
| {{f.identifier}} | {{uppercase f.severity}} | {{f.cvssScore}} |
{{else}}
No findings.
{{/each}}
{{#if (eq stats.critical "0")}}No critical issues.{{/if}}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidateFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "findings.hbs", validTemplate)

	result := NewValidator(false).ValidateFile(p)
	assert.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "Findings table", result.Name)
	assert.Equal(t, 7, result.References)
}

func TestValidateFile_Missing(t *testing.T) {
	result := NewValidator(false).ValidateFile(filepath.Join(t.TempDir(), "nope.hbs"))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "cannot read file")
}

func TestUnknownPathsAreWarnings(t *testing.T) {
	src := "{{audit.name}}\n{{audit.nonexistent}}\n{{nope.x}}\n{{#each findings as |f|}}{{f.bogus}}{{/each}}"

	result := NewValidator(false).ValidateSource("t.hbs", src)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{
		"line 2: {{audit.nonexistent}}: Field 'nonexistent' not found in path",
		"line 3: {{nope.x}}: Schema 'nope' not found",
		"line 4: {{f.bogus}}: Field 'bogus' not found in path",
	}, result.Warnings)
}

func TestStrictModeFailsOnUnknownPaths(t *testing.T) {
	result := NewValidator(true).ValidateSource("t.hbs", "{{audit.nonexistent}}")
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"line 1: {{audit.nonexistent}}: Field 'nonexistent' not found in path"}, result.Errors)
	assert.Contains(t, result.Warnings, "missing description")
}

func TestRelativePathsInLoops(t *testing.T) {
	src := "{{#each scope}}{{name}}{{#each hosts}}{{hostname}}{{this.ip}}{{/each}}{{/each}}"
	result := NewValidator(false).ValidateSource("t.hbs", src)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestUnbalancedBlocksAreErrors(t *testing.T) {
	src := "---\nname: Broken\n---\nline 4\n{{#each findings}}\n{{/if}}"
	result := NewValidator(false).ValidateSource("t.hbs", src)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "line 6: "), result.Errors[0])
}

func TestFrontMatterErrors(t *testing.T) {
	v := NewValidator(false)

	bad := v.ValidateSource("t.hbs", "---\nname: [unterminated\n---\n{{audit.name}}")
	assert.False(t, bad.Valid)
	assert.Contains(t, bad.Errors[0], "front matter")

	open := v.ValidateSource("t.hbs", "---\nname: x\n{{audit.name}}")
	assert.False(t, open.Valid)
	assert.Contains(t, open.Errors[0], "missing closing")

	domains := v.ValidateSource("t.hbs", "---\nname: x\ndomains: [audit, invoices]\n---\n{{audit.name}}")
	assert.False(t, domains.Valid)
	assert.Equal(t, []string{`front matter: unknown domain "invoices"`}, domains.Errors)

	unnamed := v.ValidateSource("t.hbs", "---\ndescription: x\n---\n{{audit.name}}")
	assert.True(t, unnamed.Valid)
	assert.Contains(t, unnamed.Warnings, "front matter: missing name")
}

func TestUndeclaredDomainWarning(t *testing.T) {
	src := "---\nname: x\ndomains: [audit]\n---\n{{audit.name}}\n{{client.email}}"
	result := NewValidator(false).ValidateSource("t.hbs", src)
	assert.True(t, result.Valid)
	assert.Equal(t, []string{`line 6: {{client.email}}: domain "client" is not listed in front matter`}, result.Warnings)
}

func TestUnknownHelpersAreWarnings(t *testing.T) {
	src := "{{shout audit.name}}{{#gt stats.high}}x{{/gt}}{{uppercase audit.name}}"
	result := NewValidator(false).ValidateSource("t.hbs", src)
	assert.True(t, result.Valid)
	assert.Equal(t, []string{
		`line 1: unknown helper "shout"`,
		`line 1: unknown block helper "gt"`,
	}, result.Warnings)
}

func TestSplitFrontMatter(t *testing.T) {
	fm, body, line, err := SplitFrontMatter("---\nname: A\ntags: [x, y]\n---\nbody\n")
	require.NoError(t, err)
	assert.Equal(t, "A", fm.Name)
	assert.Equal(t, []string{"x", "y"}, fm.Tags)
	assert.Equal(t, "body\n", body)
	assert.Equal(t, 4, line)

	fm, body, line, err = SplitFrontMatter("---\n---\nbody")
	require.NoError(t, err)
	assert.Empty(t, fm.Name)
	assert.Equal(t, "body", body)
	assert.Equal(t, 3, line)

	fm, body, line, err = SplitFrontMatter("no header {{x}}")
	require.NoError(t, err)
	assert.Equal(t, FrontMatter{}, fm)
	assert.Equal(t, "no header {{x}}", body)
	assert.Equal(t, 1, line)

	_, _, _, err = SplitFrontMatter("---\r\nname: A\r\n---\r\nbody")
	assert.NoError(t, err)
}

func TestValidateDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "valid.hbs", validTemplate)
	writeFile(t, dir, "warn.handlebars", "{{audit.nope}}")
	writeFile(t, dir, "broken.txt", "{{#if audit.name}}")
	writeFile(t, dir, "ignored.md", "{{#if}}")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writeFile(t, filepath.Join(dir, "sub"), "nested.hbs", "{{client.email}}")

	summary, err := NewValidator(false).ValidateDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalFiles)
	assert.Equal(t, 3, summary.ValidFiles)
	assert.Equal(t, 1, summary.InvalidFiles)
	assert.Equal(t, 1, summary.TotalErrors)
	assert.Equal(t, 1, summary.TotalWarnings)
}

func TestValidateDirectory_Missing(t *testing.T) {
	_, err := NewValidator(false).ValidateDirectory(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestValidateFS(t *testing.T) {
	fsys := fstest.MapFS{
		"report/a.hbs":      {Data: []byte(validTemplate)},
		"report/b.hbs":      {Data: []byte("{{stats.bogus}}")},
		"report/readme.md":  {Data: []byte("ignored")},
		"other/skipped.hbs": {Data: []byte("{{#if}}")},
	}
	summary, err := NewValidator(true).ValidateFS(fsys, "report")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 1, summary.ValidFiles)
	assert.Equal(t, "report/b.hbs", summary.Results[1].File)
}

func TestBundledTemplatesAreClean(t *testing.T) {
	summary, err := NewValidator(true).ValidateFS(templates.FS, "report")
	require.NoError(t, err)
	require.NotZero(t, summary.TotalFiles)
	for _, r := range summary.Results {
		assert.True(t, r.Valid, "%s: %v", r.File, r.Errors)
		assert.Empty(t, r.Warnings, r.File)
		assert.NotEmpty(t, r.Name, r.File)
	}
}

func TestIsTemplateFile(t *testing.T) {
	for _, name := range []string{"a.hbs", "b.HBS", "c.handlebars", "d.txt"} {
		assert.True(t, IsTemplateFile(name), name)
	}
	for _, name := range []string{"a.md", "b.yaml", "hbs", ""} {
		assert.False(t, IsTemplateFile(name), name)
	}
}
