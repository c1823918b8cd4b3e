package templatevalidator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/templates"
)

func newRenderer(t *testing.T) *preview.Renderer {
	t.Helper()
	r, err := preview.New(preview.Options{})
	require.NoError(t, err)
	return r
}

func TestRenderSample_StripsFrontMatter(t *testing.T) {
	res, err := RenderSample(newRenderer(t), "---\nname: x\n---\nHello {{client.firstname}}")
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane", res.Output)
}

func TestRenderSample_ErrorLines(t *testing.T) {
	_, err := RenderSample(newRenderer(t), "---\nname: x\n---\n\n{{#if audit.name}}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, preview.ErrSyntax))

	var pe *preview.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 5, pe.Line)
}

func TestRenderSample_BadFrontMatter(t *testing.T) {
	_, err := RenderSample(newRenderer(t), "---\nname: x\n")
	assert.ErrorContains(t, err, "front matter")
}

func TestRenderSample_BundledTemplates(t *testing.T) {
	r := newRenderer(t)
	for _, name := range []string{"executive-summary", "findings", "scope"} {
		src, err := templates.FS.ReadFile("report/" + name + ".hbs")
		require.NoError(t, err)

		res, err := RenderSample(r, string(src))
		require.NoError(t, err, name)
		assert.Empty(t, res.Warnings, name)
		assert.NotContains(t, res.Output, "{{", name)
	}

	src, err := templates.FS.ReadFile("report/findings.hbs")
	require.NoError(t, err)
	res, err := RenderSample(r, string(src))
	require.NoError(t, err)
	assert.Contains(t, res.Output, "SQL Injection in login form")
	assert.Contains(t, res.Output, "CRITICAL")
}
