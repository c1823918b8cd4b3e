package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"github.com/auditdoc/auditdoc/pkg/severity"
)

func plain(t *testing.T) {
	t.Helper()
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"key":        "Key",
		"fieldCount": "Field Count",
		"isArray":    "Is Array",
		"is_array":   "Is Array",
		"date-start": "Date Start",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Title(in), in)
	}
}

func TestTable(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	Table(&buf, []string{"key", "fieldCount"}, [][]string{
		{"audit", "12"},
		{"findings", "20"},
	})

	out := buf.String()
	assert.Contains(t, out, "Key")
	assert.Contains(t, out, "Field Count")
	assert.Contains(t, out, "findings")
	assert.NotContains(t, out, "\x1b[", "ascii profile emits no escapes")
	assert.Equal(t, 0, strings.Index(out, "┌"), "table starts with its border")
}

func TestCheck(t *testing.T) {
	plain(t)
	var buf bytes.Buffer
	Check(&buf, OutcomeFail, "audit.nope", "Field 'nope' not found in path")
	Check(&buf, OutcomePass, "audit.name", "")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "audit.nope")
	assert.Contains(t, lines[0], "Field 'nope' not found in path")
	assert.True(t, strings.HasSuffix(lines[1], "audit.name"))
}

func TestConfigure_NonTerminal(t *testing.T) {
	prev := lipgloss.ColorProfile()
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	lipgloss.SetColorProfile(termenv.TrueColor)
	Configure(&bytes.Buffer{}, false)
	assert.Equal(t, termenv.Ascii, lipgloss.ColorProfile())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ok  café", sanitize("ok ✅ café"))
	assert.Equal(t, "warn ", sanitize("warn ⚠️"))
}

func TestSeverityStyle(t *testing.T) {
	plain(t)
	for _, s := range severity.All() {
		assert.Contains(t, SeverityStyle(s).Render(s.Label()), s.Label())
	}
	assert.Equal(t, "x", strings.TrimSpace(SeverityStyle("bogus").Render("x")))
}
