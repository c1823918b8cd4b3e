package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestVariable(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		field  string
		opts   Options
		want   string
	}{
		{"plain", "audit", "name", Options{}, "{{audit.name}}"},
		{"date", "audit", "date", Options{Format: FormatDate}, `{{formatDate audit.date "DD/MM/YYYY"}}`},
		{"datetime", "document", "generatedAt", Options{Format: FormatDateTime}, `{{formatDate document.generatedAt "DD/MM/YYYY HH:mm"}}`},
		{"uppercase", "client", "lastname", Options{Format: FormatUppercase}, "{{uppercase client.lastname}}"},
		{"lowercase", "client", "email", Options{Format: FormatLowercase}, "{{lowercase client.email}}"},
		{"currency", "audit", "budget", Options{Format: FormatCurrency}, "{{formatCurrency audit.budget}}"},
		{"loop alias", "findings", "title", Options{IsLoop: true, LoopVar: "f"}, "{{f.title}}"},
		{"loop alias with format", "findings", "title", Options{IsLoop: true, LoopVar: "f", Format: FormatUppercase}, "{{uppercase f.title}}"},
		{"loop without alias keeps domain", "findings", "title", Options{IsLoop: true}, "{{findings.title}}"},
		{"alias outside loop ignored", "findings", "title", Options{LoopVar: "f"}, "{{findings.title}}"},
		{"nested path", "scope", "hosts.0.services.0.port", Options{}, "{{scope.hosts.0.services.0.port}}"},
		{"unknown format", "audit", "name", Options{Format: "bold"}, "{{audit.name}}"},
		{"format is case sensitive", "audit", "name", Options{Format: "Date"}, "{{audit.name}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Variable(tt.domain, tt.field, tt.opts))
		})
	}
}

// Variable never consults the catalog.
func TestVariableDoesNotValidate(t *testing.T) {
	assert.Equal(t, "{{nope.missing}}", Variable("nope", "missing", Options{}))
	assert.Equal(t, "{{.}}", Variable("", "", Options{}))
}

func TestUnknownFormatsFallBack(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := Format(rapid.String().Draw(rt, "format"))
		if f.Known() {
			rt.Skip("format in dispatch table")
		}
		domain := rapid.StringMatching(`[a-zA-Z]{1,12}`).Draw(rt, "domain")
		field := rapid.StringMatching(`[a-zA-Z0-9.]{1,20}`).Draw(rt, "field")

		got := Variable(domain, field, Options{Format: f})
		if want := "{{" + domain + "." + field + "}}"; got != want {
			rt.Fatalf("format %q: got %q, want %q", f, got, want)
		}
	})
}

func TestFormatsAreKnown(t *testing.T) {
	assert.Len(t, Formats(), 5)
	for _, f := range Formats() {
		assert.True(t, f.Known(), f)
	}
	assert.False(t, FormatNone.Known())
}

func TestLoop(t *testing.T) {
	assert.Equal(t, LoopBlock{
		Start:   "{{#each findings as |f|}}",
		End:     "{{/each}}",
		ItemVar: "f",
	}, Loop("findings", "f"))

	assert.Equal(t, LoopBlock{
		Start:   "{{#each scope as |item|}}",
		End:     "{{/each}}",
		ItemVar: "item",
	}, Loop("scope", ""))
}

func TestConditional(t *testing.T) {
	tests := []struct {
		name     string
		variable string
		op       string
		value    any
		want     ConditionalBlock
	}{
		{"if", "audit.summary", "if", nil, ConditionalBlock{"{{#if audit.summary}}", "{{else}}", "{{/if}}"}},
		{"default operator", "audit.summary", "", nil, ConditionalBlock{"{{#if audit.summary}}", "{{else}}", "{{/if}}"}},
		{"if ignores value", "audit.summary", "if", "x", ConditionalBlock{"{{#if audit.summary}}", "{{else}}", "{{/if}}"}},
		{"eq int", "stats.critical", "eq", 0, ConditionalBlock{`{{#if (eq stats.critical "0")}}`, "{{else}}", "{{/if}}"}},
		{"eq json number", "stats.critical", "eq", float64(3), ConditionalBlock{`{{#if (eq stats.critical "3")}}`, "{{else}}", "{{/if}}"}},
		{"eq string", "auditStatus.state", "eq", "APPROVED", ConditionalBlock{`{{#if (eq auditStatus.state "APPROVED")}}`, "{{else}}", "{{/if}}"}},
		{"eq bool", "auditStatus.isApproved", "eq", true, ConditionalBlock{`{{#if (eq auditStatus.isApproved "true")}}`, "{{else}}", "{{/if}}"}},
		{"eq without value", "stats.critical", "eq", nil, ConditionalBlock{"{{#eq stats.critical}}", "{{else}}", "{{/eq}}"}},
		{"unless", "audit.summary", "unless", nil, ConditionalBlock{"{{#unless audit.summary}}", "{{else}}", "{{/unless}}"}},
		{"arbitrary operator", "stats.high", "gt", 2, ConditionalBlock{"{{#gt stats.high}}", "{{else}}", "{{/gt}}"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conditional(tt.variable, tt.op, tt.value))
		})
	}
}

func TestGeneratorsAreDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		domain := rapid.String().Draw(rt, "domain")
		field := rapid.String().Draw(rt, "field")
		opts := Options{
			Format:  Format(rapid.SampledFrom([]string{"", "date", "datetime", "uppercase", "lowercase", "currency", "x"}).Draw(rt, "format")),
			IsLoop:  rapid.Bool().Draw(rt, "isLoop"),
			LoopVar: rapid.String().Draw(rt, "loopVar"),
		}
		if Variable(domain, field, opts) != Variable(domain, field, opts) {
			rt.Fatal("Variable not deterministic")
		}
		item := rapid.String().Draw(rt, "item")
		if Loop(domain, item) != Loop(domain, item) {
			rt.Fatal("Loop not deterministic")
		}
		op := rapid.String().Draw(rt, "op")
		if Conditional(field, op, item) != Conditional(field, op, item) {
			rt.Fatal("Conditional not deterministic")
		}
	})
}
