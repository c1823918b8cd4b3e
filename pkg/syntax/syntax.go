// Package syntax generates the Handlebars-style markup report templates use:
// variable references with optional formatting helpers, each loops and
// conditional blocks.
//
// Generators are pure formatters. They never consult the schema catalog;
// validate paths with package varpath when that matters.
package syntax

import (
	"fmt"
)

// Format names a formatting helper wrapped around a variable reference.
type Format string

const (
	FormatNone      Format = ""
	FormatDate      Format = "date"
	FormatDateTime  Format = "datetime"
	FormatUppercase Format = "uppercase"
	FormatLowercase Format = "lowercase"
	FormatCurrency  Format = "currency"
)

// Date layouts handed to the formatDate helper.
const (
	DateLayout     = "DD/MM/YYYY"
	DateTimeLayout = "DD/MM/YYYY HH:mm"
)

// formatters is the fixed dispatch table. Formats not listed fall back to
// the bare {{ref}} form.
var formatters = map[Format]func(ref string) string{
	FormatDate:      func(ref string) string { return fmt.Sprintf("{{formatDate %s %q}}", ref, DateLayout) },
	FormatDateTime:  func(ref string) string { return fmt.Sprintf("{{formatDate %s %q}}", ref, DateTimeLayout) },
	FormatUppercase: func(ref string) string { return "{{uppercase " + ref + "}}" },
	FormatLowercase: func(ref string) string { return "{{lowercase " + ref + "}}" },
	FormatCurrency:  func(ref string) string { return "{{formatCurrency " + ref + "}}" },
}

// Formats returns the formats with a dedicated helper, in display order.
func Formats() []Format {
	return []Format{FormatDate, FormatDateTime, FormatUppercase, FormatLowercase, FormatCurrency}
}

// Known reports whether f has a dedicated helper.
func (f Format) Known() bool {
	_, ok := formatters[f]
	return ok
}

// Options controls Variable.
type Options struct {
	Format  Format `json:"format,omitempty"`
	IsLoop  bool   `json:"isLoop,omitempty"`
	LoopVar string `json:"loopVar,omitempty"`
}

// Reference returns the bare variable reference: domainKey.fieldPath, or
// loopVar.fieldPath inside a loop with a named item variable.
func Reference(domainKey, fieldPath string, opts Options) string {
	prefix := domainKey
	if opts.IsLoop && opts.LoopVar != "" {
		prefix = opts.LoopVar
	}
	return prefix + "." + fieldPath
}

// Variable returns the substitution markup for a field.
func Variable(domainKey, fieldPath string, opts Options) string {
	ref := Reference(domainKey, fieldPath, opts)
	if wrap, ok := formatters[opts.Format]; ok {
		return wrap(ref)
	}
	return "{{" + ref + "}}"
}

// DefaultItemVar is the loop alias used when none is given.
const DefaultItemVar = "item"

// LoopBlock is the opening and closing markup of an each loop.
type LoopBlock struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	ItemVar string `json:"itemVar"`
}

// Loop returns the each block iterating domainKey with itemVar as the
// per-item alias. An empty itemVar means DefaultItemVar.
func Loop(domainKey, itemVar string) LoopBlock {
	if itemVar == "" {
		itemVar = DefaultItemVar
	}
	return LoopBlock{
		Start:   "{{#each " + domainKey + " as |" + itemVar + "|}}",
		End:     "{{/each}}",
		ItemVar: itemVar,
	}
}

// Conditional operators with dedicated markup. Any other operator string is
// emitted as a generic block helper.
const (
	OpIf = "if"
	OpEq = "eq"
)

// ConditionalBlock is the markup of a conditional section.
type ConditionalBlock struct {
	Start string `json:"start"`
	Else  string `json:"else"`
	End   string `json:"end"`
}

const elseTag = "{{else}}"

// Conditional returns the block for variable under operator. An empty
// operator means OpIf. For OpEq with a non-nil value the comparison is
// written as a subexpression against the value's quoted string form; OpEq
// without a value falls through to the generic form.
func Conditional(variable, operator string, value any) ConditionalBlock {
	if operator == "" {
		operator = OpIf
	}
	switch {
	case operator == OpIf:
		return ConditionalBlock{Start: "{{#if " + variable + "}}", Else: elseTag, End: "{{/if}}"}
	case operator == OpEq && value != nil:
		return ConditionalBlock{
			Start: "{{#if (eq " + variable + " \"" + fmt.Sprint(value) + "\")}}",
			Else:  elseTag,
			End:   "{{/if}}",
		}
	default:
		return ConditionalBlock{
			Start: "{{#" + operator + " " + variable + "}}",
			Else:  elseTag,
			End:   "{{/" + operator + "}}",
		}
	}
}
