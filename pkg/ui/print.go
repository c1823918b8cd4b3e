package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Outcome classifies one checked item.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeWarn
	OutcomeFail
)

// marker returns the leading symbol for o.
func (o Outcome) marker() string {
	switch o {
	case OutcomePass:
		return Icon("✓", "[ok]")
	case OutcomeWarn:
		return Icon("!", "[warn]")
	default:
		return Icon("✗", "[fail]")
	}
}

// Title turns a camelCase or snake_case key into a heading:
// "fieldCount" → "Field Count", "is_array" → "Is Array".
func Title(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
			continue
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Title(language.English).String(b.String())
}

// Heading writes a section title.
func Heading(w io.Writer, text string) {
	fmt.Fprintln(w, TitleStyle.Render(text))
}

// KeyValue writes an aligned "label  value" line.
func KeyValue(w io.Writer, label string, value any) {
	fmt.Fprintln(w, LabelStyle.Render(label)+ValueStyle.Render(fmt.Sprint(value)))
}

// Check writes one outcome line: marker, subject, and an optional detail.
func Check(w io.Writer, o Outcome, subject, detail string) {
	line := OutcomeStyle(o).Render(o.marker()) + " " + CodeStyle.Render(subject)
	if detail != "" {
		line += "  " + HelpStyle.Render(detail)
	}
	fmt.Fprintln(w, line)
}

// Table writes rows under headers. Header cells are title-cased.
func Table(w io.Writer, headers []string, rows [][]string) {
	titled := make([]string, len(headers))
	for i, h := range headers {
		titled[i] = Title(h)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		Headers(titled...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
	fmt.Fprintln(w, t.Render())
}
