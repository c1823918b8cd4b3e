package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/auditdoc/auditdoc/pkg/severity"
)

// Color palette
var (
	// Brand colors
	Primary   = lipgloss.Color("#7D56F4") // Purple - brand color
	Secondary = lipgloss.Color("#00D4AA") // Cyan/Teal

	// Severity colors (CVSS v3.1 qualitative scale)
	Critical = lipgloss.Color("#FF0000") // Bright red
	High     = lipgloss.Color("#FF6B6B") // Red/Orange
	Medium   = lipgloss.Color("#FFD93D") // Yellow
	Low      = lipgloss.Color("#6BCB77") // Green
	Info     = lipgloss.Color("#4D96FF") // Blue

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	// Title and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(Primary).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			MarginTop(1)

	// Key/value display
	LabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(15)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	// Table parts
	HeaderStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	BorderStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// Outcome styles
	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Variable paths and markup
	CodeStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)
)

// SeverityStyle returns the badge style for a finding severity.
func SeverityStyle(s severity.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch s {
	case severity.Critical:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Critical)
	case severity.High:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(High)
	case severity.Medium:
		return base.Foreground(lipgloss.Color("#000000")).Background(Medium)
	case severity.Low:
		return base.Foreground(lipgloss.Color("#000000")).Background(Low)
	case severity.None:
		return base.Foreground(lipgloss.Color("#FFFFFF")).Background(Info)
	default:
		return base.Foreground(Muted)
	}
}

// OutcomeStyle returns the style for a check outcome.
func OutcomeStyle(o Outcome) lipgloss.Style {
	switch o {
	case OutcomePass:
		return PassStyle
	case OutcomeWarn:
		return WarnStyle
	case OutcomeFail:
		return FailStyle
	default:
		return lipgloss.NewStyle().Foreground(Muted)
	}
}
