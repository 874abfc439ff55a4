package styles

import (
	"io"

	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	WarningColor = lipgloss.Color("#FDD835") // Yellow, rgb(253, 216, 53)
	ErrorColor   = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor = lipgloss.Color("#1F2937") // Dark surface
	TextColor    = lipgloss.Color("#F9FAFB") // Light text
	BorderColor  = lipgloss.Color("#6B7280") // Gray
)

// Set is a group of styles bound to one renderer, so that output written to
// a file or pipe can be rendered with or without color.
type Set struct {
	Primary lipgloss.Style
	Muted   lipgloss.Style
	Text    lipgloss.Style

	Header      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Cursor      lipgloss.Style
	Selected    lipgloss.Style
	SearchBar   lipgloss.Style
	ErrorMsg    lipgloss.Style
	Help        lipgloss.Style
	HelpKey     lipgloss.Style

	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// New builds the styles for r.
func New(r *lipgloss.Renderer) Set {
	return Set{
		Primary: r.NewStyle().Foreground(PrimaryColor),
		Muted:   r.NewStyle().Foreground(MutedColor),
		Text:    r.NewStyle().Foreground(TextColor),

		Header: r.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 1),
		TabActive: r.NewStyle().
			Bold(true).
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 2),
		TabInactive: r.NewStyle().
			Foreground(MutedColor).
			Padding(0, 2),
		Cursor: r.NewStyle().
			Bold(true).
			Foreground(PrimaryColor),
		Selected: r.NewStyle().
			Background(SurfaceColor),
		SearchBar: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1),
		ErrorMsg: r.NewStyle().
			Foreground(ErrorColor).
			Bold(true),
		Help: r.NewStyle().
			Foreground(MutedColor),
		HelpKey: r.NewStyle().
			Foreground(PrimaryColor).
			Bold(true),

		Info:    r.NewStyle(),
		Warning: r.NewStyle().Foreground(WarningColor),
		Error:   r.NewStyle().Foreground(ErrorColor).Bold(true),
	}
}

// Default returns the styles for the default renderer (standard output).
func Default() Set {
	return New(lipgloss.DefaultRenderer())
}

// Plain returns styles that never emit escape sequences.
func Plain() Set {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return New(r)
}

// SeverityColor returns the foreground color of severity. INFO uses the
// terminal's default color and yields "".
func SeverityColor(sev logging.Severity) lipgloss.Color {
	switch sev {
	case logging.Warning:
		return WarningColor
	case logging.Error:
		return ErrorColor
	default:
		return ""
	}
}

// Severity returns the style for records of severity sev.
func (s Set) Severity(sev logging.Severity) lipgloss.Style {
	switch sev {
	case logging.Warning:
		return s.Warning
	case logging.Error:
		return s.Error
	default:
		return s.Info
	}
}
