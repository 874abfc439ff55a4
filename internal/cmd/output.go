package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/Iron-Ham/daylog/internal/tui/styles"
	"github.com/Iron-Ham/daylog/internal/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// colorEnabled resolves a display.color mode for out. "auto" colors only
// when out is a terminal.
func colorEnabled(mode string, out io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "never":
		return false
	}
	if f, ok := out.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// stylesFor returns the styles to render records written to out.
func stylesFor(mode string, out io.Writer) styles.Set {
	if !colorEnabled(mode, out) {
		return styles.Plain()
	}
	r := lipgloss.NewRenderer(out)
	if r.ColorProfile() == termenv.Ascii {
		r.SetColorProfile(termenv.ANSI256)
	}
	return styles.New(r)
}

// formatRecord renders rec for terminal output:
//
//	[2026-10-19 14:03:07.120] WARNING disk almost full (1.4.2)
//	  continuation line
func formatRecord(s styles.Set, rec logging.Record) string {
	var sb strings.Builder

	sb.WriteString(s.Muted.Render("[" + rec.Time().Format(logging.TextTimeLayout) + "]"))
	sb.WriteString(" ")
	sb.WriteString(s.Severity(rec.Severity).Render(padRight(rec.Severity.String(), len(logging.LevelWarning))))
	sb.WriteString(" ")

	first, rest, _ := strings.Cut(rec.Message, "\n")
	sb.WriteString(first)
	if rec.AppVersion != "" {
		sb.WriteString(" ")
		sb.WriteString(s.Muted.Render("(" + rec.AppVersion + ")"))
	}
	if rest != "" {
		sb.WriteString("\n  ")
		sb.WriteString(util.Indent(rest, "  "))
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
