// Package util provides small text helpers shared by the CLI and the viewer.
package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// ANSI escape codes and wide characters are measured by their rendered width.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// FirstLine returns the first line of s and the number of lines after it.
func FirstLine(s string) (string, int) {
	first, rest, found := strings.Cut(s, "\n")
	if !found {
		return s, 0
	}
	return first, strings.Count(rest, "\n") + 1
}

// Summary renders a multi-line message as a single line of at most maxWidth
// columns, noting how many lines were hidden.
func Summary(s string, maxWidth int) string {
	first, more := FirstLine(s)
	if more == 0 {
		return TruncateANSI(first, maxWidth)
	}
	suffix := fmt.Sprintf(" (+%d %s)", more, Plural(more, "line", "lines"))
	room := maxWidth - lipgloss.Width(suffix)
	if room <= len(ellipsis) {
		return TruncateANSI(first, maxWidth)
	}
	return TruncateANSI(first, room) + suffix
}

// Indent prefixes every line of s after the first with prefix.
func Indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

// Plural returns singular when n is 1 and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
