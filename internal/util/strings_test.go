package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	redStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	tests := []struct {
		name     string
		input    string
		maxWidth int
		check    func(t *testing.T, result string)
	}{
		{
			name:     "short plain string unchanged",
			input:    "hello",
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if result != "hello" {
					t.Errorf("expected 'hello', got %q", result)
				}
			},
		},
		{
			name:     "plain string truncated",
			input:    "hello world",
			maxWidth: 8,
			check: func(t *testing.T, result string) {
				if result != "hello..." {
					t.Errorf("expected 'hello...', got %q", result)
				}
			},
		},
		{
			name:     "tiny width returns ellipsis",
			input:    "hello",
			maxWidth: 2,
			check: func(t *testing.T, result string) {
				if result != "..." {
					t.Errorf("expected '...', got %q", result)
				}
			},
		},
		{
			name:     "styled string keeps visual width",
			input:    redStyle.Render("ERROR upload failed"),
			maxWidth: 10,
			check: func(t *testing.T, result string) {
				if width := lipgloss.Width(result); width > 10 {
					t.Errorf("result width %d exceeds maxWidth 10", width)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, TruncateANSI(tt.input, tt.maxWidth))
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		input     string
		wantFirst string
		wantMore  int
	}{
		{"single", "single", 0},
		{"", "", 0},
		{"one\ntwo", "one", 1},
		{"one\ntwo\nthree", "one", 2},
	}

	for _, tt := range tests {
		first, more := FirstLine(tt.input)
		if first != tt.wantFirst || more != tt.wantMore {
			t.Errorf("FirstLine(%q) = %q, %d; want %q, %d", tt.input, first, more, tt.wantFirst, tt.wantMore)
		}
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		expected string
	}{
		{"single line fits", "disk full", 40, "disk full"},
		{"single line truncated", "disk almost completely full", 10, "disk al..."},
		{"one hidden line", "upload failed\nstatus=503", 40, "upload failed (+1 line)"},
		{"several hidden lines", "panic: boom\na\nb\nc", 40, "panic: boom (+3 lines)"},
		{"first line truncated before suffix", "a very long first line\nmore", 20, "a very ... (+1 line)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(tt.input, tt.maxWidth)
			if got != tt.expected {
				t.Errorf("Summary(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.expected)
			}
			if lipgloss.Width(got) > tt.maxWidth {
				t.Errorf("Summary width %d exceeds %d", lipgloss.Width(got), tt.maxWidth)
			}
		})
	}
}

func TestIndent(t *testing.T) {
	if got := Indent("a\nb\nc", "  "); got != "a\n  b\n  c" {
		t.Errorf("Indent() = %q", got)
	}
	if got := Indent("a", "  "); got != "a" {
		t.Errorf("Indent() on one line = %q", got)
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "file", "files") != "file" {
		t.Error("Plural(1) should be singular")
	}
	if Plural(0, "file", "files") != "files" || Plural(3, "file", "files") != "files" {
		t.Error("Plural(0) and Plural(3) should be plural")
	}
}
