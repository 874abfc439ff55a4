package styles

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/daylog/internal/logging"
)

func TestSeverityColor(t *testing.T) {
	tests := []struct {
		severity logging.Severity
		expected string
	}{
		{logging.Info, ""},
		{logging.Warning, "#FDD835"},
		{logging.Error, "#F87171"},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			got := SeverityColor(tt.severity)
			if string(got) != tt.expected {
				t.Errorf("SeverityColor(%v) = %q, want %q", tt.severity, got, tt.expected)
			}
		})
	}
}

func TestPlain(t *testing.T) {
	s := Plain()

	for _, sev := range logging.Severities() {
		got := s.Severity(sev).Render(sev.String())
		if strings.Contains(got, "\x1b[") {
			t.Errorf("Plain().Severity(%v) rendered escape sequences: %q", sev, got)
		}
		if got != sev.String() {
			t.Errorf("Plain().Severity(%v).Render() = %q, want %q", sev, got, sev.String())
		}
	}
}

func TestSet_Severity(t *testing.T) {
	s := Plain()

	if s.Severity(logging.Warning).GetForeground() != WarningColor {
		t.Error("Severity(Warning) should use WarningColor")
	}
	if s.Severity(logging.Error).GetForeground() != ErrorColor {
		t.Error("Severity(Error) should use ErrorColor")
	}
	if !s.Severity(logging.Error).GetBold() {
		t.Error("Severity(Error) should be bold")
	}
}
