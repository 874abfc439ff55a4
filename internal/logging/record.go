package logging

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the level of a log record.
type Severity int

// Severities in increasing order of importance.
const (
	Info Severity = iota
	Warning
	Error
)

// Severity names as they appear in log files.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// String returns the on-disk name of the severity.
func (s Severity) String() string {
	switch s {
	case Info:
		return LevelInfo
	case Warning:
		return LevelWarning
	case Error:
		return LevelError
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	return s >= Info && s <= Error
}

// ParseSeverity converts an on-disk severity name to a Severity.
// Matching is exact: files are written with upper-case names only.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case LevelInfo:
		return Info, nil
	case LevelWarning:
		return Warning, nil
	case LevelError:
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown severity %q", name)
	}
}

// ParseSeverityFlag is the lenient form of ParseSeverity used for user input:
// it ignores case and accepts "warn" for Warning.
func ParseSeverityFlag(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case LevelInfo:
		return Info, nil
	case LevelWarning, "WARN":
		return Warning, nil
	case LevelError:
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown severity %q (valid: info, warning, error)", name)
	}
}

// Severities returns all severities in increasing order.
func Severities() []Severity {
	return []Severity{Info, Warning, Error}
}

// Record is one log event. It is a plain value: callers hand copies to the
// writer, so a Record never changes after it has been submitted.
type Record struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64
	// AppVersion identifies the producing build. Empty means the writer's
	// version is stamped when the record is encoded.
	AppVersion string
	Severity   Severity
	Message    string
}

// NewRecord builds a record stamped with the current time and no explicit version.
func NewRecord(severity Severity, message string) Record {
	return Record{
		Timestamp: time.Now().UnixMilli(),
		Severity:  severity,
		Message:   message,
	}
}

// Time returns the record timestamp as a local time.Time.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// VersionOr returns the record's version, or fallback when it has none.
func (r Record) VersionOr(fallback string) string {
	if r.AppVersion == "" {
		return fallback
	}
	return r.AppVersion
}
