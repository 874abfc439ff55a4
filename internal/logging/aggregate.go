package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"
	"gopkg.in/yaml.v3"
)

// Export formats accepted by Export.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

// ExportFormats returns the supported export formats.
func ExportFormats() []string {
	return []string{FormatJSON, FormatText, FormatCSV, FormatYAML}
}

// TextTimeLayout is the timestamp layout of the text export and the CLI.
const TextTimeLayout = "2006-01-02 15:04:05.000"

// Entry is the export form of a Record.
type Entry struct {
	Time      time.Time `json:"time" yaml:"time"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Version   string    `json:"version" yaml:"version"`
	Severity  string    `json:"severity" yaml:"severity"`
	Message   string    `json:"message" yaml:"message"`
	File      string    `json:"file,omitempty" yaml:"file,omitempty"`
}

// FileRecords is the result of reading one log file.
type FileRecords struct {
	File    LogFile
	Records []Record
	// Err is set when the file could not be read or was corrupt. For a
	// corrupt file Records still holds what was decoded before the corruption.
	Err error
}

// ReadAll reads the given files concurrently. Results keep the order of files.
func ReadAll(store *Store, files []LogFile) []FileRecords {
	return iter.Map(files, func(f *LogFile) FileRecords {
		records, err := store.Read(*f)
		return FileRecords{File: *f, Records: records, Err: err}
	})
}

// Merge flattens results into one slice sorted by timestamp. Records with
// equal timestamps keep their file order.
func Merge(results []FileRecords) []Record {
	var all []Record
	for _, r := range results {
		all = append(all, r.Records...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp < all[j].Timestamp
	})
	return all
}

// Filter selects records. The zero Filter matches everything and criteria
// combine with AND.
type Filter struct {
	// MinSeverity keeps records at or above this severity.
	MinSeverity Severity

	// Since keeps records at or after this time. Zero means no lower bound.
	Since time.Time

	// Until keeps records at or before this time. Zero means no upper bound.
	Until time.Time

	// Contains keeps records whose message contains this substring.
	Contains string

	// Pattern keeps records whose message matches. Nil means no pattern.
	Pattern *regexp.Regexp

	// Version keeps records written by this application version.
	Version string
}

// IsZero reports whether f matches every record.
func (f Filter) IsZero() bool {
	return f.MinSeverity <= Info &&
		f.Since.IsZero() &&
		f.Until.IsZero() &&
		f.Contains == "" &&
		f.Pattern == nil &&
		f.Version == ""
}

// Match reports whether rec satisfies every criterion of f.
func (f Filter) Match(rec Record) bool {
	if rec.Severity < f.MinSeverity {
		return false
	}

	if !f.Since.IsZero() && rec.Timestamp < f.Since.UnixMilli() {
		return false
	}
	if !f.Until.IsZero() && rec.Timestamp > f.Until.UnixMilli() {
		return false
	}

	if f.Version != "" && rec.AppVersion != f.Version {
		return false
	}
	if f.Contains != "" && !strings.Contains(rec.Message, f.Contains) {
		return false
	}
	if f.Pattern != nil && !f.Pattern.MatchString(rec.Message) {
		return false
	}
	return true
}

// FilterRecords returns the records matching f.
func FilterRecords(records []Record, f Filter) []Record {
	if f.IsZero() {
		return records
	}

	var filtered []Record
	for _, rec := range records {
		if f.Match(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// ToEntry converts rec to its export form.
func ToEntry(rec Record) Entry {
	return Entry{
		Time:      rec.Time(),
		Timestamp: rec.Timestamp,
		Version:   rec.AppVersion,
		Severity:  rec.Severity.String(),
		Message:   rec.Message,
	}
}

// Export writes records to w in the given format.
func Export(w io.Writer, records []Record, format string) error {
	format = strings.ToLower(format)
	if format == FormatText {
		return exportText(w, records)
	}

	entries := make([]Entry, len(records))
	for i, rec := range records {
		entries[i] = ToEntry(rec)
	}

	switch format {
	case FormatJSON:
		return exportJSON(w, entries)
	case FormatCSV:
		return exportCSV(w, entries)
	case FormatYAML:
		return exportYAML(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(ExportFormats(), ", "))
	}
}

// exportJSON writes entries as a JSON array.
func exportJSON(w io.Writer, entries []Entry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(entries)
}

// FormatRecordText renders rec as one text block:
//
//	[2026-10-19 14:03:07.120] WARNING (1.4.2) first line
//	  continuation line
func FormatRecordText(rec Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", rec.Time().Format(TextTimeLayout), rec.Severity)
	if rec.AppVersion != "" {
		fmt.Fprintf(&sb, " (%s)", rec.AppVersion)
	}

	lines := strings.Split(rec.Message, "\n")
	sb.WriteString(" ")
	sb.WriteString(lines[0])
	for _, line := range lines[1:] {
		sb.WriteString("\n  ")
		sb.WriteString(line)
	}
	return sb.String()
}

// exportText writes records in a human-readable text format.
func exportText(w io.Writer, records []Record) error {
	for _, rec := range records {
		if _, err := io.WriteString(w, FormatRecordText(rec)+"\n"); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

// exportCSV writes entries as CSV with headers.
func exportCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)

	headers := []string{"time", "timestamp", "version", "severity", "message"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.Time.Format(time.RFC3339Nano),
			fmt.Sprint(entry.Timestamp),
			entry.Version,
			entry.Severity,
			entry.Message,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// exportYAML writes entries as a YAML sequence.
func exportYAML(w io.Writer, entries []Entry) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return encoder.Close()
}
