package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/Iron-Ham/daylog/internal/errors"
	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/Iron-Ham/daylog/internal/util"
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List, show and manage log files",
	Long: `List, show and manage the day-partitioned log files.

Examples:
  # Show the last records of the most recent file
  daylog logs show

  # Show all warnings and errors of a given day
  daylog logs show 19-10-2026 -n 0 --severity warning

  # Show everything from the last hour, across files
  daylog logs show --all --since 1h

  # Follow today's file in real-time
  daylog logs follow

  # Export every file as CSV
  daylog logs export --all --format csv -o logs.csv

  # Remove files older than the retention period
  daylog logs clear`,
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List log files, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runLogsList,
}

var logsShowCmd = &cobra.Command{
	Use:   "show [DATE]",
	Short: "Show the records of a log file",
	Long: `Show the records of a log file.

DATE selects the file: "today", "yesterday", a file name such as 19-10-2026,
or an ISO date such as 2026-10-19. Without DATE the most recent file is shown.
A file found corrupt while reading is removed; the records before the
corruption are still shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogsShow,
}

var logsFollowCmd = &cobra.Command{
	Use:   "follow",
	Short: "Print records as they are written to today's file",
	Args:  cobra.NoArgs,
	RunE:  runLogsFollow,
}

var logsExportCmd = &cobra.Command{
	Use:   "export [DATE]",
	Short: "Export records as json, text, csv or yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogsExport,
}

var logsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete log files older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runLogsClear,
}

var logsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every log file and start a fresh one for today",
	Args:  cobra.NoArgs,
	RunE:  runLogsPurge,
}

var (
	logsMatch     string
	logsTail      int
	logsAll       bool
	logsSeverity  string
	logsSince     string
	logsUntil     string
	logsGrep      string
	logsVersion   string
	logsFromStart bool
	logsFormat    string
	logsOutput    string
	logsDays      int
	logsForce     bool
)

// followPollInterval is how often follow checks the file when no change
// notification arrives.
const followPollInterval = time.Second

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsListCmd, logsShowCmd, logsFollowCmd, logsExportCmd, logsClearCmd, logsPurgeCmd)

	logsListCmd.Flags().StringVar(&logsMatch, "match", "", "Only list files whose name matches a glob (e.g. '*-10-2026')")

	logsShowCmd.Flags().IntVarP(&logsTail, "tail", "n", -1, "Number of records to show (0 for all, default display.tail)")
	logsShowCmd.Flags().BoolVar(&logsAll, "all", false, "Show records from every file, oldest first")
	addFilterFlags(logsShowCmd)

	logsFollowCmd.Flags().BoolVar(&logsFromStart, "from-start", false, "Print the records already in today's file first")
	addFilterFlags(logsFollowCmd)

	logsExportCmd.Flags().StringVar(&logsFormat, "format", logging.FormatJSON, "Output format ("+strings.Join(logging.ExportFormats(), "/")+")")
	logsExportCmd.Flags().StringVarP(&logsOutput, "output", "o", "", "Output file (default stdout)")
	logsExportCmd.Flags().BoolVar(&logsAll, "all", false, "Export records from every file, oldest first")
	addFilterFlags(logsExportCmd)

	logsClearCmd.Flags().IntVar(&logsDays, "days", logging.RetentionDays, "Delete files dated more than this many days ago")

	logsPurgeCmd.Flags().BoolVarP(&logsForce, "force", "f", false, "Do not ask for confirmation")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&logsSeverity, "severity", "", "Minimum severity (info/warning/error)")
	cmd.Flags().StringVar(&logsSince, "since", "", "Records since a duration ago (e.g. 1h) or a time (2006-01-02 15:04)")
	cmd.Flags().StringVar(&logsUntil, "until", "", "Records until a duration ago or a time")
	cmd.Flags().StringVar(&logsGrep, "grep", "", "Only records whose message matches a pattern (regex)")
	cmd.Flags().StringVar(&logsVersion, "app-version", "", "Only records written by this application version")
}

// buildFilter turns the filter flags into a Filter, resolving relative
// times against now.
func buildFilter(now time.Time) (logging.Filter, error) {
	var f logging.Filter

	if logsSeverity != "" {
		sev, err := logging.ParseSeverityFlag(logsSeverity)
		if err != nil {
			return f, err
		}
		f.MinSeverity = sev
	}

	var err error
	if f.Since, err = parseTimeFlag(logsSince, now); err != nil {
		return f, fmt.Errorf("invalid --since: %w", err)
	}
	if f.Until, err = parseTimeFlag(logsUntil, now); err != nil {
		return f, fmt.Errorf("invalid --until: %w", err)
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return f, fmt.Errorf("--until is before --since")
	}

	if logsGrep != "" {
		if f.Pattern, err = regexp.Compile(logsGrep); err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
	}

	f.Version = logsVersion
	return f, nil
}

var timeFlagLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimeFlag accepts a duration before now ("90m") or a local time.
func parseTimeFlag(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("negative duration %q", value)
		}
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range timeFlagLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is neither a duration nor a time", value)
}

// parseDay resolves a DATE argument to a day relative to now.
func parseDay(arg string, now time.Time) (time.Time, error) {
	switch strings.ToLower(arg) {
	case "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}
	if day, ok := logging.ParseFileName(arg); ok {
		return day, nil
	}
	if day, ok := logging.ParseFileName(arg + logging.FileExt); ok {
		return day, nil
	}
	if day, err := time.ParseInLocation("2006-01-02", arg, time.Local); err == nil {
		return day, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use today, yesterday, %s or 2006-01-02)", arg, logging.DateLayout)
}

// loadRecords reads the file selected by args, or every file when all is
// set. Corrupt files are reported on stderr; their surviving records are kept.
func loadRecords(s *session, args []string, all bool, stderr io.Writer) ([]logging.Record, error) {
	if all {
		if len(args) > 0 {
			return nil, fmt.Errorf("--all cannot be combined with a DATE")
		}
		files, err := s.store.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list log files: %w", err)
		}
		results := logging.ReadAll(s.store, files)
		for _, r := range results {
			reportReadError(stderr, r.File, r.Err)
		}
		return logging.Merge(results), nil
	}

	var file logging.LogFile
	if len(args) == 1 {
		day, err := parseDay(args[0], s.store.Now())
		if err != nil {
			return nil, err
		}
		file = s.store.FileFor(day)
	} else {
		latest, ok, err := s.manager.LatestLogFile()
		if err != nil {
			return nil, fmt.Errorf("failed to list log files: %w", err)
		}
		if !ok {
			return nil, nil
		}
		file = latest
	}

	records, err := s.manager.ReadLogRecords(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no log file for %s", file.Name())
		}
		if !errors.IsCorrupt(err) {
			return nil, err
		}
		reportReadError(stderr, file, err)
	}
	return records, nil
}

func reportReadError(w io.Writer, file logging.LogFile, err error) {
	if err == nil {
		return
	}
	var corrupt *errors.CorruptFileError
	if errors.As(err, &corrupt) {
		fmt.Fprintf(w, "warning: %s is corrupt at line %d and was removed (%d %s recovered)\n",
			file.Name(), corrupt.Line, corrupt.Decoded, util.Plural(corrupt.Decoded, "record", "records"))
		return
	}
	fmt.Fprintf(w, "warning: cannot read %s: %v\n", file.Name(), err)
}

func runLogsList(cmd *cobra.Command, args []string) error {
	var matcher glob.Glob
	if logsMatch != "" {
		g, err := glob.Compile(logsMatch)
		if err != nil {
			return fmt.Errorf("invalid --match pattern: %w", err)
		}
		matcher = g
	}

	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	files, err := s.manager.ListLogFiles()
	if err != nil {
		return fmt.Errorf("failed to list log files: %w", err)
	}

	out := cmd.OutOrStdout()
	shown := 0
	for _, f := range files {
		if matcher != nil && !matcher.Match(f.Name()) {
			continue
		}
		size := "-"
		if info, err := s.store.Fs().Stat(f.Path); err == nil {
			size = formatSize(info.Size())
		}
		fmt.Fprintf(out, "%-12s  %-16s  %8s\n", f.Name(), f.Date.Format("Mon Jan 2 2006"), size)
		shown++
	}

	if shown == 0 {
		fmt.Fprintf(out, "No log files found in %s\n", s.store.Dir())
	}
	return nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

func runLogsShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	filter, err := buildFilter(s.store.Now())
	if err != nil {
		return err
	}

	records, err := loadRecords(s, args, logsAll, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	records = logging.FilterRecords(records, filter)

	tail := logsTail
	if tail < 0 {
		tail = s.cfg.Display.Tail
	}
	if tail > 0 && len(records) > tail {
		records = records[len(records)-tail:]
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No matching log records found.")
		return nil
	}

	st := stylesFor(s.cfg.Display.Color, out)
	for _, rec := range records {
		fmt.Fprintln(out, formatRecord(st, rec))
	}
	return nil
}

func runLogsFollow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	filter, err := buildFilter(s.store.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	st := stylesFor(s.cfg.Display.Color, out)
	follower := logging.NewFollower(s.store,
		logging.WithPollInterval(followPollInterval),
		logging.WithFollowDiagnostics(s.diag),
	)

	fmt.Fprintf(out, "Following %s... (Ctrl+C to stop)\n\n", s.store.Today().Path)
	return follower.Follow(ctx, logsFromStart, func(rec logging.Record) {
		if filter.Match(rec) {
			fmt.Fprintln(out, formatRecord(st, rec))
		}
	})
}

func runLogsExport(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	filter, err := buildFilter(s.store.Now())
	if err != nil {
		return err
	}

	records, err := loadRecords(s, args, logsAll, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	records = logging.FilterRecords(records, filter)

	out := cmd.OutOrStdout()
	if logsOutput != "" {
		f, ferr := s.store.Fs().Create(logsOutput)
		if ferr != nil {
			return fmt.Errorf("failed to create output file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		out = f
	}

	if err := logging.Export(out, records, logsFormat); err != nil {
		return err
	}
	if logsOutput != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d %s to %s\n",
			len(records), util.Plural(len(records), "record", "records"), logsOutput)
	}
	return nil
}

func runLogsClear(cmd *cobra.Command, args []string) error {
	if logsDays < 0 {
		return fmt.Errorf("--days must be non-negative")
	}

	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// Delete failures are logged to today's file, so the writer runs for
	// the duration of the sweep. A failed Init only loses those records.
	_ = s.manager.Init()
	defer closeManager(cmd.Context(), s.manager)

	deleted, err := s.manager.ClearLogsOlderThan(logsDays)

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d log %s\n", deleted, util.Plural(deleted, "file", "files"))
	if err != nil {
		return fmt.Errorf("some log files could not be deleted: %w", err)
	}
	return nil
}

func runLogsPurge(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	files, err := s.manager.ListLogFiles()
	if err != nil {
		return fmt.Errorf("failed to list log files: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No log files to delete.")
		return nil
	}

	if !logsForce {
		fmt.Fprintf(out, "Delete all %d log %s in %s? [y/N] ", len(files), util.Plural(len(files), "file", "files"), s.store.Dir())
		if !confirm(cmd.InOrStdin()) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, err := s.manager.DeleteAllLogs()
	defer closeManager(cmd.Context(), s.manager)

	fmt.Fprintf(out, "Deleted %d log %s\n", deleted, util.Plural(deleted, "file", "files"))
	if err != nil {
		return fmt.Errorf("purge incomplete: %w", err)
	}
	return nil
}

// confirm reads a yes/no answer; anything but y or yes is no.
func confirm(r io.Reader) bool {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// closeManager writes what is queued and stops the writer.
func closeManager(ctx context.Context, m *logging.Manager) {
	if !m.Enabled() {
		_ = m.Close(ctx)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = m.Flush(ctx)
	_ = m.Close(ctx)
}
