package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Iron-Ham/daylog/internal/logging"
	"github.com/Iron-Ham/daylog/internal/util"
	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write [message...]",
	Short: "Append records to today's log file",
	Long: `Append a record to today's log file.

The arguments are joined with spaces into one message. With --stdin, standard
input is read instead and every paragraph (lines separated by a blank line)
becomes its own record.

Examples:
  # Log an informational message
  daylog write "sync finished"

  # Log an error
  daylog write --error "upload failed: status 503"

  # Log each paragraph of a file as a warning
  daylog write --stdin -s warning < notes.txt`,
	RunE: runWrite,
}

var (
	writeSeverity string
	writeError    bool
	writeStdin    bool
)

// writeTimeout bounds how long write waits for its records to reach disk.
const writeTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(writeCmd)

	writeCmd.Flags().StringVarP(&writeSeverity, "severity", "s", "info", "Record severity (info/warning/error)")
	writeCmd.Flags().BoolVar(&writeError, "error", false, "Shorthand for --severity error")
	writeCmd.Flags().BoolVar(&writeStdin, "stdin", false, "Read messages from standard input, one per paragraph")
}

func runWrite(cmd *cobra.Command, args []string) error {
	severity, err := logging.ParseSeverityFlag(writeSeverity)
	if err != nil {
		return err
	}
	if writeError {
		severity = logging.Error
	}

	var messages []string
	if writeStdin {
		if len(args) > 0 {
			return fmt.Errorf("--stdin cannot be combined with message arguments")
		}
		messages, err = readParagraphs(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
	} else if msg := strings.Join(args, " "); strings.TrimSpace(msg) != "" {
		messages = []string{msg}
	}
	if len(messages) == 0 {
		return fmt.Errorf("nothing to write: pass a message or use --stdin")
	}

	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := s.manager.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	path := s.manager.Writer().Path()

	for _, msg := range messages {
		s.manager.Log(msg, severity)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), writeTimeout)
	defer cancel()
	if err := s.manager.Flush(ctx); err != nil {
		_ = s.manager.Close(ctx)
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := s.manager.Close(ctx); err != nil {
		return fmt.Errorf("failed to close log writer: %w", err)
	}

	n := len(messages)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d %s to %s\n", n, util.Plural(n, "record", "records"), path)
	return nil
}

// readParagraphs splits r into blank-line separated paragraphs.
func readParagraphs(r io.Reader) ([]string, error) {
	var (
		paragraphs []string
		current    []string
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = current[:0]
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return paragraphs, nil
}
