package logging

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/daylog/internal/errors"
)

// InitMessage is the record logged by every successful Init.
const InitMessage = "Logging initialized!"

// recoverFlushTimeout bounds how long Recover waits for the panic record.
const recoverFlushTimeout = 2 * time.Second

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Writer is passed to every Writer the manager creates.
	Writer WriterOptions
	// Diagnostics receives initialization and delete failures.
	Diagnostics *Diagnostics
}

// Manager is the process-facing entry point. It owns at most one running
// Writer and swaps it atomically on Init. Logging calls made while no
// writer is installed are silently ignored, so a failed Init never breaks
// the caller.
type Manager struct {
	store *Store
	opts  ManagerOptions
	diag  *Diagnostics

	mu     sync.RWMutex
	writer *Writer
}

// NewManager creates a disabled Manager for store. Call Init to enable it.
func NewManager(store *Store, opts ManagerOptions) *Manager {
	if opts.Diagnostics == nil {
		opts.Diagnostics = NopDiagnostics()
	}
	if opts.Writer.Diagnostics == nil {
		opts.Writer.Diagnostics = opts.Diagnostics
	}
	return &Manager{
		store: store,
		opts:  opts,
		diag:  opts.Diagnostics.With("component", "manager"),
	}
}

// Store returns the store the manager writes to.
func (m *Manager) Store() *Store {
	return m.store
}

// Init creates a writer for today's file and installs it, replacing any
// previous one, then logs InitMessage. Records already queued on the previous
// writer are written before the new writer starts, so ordering across the
// swap is preserved.
//
// On failure the error is reported to diagnostics and returned, and the
// previous writer (if any) stays installed.
func (m *Manager) Init() error {
	w, err := NewWriter(m.store, m.opts.Writer)
	if err != nil {
		m.diag.Error("failed initializing logging", "dir", m.store.Dir(), "error", err)
		return err
	}

	m.mu.Lock()
	old := m.writer
	m.writer = w
	m.mu.Unlock()

	if old != nil {
		if err := old.closeWith(context.Background(), ShutdownDrain); err != nil {
			m.diag.Warn("previous log writer stopped with error", "path", old.Path(), "error", err)
		}
	}

	w.Start()
	m.Log(InitMessage, Info)
	return nil
}

// Enabled reports whether a running writer is installed.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writer != nil && m.writer.State() != StateStopped
}

// Writer returns the installed writer, or nil.
func (m *Manager) Writer() *Writer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writer
}

// Log records msg at severity with the current time.
func (m *Manager) Log(msg string, severity Severity) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.writer == nil {
		return
	}
	m.writer.Submit(m.store.Now().UnixMilli(), msg, severity)
}

// Info logs msg at Info severity.
func (m *Manager) Info(msg string) {
	m.Log(msg, Info)
}

// Warn logs msg at Warning severity.
func (m *Manager) Warn(msg string) {
	m.Log(msg, Warning)
}

// Logf formats according to format and logs the result at severity.
func (m *Manager) Logf(severity Severity, format string, args ...any) {
	if !m.Enabled() {
		return
	}
	m.Log(fmt.Sprintf(format, args...), severity)
}

// LogBool logs "true" or "false" at severity.
func (m *Manager) LogBool(b bool, severity Severity) {
	m.Log(fmt.Sprint(b), severity)
}

// LogValue logs the default formatting of v at severity.
func (m *Manager) LogValue(v any, severity Severity) {
	if !m.Enabled() {
		return
	}
	m.Log(fmt.Sprint(v), severity)
}

// LogErr logs err at Error severity: its message, the chain of wrapped causes
// and the stack of the calling goroutine. A nil error is ignored.
func (m *Manager) LogErr(err error) {
	if err == nil || !m.Enabled() {
		return
	}
	m.Log(FormatError(err, debug.Stack()), Error)
}

// Recover logs a panic in the calling goroutine at Error severity, waits for
// the record to reach disk and re-panics. Use it with defer:
//
//	defer mgr.Recover()
func (m *Manager) Recover() {
	r := recover()
	if r == nil {
		return
	}
	m.Log(fmt.Sprintf("panic: %v\n%s", r, debug.Stack()), Error)

	ctx, cancel := context.WithTimeout(context.Background(), recoverFlushTimeout)
	_ = m.Flush(ctx)
	cancel()
	panic(r)
}

// FormatError renders err, its wrapped causes and an optional stack trace
// as a multi-line message.
func FormatError(err error, stack []byte) string {
	var sb strings.Builder
	sb.WriteString(err.Error())

	seen := err.Error()
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		msg := cause.Error()
		if msg == seen || strings.HasSuffix(seen, msg) {
			seen = msg
			continue
		}
		sb.WriteString("\ncaused by: ")
		sb.WriteString(msg)
		seen = msg
	}

	if len(stack) > 0 {
		sb.WriteByte('\n')
		sb.Write(stack)
	}
	return sb.String()
}

// Flush blocks until every record logged before the call is on disk.
func (m *Manager) Flush(ctx context.Context) error {
	w := m.Writer()
	if w == nil {
		return errors.ErrNotInitialized
	}
	return w.Flush(ctx)
}

// Close uninstalls and stops the writer. Later logging calls are ignored
// until Init is called again.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	w := m.writer
	m.writer = nil
	m.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close(ctx)
}

// ClearLogs deletes every log file older than RetentionDays. Each failed
// delete is reported and logged as a warning; the sweep continues.
func (m *Manager) ClearLogs() (int, error) {
	return m.ClearLogsOlderThan(RetentionDays)
}

// ClearLogsOlderThan is ClearLogs with a caller-chosen retention in days.
func (m *Manager) ClearLogsOlderThan(days int) (int, error) {
	n, err := m.store.DeleteOlderThan(days)
	m.logDeleteFailures(err)
	return n, err
}

// DeleteAllLogs deletes every log file, then re-initializes so that today's
// file exists again and logging continues.
//
// The installed writer is drained and stopped before the sweep, so records
// logged before the call are deleted with the rest. Records logged while the
// sweep runs are discarded.
func (m *Manager) DeleteAllLogs() (int, error) {
	m.mu.Lock()
	old := m.writer
	m.writer = nil
	m.mu.Unlock()

	if old != nil {
		if err := old.closeWith(context.Background(), ShutdownDrain); err != nil {
			m.diag.Warn("log writer stopped with error before purge", "path", old.Path(), "error", err)
		}
	}

	n, deleteErr := m.store.DeleteAll()
	initErr := m.Init()
	m.logDeleteFailures(deleteErr)
	return n, errors.Join(deleteErr, initErr)
}

func (m *Manager) logDeleteFailures(err error) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			m.Log("Couldn't delete log file: "+e.Error(), Warning)
		}
		return
	}
	m.Log("Couldn't delete log files: "+err.Error(), Warning)
}

// ListLogFiles returns every log file, most recent first.
func (m *Manager) ListLogFiles() ([]LogFile, error) {
	return m.store.List()
}

// LatestLogFile returns the most recent log file. ok is false when there is none.
func (m *Manager) LatestLogFile() (LogFile, bool, error) {
	return m.store.Latest()
}

// ReadLogRecords decodes every record in file. A corrupt file yields the
// records before the corruption and is deleted.
func (m *Manager) ReadLogRecords(file LogFile) ([]Record, error) {
	return m.store.Read(file)
}
