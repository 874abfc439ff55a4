package logging

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/daylog/internal/errors"
)

// State is the lifecycle state of a Writer.
type State int32

const (
	// StateUninitialized means the writer was constructed but not started.
	StateUninitialized State = iota
	// StateRunning means the background goroutine is draining the queue.
	StateRunning
	// StateStopped is terminal: nothing more is persisted.
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ShutdownPolicy decides what happens to queued records when a Writer is closed.
type ShutdownPolicy int

const (
	// ShutdownDrop stops immediately; queued records are lost.
	ShutdownDrop ShutdownPolicy = iota
	// ShutdownDrain keeps writing queued records until the queue is empty or
	// the grace period runs out.
	ShutdownDrain
)

// String returns the policy name as used in configuration.
func (p ShutdownPolicy) String() string {
	if p == ShutdownDrain {
		return "drain"
	}
	return "drop"
}

// ParseShutdownPolicy converts a configuration value to a ShutdownPolicy.
func ParseShutdownPolicy(s string) (ShutdownPolicy, error) {
	switch strings.ToLower(s) {
	case "", "drop":
		return ShutdownDrop, nil
	case "drain":
		return ShutdownDrain, nil
	default:
		return ShutdownDrop, fmt.Errorf("unknown shutdown policy %q (valid: drop, drain)", s)
	}
}

// VersionFunc looks up the application version stamped on records.
type VersionFunc func() (string, error)

// StaticVersion returns a VersionFunc that always reports v.
func StaticVersion(v string) VersionFunc {
	return func() (string, error) {
		return v, nil
	}
}

// BuildVersion reports the main module version from the binary's build info.
func BuildVersion() (string, error) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", fmt.Errorf("build info not available")
	}
	if info.Main.Version == "" {
		return "(devel)", nil
	}
	return info.Main.Version, nil
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Version is called once at construction. Defaults to BuildVersion.
	Version VersionFunc
	// Shutdown selects what Close does with queued records.
	Shutdown ShutdownPolicy
	// Grace bounds how long ShutdownDrain keeps writing. Zero means only the
	// context passed to Close bounds it.
	Grace time.Duration
	// Diagnostics receives write failures. Defaults to NopDiagnostics.
	Diagnostics *Diagnostics
}

// entry is a queued item: a record, or a flush barrier when barrier is set.
type entry struct {
	rec     Record
	barrier chan struct{}
}

// Writer is the single consumer that persists records. Any number of
// goroutines may Submit; one background goroutine pops records in FIFO
// order, appends each to the current day's file and syncs it before taking
// the next one.
type Writer struct {
	store   *Store
	out     *dayFile
	version string
	opts    WriterOptions
	diag    *Diagnostics

	mu    sync.Mutex
	queue []entry
	err   error

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	drainCtx context.Context
	policy   ShutdownPolicy
	done     chan struct{}
	state    atomic.Int32

	buf []byte
}

// NewWriter prepares a Writer for today's file in store. The logs directory
// and the file are created if absent, the file is checked for append access
// and the application version is captured.
// Any failure is returned as an *errors.InitError and nothing is started.
func NewWriter(store *Store, opts WriterOptions) (*Writer, error) {
	if opts.Version == nil {
		opts.Version = BuildVersion
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = NopDiagnostics()
	}

	out, err := openDayFile(store, store.Now())
	if err != nil {
		return nil, err
	}

	// The file is reopened by the writer goroutine on its first write, so a
	// writer that is being replaced can finish appending first.
	if err := out.Close(); err != nil {
		return nil, errors.NewInitError("cannot close log file", out.Path(), fmt.Errorf("%w: %w", errors.ErrLogFileUnwritable, err))
	}

	version, err := opts.Version()
	if err != nil {
		return nil, errors.NewInitError("cannot determine application version", "", fmt.Errorf("%w: %w", errors.ErrVersionUnavailable, err))
	}

	return &Writer{
		store:   store,
		out:     out,
		version: version,
		opts:    opts,
		diag:    opts.Diagnostics.With("component", "writer"),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the background goroutine. Calling Start more than once, or
// after Close, has no effect.
func (w *Writer) Start() {
	if w.state.CompareAndSwap(int32(StateUninitialized), int32(StateRunning)) {
		go w.run()
	}
}

// Submit queues a record stamped with the writer's version. It never blocks
// on I/O and never fails; records submitted after the writer stopped are
// discarded.
func (w *Writer) Submit(timestamp int64, message string, severity Severity) {
	w.SubmitRecord(Record{
		Timestamp:  timestamp,
		AppVersion: w.version,
		Severity:   severity,
		Message:    message,
	})
}

// SubmitRecord queues rec as is. A record without a version gets the
// writer's version when it is encoded. An unknown severity is recorded as
// Error, since the file format has no name for it.
func (w *Writer) SubmitRecord(rec Record) {
	if !rec.Severity.Valid() {
		w.diag.Warn("unknown severity, recording as ERROR", "severity", int(rec.Severity))
		rec.Severity = Error
	}
	w.push(entry{rec: rec})
}

// Flush blocks until every record queued before the call has been synced
// to disk, the writer stops, or ctx is done.
func (w *Writer) Flush(ctx context.Context) error {
	if w.State() == StateStopped {
		return w.stoppedErr()
	}
	barrier := make(chan struct{})
	w.push(entry{barrier: barrier})

	select {
	case <-barrier:
		return nil
	case <-w.done:
		select {
		case <-barrier:
			return nil
		default:
			return w.stoppedErr()
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the writer and closes its file. With ShutdownDrop the queued
// records are discarded; with ShutdownDrain they are written until the queue
// is empty, the grace period elapses or ctx is done. Close returns the error
// that stopped the writer, if it stopped because of a write failure.
func (w *Writer) Close(ctx context.Context) error {
	return w.closeWith(ctx, w.opts.Shutdown)
}

func (w *Writer) closeWith(ctx context.Context, policy ShutdownPolicy) error {
	if w.state.CompareAndSwap(int32(StateUninitialized), int32(StateStopped)) {
		w.dropQueue()
		close(w.done)
		return w.out.Close()
	}

	w.stopOnce.Do(func() {
		w.drainCtx = ctx
		w.policy = policy
		close(w.stop)
	})

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Done is closed once the writer has stopped.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Err returns the error that stopped the writer, or nil.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// State returns the current lifecycle state.
func (w *Writer) State() State {
	return State(w.state.Load())
}

// Version returns the version captured at construction.
func (w *Writer) Version() string {
	return w.version
}

// Path returns the file the writer appended to most recently.
func (w *Writer) Path() string {
	return w.out.Path()
}

// Pending returns the number of queued entries.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

func (w *Writer) push(e entry) {
	if w.State() == StateStopped {
		return
	}
	w.mu.Lock()
	w.queue = append(w.queue, e)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) pop() (entry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return entry{}, false
	}
	e := w.queue[0]
	w.queue[0] = entry{}
	w.queue = w.queue[1:]
	return e, true
}

func (w *Writer) dropQueue() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.queue)
	w.queue = nil
	return n
}

func (w *Writer) run() {
	defer close(w.done)

	for {
		select {
		case <-w.stop:
			w.shutdown()
			return
		default:
		}

		e, ok := w.pop()
		if !ok {
			select {
			case <-w.wake:
			case <-w.stop:
				w.shutdown()
				return
			}
			continue
		}

		if err := w.write(e); err != nil {
			w.fail(err)
			return
		}
	}
}

// write persists one entry. The record is synced before write returns.
func (w *Writer) write(e entry) error {
	if e.barrier != nil {
		close(e.barrier)
		return nil
	}

	if err := w.out.rollIfNeeded(w.store.Now()); err != nil {
		return err
	}

	w.buf = AppendEncoded(w.buf[:0], e.rec, w.version)
	if _, err := w.out.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write log record: %w", err)
	}
	if err := w.out.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return nil
}

// shutdown applies the shutdown policy and closes the file.
func (w *Writer) shutdown() {
	if w.policy == ShutdownDrain {
		w.drain()
	}
	if dropped := w.dropQueue(); dropped > 0 {
		w.diag.Debug("dropping queued records on shutdown", "count", dropped)
	}

	err := w.out.Close()
	w.mu.Lock()
	if w.err == nil && err != nil {
		w.err = err
	}
	w.mu.Unlock()
	w.state.Store(int32(StateStopped))
}

func (w *Writer) drain() {
	ctx := w.drainCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if w.opts.Grace > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Grace)
		defer cancel()
	}

	for ctx.Err() == nil {
		e, ok := w.pop()
		if !ok {
			return
		}
		if err := w.write(e); err != nil {
			w.diag.Error("log writer failed while draining", "path", w.out.Path(), "error", err)
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
			return
		}
	}
}

// fail stops the writer after a write error. Queued records are dropped.
func (w *Writer) fail(err error) {
	dropped := w.dropQueue()
	w.diag.Error("log writer stopped", "path", w.out.Path(), "dropped", dropped, "error", err)
	_ = w.out.Close()

	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	w.state.Store(int32(StateStopped))
}

func (w *Writer) stoppedErr() error {
	if err := w.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrWriterStopped, err)
	}
	return errors.ErrWriterStopped
}
