package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

const (
	defaultPollInterval = time.Second
	followDebounce      = 50 * time.Millisecond
)

var recordTerminator = []byte("\n\n")

// Follower tails today's log file and emits each record once it is complete.
// When the day changes it finishes the old file and moves to the new one.
// A Follower is not safe for concurrent use.
type Follower struct {
	store *Store
	diag  *Diagnostics
	poll  time.Duration

	file    LogFile
	offset  int64
	pending []byte
	started bool
}

// FollowOption configures a Follower.
type FollowOption func(*Follower)

// WithPollInterval sets how often the file is checked without a change
// notification. Notifications are only available on the OS filesystem.
func WithPollInterval(d time.Duration) FollowOption {
	return func(f *Follower) {
		if d > 0 {
			f.poll = d
		}
	}
}

// WithFollowDiagnostics sets where watch and decode problems are reported.
func WithFollowDiagnostics(d *Diagnostics) FollowOption {
	return func(f *Follower) {
		f.diag = d
	}
}

// NewFollower creates a Follower on store.
func NewFollower(store *Store, opts ...FollowOption) *Follower {
	f := &Follower{
		store: store,
		diag:  NopDiagnostics(),
		poll:  defaultPollInterval,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Seek positions the follower on today's file: at its start when fromStart
// is true, otherwise at its current end so only new records are emitted.
func (f *Follower) Seek(fromStart bool) error {
	f.file = f.store.Today()
	f.offset = 0
	f.pending = nil
	f.started = true
	if fromStart {
		return nil
	}

	info, err := f.store.Fs().Stat(f.file.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	f.offset = info.Size()
	return nil
}

// Follow emits records until ctx is done. It returns nil on cancellation.
func (f *Follower) Follow(ctx context.Context, fromStart bool, emit func(Record)) error {
	if _, err := f.store.ResolveDir(); err != nil {
		return err
	}
	if err := f.Seek(fromStart); err != nil {
		return err
	}
	if err := f.Poll(emit); err != nil {
		return err
	}

	events, watchErrs, stop := f.watch()
	defer stop()

	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, isLog := ParseFileName(filepath.Base(event.Name)); !isLog {
				continue
			}
			debounce.Reset(followDebounce)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			f.diag.Warn("log directory watch error", "dir", f.store.Dir(), "error", err)

		case <-debounce.C:
			if err := f.Poll(emit); err != nil {
				return err
			}

		case <-ticker.C:
			if err := f.Poll(emit); err != nil {
				return err
			}
		}
	}
}

// watch subscribes to changes in the logs directory. On filesystems other
// than the OS one, or when the watcher cannot be created, the returned
// channels are nil and Follow relies on polling alone.
func (f *Follower) watch() (<-chan fsnotify.Event, <-chan error, func()) {
	if _, ok := f.store.Fs().(*afero.OsFs); !ok {
		return nil, nil, func() {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.diag.Warn("cannot create file watcher, polling instead", "error", err)
		return nil, nil, func() {}
	}
	if err := watcher.Add(f.store.Dir()); err != nil {
		_ = watcher.Close()
		f.diag.Warn("cannot watch log directory, polling instead", "dir", f.store.Dir(), "error", err)
		return nil, nil, func() {}
	}
	return watcher.Events, watcher.Errors, func() { _ = watcher.Close() }
}

// Poll reads whatever was appended since the last call and emits every
// complete record. It is called by Follow; tests and callers that drive
// their own schedule may call it directly after Seek.
func (f *Follower) Poll(emit func(Record)) error {
	if !f.started {
		if err := f.Seek(true); err != nil {
			return err
		}
	}

	today := f.store.Today()
	if today.Path != f.file.Path {
		if err := f.readNew(emit); err != nil {
			return err
		}
		f.file = today
		f.offset = 0
		f.pending = nil
	}
	return f.readNew(emit)
}

func (f *Follower) readNew(emit func(Record)) error {
	file, err := f.store.Fs().Open(f.file.Path)
	if err != nil {
		if os.IsNotExist(err) {
			f.offset = 0
			f.pending = nil
			return nil
		}
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	if info.Size() < f.offset {
		// Replaced by a shorter file, e.g. after all logs were deleted.
		f.offset = 0
		f.pending = nil
	}
	if info.Size() == f.offset {
		return nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek log file: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	f.offset += int64(len(data))
	f.pending = append(f.pending, data...)

	end := bytes.LastIndex(f.pending, recordTerminator)
	if end < 0 {
		return nil
	}
	chunk := f.pending[:end+len(recordTerminator)]
	f.pending = append([]byte(nil), f.pending[end+len(recordTerminator):]...)

	records, decodeErr := DecodeBytes(chunk)
	for _, rec := range records {
		emit(rec)
	}
	if decodeErr != nil {
		f.diag.Warn("skipping malformed records", "path", f.file.Path, "error", decodeErr)
	}
	return nil
}
