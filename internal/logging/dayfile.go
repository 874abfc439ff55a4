package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/Iron-Ham/daylog/internal/errors"
	"github.com/spf13/afero"
)

// dayFile is the append handle on the current day's log file. It switches to
// a new file when the day changes. It is owned by the writer goroutine and is
// not safe for concurrent use.
type dayFile struct {
	store   *Store
	file    afero.File
	current LogFile
}

// openDayFile opens (creating if needed) the log file for the day of t.
func openDayFile(store *Store, t time.Time) (*dayFile, error) {
	d := &dayFile{store: store}
	if err := d.open(t); err != nil {
		return nil, err
	}
	return d, nil
}

// open opens the log file for t for appending.
func (d *dayFile) open(t time.Time) error {
	if _, err := d.store.ResolveDir(); err != nil {
		return err
	}

	lf := d.store.FileFor(t)
	file, err := d.store.Fs().OpenFile(lf.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewInitError("cannot open log file", lf.Path, fmt.Errorf("%w: %w", errors.ErrLogFileUnwritable, err))
	}

	d.file = file
	d.current = lf
	return nil
}

// rollIfNeeded switches to the file for t if it differs from the open one.
func (d *dayFile) rollIfNeeded(t time.Time) error {
	if d.file != nil && d.store.FileFor(t).Path == d.current.Path {
		return nil
	}
	if err := d.Close(); err != nil {
		return err
	}
	return d.open(t)
}

// Write appends p to the open file.
func (d *dayFile) Write(p []byte) (int, error) {
	if d.file == nil {
		return 0, fmt.Errorf("log file is closed")
	}
	return d.file.Write(p)
}

// Sync flushes the file to stable storage.
func (d *dayFile) Sync() error {
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

// Close syncs and closes the file. Closing a closed dayFile is a no-op.
func (d *dayFile) Close() error {
	if d.file == nil {
		return nil
	}
	file := d.file
	d.file = nil

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// Path returns the path of the open (or last opened) file.
func (d *dayFile) Path() string {
	return d.current.Path
}
