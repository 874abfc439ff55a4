package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Iron-Ham/daylog/internal/errors"
	"github.com/spf13/afero"
)

const (
	// LogsDirName is the fixed subdirectory of the data directory holding log files.
	LogsDirName = "logs"
	// FileExt is the extension of every log file.
	FileExt = ".log"
	// DateLayout names a day's file: unpadded day, zero-padded month, four-digit year.
	// Parsing always uses ASCII digits and the Gregorian calendar.
	DateLayout = "2-01-2006"
	// RetentionDays is the age after which ClearLogs removes a file.
	RetentionDays = 7
)

// LogFile is a log file discovered in the logs directory.
type LogFile struct {
	Path string
	// Date is local midnight of the day the file holds.
	Date time.Time
}

// Name returns the file name without extension, e.g. "19-10-2026".
func (f LogFile) Name() string {
	return strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
}

// String implements fmt.Stringer.
func (f LogFile) String() string {
	return f.Name()
}

// FileName returns the log file name for the day of t.
func FileName(t time.Time) string {
	return t.Format(DateLayout) + FileExt
}

// ParseFileName extracts the day from a log file name. ok is false for names
// that are not log files: wrong extension, or a stem that is not a valid date.
func ParseFileName(name string) (date time.Time, ok bool) {
	if !strings.HasSuffix(strings.ToLower(name), FileExt) {
		return time.Time{}, false
	}
	stem := name[:strings.LastIndexByte(name, '.')]
	date, err := time.ParseInLocation(DateLayout, stem, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// Store manages the directory of per-day log files. Its operations run on the
// calling goroutine and are not synchronized with a running Writer.
type Store struct {
	fs      afero.Fs
	dataDir string
	now     func() time.Time
	diag    *Diagnostics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the function used for "now" (retention and today's file).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// WithDiagnostics sets where non-fatal failures are reported.
func WithDiagnostics(d *Diagnostics) StoreOption {
	return func(s *Store) {
		s.diag = d
	}
}

// NewStore creates a Store for the logs directory under dataDir.
// If fs is nil, the operating system filesystem is used.
func NewStore(fs afero.Fs, dataDir string, opts ...StoreOption) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{
		fs:      fs,
		dataDir: dataDir,
		now:     time.Now,
		diag:    NopDiagnostics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the logs directory.
func (s *Store) Dir() string {
	return filepath.Join(s.dataDir, LogsDirName)
}

// Fs returns the filesystem the store operates on.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// ResolveDir creates the logs directory if it does not exist and returns it.
func (s *Store) ResolveDir() (string, error) {
	dir := s.Dir()
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.NewInitError("cannot create logs directory", dir, fmt.Errorf("%w: %w", errors.ErrLogsDirUnavailable, err))
	}
	return dir, nil
}

// FileFor returns the log file that holds records written at t.
func (s *Store) FileFor(t time.Time) LogFile {
	y, m, d := t.Date()
	return LogFile{
		Path: filepath.Join(s.Dir(), FileName(t)),
		Date: time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
	}
}

// Today returns the log file for the current day.
func (s *Store) Today() LogFile {
	return s.FileFor(s.now())
}

// List returns every log file in the directory, most recent first.
// Files whose names do not parse as a date are not log files and are skipped.
// A missing directory yields an empty list.
func (s *Store) List() ([]LogFile, error) {
	dir := s.Dir()
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStoreError("list", dir, err)
	}

	files := make([]LogFile, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		date, ok := ParseFileName(info.Name())
		if !ok {
			s.diag.Debug("skipping non-log file", "name", info.Name())
			continue
		}
		files = append(files, LogFile{Path: filepath.Join(dir, info.Name()), Date: date})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Date.After(files[j].Date)
	})
	return files, nil
}

// Latest returns the most recent log file. ok is false when there is none.
func (s *Store) Latest() (file LogFile, ok bool, err error) {
	files, err := s.List()
	if err != nil || len(files) == 0 {
		return LogFile{}, false, err
	}
	return files[0], true, nil
}

// Read decodes every record of file.
//
// If the file is corrupt, the records before the corruption are returned with
// a *errors.CorruptFileError and the file is deleted, so the next read makes
// progress instead of failing at the same place.
func (s *Store) Read(file LogFile) ([]Record, error) {
	f, err := s.fs.Open(file.Path)
	if err != nil {
		return nil, errors.NewStoreError("open", file.Path, err)
	}
	records, decodeErr := Decode(f)
	_ = f.Close()

	if decodeErr == nil {
		return records, nil
	}

	var corrupt *errors.CorruptFileError
	if !errors.As(decodeErr, &corrupt) {
		return records, errors.NewStoreError("read", file.Path, decodeErr)
	}

	corrupt.WithPath(file.Path)
	s.diag.Warn("deleting corrupt log file", "path", file.Path, "line", corrupt.Line, "decoded", len(records), "error", corrupt.Detail)
	if err := s.fs.Remove(file.Path); err != nil {
		s.diag.Error("cannot delete corrupt log file", "path", file.Path, "error", err)
	}
	return records, corrupt
}

// DeleteOlderThan deletes every log file dated strictly before now minus days.
// Failures do not stop the sweep; they are reported and returned joined.
func (s *Store) DeleteOlderThan(days int) (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -days)
	var expired []LogFile
	for _, f := range files {
		if f.Date.Before(cutoff) {
			expired = append(expired, f)
		}
	}
	return s.remove(expired)
}

// DeleteAll deletes every log file. Failures do not stop the sweep; they are
// reported and returned joined. The caller is responsible for re-initializing
// any writer whose file was removed.
func (s *Store) DeleteAll() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	return s.remove(files)
}

func (s *Store) remove(files []LogFile) (int, error) {
	var errs []error
	deleted := 0
	for _, f := range files {
		if err := s.fs.Remove(f.Path); err != nil {
			s.diag.Warn("cannot delete log file", "path", f.Path, "error", err)
			errs = append(errs, errors.NewStoreError("delete", f.Path, err))
			continue
		}
		deleted++
	}
	return deleted, errors.Join(errs...)
}
