// Package logging provides a persistent, day-partitioned event log.
//
// Producers hand records to an in-memory queue and return immediately; a
// single background goroutine appends each record to the current day's file
// and syncs it before taking the next. Files live in the "logs" subdirectory
// of a data directory and are named after their day, e.g. "19-10-2026.log".
//
// # File Format
//
// Each record is a header line, the message lines and an empty line:
//
//	1760875387120|1.4.2|WARNING
//	disk almost full
//	/data at 93%
//
// The empty line terminates the record, so empty lines inside a message are
// removed when it is written. A '|' in the version is replaced with '_'.
//
// # Thread Safety
//
// [Writer.Submit], [Writer.Flush] and all [Manager] methods are safe for
// concurrent use. Records submitted from one goroutine reach the file in
// submission order. [Store] operations run on the caller's goroutine and are
// not synchronized with a running writer. A [Follower] must be used from one
// goroutine.
//
// # Basic Usage
//
//	store := logging.NewStore(nil, dataDir)
//	mgr := logging.NewManager(store, logging.ManagerOptions{})
//	if err := mgr.Init(); err != nil {
//	    // logging stays disabled; calls below are no-ops
//	}
//	defer mgr.Close(context.Background())
//
//	mgr.Log("user signed in", logging.Info)
//	mgr.LogErr(err)
//
// # Reading
//
// [Store.List] returns the files most recent first and [Store.Read] decodes
// one. A file that fails to decode is deleted after the records before the
// corruption are returned, along with an *errors.CorruptFileError.
// [ReadAll], [FilterRecords] and [Export] support the CLI's show and export
// commands.
//
// # Retention
//
// [Manager.ClearLogs] deletes files dated more than [RetentionDays] days
// before now. [Manager.DeleteAllLogs] deletes every file and re-initializes.
//
// # Diagnostics
//
// Failures inside the sink (a directory that cannot be created, a write
// error, a file that cannot be deleted) are never returned to the code that
// logged a record. They go to a [Diagnostics] logger instead, which writes
// slog text to stderr by default. Use [NopDiagnostics] in tests.
package logging
