package logging

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// appendRaw appends data to the log file for the day of at.
func appendRaw(t *testing.T, store *Store, at time.Time, data string) {
	t.Helper()
	if err := store.Fs().MkdirAll(store.Dir(), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	f, err := store.Fs().OpenFile(store.FileFor(at).Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write([]byte(data)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

func collect(records *[]Record) func(Record) {
	return func(rec Record) {
		*records = append(*records, rec)
	}
}

func TestFollowerPoll(t *testing.T) {
	t.Run("emits complete records only", func(t *testing.T) {
		store, _, _ := newTestStore(t, day(2026, 10, 19))
		f := NewFollower(store)
		if err := f.Seek(true); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}

		var got []Record
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll on missing file failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected nothing, got %+v", got)
		}

		now := day(2026, 10, 19)
		appendRaw(t, store, now, "1|v|INFO\nfirst\n\n")
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 1 || got[0].Message != "first" {
			t.Fatalf("expected first record, got %+v", got)
		}

		appendRaw(t, store, now, "2|v|WARNING\npartial\n")
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("incomplete record was emitted: %+v", got)
		}

		appendRaw(t, store, now, "more\n\n")
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 2 || got[1].Message != "partial\nmore" || got[1].Severity != Warning {
			t.Fatalf("expected completed record, got %+v", got)
		}
	})

	t.Run("seek to end skips existing records", func(t *testing.T) {
		now := day(2026, 10, 19)
		store, _, _ := newTestStore(t, now)
		appendRaw(t, store, now, "1|v|INFO\nold\n\n")

		f := NewFollower(store)
		if err := f.Seek(false); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}
		appendRaw(t, store, now, "2|v|INFO\nnew\n\n")

		var got []Record
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 1 || got[0].Message != "new" {
			t.Errorf("expected only the new record, got %+v", got)
		}
	})

	t.Run("follows into the next day", func(t *testing.T) {
		store, _, clock := newTestStore(t, day(2026, 10, 19))
		f := NewFollower(store)
		if err := f.Seek(true); err != nil {
			t.Fatalf("Seek failed: %v", err)
		}

		appendRaw(t, store, day(2026, 10, 19), "1|v|INFO\nlate\n\n")
		clock.Set(day(2026, 10, 20))
		appendRaw(t, store, day(2026, 10, 20), "2|v|INFO\nearly\n\n")

		var got []Record
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 2 || got[0].Message != "late" || got[1].Message != "early" {
			t.Errorf("expected both days in order, got %+v", got)
		}
	})

	t.Run("restarts when the file is replaced", func(t *testing.T) {
		now := day(2026, 10, 19)
		store, fs, _ := newTestStore(t, now)
		appendRaw(t, store, now, "1|v|INFO\na long first record\n\n")

		f := NewFollower(store)
		var got []Record
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}

		if err := fs.Remove(store.Today().Path); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		appendRaw(t, store, now, "2|v|INFO\nb\n\n")
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 2 || got[1].Message != "b" {
			t.Errorf("expected record from replaced file, got %+v", got)
		}
	})

	t.Run("malformed records are skipped", func(t *testing.T) {
		now := day(2026, 10, 19)
		store, _, _ := newTestStore(t, now)
		f := NewFollower(store)

		appendRaw(t, store, now, "garbage\n\n")
		var got []Record
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		appendRaw(t, store, now, "3|v|ERROR\nfine\n\n")
		if err := f.Poll(collect(&got)); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if len(got) != 1 || got[0].Message != "fine" {
			t.Errorf("expected the valid record, got %+v", got)
		}
	})
}

func TestFollowerFollow(t *testing.T) {
	now := day(2026, 10, 19)
	store := NewStore(afero.NewMemMapFs(), testDataDir, WithClock(func() time.Time { return now }))
	w := newTestWriter(t, store, WriterOptions{})
	w.Start()

	f := NewFollower(store, WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Record, 10)
	done := make(chan error, 1)
	go func() {
		done <- f.Follow(ctx, false, func(rec Record) {
			select {
			case received <- rec:
			default:
			}
		})
	}()

	// Keep submitting until the follower, which starts at the end of the
	// file, has seen a record.
	deadline := time.After(5 * time.Second)
	var rec Record
loop:
	for i := 0; ; i++ {
		w.Submit(int64(i), "followed", Error)
		select {
		case rec = <-received:
			break loop
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("follower did not emit a record")
		}
	}
	if rec.Message != "followed" || rec.Severity != Error {
		t.Errorf("unexpected record: %+v", rec)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Follow returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}
