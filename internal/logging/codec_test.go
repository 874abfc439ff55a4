package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Iron-Ham/daylog/internal/errors"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		rec      Record
		fallback string
		want     string
	}{
		{
			name:     "single line",
			rec:      Record{Timestamp: 1760875387120, AppVersion: "1.4.2", Severity: Warning, Message: "disk almost full"},
			fallback: "x",
			want:     "1760875387120|1.4.2|WARNING\ndisk almost full\n\n",
		},
		{
			name:     "fallback version",
			rec:      Record{Timestamp: 5, Severity: Info, Message: "hi"},
			fallback: "2.0",
			want:     "5|2.0|INFO\nhi\n\n",
		},
		{
			name:     "pipe in version is replaced",
			rec:      Record{Timestamp: 5, AppVersion: "1|2", Severity: Error, Message: "m"},
			fallback: "",
			want:     "5|1_2|ERROR\nm\n\n",
		},
		{
			name:     "newlines in version are replaced",
			rec:      Record{Timestamp: 5, AppVersion: "1\n2", Severity: Info, Message: "m"},
			fallback: "",
			want:     "5|1_2|INFO\nm\n\n",
		},
		{
			name:     "empty lines in message are removed",
			rec:      Record{Timestamp: 5, AppVersion: "v", Severity: Info, Message: "\n\na\n\n\nb\r\n\r\nc\n"},
			fallback: "",
			want:     "5|v|INFO\na\nb\nc\n\n",
		},
		{
			name:     "empty message",
			rec:      Record{Timestamp: 5, AppVersion: "v", Severity: Info},
			fallback: "",
			want:     "5|v|INFO\n\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.rec, tt.fallback); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Encode() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSanitizeMessageNeverLeavesEmptyLines(t *testing.T) {
	inputs := []string{
		"\n",
		"\n\n\n",
		"a\n\nb",
		"a\r\n\r\n\r\nb",
		"\r\n\r\nlead",
		"trail\n\n",
		"x\n \ny",
		"a\n\r\r\nb",
		"a\n\r\nb",
		"a\n\r",
		"\r\nlead",
	}
	for _, in := range inputs {
		out := sanitizeMessage(in)
		if strings.Contains(out, "\n\n") || strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
			t.Errorf("sanitizeMessage(%q) = %q contains an empty line", in, out)
		}
		for _, line := range strings.Split(out, "\n") {
			if out != "" && strings.TrimSuffix(line, "\r") == "" {
				t.Errorf("sanitizeMessage(%q) = %q has a line the decoder reads as empty", in, out)
			}
		}
	}

	// A line of spaces is not empty and is kept.
	if got := sanitizeMessage("x\n \ny"); got != "x\n \ny" {
		t.Errorf("sanitizeMessage kept %q, want %q", got, "x\n \ny")
	}
}

func TestCarriageReturnLinesDoNotSplitRecords(t *testing.T) {
	messages := []string{"first", "a\n\r\r\nb", "c\n\rd", "e\n\r", "third"}

	var buf bytes.Buffer
	for i, msg := range messages {
		if err := Encode(&buf, Record{Timestamp: int64(i), Severity: Info, Message: msg}, "v"); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []string{"first", "a\nb", "c\n\rd", "e", "third"}
	if len(got) != len(want) {
		t.Fatalf("decoded %d records, want %d", len(got), len(want))
	}
	for i, msg := range want {
		if got[i].Message != msg {
			t.Errorf("record %d message = %q, want %q", i, got[i].Message, msg)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	records := []Record{
		{Timestamp: 1, AppVersion: "1.0", Severity: Info, Message: "one"},
		{Timestamp: 2, AppVersion: "1.0", Severity: Warning, Message: "two\nlines"},
		{Timestamp: 3, AppVersion: "1.1", Severity: Error, Message: "panic: boom\ngoroutine 1 [running]:\n\tmain.main()"},
		{Timestamp: 4, AppVersion: "1.1", Severity: Info, Message: ""},
		{Timestamp: 5, AppVersion: "1.1", Severity: Info, Message: "after empty"},
	}

	var buf bytes.Buffer
	for _, rec := range records {
		if err := Encode(&buf, rec, ""); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("decoded %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestDecode(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		records, err := DecodeBytes(nil)
		if err != nil || len(records) != 0 {
			t.Errorf("DecodeBytes(nil) = %v, %v", records, err)
		}
	})

	t.Run("crlf line endings", func(t *testing.T) {
		records, err := DecodeBytes([]byte("7|v|INFO\r\nhello\r\nworld\r\n\r\n"))
		if err != nil {
			t.Fatalf("DecodeBytes failed: %v", err)
		}
		if len(records) != 1 || records[0].Message != "hello\nworld" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("missing final terminator", func(t *testing.T) {
		records, err := DecodeBytes([]byte("7|v|INFO\nhello"))
		if err != nil {
			t.Fatalf("DecodeBytes failed: %v", err)
		}
		if len(records) != 1 || records[0].Message != "hello" {
			t.Errorf("unexpected records: %+v", records)
		}
	})

	t.Run("extra blank lines between records", func(t *testing.T) {
		records, err := DecodeBytes([]byte("\n\n1|v|INFO\na\n\n\n\n2|v|ERROR\nb\n\n"))
		if err != nil {
			t.Fatalf("DecodeBytes failed: %v", err)
		}
		if len(records) != 2 || records[1].Severity != Error {
			t.Errorf("unexpected records: %+v", records)
		}
	})
}

func TestDecodeCorrupt(t *testing.T) {
	valid := "1|v|INFO\nfirst\n\n"

	tests := []struct {
		name     string
		data     string
		wantLine int
	}{
		{"header without separators", valid + "garbage\nmore\n\n", 4},
		{"too many fields", valid + "1|v|INFO|x\nm\n\n", 4},
		{"timestamp not a number", valid + "abc|v|INFO\nm\n\n", 4},
		{"unknown severity", valid + "1|v|DEBUG\nm\n\n", 4},
		{"lower-case severity", valid + "1|v|info\nm\n\n", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeBytes([]byte(tt.data))
			if len(records) != 1 || records[0].Message != "first" {
				t.Errorf("expected the first record to survive, got %+v", records)
			}

			var corrupt *errors.CorruptFileError
			if !errors.As(err, &corrupt) {
				t.Fatalf("expected *CorruptFileError, got %T: %v", err, err)
			}
			if corrupt.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", corrupt.Line, tt.wantLine)
			}
			if corrupt.Decoded != 1 {
				t.Errorf("Decoded = %d, want 1", corrupt.Decoded)
			}
			if !errors.Is(err, errors.ErrCorruptRecord) {
				t.Error("expected error to match ErrCorruptRecord")
			}
		})
	}
}
