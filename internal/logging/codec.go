package logging

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/Iron-Ham/daylog/internal/errors"
)

// Record file format, repeated per record:
//
//	<timestamp>|<version>|<SEVERITY>\n
//	<message line>\n
//	...
//	\n
//
// The empty line ends the record, so a message must never contain one.
const (
	fieldSeparator = '|'
	headerFields   = 3
)

var versionReplacer = strings.NewReplacer("|", "_", "\r", "_", "\n", "_")

// Encode writes rec to w in the log file format. fallbackVersion is used
// when the record carries no version of its own.
func Encode(w io.Writer, rec Record, fallbackVersion string) error {
	_, err := w.Write(AppendEncoded(nil, rec, fallbackVersion))
	return err
}

// AppendEncoded appends the encoded form of rec to buf and returns the result.
func AppendEncoded(buf []byte, rec Record, fallbackVersion string) []byte {
	buf = strconv.AppendInt(buf, rec.Timestamp, 10)
	buf = append(buf, fieldSeparator)
	buf = append(buf, versionReplacer.Replace(rec.VersionOr(fallbackVersion))...)
	buf = append(buf, fieldSeparator)
	buf = append(buf, rec.Severity.String()...)
	buf = append(buf, '\n')
	buf = append(buf, sanitizeMessage(rec.Message)...)
	buf = append(buf, '\n', '\n')
	return buf
}

// sanitizeMessage removes every empty line from a message. Trailing carriage
// returns are stripped from each line first, since the decoder treats a line
// holding only "\r" as empty.
func sanitizeMessage(msg string) string {
	if !strings.ContainsAny(msg, "\r\n") {
		return msg
	}

	lines := strings.Split(msg, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Decode reads every record from r.
//
// Decoding stops at the first malformed record. The records decoded before it
// are returned together with a *errors.CorruptFileError; nothing after the
// malformed record is read. Read errors from r are returned as-is, also with
// the records decoded so far.
func Decode(r io.Reader) ([]Record, error) {
	d := decoder{reader: bufio.NewReader(r)}
	var records []Record
	for {
		rec, err := d.next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			if corrupt, ok := err.(*errors.CorruptFileError); ok {
				corrupt.Decoded = len(records)
			}
			return records, err
		}
		records = append(records, rec)
	}
}

// DecodeBytes decodes every record in data. See Decode.
func DecodeBytes(data []byte) ([]Record, error) {
	return Decode(bytes.NewReader(data))
}

// decoder reads records one at a time and tracks line numbers for errors.
type decoder struct {
	reader *bufio.Reader
	line   int
	eof    bool
}

// readLine returns the next line without its terminator. ok is false once
// the input is exhausted.
func (d *decoder) readLine() (string, bool, error) {
	if d.eof {
		return "", false, nil
	}
	s, err := d.reader.ReadString('\n')
	if err == io.EOF {
		d.eof = true
		if s == "" {
			return "", false, nil
		}
	} else if err != nil {
		return "", false, err
	}
	d.line++
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, true, nil
}

func (d *decoder) next() (Record, error) {
	var header string
	for {
		line, ok, err := d.readLine()
		if err != nil {
			return Record{}, err
		}
		if !ok {
			return Record{}, io.EOF
		}
		if line != "" {
			header = line
			break
		}
	}

	rec, err := parseHeader(header)
	if err != nil {
		return Record{}, errors.NewCorruptFileError(d.line, 0, err)
	}

	var msg strings.Builder
	first := true
	for {
		line, ok, err := d.readLine()
		if err != nil {
			return Record{}, err
		}
		if !ok || line == "" {
			break
		}
		if !first {
			msg.WriteByte('\n')
		}
		msg.WriteString(line)
		first = false
	}
	rec.Message = msg.String()
	return rec, nil
}

// parseHeader parses "<timestamp>|<version>|<SEVERITY>".
func parseHeader(line string) (Record, error) {
	fields := strings.Split(line, string(fieldSeparator))
	if len(fields) != headerFields {
		return Record{}, errors.Wrapf(errors.ErrInvalidInput, "header has %d fields, want %d", len(fields), headerFields)
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Record{}, err
	}
	sev, err := ParseSeverity(fields[2])
	if err != nil {
		return Record{}, err
	}

	return Record{
		Timestamp:  ts,
		AppVersion: fields[1],
		Severity:   sev,
	}, nil
}
