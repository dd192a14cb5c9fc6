// Package audit appends one human-readable line per phonebook change to a
// plain text trail. The trail is never read back.
package audit

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// TimestampLayout prints local time with microseconds, e.g.
// "2024-05-01 09:30:12.482913".
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Log writes "<timestamp>: <action>" lines.
type Log struct {
	core zapcore.Core
	now  func() time.Time
}

// New returns a log appending to path. An empty path or os.DevNull discards
// every entry.
func New(path string) *Log {
	if path == "" || path == os.DevNull {
		return &Log{core: zapcore.NewNopCore(), now: time.Now}
	}
	return &Log{core: zapcore.NewCore(newEncoder(), appendFile(path), zapcore.InfoLevel), now: time.Now}
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "ts",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimestampLayout),
		ConsoleSeparator: ": ",
	})
}

// Added records a new contact.
func (l *Log) Added(first, last string) error {
	return l.Record(fmt.Sprintf("Added contact: %s %s", first, last))
}

// Deleted records a delete by phone number, whether or not anything matched.
func (l *Log) Deleted(phone string) error {
	return l.Record("Deleted contact with phone number: " + phone)
}

// Updated records an update of the contact found under phone.
func (l *Log) Updated(phone string) error {
	return l.Record("Updated contact with phone number: " + phone)
}

// Record appends action with the current local time. Line breaks inside
// action are written as spaces so each entry stays on one line.
func (l *Log) Record(action string) error {
	ent := zapcore.Entry{Level: zapcore.InfoLevel, Time: l.now(), Message: flatten.Replace(action)}
	if !l.core.Enabled(ent.Level) {
		return nil
	}
	if err := l.core.Write(ent, nil); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

var flatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// appendFile opens, appends to and closes the file on every write.
type appendFile string

func (p appendFile) Write(b []byte) (int, error) {
	f, err := os.OpenFile(string(p), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := f.Write(b)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func (appendFile) Sync() error { return nil }
