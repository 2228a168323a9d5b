// Package xlog is the structured logger used throughout crossmist: a thin,
// chainable wrapper over zerolog, with goccy/go-json standing in for
// encoding/json when a field value has no native zerolog setter.
package xlog

import (
	"io"
	"os"
	"sync"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// L is the process-wide logger, usable before any explicit Init call.
var L = New(os.Stderr)

// Logger wraps a zerolog.Logger behind a mutex so Init can be called to
// redirect output (e.g. once a child knows its own pid) without racing
// concurrent log calls.
type Logger struct {
	mu   sync.RWMutex
	zlog zerolog.Logger
}

// New builds a Logger writing to w.
func New(w io.Writer) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	return &Logger{zlog: zl}
}

// Init redirects l to w and attaches a fixed "pid" field, mirroring how a
// spawned child re-announces itself once it knows its own identity.
func (l *Logger) Init(w io.Writer, pid int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zlog = zerolog.New(w).With().Timestamp().Int("pid", pid).Logger()
}

// Entry starts a structured log line at the given level.
func (l *Logger) Entry(level zerolog.Level) *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Entry{ev: l.zlog.WithLevel(level)}
}

// Error starts an error-level entry with err attached.
func (l *Logger) Error(err error) *Entry { return l.Entry(zerolog.ErrorLevel).WithErr(err) }

// Warn starts a warn-level entry.
func (l *Logger) Warn() *Entry { return l.Entry(zerolog.WarnLevel) }

// Info starts an info-level entry.
func (l *Logger) Info() *Entry { return l.Entry(zerolog.InfoLevel) }

// Debug starts a debug-level entry.
func (l *Logger) Debug() *Entry { return l.Entry(zerolog.DebugLevel) }

// Entry is a single structured log line under construction.
type Entry struct {
	ev *zerolog.Event
}

// WithErr attaches err under zerolog's conventional "error" field.
func (e *Entry) WithErr(err error) *Entry {
	e.ev = e.ev.Err(err)
	return e
}

// WithField attaches one key-value pair. Values are encoded with
// goccy/go-json rather than encoding/json when they are not one of
// zerolog's directly supported scalar kinds.
func (e *Entry) WithField(key string, value any) *Entry {
	switch v := value.(type) {
	case string:
		e.ev = e.ev.Str(key, v)
	case int:
		e.ev = e.ev.Int(key, v)
	case int64:
		e.ev = e.ev.Int64(key, v)
	case bool:
		e.ev = e.ev.Bool(key, v)
	case error:
		e.ev = e.ev.AnErr(key, v)
	default:
		b, err := gojson.Marshal(v)
		if err != nil {
			e.ev = e.ev.Str(key, "<unencodable>")
			break
		}
		e.ev = e.ev.RawJSON(key, b)
	}
	return e
}

// WithFields attaches every pair in fields.
func (e *Entry) WithFields(fields map[string]any) *Entry {
	for k, v := range fields {
		e.WithField(k, v)
	}
	return e
}

// Msg finalizes the entry with msg as its message, the terminal call in the
// chain.
func (e *Entry) Msg(msg string) {
	e.ev.Msg(msg)
}
