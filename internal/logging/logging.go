package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Every entry carries "ts" in the
// configured location and a "level" derived from "status" when not set.
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New returns a Logger writing to w. A nil location means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

var std = New(os.Stdout, time.UTC)

// Default returns the process-wide logger.
func Default() *Logger { return std }

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		std = l
	}
}

// Location returns the timezone used for timestamps.
func (l *Logger) Location() *time.Location { return l.loc }

// Log writes the entry. The map is modified in place.
func (l *Logger) Log(data map[string]any) {
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(data)
}

// Info logs msg with optional extra fields.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(with(fields, "info", msg))
}

// Warn logs msg with optional extra fields.
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.Log(with(fields, "warn", msg))
}

// Error logs msg and err with optional extra fields.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	data := with(fields, "error", msg)
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(data)
}

func with(fields map[string]any, level, msg string) map[string]any {
	data := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		data[k] = v
	}
	data["level"] = level
	data["msg"] = msg
	return data
}
