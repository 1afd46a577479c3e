package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is one captured log record.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// captureSink collects entries from a CaptureLogger and all loggers derived
// from it via WithField/WithFields/WithError.
type captureSink struct {
	mu      sync.Mutex
	entries []Entry
}

// CaptureLogger records log entries in memory for assertions in tests.
type CaptureLogger struct {
	sink   *captureSink
	fields map[string]interface{}
}

// NewCaptureLogger creates a logger that records entries instead of writing them.
func NewCaptureLogger() *CaptureLogger {
	return &CaptureLogger{
		sink:   &captureSink{},
		fields: make(map[string]interface{}),
	}
}

// Entries returns a copy of all captured entries.
func (c *CaptureLogger) Entries() []Entry {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	out := make([]Entry, len(c.sink.entries))
	copy(out, c.sink.entries)
	return out
}

// HasMessage reports whether any entry carries the given message.
func (c *CaptureLogger) HasMessage(msg string) bool {
	for _, e := range c.Entries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}

func (c *CaptureLogger) record(level, msg string, extra map[string]interface{}) {
	fields := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	c.sink.entries = append(c.sink.entries, Entry{Level: level, Message: msg, Fields: fields})
}

func (c *CaptureLogger) child(extra map[string]interface{}) *CaptureLogger {
	fields := make(map[string]interface{}, len(c.fields)+len(extra))
	for k, v := range c.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &CaptureLogger{sink: c.sink, fields: fields}
}

func (c *CaptureLogger) Debug(msg string) { c.record("debug", msg, nil) }
func (c *CaptureLogger) Info(msg string)  { c.record("info", msg, nil) }
func (c *CaptureLogger) Warn(msg string)  { c.record("warn", msg, nil) }
func (c *CaptureLogger) Error(msg string) { c.record("error", msg, nil) }
func (c *CaptureLogger) Fatal(msg string) { c.record("fatal", msg, nil) }

func (c *CaptureLogger) WithField(key string, value interface{}) Logger {
	return c.child(map[string]interface{}{key: value})
}

func (c *CaptureLogger) WithFields(fields map[string]interface{}) Logger {
	return c.child(fields)
}

func (c *CaptureLogger) WithError(err error) Logger {
	if err == nil {
		return c
	}
	return c.child(map[string]interface{}{"error": err.Error()})
}

func (c *CaptureLogger) WithContext(ctx context.Context) Logger { return c }

func (c *CaptureLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	c.record("debug", msg, fields)
}

func (c *CaptureLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	c.record("info", msg, fields)
}

func (c *CaptureLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	c.record("warn", msg, fields)
}

func (c *CaptureLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	c.record("error", msg, fields)
}

func (c *CaptureLogger) GetZerolog() *zerolog.Logger { return nil }
