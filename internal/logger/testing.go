package logger

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
)

// NewDiscard returns a logger that drops everything.
func NewDiscard() Logger {
	return NewWithHandler(nil, slog.NewTextHandler(io.Discard, nil)).Module("")
}

// Buffer collects JSON log lines in memory.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewBuffer returns a trace-level logger writing JSON lines into the returned Buffer.
func NewBuffer() (Logger, *Buffer) {
	b := &Buffer{}
	h := slog.NewJSONHandler(b, &slog.HandlerOptions{Level: traceLevelValue})
	cl := NewWithHandler(&LoggingConfig{DefaultLevel: string(LogLevelTrace)}, h)
	return cl.Module(""), b
}
