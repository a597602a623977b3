package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// NopLogger discards everything
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogRecorder collects JSON log entries written by a test logger
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogRecorder returns a debug-level logger and the recorder it writes to
func NewLogRecorder() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	handler := slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), rec
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Entries decodes every line logged so far
func (r *LogRecorder) Entries(t testing.TB) []map[string]any {
	t.Helper()

	r.mu.Lock()
	raw := append([]byte(nil), r.buf.Bytes()...)
	r.mu.Unlock()

	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v: %s", err, scanner.Text())
		}
		entries = append(entries, entry)
	}
	return entries
}

// Find returns the last entry with the given message, or nil
func (r *LogRecorder) Find(t testing.TB, msg string) map[string]any {
	t.Helper()

	entries := r.Entries(t)
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i][slog.MessageKey] == msg {
			return entries[i]
		}
	}
	return nil
}

var _ io.Writer = (*LogRecorder)(nil)
