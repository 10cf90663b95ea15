package convlog

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesPerSessionNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir, QueueSize: 16}, slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Log(Event{SessionID: "sess-1", EventType: EventUserMessage, Speaker: "user", Content: "I like Go"})
	logger.Log(Event{SessionID: "sess-1", EventType: EventAgentMessage, Speaker: "agent", Content: "Why?"})
	logger.Log(Event{SessionID: "sess-2", EventType: EventSessionEnded})

	// Close drains the queue.
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "sess-1.ndjson"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Content != "I like Go" || first.EventType != EventUserMessage {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Timestamp == "" {
		t.Fatal("expected timestamp to be populated")
	}

	if _, err := os.Stat(filepath.Join(dir, "sess-2.ndjson")); err != nil {
		t.Fatalf("expected second session file: %v", err)
	}
}

func TestLoggerRejectsUnsafeSessionIDs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(Config{Enabled: true, Dir: dir}, slog.Default())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Log(Event{SessionID: "../escape", EventType: EventUserMessage})
	_ = logger.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files, got %d", len(entries))
	}
}

func TestLogAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Enabled: true, Dir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_ = logger.Close()
	logger.Log(Event{SessionID: "late", EventType: EventUserMessage})
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestDisabledIsNoop(t *testing.T) {
	t.Parallel()

	logger, err := New(Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noop logger, got %T", logger)
	}
}
