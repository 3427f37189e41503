package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogCommandWritesJSONLines(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir)
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}

	logger.LogCommand("light", "UP", OutcomePublished, "")
	logger.LogCommand("speaker", "DOWN", OutcomeFailed, "broker unreachable")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("failed to open audit file: %v", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", len(entries)+1, err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("audit file has %d entries, want 2", len(entries))
	}
	if entries[0].Destination != "light" || entries[0].Outcome != OutcomePublished {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[1].Payload != "DOWN" || entries[1].Detail != "broker unreachable" {
		t.Errorf("entry[1] = %+v", entries[1])
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("entry[0] has no timestamp")
	}
}

func TestCloseIsIdempotentAndSilencesWrites(t *testing.T) {
	logger, err := NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}

	// Writing after Close must not panic.
	logger.LogCommand("light", "UP", OutcomePublished, "")
}
