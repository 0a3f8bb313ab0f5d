package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestEventLoggerWritesJSONL(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewEventLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	if err := logger.LogExport("osteo_backup_2026-08-28.json", 12, false); err != nil {
		t.Fatalf("failed to log export: %v", err)
	}
	if err := logger.LogMediaStore(3, 7, "profile.png", 42); err != nil {
		t.Fatalf("failed to log media store: %v", err)
	}
	if err := logger.LogError("import", errors.New("boom")); err != nil {
		t.Fatalf("failed to log error: %v", err)
	}

	// Debug events are filtered below the minimum level
	if err := logger.Log(&Event{Level: LevelDebug, Event: EventExport}); err != nil {
		t.Fatalf("failed to log debug event: %v", err)
	}

	path := logger.Path()
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		events = append(events, e)
	}

	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Event != EventExport || events[0].Rows != 12 {
		t.Errorf("unexpected export event: %+v", events[0])
	}
	if events[1].Event != EventMediaStore || events[1].MediaID != 3 {
		t.Errorf("unexpected media event: %+v", events[1])
	}
	if events[2].Level != LevelError || events[2].Error != "boom" {
		t.Errorf("unexpected error event: %+v", events[2])
	}
}

func TestNilLoggerIgnoresEvents(t *testing.T) {
	var logger *EventLogger

	if err := logger.LogReset(); err != nil {
		t.Errorf("nil logger must ignore events, got %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("nil logger close must be a no-op, got %v", err)
	}
}
