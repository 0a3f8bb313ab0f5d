package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	EventExport     EventType = "export"
	EventImport     EventType = "import"
	EventReset      EventType = "reset"
	EventMediaStore EventType = "media_store"
	EventMediaDrop  EventType = "media_drop"
	EventError      EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single audit event. Destructive operations
// (import, reset) and media writes are recorded so a practitioner can
// reconstruct what happened to their records.
type Event struct {
	Timestamp time.Time         `json:"ts"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	MediaID   int64             `json:"media_id,omitempty"`
	PatientID int64             `json:"patient_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Rows      int               `json:"rows,omitempty"`
	Duration  int64             `json:"duration_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes audit events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates an audit logger writing into outputDir.
// minLevel filters which events are written.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("audit-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file. A nil logger ignores events
// so call sites don't need to guard.
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogExport records a completed backup export
func (l *EventLogger) LogExport(path string, rows int, withMedia bool) error {
	return l.Log(&Event{
		Level: LevelInfo,
		Event: EventExport,
		Path:  path,
		Rows:  rows,
		Extra: map[string]string{
			"with_media": fmt.Sprintf("%t", withMedia),
		},
	})
}

// LogImport records a destructive restore
func (l *EventLogger) LogImport(path string, rows int, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level: level,
		Event: EventImport,
		Path:  path,
		Rows:  rows,
		Error: errMsg,
	})
}

// LogReset records a wholesale database reset
func (l *EventLogger) LogReset() error {
	return l.Log(&Event{
		Level: LevelWarning,
		Event: EventReset,
	})
}

// LogMediaStore records a stored media asset
func (l *EventLogger) LogMediaStore(mediaID, patientID int64, name string, durationMs int64) error {
	return l.Log(&Event{
		Level:     LevelInfo,
		Event:     EventMediaStore,
		MediaID:   mediaID,
		PatientID: patientID,
		Duration:  durationMs,
		Extra:     map[string]string{"name": name},
	})
}

// LogMediaDrop records a deleted media asset
func (l *EventLogger) LogMediaDrop(mediaID int64) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventMediaDrop,
		MediaID: mediaID,
	})
}

// LogError records a propagated failure
func (l *EventLogger) LogError(op string, err error) error {
	return l.Log(&Event{
		Level: LevelError,
		Event: EventError,
		Error: err.Error(),
		Extra: map[string]string{"op": op},
	})
}

// Close flushes and closes the log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the audit log file path
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}
