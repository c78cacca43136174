// Package audit provides structured event logging for environment lifecycle events.
// Events are stored as JSON Lines (JSONL) files, one per project identity.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventProvision EventType = "provision"
	EventRename    EventType = "rename"
	EventBootstrap EventType = "bootstrap"
	EventMigrate   EventType = "migrate"
	EventMissing   EventType = "missing"
	EventDestroy   EventType = "destroy"
	EventError     EventType = "error"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ProjectID string    `json:"projectId"`
	Container string    `json:"container,omitempty"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads audit events for project identities.
// Events are stored in {dir}/{projectId}.events.jsonl.
type Logger struct {
	dir string
	fs  system.FileSystem
	now func() time.Time
}

// NewLogger creates a new audit logger rooted at dir.
func NewLogger(dir string, fsys system.FileSystem) *Logger {
	if fsys == nil {
		fsys = system.DefaultFS()
	}
	return &Logger{dir: dir, fs: fsys, now: time.Now}
}

// eventPath returns the path to the JSONL event log for a project.
func (l *Logger) eventPath(projectID string) string {
	return filepath.Join(l.dir, fileName(projectID)+".events.jsonl")
}

// fileName maps a project identity to a safe file name. Host-supplied
// identities may contain path separators.
func fileName(projectID string) string {
	if projectID == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, projectID)
}

// Log appends an event to the project's audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	if err := l.fs.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := l.fs.AppendFile(l.eventPath(event.ProjectID), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// LogEvent is a convenience method that creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, projectID, container, details string) error {
	return l.Log(Event{
		Type:      eventType,
		ProjectID: projectID,
		Container: container,
		Details:   details,
	})
}

// Events reads all events for a project in chronological order.
func (l *Logger) Events(projectID string) ([]Event, error) {
	data, err := l.fs.ReadFile(l.eventPath(projectID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	var events []Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}
	return events, nil
}

// Remove deletes the audit log for a project.
func (l *Logger) Remove(projectID string) error {
	if err := l.fs.Remove(l.eventPath(projectID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
