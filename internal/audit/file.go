package audit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the audit trail file created inside the log folder.
const FileName = "violation_log.txt"

var ErrClosed = errors.New("audit file closed")

// FileLogger appends a human-readable block per violation to a text file.
type FileLogger struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewFileLogger opens (or creates) FileName inside dir.
func NewFileLogger(dir string) (*FileLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return &FileLogger{path: path, f: f}, nil
}

func (l *FileLogger) Path() string {
	return l.path
}

// Log writes only violation events; other event types are ignored.
func (l *FileLogger) Log(_ context.Context, event Event) error {
	if event.EventType != EventViolationLogged {
		return nil
	}
	event = withDefaults(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return ErrClosed
	}
	if _, err := l.f.WriteString(formatBlock(event)); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

func formatBlock(event Event) string {
	var b strings.Builder

	b.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	fmt.Fprintf(&b, "Violation logged: %s\n", event.Filename)
	fmt.Fprintf(&b, "Timestamp: %s\n", event.Timestamp.Local().Format("2006-01-02 15:04:05"))

	b.WriteString("\nNon-Compliant Items:\n")
	for _, item := range event.Items {
		fmt.Fprintf(&b, "  - %s\n", item)
	}

	b.WriteString("\nIdentified Persons:\n")
	if len(event.Faces) == 0 {
		b.WriteString("  - No faces detected\n")
	}
	for _, face := range event.Faces {
		fmt.Fprintf(&b, "  - %s (Confidence: %.1f%%)\n", face.Name, face.Confidence)
	}

	b.WriteString("\nAll Detections:\n")
	for _, det := range event.Detections {
		fmt.Fprintf(&b, "  - %s: %.2f\n", det.Class, det.Confidence)
	}

	return b.String()
}
