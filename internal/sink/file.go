package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ubc-systopia/usntap/internal/activity"
	"github.com/ubc-systopia/usntap/pkg/id"
)

// FileSink appends events to a JSONL batch log, one file per run. The
// log is the handoff artifact between the collect and record commands;
// redelivered events may appear twice in it, and the recorder's ingest
// dedups them.
type FileSink struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	events int64
}

// NewFileSink creates a fresh batch log under dir. File names embed a
// time-ordered run id, so a directory listing sorts runs
// chronologically.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: create output dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("usn_activity_%s.jsonl", id.NewRunID()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: create batch log %s: %w", path, err)
	}
	return &FileSink{path: path, f: f}, nil
}

// Append writes the batch and fsyncs before returning. The whole batch
// is encoded up front so an encoding failure writes nothing.
func (s *FileSink) Append(ctx context.Context, events []activity.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, ev := range events {
		line, err := activity.EncodeLine(ev)
		if err != nil {
			return err
		}
		buf.Write(line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("sink: batch log %s is closed", s.path)
	}
	if _, err := s.f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("sink: append to %s: %w", s.path, err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sink: sync %s: %w", s.path, err)
	}
	s.events += int64(len(events))
	return nil
}

// Path returns the batch log's location.
func (s *FileSink) Path() string {
	return s.path
}

// Events returns how many events have been appended.
func (s *FileSink) Events() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return fmt.Errorf("sink: close %s: %w", s.path, err)
	}
	return nil
}
