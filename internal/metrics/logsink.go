package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LogSink appends records to a JSON-lines file, the durable half of the dual
// persistence scheme.
type LogSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewLogSink opens (creating directories as needed) the metrics log for
// appending.
func NewLogSink(path string) (*LogSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metrics log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metrics log: %w", err)
	}
	return &LogSink{file: file, enc: json.NewEncoder(file)}, nil
}

// Write appends one record as a JSON line.
func (s *LogSink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("append metrics record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *LogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
