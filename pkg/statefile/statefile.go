// Package statefile is a small local key-value store backed by a single JSON
// file. Each key holds an opaque JSON document; the whole file is rewritten
// on every mutation. It is the persistence layer for the single-site
// attendance state and is not safe for concurrent writers.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store reads and writes keyed JSON documents in one state file
type Store struct {
	path   string
	logger *zap.Logger
	data   map[string]json.RawMessage
}

// Open loads the state file at path, creating parent directories as needed.
// A missing file starts empty. A corrupt file is treated as empty rather
// than failing: losing the cache beats refusing to start.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{
		path:   path,
		logger: logger,
		data:   make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn("State file is corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err))
		s.data = make(map[string]json.RawMessage)
	}

	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Get unmarshals the value under key into out. It returns false without
// touching out when the key is absent. A value that no longer parses is
// treated the same as an absent key.
func (s *Store) Get(key string, out interface{}) bool {
	raw, ok := s.data[key]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("State value is corrupt, treating as absent",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}

// Set marshals value under key and persists the whole store
func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %q: %w", key, err)
	}
	s.data[key] = raw
	return s.flush()
}

// flush writes the store atomically via a temp file rename
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
