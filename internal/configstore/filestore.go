// Package configstore provides a ConfigStore implementation for the
// settings gateway (spec.md §4.9): a JSON-encoded key/value file on disk,
// one file per role (`play_with_me` for Client, `play_with_me_controller`
// for Controller per spec.md §6). The settings gateway never needs more
// than string lookup/set, so the store is an opaque string map rather
// than a typed struct like the teacher's cli/internal/config.Config.
package configstore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/fabricmesh/peerfabric/internal/ferr"
)

// FileStore is a mutex-guarded string map persisted to a single JSON file.
// Reads never touch disk; writes rewrite the whole file, which is fine at
// the size and edit frequency this gateway sees.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// Open loads path if it exists, or starts empty if it doesn't — a missing
// config file is the expected state on first run, not an error.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, ferr.Wrap("configstore: open", path, err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, ferr.Wrap("configstore: decode", path, err)
	}
	return s, nil
}

// Get returns the stored value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and persists the whole map to disk.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	data, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return ferr.Wrap("configstore: encode", key, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return ferr.Wrap("configstore: write", s.path, err)
	}
	return nil
}

// Snapshot returns a defensive copy of every stored key/value pair.
func (s *FileStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
