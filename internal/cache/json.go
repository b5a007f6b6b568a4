package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/starford/notepdf/internal/apperr"
)

// LoadJSON reads the cache file at path. A missing file yields an empty map;
// unparsable content is reported as apperr.ErrCacheCorrupt. Keys written by
// SaveJSON come back byte for byte, including non-UTF-8 file names.
func LoadJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(maskEscapes(data), &raw); err != nil {
		return nil, fmt.Errorf("cache: parse %s: %w: %w", path, apperr.ErrCacheCorrupt, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[unmaskKey(k)] = v
	}
	return out, nil
}

// SaveJSON replaces the cache file at path with entries, indented.
func SaveJSON(path string, entries map[string]string) error {
	masked := make(map[string]string, len(entries))
	for k, v := range entries {
		masked[maskKey(k)] = v
	}
	data, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	data = append(surrogateEscapes(data), '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("cache: write %s: %w: %w", path, apperr.ErrIOWrite, err)
	}
	return nil
}

// JSONStore keeps the whole mapping in memory and rewrites the file on every
// Put. It is safe for concurrent use.
type JSONStore struct {
	path string

	mu      sync.RWMutex
	entries map[string]string
}

// OpenJSON loads the JSON cache at path.
func OpenJSON(path string) (*JSONStore, error) {
	entries, err := LoadJSON(path)
	if err != nil {
		return nil, err
	}
	return &JSONStore{path: path, entries: entries}, nil
}

// Get returns the fingerprint recorded for path.
func (s *JSONStore) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.entries[path]
	return h, ok
}

// Put records hash for path and persists the full mapping. On a write
// failure the in-memory entry is rolled back.
func (s *JSONStore) Put(path, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.entries[path]
	s.entries[path] = hash
	if err := SaveJSON(s.path, s.entries); err != nil {
		if had {
			s.entries[path] = prev
		} else {
			delete(s.entries, path)
		}
		return err
	}
	return nil
}

// Len returns the number of entries.
func (s *JSONStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close is a no-op; every Put is already on disk.
func (s *JSONStore) Close() error { return nil }
