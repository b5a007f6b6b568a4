// Package cache persists the mapping from source note path to the content
// fingerprint it was last converted from.
package cache

import "fmt"

// Backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store is a durable path → fingerprint mapping. Put must persist before it
// returns so that a crash loses at most the entry being written.
type Store interface {
	Get(path string) (string, bool)
	Put(path, hash string) error
	Len() int
	Close() error
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Open opens the store for backend at path. An empty backend means JSON.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return OpenJSON(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", backend)
	}
}
