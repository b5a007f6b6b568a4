// Package storage provides the file-system side of the converter: walking the
// source tree for notes and writing rendered PDFs into the destination tree.
package storage

import "iter"

// NoteSource enumerates note files under a root directory.
type NoteSource interface {
	// Root returns the absolute root directory.
	Root() string
	// Notes yields the absolute path of every note file under the root.
	Notes() iter.Seq2[string, error]
	// IsNote reports whether a file name carries the note extension.
	IsNote(name string) bool
	// Resolve maps a path relative to the root to an absolute path,
	// rejecting paths that escape the root.
	Resolve(rel string) (string, error)
}

// Sink stores rendered documents under a root directory.
type Sink interface {
	// Root returns the absolute root directory.
	Root() string
	// Write atomically writes content to path (relative to the root),
	// creating missing parent directories.
	Write(path string, content []byte) error
	// Exists reports whether path (relative to the root) is a regular file.
	Exists(path string) bool
}
