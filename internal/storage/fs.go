package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/starford/notepdf/internal/apperr"
)

// DefaultNoteExt is the extension of Supernote note files.
const DefaultNoteExt = ".note"

// FS implements NoteSource and Sink backed by the local file system.
type FS struct {
	root string // absolute path
	ext  string
}

// NewFS creates a new FS rooted at the given directory.
// The directory must already exist. ext selects the files Notes yields;
// an empty ext means DefaultNoteExt.
func NewFS(root, ext string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if ext == "" {
		ext = DefaultNoteExt
	}
	return &FS{root: abs, ext: ext}, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string { return f.root }

// IsNote reports whether name carries the note extension.
func (f *FS) IsNote(name string) bool {
	return strings.HasSuffix(name, f.ext)
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// Resolve returns the absolute path of rel under the root.
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", errors.New("storage: empty path")
	}
	return f.safePath(rel)
}

// Notes walks the root lazily and yields every regular file whose name ends
// with the note extension. A walk error is yielded once, wrapped in
// apperr.ErrTraversal, and ends the sequence. Each range starts a new walk.
func (f *FS) Notes() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := errors.New("stop")
		err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() || !f.IsNote(d.Name()) {
				return nil
			}
			if !yield(p, nil) {
				return stopped
			}
			return nil
		})
		if err != nil && !errors.Is(err, stopped) {
			yield("", fmt.Errorf("storage: walk %s: %w: %w", f.root, apperr.ErrTraversal, err))
		}
	}
}

// Write atomically replaces path with content.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrIOWrite, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w: %w", apperr.ErrIOWrite, err)
	}
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w: %w", path, apperr.ErrIOWrite, err)
	}
	return nil
}

// Exists reports whether path is a regular file under the root.
func (f *FS) Exists(path string) bool {
	abs, err := f.safePath(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}
