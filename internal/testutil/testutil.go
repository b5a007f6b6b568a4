// Package testutil provides shared test helpers for building note trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notepdf/internal/storage"
)

// WriteFile writes content to rel under root, creating parent directories.
// It returns the absolute path.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestTree creates a temporary source tree holding files (relative path →
// content) and returns an FS over it.
func TestTree(t *testing.T, files map[string]string) *storage.FS {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
	fs, err := storage.NewFS(root, storage.DefaultNoteExt)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}

// TestSink creates an empty temporary destination directory.
func TestSink(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir(), storage.DefaultNoteExt)
	if err != nil {
		t.Fatal(err)
	}
	return fs
}
