package notesync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a note must stay quiet before it is converted.
// Device sync clients write notes in several chunks.
const DefaultDebounce = time.Second

// Watch converts notes as they are created or modified under the source root
// until ctx is cancelled. Writes are debounced per path. New directories are
// added to the watch list and the notes already inside them are queued.
// Removed notes are only logged; their PDFs are kept.
//
// Conversions run on the calling goroutine, one at a time. Watch returns a
// non-nil error only if the watcher cannot start or the cache cannot be
// written.
func (s *Syncer) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root := s.opts.Source.Root()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s.log.Info("watcher: started", slog.String("root", root))

	q := newDebounceQueue(debounce)
	defer q.stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("watcher: stopped")
			return nil

		case <-q.C():
			for _, p := range q.due(time.Now()) {
				if _, err := s.syncLive(ctx, p); err != nil {
					if ctx.Err() != nil {
						s.log.Info("watcher: stopped")
						return nil
					}
					return err
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(w, q, ev)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (s *Syncer) handleEvent(w *fsnotify.Watcher, q *debounceQueue, ev fsnotify.Event) {
	absPath := ev.Name

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(absPath); err == nil && info.IsDir() {
			if err := addDirsRecursive(w, absPath); err != nil {
				s.log.Warn("watcher: add new dir failed",
					slog.String("path", absPath),
					slog.String("error", err.Error()))
			} else {
				s.log.Debug("watcher: watching new dir", slog.String("path", absPath))
			}
			s.queueDir(q, absPath)
			return
		}
	}

	if !s.opts.Source.IsNote(absPath) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		q.add(absPath, time.Now())
		s.log.Debug("watcher: queued", slog.String("path", absPath), slog.String("op", ev.Op.String()))
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		q.drop(absPath)
		s.log.Info("watcher: note removed, pdf kept", slog.String("path", absPath))
	}
}

// queueDir queues every note already present under dir.
func (s *Syncer) queueDir(q *debounceQueue, dir string) {
	now := time.Now()
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !s.opts.Source.IsNote(d.Name()) {
			return nil
		}
		q.add(p, now)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
