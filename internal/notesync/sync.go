// Package notesync drives conversion: it walks the source tree, compares each
// note's fingerprint with the cache, renders changed notes and records the
// new fingerprint as soon as the PDF is on disk.
package notesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/notepdf/internal/apperr"
	"github.com/starford/notepdf/internal/cache"
	"github.com/starford/notepdf/internal/checksum"
	"github.com/starford/notepdf/internal/convert"
	"github.com/starford/notepdf/internal/models"
	"github.com/starford/notepdf/internal/storage"
)

// EventCallback is called once per synced note, after its outcome is final.
type EventCallback func(ev models.ConversionEvent)

// RunPhase marks the start or the end of a pass over the source tree.
type RunPhase string

const (
	RunStarted  RunPhase = "started"
	RunFinished RunPhase = "finished"
)

// RunCallback is called when a pass starts and when it ends, with the
// statistics gathered so far.
type RunCallback func(phase RunPhase, stats models.Stats)

// Options wires a Syncer to its collaborators.
type Options struct {
	Source    storage.NoteSource
	Dest      storage.Sink
	Cache     cache.Store
	Converter convert.Converter
	Logger    *slog.Logger

	// VerifyDest reconverts unchanged notes whose PDF is missing.
	VerifyDest bool
	OnEvent    EventCallback
	OnRun      RunCallback
}

// Syncer converts new and changed notes, one at a time. SyncFile calls are
// serialized, so passes, the watcher and on-demand requests may share one
// Syncer.
type Syncer struct {
	opts Options
	log  *slog.Logger

	work sync.Mutex

	mu   sync.Mutex
	last models.Stats
	live models.Stats
}

// New returns a Syncer. Source, Dest, Cache and Converter are required.
func New(opts Options) (*Syncer, error) {
	switch {
	case opts.Source == nil:
		return nil, errors.New("notesync: source is required")
	case opts.Dest == nil:
		return nil, errors.New("notesync: dest is required")
	case opts.Cache == nil:
		return nil, errors.New("notesync: cache is required")
	case opts.Converter == nil:
		return nil, errors.New("notesync: converter is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{opts: opts, log: log}, nil
}

// Run makes one pass over the source tree. It stops early on a traversal
// error, a cache write error or ctx cancellation; every other failure is
// confined to the note it happened on.
func (s *Syncer) Run(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{StartedAt: time.Now()}
	s.log.Info("sync: started",
		slog.String("source", s.opts.Source.Root()),
		slog.String("dest", s.opts.Dest.Root()),
		slog.Int("cached", s.opts.Cache.Len()))
	s.phase(RunStarted, stats)

	finish := func(err error) (models.Stats, error) {
		stats.FinishedAt = time.Now()
		s.mu.Lock()
		s.last = stats
		s.mu.Unlock()
		s.phase(RunFinished, stats)
		return stats, err
	}

	for notePath, err := range s.opts.Source.Notes() {
		if err != nil {
			return finish(err)
		}
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		outcome, err := s.SyncFile(ctx, notePath)
		stats.Add(outcome)
		if err != nil {
			return finish(err)
		}
	}

	s.log.Info("sync: finished",
		slog.Int("converted", stats.Converted),
		slog.Int("skipped", stats.Skipped),
		slog.Int("empty", stats.Empty),
		slog.Int("failed", stats.Failed))
	return finish(nil)
}

// LastStats returns the statistics of the most recent Run.
func (s *Syncer) LastStats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// LiveStats returns the outcomes of notes synced outside a pass, by the
// watcher or through SyncPath. FinishedAt is the time of the latest one.
func (s *Syncer) LiveStats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// SyncPath syncs the note at rel, a path relative to the source root, and
// counts the outcome in LiveStats.
func (s *Syncer) SyncPath(ctx context.Context, rel string) (models.Outcome, error) {
	notePath, err := s.opts.Source.Resolve(rel)
	if err != nil {
		return "", err
	}
	if !s.opts.Source.IsNote(notePath) {
		return "", fmt.Errorf("notesync: not a note: %s", rel)
	}
	return s.syncLive(ctx, notePath)
}

func (s *Syncer) syncLive(ctx context.Context, notePath string) (models.Outcome, error) {
	outcome, err := s.SyncFile(ctx, notePath)
	s.mu.Lock()
	if s.live.StartedAt.IsZero() {
		s.live.StartedAt = time.Now()
	}
	s.live.Add(outcome)
	s.live.FinishedAt = time.Now()
	s.mu.Unlock()
	return outcome, err
}

// CacheLen returns the number of notes recorded in the cache.
func (s *Syncer) CacheLen() int {
	return s.opts.Cache.Len()
}

// SyncFile converts notePath if its content differs from the cached
// fingerprint. The returned error is non-nil only when the whole run must
// stop (cache persistence failed or ctx was cancelled); per-note failures are
// logged, reported through OnEvent and yield OutcomeFailed.
func (s *Syncer) SyncFile(ctx context.Context, notePath string) (models.Outcome, error) {
	s.work.Lock()
	defer s.work.Unlock()

	ev := models.ConversionEvent{Path: notePath}

	pdfPath, err := convert.DestPath(s.opts.Source.Root(), s.opts.Dest.Root(), notePath)
	if err != nil {
		return s.fail(ev, err), nil
	}
	ev.PDFPath = pdfPath
	pdfRel, err := filepath.Rel(s.opts.Dest.Root(), pdfPath)
	if err != nil {
		return s.fail(ev, err), nil
	}

	hash, err := checksum.File(notePath)
	if err != nil {
		return s.fail(ev, err), nil
	}

	if cached, ok := s.opts.Cache.Get(notePath); ok && cached == hash {
		if !s.opts.VerifyDest || s.opts.Dest.Exists(pdfRel) {
			s.log.Debug("sync: unchanged", slog.String("path", notePath))
			return s.emit(ev, models.OutcomeSkipped), nil
		}
		s.log.Info("sync: pdf missing, reconverting", slog.String("path", notePath))
	}

	s.log.Info("sync: converting", slog.String("path", notePath))
	data, err := s.opts.Converter.Convert(ctx, notePath)
	switch {
	case errors.Is(err, apperr.ErrEmptyResult):
		s.log.Warn("sync: no data for note", slog.String("path", notePath))
		return s.emit(ev, models.OutcomeEmpty), nil
	case errors.Is(err, context.Canceled):
		return models.OutcomeFailed, err
	case err != nil:
		return s.fail(ev, err), nil
	}

	if err := s.opts.Dest.Write(pdfRel, data); err != nil {
		return s.fail(ev, err), nil
	}

	if err := s.opts.Cache.Put(notePath, hash); err != nil {
		s.fail(ev, err)
		return models.OutcomeFailed, fmt.Errorf("notesync: record %s: %w", notePath, err)
	}

	s.log.Info("sync: saved pdf", slog.String("path", notePath), slog.String("pdf", pdfPath))
	return s.emit(ev, models.OutcomeConverted), nil
}

func (s *Syncer) fail(ev models.ConversionEvent, err error) models.Outcome {
	ev.Kind = apperr.Kind(err)
	ev.Error = err.Error()
	s.log.Warn("sync: note failed",
		slog.String("path", ev.Path),
		slog.String("kind", ev.Kind),
		slog.String("error", ev.Error))
	return s.emit(ev, models.OutcomeFailed)
}

func (s *Syncer) phase(p RunPhase, stats models.Stats) {
	if s.opts.OnRun != nil {
		s.opts.OnRun(p, stats)
	}
}

func (s *Syncer) emit(ev models.ConversionEvent, o models.Outcome) models.Outcome {
	ev.Outcome = o
	ev.At = time.Now()
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
	return o
}
