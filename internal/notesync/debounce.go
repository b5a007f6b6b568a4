package notesync

import (
	"sort"
	"time"
)

// debounceQueue holds paths until they have been quiet for delay. It is
// owned by a single goroutine.
type debounceQueue struct {
	delay   time.Duration
	pending map[string]time.Time // path → due
	timer   *time.Timer
}

func newDebounceQueue(delay time.Duration) *debounceQueue {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &debounceQueue{delay: delay, pending: map[string]time.Time{}, timer: t}
}

// C fires when the earliest pending path may be due.
func (q *debounceQueue) C() <-chan time.Time { return q.timer.C }

// add (re)schedules path for now+delay.
func (q *debounceQueue) add(path string, now time.Time) {
	q.pending[path] = now.Add(q.delay)
	q.rearm(now)
}

func (q *debounceQueue) drop(path string) {
	delete(q.pending, path)
}

// due removes and returns the paths whose quiet period has elapsed, sorted,
// and rearms the timer for the rest.
func (q *debounceQueue) due(now time.Time) []string {
	var out []string
	for p, at := range q.pending {
		if !at.After(now) {
			out = append(out, p)
			delete(q.pending, p)
		}
	}
	sort.Strings(out)
	q.rearm(now)
	return out
}

func (q *debounceQueue) rearm(now time.Time) {
	if len(q.pending) == 0 {
		return
	}
	var next time.Time
	for _, at := range q.pending {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	q.timer.Reset(max(next.Sub(now), 0))
}

func (q *debounceQueue) stop() { q.timer.Stop() }
