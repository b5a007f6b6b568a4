// Package models defines the domain types for notepdf.
package models

import "time"

// Outcome is the result of syncing a single note.
type Outcome string

const (
	OutcomeConverted Outcome = "converted"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
)

// Stats summarises one pass over the source tree.
type Stats struct {
	Converted  int       `json:"converted"`
	Skipped    int       `json:"skipped"`
	Empty      int       `json:"empty"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Add records one outcome.
func (s *Stats) Add(o Outcome) {
	switch o {
	case OutcomeConverted:
		s.Converted++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeEmpty:
		s.Empty++
	case OutcomeFailed:
		s.Failed++
	}
}

// Total returns the number of notes seen.
func (s Stats) Total() int {
	return s.Converted + s.Skipped + s.Empty + s.Failed
}

// HasFailures reports whether any note failed to convert.
func (s Stats) HasFailures() bool {
	return s.Failed > 0
}

// ConversionEvent describes what happened to one note.
type ConversionEvent struct {
	Path    string    `json:"path"`
	PDFPath string    `json:"pdf_path,omitempty"`
	Outcome Outcome   `json:"outcome"`
	Kind    string    `json:"kind,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}
