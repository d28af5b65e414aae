package models

import "time"

// ChangeEvent records one detected content change for a source. Events are
// append-only: created once by the detector, persisted by the store, and
// never mutated afterwards.
type ChangeEvent struct {
	ID         string `gorm:"primaryKey"`
	SourceID   string `gorm:"index:idx_source_detected"`
	DetectedAt time.Time `gorm:"index:idx_source_detected"`

	PreviousHash string
	NewHash      string
	HasChanges   bool

	// DiffSummary is a unified-style rendering of the changed lines.
	DiffSummary  string
	AddedSpans   []string `gorm:"serializer:json"`
	RemovedSpans []string `gorm:"serializer:json"`

	// ChangePercent is the share of content affected by the diff, 0-100.
	ChangePercent float64

	KeywordsFound []string `gorm:"serializer:json"`
	Priority      Priority

	// Bounded excerpts of the normalized before/after text, kept for audits.
	RawBefore string
	RawAfter  string
}

type ChangeEvents []ChangeEvent
