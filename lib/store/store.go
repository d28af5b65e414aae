// Package store persists the single current snapshot per source and the
// append-only change event log.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aquaregwatch/regwatch/lib/models"
)

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// CurrentSnapshot returns the source's current snapshot, or nil when the
// source has no prior history.
func (s *Store) CurrentSnapshot(ctx context.Context, sourceID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	tx := s.db.WithContext(ctx).Where("source_id = ?", sourceID).First(&snap)
	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if tx.Error != nil {
		return nil, fmt.Errorf("store: load snapshot for %s: %w", sourceID, tx.Error)
	}
	return &snap, nil
}

// CommitCycle atomically replaces the source's current snapshot and, when
// event is non-nil, appends the change event. A cycle that cannot commit
// leaves the previous snapshot authoritative.
func (s *Store) CommitCycle(ctx context.Context, snap *models.Snapshot, event *models.ChangeEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_id"}},
			UpdateAll: true,
		}).Create(snap)
		if res.Error != nil {
			return res.Error
		}

		if event != nil {
			if res := tx.Create(event); res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: commit cycle for %s: %w", snap.SourceID, err)
	}
	return nil
}

// Snapshots lists every source's current snapshot, for history browsing.
func (s *Store) Snapshots(ctx context.Context) (models.Snapshots, error) {
	var snaps models.Snapshots
	tx := s.db.WithContext(ctx).Order("source_id").Find(&snaps)
	if tx.Error != nil {
		return nil, fmt.Errorf("store: list snapshots: %w", tx.Error)
	}
	return snaps, nil
}

// Events lists a source's change events, most recent first.
func (s *Store) Events(ctx context.Context, sourceID string, limit int) (models.ChangeEvents, error) {
	if limit <= 0 {
		limit = 50
	}
	var events models.ChangeEvents
	tx := s.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("detected_at desc").
		Limit(limit).
		Find(&events)
	if tx.Error != nil {
		return nil, fmt.Errorf("store: list events for %s: %w", sourceID, tx.Error)
	}
	return events, nil
}
