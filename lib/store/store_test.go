package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaregwatch/regwatch/lib/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Snapshot{}, &models.ChangeEvent{}))
	return New(db, zap.NewNop())
}

func snapshotFor(sourceID, text string, at time.Time) *models.Snapshot {
	return &models.Snapshot{
		SourceID:       sourceID,
		ContentHash:    models.DigestContent(text),
		NormalizedText: text,
		FetchedAt:      at,
		FetchStatus:    models.FetchOK,
		WordCount:      2,
		HTTPStatus:     200,
	}
}

func eventFor(sourceID string, at time.Time) *models.ChangeEvent {
	return &models.ChangeEvent{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		DetectedAt: at,
		HasChanges: true,
		Priority:   models.PriorityMedium,
	}
}

func TestCurrentSnapshotMissingSource(t *testing.T) {
	st := newTestStore(t)

	snap, err := st.CurrentSnapshot(context.Background(), "ukjent")
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestCommitCycleReplacesSnapshotInPlace(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, st.CommitCycle(ctx, snapshotFor("mattilsynet-fisk", "gammel tekst", t0), nil))
	require.NoError(t, st.CommitCycle(ctx, snapshotFor("mattilsynet-fisk", "ny tekst", t0.Add(time.Hour)), nil))

	snap, err := st.CurrentSnapshot(ctx, "mattilsynet-fisk")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "ny tekst", snap.NormalizedText)
	assert.Equal(t, models.DigestContent("ny tekst"), snap.ContentHash)

	// Replacement, not accumulation: still exactly one row per source.
	snaps, err := st.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestCommitCycleAppendsEvent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, st.CommitCycle(ctx, snapshotFor("lovdata-akvakulturloven", "v1", t0), nil))
	require.NoError(t, st.CommitCycle(ctx,
		snapshotFor("lovdata-akvakulturloven", "v2", t0.Add(time.Hour)),
		eventFor("lovdata-akvakulturloven", t0.Add(time.Hour))))
	require.NoError(t, st.CommitCycle(ctx,
		snapshotFor("lovdata-akvakulturloven", "v3", t0.Add(2*time.Hour)),
		eventFor("lovdata-akvakulturloven", t0.Add(2*time.Hour))))

	events, err := st.Events(ctx, "lovdata-akvakulturloven", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Most recent first.
	assert.True(t, events[0].DetectedAt.After(events[1].DetectedAt))
}

func TestEventsScopedToSourceAndLimited(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i) * time.Hour)
		require.NoError(t, st.CommitCycle(ctx,
			snapshotFor("a", fmt.Sprintf("v%d", i), at), eventFor("a", at)))
	}
	require.NoError(t, st.CommitCycle(ctx, snapshotFor("b", "annet", t0), eventFor("b", t0)))

	events, err := st.Events(ctx, "a", 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, "a", ev.SourceID)
	}

	// Non-positive limit falls back to the default page size.
	events, err = st.Events(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestSnapshotsOrderedBySource(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, st.CommitCycle(ctx, snapshotFor("sjomat-norge", "c", t0), nil))
	require.NoError(t, st.CommitCycle(ctx, snapshotFor("fiskeridir-akvakultur", "a", t0), nil))
	require.NoError(t, st.CommitCycle(ctx, snapshotFor("mattilsynet-fisk", "b", t0), nil))

	snaps, err := st.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "fiskeridir-akvakultur", snaps[0].SourceID)
	assert.Equal(t, "mattilsynet-fisk", snaps[1].SourceID)
	assert.Equal(t, "sjomat-norge", snaps[2].SourceID)
}
