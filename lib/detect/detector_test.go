package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aquaregwatch/regwatch/lib/fetch"
	"github.com/aquaregwatch/regwatch/lib/models"
	"github.com/aquaregwatch/regwatch/lib/normalize"
	"github.com/aquaregwatch/regwatch/lib/store"
)

func newTestDetector(t *testing.T, keywords []models.Keyword) (*Detector, *store.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Snapshot{}, &models.ChangeEvent{}))

	st := store.New(db, zap.NewNop())
	return NewDetector(st, NewClassifier(20), keywords, zap.NewNop()), st
}

func testSource(priority models.Priority) *models.Source {
	return &models.Source{
		ID:            "fiskeridir-akvakultur",
		URL:           "https://www.fiskeridir.no/Akvakultur",
		Category:      "aquaculture",
		Priority:      priority,
		CheckInterval: time.Hour,
	}
}

func fetchResult() *fetch.Result {
	return &fetch.Result{Status: models.FetchOK, HTTPStatus: 200, Elapsed: 120 * time.Millisecond}
}

func TestDetectFirstRunEstablishesBaseline(t *testing.T) {
	d, st := newTestDetector(t, nil)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	event, err := d.Detect(ctx, src, "første innhold", fetchResult())
	require.NoError(t, err)
	assert.Nil(t, event, "first run must never count as a change")

	snap, err := st.CurrentSnapshot(ctx, src.ID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, models.DigestContent("første innhold"), snap.ContentHash)

	events, err := st.Events(ctx, src.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDetectUnchangedRefreshesFetchedAt(t *testing.T) {
	d, st := newTestDetector(t, nil)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	t0 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return t0 }
	_, err := d.Detect(ctx, src, "stabilt innhold", fetchResult())
	require.NoError(t, err)

	t1 := t0.Add(time.Hour)
	d.now = func() time.Time { return t1 }
	event, err := d.Detect(ctx, src, "stabilt innhold", fetchResult())
	require.NoError(t, err)
	assert.Nil(t, event)

	snap, err := st.CurrentSnapshot(ctx, src.ID)
	require.NoError(t, err)
	assert.True(t, snap.FetchedAt.Equal(t1), "unchanged cycle must still refresh fetched_at")

	events, err := st.Events(ctx, src.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDetectRegulatoryChange(t *testing.T) {
	keywords := []models.Keyword{
		{Term: "forskrift", Category: models.KeywordRegulatory},
		{Term: "lakselus", Category: models.KeywordGeneral},
	}
	d, st := newTestDetector(t, keywords)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	_, err := d.Detect(ctx, src, "Lakselusgrense: 0.5 per fisk", fetchResult())
	require.NoError(t, err)

	event, err := d.Detect(ctx, src, "Lakselusgrense: 0.25 per fisk (NY FORSKRIFT)", fetchResult())
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.True(t, event.HasChanges)
	assert.Contains(t, event.KeywordsFound, "forskrift")
	assert.True(t, event.Priority.AtLeast(models.PriorityHigh),
		"got priority %s", event.Priority)
	assert.Equal(t, models.DigestContent("Lakselusgrense: 0.5 per fisk"), event.PreviousHash)
	assert.NotEqual(t, event.PreviousHash, event.NewHash)

	// Committed before reported.
	snap, err := st.CurrentSnapshot(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, event.NewHash, snap.ContentHash)

	events, err := st.Events(ctx, src.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
}

func TestDetectKeywordAbsenceStillReportsChange(t *testing.T) {
	d, _ := newTestDetector(t, []models.Keyword{{Term: "forskrift", Category: models.KeywordRegulatory}})
	ctx := context.Background()
	src := testSource(models.PriorityLow)

	oldText := "dette er en ganske lang tekst om akvakultur og andre temaer langs kysten av Norge"
	newText := "dette er en ganske lang tekst om akvakultur og andre emner langs kysten av Norge"

	_, err := d.Detect(ctx, src, oldText, fetchResult())
	require.NoError(t, err)

	event, err := d.Detect(ctx, src, newText, fetchResult())
	require.NoError(t, err)
	require.NotNil(t, event, "missing keywords must never suppress detection")
	assert.True(t, event.HasChanges)
	assert.Empty(t, event.KeywordsFound)
	assert.Equal(t, models.PriorityLow, event.Priority)
}

func TestDetectNoiseOnlyChangeEndToEnd(t *testing.T) {
	rules, err := normalize.NewRules()
	require.NoError(t, err)

	d, _ := newTestDetector(t, nil)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	oldRaw := "Regelverk for akvakultur. Sist oppdatert: 01.01.2026"
	newRaw := "Regelverk for akvakultur. Sist oppdatert: 03.02.2026"

	_, err = d.Detect(ctx, src, rules.Normalize(oldRaw), fetchResult())
	require.NoError(t, err)

	event, err := d.Detect(ctx, src, rules.Normalize(newRaw), fetchResult())
	require.NoError(t, err)
	assert.Nil(t, event, "timestamp-only difference must not raise a change")
}

func TestDetectPlaceholderOnlyDiffIsAnomaly(t *testing.T) {
	d, st := newTestDetector(t, nil)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	ph := normalize.Placeholder
	_, err := d.Detect(ctx, src, "tekst "+ph+" slutt", fetchResult())
	require.NoError(t, err)

	event, err := d.Detect(ctx, src, "tekst "+ph+" "+ph+" slutt", fetchResult())
	require.NoError(t, err)
	assert.Nil(t, event, "a diff of pure placeholder tokens is a no-op")

	events, err := st.Events(ctx, src.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDetectBoundsExcerpts(t *testing.T) {
	d, _ := newTestDetector(t, nil)
	ctx := context.Background()
	src := testSource(models.PriorityHigh)

	long := ""
	for i := 0; i < 3000; i++ {
		long += "å"
	}

	_, err := d.Detect(ctx, src, "kort", fetchResult())
	require.NoError(t, err)

	event, err := d.Detect(ctx, src, long, fetchResult())
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.LessOrEqual(t, len([]rune(event.RawAfter)), maxExcerptRunes)
}
