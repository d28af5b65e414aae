// Package detect compares a new normalized snapshot against the stored
// previous one, computes the diff, and decides how significant it is.
package detect

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/lib/fetch"
	"github.com/aquaregwatch/regwatch/lib/models"
	"github.com/aquaregwatch/regwatch/lib/normalize"
	"github.com/aquaregwatch/regwatch/lib/store"
)

const maxExcerptRunes = 2000

type Detector struct {
	store      *store.Store
	classifier *Classifier
	keywords   []models.Keyword
	log        *zap.Logger
	audit      *zap.Logger

	now func() time.Time
}

func NewDetector(st *store.Store, classifier *Classifier, keywords []models.Keyword, log *zap.Logger) *Detector {
	return &Detector{
		store:      st,
		classifier: classifier,
		keywords:   keywords,
		log:        log,
		audit:      log.Named("audit"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Detect runs one detection cycle for a source whose fetch succeeded. The
// returned event is nil on first-run baselines and unchanged content. The
// new snapshot is committed before any event is reported, so a store
// failure never produces an event that would re-trigger on the next fetch.
func (d *Detector) Detect(ctx context.Context, src *models.Source, normalized string, res *fetch.Result) (*models.ChangeEvent, error) {
	prev, err := d.store.CurrentSnapshot(ctx, src.ID)
	if err != nil {
		return nil, err
	}

	newHash := models.DigestContent(normalized)
	snap := &models.Snapshot{
		SourceID:       src.ID,
		ContentHash:    newHash,
		NormalizedText: normalized,
		FetchedAt:      d.now(),
		FetchStatus:    models.FetchOK,
		WordCount:      res.WordCount,
		HTTPStatus:     res.HTTPStatus,
		ResponseTimeMS: res.Elapsed.Milliseconds(),
	}

	if prev == nil {
		// First run establishes the baseline; never a change.
		d.log.Sugar().Infow("baseline established", "source", src.ID, "hash", newHash[:12])
		return nil, d.store.CommitCycle(ctx, snap, nil)
	}

	if prev.ContentHash == newHash {
		// Unchanged content still refreshes fetched_at.
		return nil, d.store.CommitCycle(ctx, snap, nil)
	}

	diff := computeDiff(prev.NormalizedText, normalized)

	if placeholderOnly(diff) {
		// Hashes differed but every changed span is normalizer output.
		// That should have been collapsed upstream; treat as no change.
		d.audit.Sugar().Warnw("placeholder-only diff anomaly",
			"source", src.ID, "previous_hash", prev.ContentHash[:12], "new_hash", newHash[:12])
		return nil, d.store.CommitCycle(ctx, snap, nil)
	}

	matched := matchKeywords(append(append([]string{}, diff.added...), diff.removed...),
		append(append([]models.Keyword{}, d.keywords...), src.Keywords...))

	event := &models.ChangeEvent{
		ID:            uuid.NewString(),
		SourceID:      src.ID,
		DetectedAt:    snap.FetchedAt,
		PreviousHash:  prev.ContentHash,
		NewHash:       newHash,
		HasChanges:    true,
		DiffSummary:   diff.summary,
		AddedSpans:    diff.added,
		RemovedSpans:  diff.removed,
		ChangePercent: diff.changePercent,
		KeywordsFound: keywordTerms(matched),
		Priority:      d.classifier.Classify(matched, src.Priority, diff.changePercent),
		RawBefore:     excerpt(prev.NormalizedText),
		RawAfter:      excerpt(normalized),
	}

	if err := d.store.CommitCycle(ctx, snap, event); err != nil {
		return nil, err
	}

	d.log.Sugar().Infow("change detected",
		"source", src.ID,
		"change_percent", diff.changePercent,
		"keywords", event.KeywordsFound,
		"priority", event.Priority,
	)
	return event, nil
}

func placeholderOnly(diff diffResult) bool {
	for _, span := range diff.added {
		if !normalize.OnlyPlaceholders(span) {
			return false
		}
	}
	for _, span := range diff.removed {
		if !normalize.OnlyPlaceholders(span) {
			return false
		}
	}
	return true
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptRunes {
		return s
	}
	return string(runes[:maxExcerptRunes])
}
