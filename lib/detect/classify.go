package detect

import "github.com/aquaregwatch/regwatch/lib/models"

// DefaultLargeChangeThreshold is the change percentage above which a diff
// counts as a large rewrite.
const DefaultLargeChangeThreshold = 20.0

// Classifier maps a detected change to a priority level. It is a pure
// function of the change and static configuration.
type Classifier struct {
	largeChangeThreshold float64
}

func NewClassifier(largeChangeThreshold float64) *Classifier {
	if largeChangeThreshold <= 0 {
		largeChangeThreshold = DefaultLargeChangeThreshold
	}
	return &Classifier{largeChangeThreshold: largeChangeThreshold}
}

// Classify applies the priority policy in order, first match wins:
// deadline/sanction keywords are always critical; other keyword hits on a
// high-priority source rank high; a large rewrite ranks at least medium.
func (c *Classifier) Classify(matched []models.Keyword, sourcePriority models.Priority, changePercent float64) models.Priority {
	for _, kw := range matched {
		if kw.Category == models.KeywordDeadline || kw.Category == models.KeywordSanction {
			return models.PriorityCritical
		}
	}

	if len(matched) > 0 && sourcePriority.AtLeast(models.PriorityHigh) {
		return models.PriorityHigh
	}

	if changePercent >= c.largeChangeThreshold {
		return models.PriorityMedium
	}

	return models.PriorityLow
}
