package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDiffIdentical(t *testing.T) {
	res := computeDiff("konsesjon for oppdrett", "konsesjon for oppdrett")
	assert.Empty(t, res.added)
	assert.Empty(t, res.removed)
	assert.Zero(t, res.changePercent)
}

func TestComputeDiffAddedAndRemoved(t *testing.T) {
	res := computeDiff(
		"Grensen er 0.5 per fisk",
		"Grensen er 0.25 per fisk (NY FORSKRIFT)",
	)

	assert.Contains(t, res.removed, "0.5")
	assert.NotEmpty(t, res.added)
	joined := ""
	for _, span := range res.added {
		joined += span + " "
	}
	assert.Contains(t, joined, "0.25")
	assert.Contains(t, joined, "FORSKRIFT")

	assert.Greater(t, res.changePercent, 0.0)
	assert.Contains(t, res.summary, "- 0.5")
}

func TestComputeDiffDisjointTexts(t *testing.T) {
	res := computeDiff("aaa bbb ccc", "xxx yyy zzz")
	assert.Equal(t, 100.0, res.changePercent)
}

func TestComputeDiffEmptyOld(t *testing.T) {
	res := computeDiff("", "helt ny tekst")
	assert.NotEmpty(t, res.added)
	assert.Empty(t, res.removed)
}

func TestChangePercentBounds(t *testing.T) {
	assert.Equal(t, 0.0, changePercent(0, 0))
	assert.Equal(t, 100.0, changePercent(0, 10))
	assert.Equal(t, 0.0, changePercent(5, 10))
}
