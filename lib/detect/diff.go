package detect

import (
	"fmt"
	"math"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const maxSummaryLines = 100

type diffResult struct {
	added   []string
	removed []string
	summary string

	// changePercent is the share of combined content not covered by
	// matching segments, 0-100.
	changePercent float64
}

// computeDiff runs a token-level diff over two normalized texts. The texts
// are whitespace-collapsed, so words are rewritten as lines to reuse the
// line-mode speedup, then contiguous changed runs come back as spans.
func computeDiff(oldText, newText string) diffResult {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(
		strings.ReplaceAll(oldText, " ", "\n"),
		strings.ReplaceAll(newText, " ", "\n"),
	)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var res diffResult
	var summary []string
	var equalLen int

	for _, d := range diffs {
		span := strings.TrimSpace(strings.ReplaceAll(d.Text, "\n", " "))

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			equalLen += len([]rune(d.Text))

		case diffmatchpatch.DiffInsert:
			if span != "" {
				res.added = append(res.added, span)
				summary = append(summary, "+ "+span)
			}

		case diffmatchpatch.DiffDelete:
			if span != "" {
				res.removed = append(res.removed, span)
				summary = append(summary, "- "+span)
			}
		}
	}

	if len(summary) > maxSummaryLines {
		trimmed := len(summary) - maxSummaryLines
		summary = append(summary[:maxSummaryLines], fmt.Sprintf("… %d more spans", trimmed))
	}
	res.summary = strings.Join(summary, "\n")
	res.changePercent = changePercent(equalLen, len([]rune(oldText))+len([]rune(newText)))
	return res
}

func changePercent(equalLen, totalLen int) float64 {
	if totalLen == 0 {
		return 0
	}
	ratio := 2 * float64(equalLen) / float64(totalLen)
	if ratio > 1 {
		ratio = 1
	}
	return math.Round((1-ratio)*100*100) / 100
}
