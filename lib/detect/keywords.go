package detect

import (
	"strings"

	"github.com/aquaregwatch/regwatch/lib/models"
)

// matchKeywords scans changed spans (never the whole document) for the
// configured significance terms. Matching is case-insensitive and safe for
// Norwegian letters since everything stays at the codepoint level.
func matchKeywords(spans []string, keywords []models.Keyword) []models.Keyword {
	if len(spans) == 0 || len(keywords) == 0 {
		return nil
	}

	haystack := strings.ToLower(strings.Join(spans, " "))

	var matched []models.Keyword
	seen := make(map[string]bool)
	for _, kw := range keywords {
		term := strings.ToLower(kw.Term)
		if term == "" || seen[term] {
			continue
		}
		if strings.Contains(haystack, term) {
			matched = append(matched, kw)
			seen[term] = true
		}
	}
	return matched
}

func keywordTerms(kws []models.Keyword) []string {
	terms := make([]string, 0, len(kws))
	for _, kw := range kws {
		terms = append(terms, kw.Term)
	}
	return terms
}
