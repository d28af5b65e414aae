// Package normalize turns raw extracted page text into a canonical form for
// comparison: volatile substrings (dates, clock times, update boilerplate,
// session tokens) are replaced with a fixed placeholder and whitespace runs
// are collapsed. Normalization is pure and idempotent.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder substitutes matched volatile substrings. Substitution rather
// than deletion keeps two genuinely different documents from collapsing to
// the same canonical text.
const Placeholder = "￼"

var whitespace = regexp.MustCompile(`\s+`)

// defaultPatterns cover the noise seen on Norwegian government pages.
var defaultPatterns = []string{
	`\d{1,2}\.\d{1,2}\.\d{4}`, // Norwegian date: DD.MM.YYYY
	`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:\d{2})?)?`, // ISO date/datetime
	`(?i)kl\.?\s*\d{1,2}[:.]\d{2}`,                       // clock time: kl. HH:MM
	`(?i)sist\s+oppdatert:?`,                             // "Last updated"
	`(?i)publisert:?`,                                    // "Published"
	`(?i)(?:jsessionid|phpsessid|sessionid|session)=[0-9a-zA-Z_\-]+`, // session tokens
}

// Rules is a compiled, reusable set of volatile-content patterns.
type Rules struct {
	patterns []*regexp.Regexp
}

// NewRules compiles the default patterns plus any source-specific extras.
// A pattern that fails to compile is a configuration error.
func NewRules(extra ...string) (*Rules, error) {
	raw := append(append([]string{}, defaultPatterns...), extra...)

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("normalize: bad pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &Rules{patterns: patterns}, nil
}

// Normalize produces the canonical comparison form of raw. It performs no
// I/O and reads no clock; identical input always yields identical output.
func (r *Rules) Normalize(raw string) string {
	out := raw
	for _, re := range r.patterns {
		out = re.ReplaceAllString(out, Placeholder)
	}
	out = whitespace.ReplaceAllString(out, " ")
	return strings.Trim(out, " ")
}

// OnlyPlaceholders reports whether s contains nothing but placeholder
// tokens and spacing. Used by the detector to catch diffs that should have
// been erased by normalization.
func OnlyPlaceholders(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	for _, r := range trimmed {
		if r != '￼' && r != ' ' {
			return false
		}
	}
	return true
}
