package safety

import "strings"

// severityKeywords assigns a severity weight to terms associated with
// destructive or exfiltration-style operations. This is a heuristic
// surface-cue filter — the kind of fast, explainable check the
// teacher favors in its own routing heuristics (pkg's fast-path
// classification), not a learned classifier.
var severityKeywords = map[string]int{
	"rm -rf":        10,
	"drop table":    9,
	"format disk":   9,
	"delete *":      7,
	"sudo":          5,
	"chmod 777":     4,
	"curl | sh":     8,
	"wget | sh":     8,
	"exfiltrate":    8,
	"private key":   6,
	"credentials":   4,
	"/etc/passwd":   6,
	"shutdown":      5,
}

// ContentFilter scores free text for destructive/unsafe content
// severity on a 0-10 scale (spec §4.3).
type ContentFilter struct {
	blockAt int
}

// NewContentFilter creates a filter that blocks at severity >= blockAt.
func NewContentFilter(blockAt int) *ContentFilter {
	return &ContentFilter{blockAt: blockAt}
}

// Score returns the highest severity of any matched keyword, 0 if
// none match.
func (f *ContentFilter) Score(text string) int {
	lower := strings.ToLower(text)
	max := 0
	for kw, sev := range severityKeywords {
		if strings.Contains(lower, kw) && sev > max {
			max = sev
		}
	}
	return max
}

// Blocks reports whether text's severity meets or exceeds the
// configured block threshold.
func (f *ContentFilter) Blocks(text string) bool {
	return f.Score(text) >= f.blockAt
}
