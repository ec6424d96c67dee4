package reasoning

import "strings"

// actionKeywords mirrors original_source's is_action_query: a query
// containing any of these likely needs a tool, so a terminal answer
// with no prior tool use is suspect (the laziness filter) and a
// response with no THOUGHT/ACTION/ANSWER tags at all is NOT eligible
// for the conversational fallback.
var actionKeywords = []string{
	"create", "write", "search", "find", "analyze", "list", "run", "execute",
	"debug", "fix", "refactor", "index", "show", "what is in", "contents",
	"http://", "https://", ".com", ".org", ".net", ".io",
}

func isActionQuery(query string) bool {
	q := strings.ToLower(query)
	for _, k := range actionKeywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}
