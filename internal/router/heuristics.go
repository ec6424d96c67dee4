package router

import "strings"

// The keyword tables below are grounded on original_source's
// src/orchestrator/router.rs is_*_related helpers, translated
// line-for-line into Go's idiom (a lowercased query, scanned against
// a flat keyword slice) rather than the original's regex-per-category
// approach.

var greetingPhrases = []string{"hi", "hello", "hey", "howdy", "greetings", "good morning", "good afternoon", "good evening"}

var identityPhrases = []string{"who are you", "what is your name", "what are you", "your identity", "your name"}

var filesystemKeywords = []string{
	"list", "folder", "directory", "file", "ls", "dir", "tree", "structure",
	"show files", "show folders", "what is in", "contents of", "read ",
}

var codeKeywords = []string{
	"code", "function", "program", "script", "bug", "error", "compile",
	"debug", "implement", "algorithm", "class", "method", "variable",
	"rust", "python", "javascript", "typescript", "java", "c++", "golang",
	"write a", "create a", "fix the", "refactor",
}

var planningKeywords = []string{
	"plan", "schedule", "steps", "how to", "break down", "organize",
	"roadmap", "workflow", "process", "strategy", "goal", "milestone",
}

var researchKeywords = []string{
	"search", "find", "look up", "research",
	"latest", "current", "news", "information about", "tell me about",
}

var knowledgeGraphKeywords = []string{"graph", "relationship", "visualize"}

var toolVerbs = []string{"use ", "run ", "execute ", "invoke ", "call "}
var toolNames = []string{"speaker", "search", "shell", "browser", "file", "terminal"}

func containsAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func isGreeting(q string) bool {
	for _, g := range greetingPhrases {
		if q == g || strings.HasPrefix(q, g) {
			return true
		}
	}
	return false
}

func isIdentityQuery(q string) bool {
	return containsAny(q, identityPhrases)
}

func isFilesystemRelated(q string) bool { return containsAny(q, filesystemKeywords) }
func isCodeRelated(q string) bool       { return containsAny(q, codeKeywords) }
func isPlanningRelated(q string) bool   { return containsAny(q, planningKeywords) }
func isResearchRelated(q string) bool   { return containsAny(q, researchKeywords) }
func isKnowledgeGraphRelated(q string) bool { return containsAny(q, knowledgeGraphKeywords) }

func hasURL(q string) bool {
	return strings.Contains(q, "http://") || strings.Contains(q, "https://") ||
		strings.Contains(q, ".com") || strings.Contains(q, ".org")
}

// mentionsTool detects an explicit tool-use request: "use X", "run X",
// or "X tool" where X names a known tool.
func mentionsTool(q string) bool {
	hasVerb := containsAny(q, toolVerbs)
	mentionsName := containsAny(q, toolNames)
	return (hasVerb && len(q) > 5) || (strings.Contains(q, "tool") && mentionsName)
}

// isComplexQuery detects multi-step phrasing ("do X and then Y").
func isComplexQuery(q string) bool {
	return strings.Contains(q, " and ") || strings.Contains(q, " then ") ||
		strings.Contains(q, ", then ") || strings.Contains(q, " and finally ")
}
