package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hectorcore/hectorcore/internal/types"
)

const (
	tagThought     = "[THOUGHT]"
	tagAction      = "[ACTION]"
	tagAnswer      = "[ANSWER]"
	tagObservation = "[OBSERVATION]"
)

var allTags = []string{tagThought, tagAction, tagAnswer, tagObservation}

// extractTag returns the text between the first occurrence of tag and
// the next recognized tag (or end of string), case-insensitively.
func extractTag(text, tag string) (string, bool) {
	lowerText := strings.ToLower(text)
	lowerTag := strings.ToLower(tag)
	start := strings.Index(lowerText, lowerTag)
	if start < 0 {
		return "", false
	}
	contentStart := start + len(tag)
	end := nextTagIndex(lowerText, contentStart)
	result := strings.TrimSpace(text[contentStart:end])
	return result, result != ""
}

// extractAllTags returns every occurrence of tag's content, in order.
func extractAllTags(text, tag string) []string {
	lowerText := strings.ToLower(text)
	lowerTag := strings.ToLower(tag)

	var results []string
	pos := 0
	for {
		idx := strings.Index(lowerText[pos:], lowerTag)
		if idx < 0 {
			break
		}
		contentStart := pos + idx + len(tag)
		end := nextTagIndex(lowerText, contentStart)
		if result := strings.TrimSpace(text[contentStart:end]); result != "" {
			results = append(results, result)
		}
		pos = end
	}
	return results
}

func nextTagIndex(lowerText string, from int) int {
	end := len(lowerText)
	for _, t := range allTags {
		if idx := strings.Index(lowerText[from:], strings.ToLower(t)); idx >= 0 {
			if abs := from + idx; abs < end {
				end = abs
			}
		}
	}
	return end
}

type actionJSON struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// parseActionJSON finds the first balanced {...} object in text and
// decodes it as an action call.
func parseActionJSON(text string) (types.ToolCall, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return types.ToolCall{}, fmt.Errorf("reasoning: no JSON object found")
	}
	depth := 0
	end := -1
	for i, r := range text[start:] {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = start + i + 1
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return types.ToolCall{}, fmt.Errorf("reasoning: unbalanced JSON object")
	}

	var parsed actionJSON
	if err := json.Unmarshal([]byte(text[start:end]), &parsed); err != nil {
		return types.ToolCall{}, fmt.Errorf("reasoning: parse action: %w", err)
	}
	if parsed.Name == "" {
		return types.ToolCall{}, fmt.Errorf("reasoning: action missing a tool name")
	}
	return types.ToolCall{ID: uuid.NewString(), Name: parsed.Name, Params: parsed.Parameters}, nil
}

// parseStep implements spec §4.5 step 3: extract THOUGHT, then find
// ACTION blocks (non-terminal if any exist — present takes priority
// over ANSWER, to prevent laziness per original_source's comment),
// else ANSWER (terminal). If neither tag is present and the query
// doesn't look action-oriented, the whole response is accepted as the
// answer. Anything else is a parse error for this step.
func parseStep(query, response string) (types.ReasoningStep, error) {
	thought, ok := extractTag(response, tagThought)
	if !ok {
		thought = "Thinking..."
	}

	var calls []types.ToolCall
	for _, raw := range extractAllTags(response, tagAction) {
		if call, err := parseActionJSON(raw); err == nil {
			calls = append(calls, call)
		}
	}
	if len(calls) == 0 {
		if call, err := parseActionJSON(response); err == nil {
			calls = append(calls, call)
		}
	}
	if len(calls) > 0 {
		return types.ReasoningStep{Thought: thought, Actions: calls}, nil
	}

	if answer, ok := extractTag(response, tagAnswer); ok {
		return types.ReasoningStep{Thought: thought, IsTerminal: true, Answer: answer}, nil
	}

	if !isActionQuery(query) && strings.TrimSpace(response) != "" {
		return types.ReasoningStep{
			Thought:    "Conversational response",
			IsTerminal: true,
			Answer:     strings.TrimSpace(response),
		}, nil
	}

	return types.ReasoningStep{}, fmt.Errorf("reasoning: response did not follow the THOUGHT/ACTION/ANSWER format")
}
