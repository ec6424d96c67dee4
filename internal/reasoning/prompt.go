package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/types"
)

const formatInstructions = `## Response Format

Strictly follow this format:

[THOUGHT]
Your reasoning.

[ACTION]
{"name": "tool", "parameters": {...}}
(Provide multiple [ACTION] blocks for parallel execution.)

[ANSWER]
Your final response.

Rules:
1. Never emit both [ACTION] and [ANSWER] in the same response.
2. Never generate an [OBSERVATION] block yourself — those come from tool execution.
3. Parallel tool calls within one step are encouraged when independent.
`

// buildPrompt assembles the reasoning-loop prompt: system instructions,
// supplied context, the allow-listed tool catalog, the strict format
// instructions, the trace so far, and any queued steering message
// (spec §4.5, grounded on original_source's ReActAgent::build_react_prompt).
func (l *Loop) buildPrompt(query, contextText string, trace []types.ReasoningStep, steerHint string) []llmprovider.Message {
	var system strings.Builder
	system.WriteString(l.cfg.SystemPrompt)
	system.WriteString("\n\n")
	if contextText != "" {
		system.WriteString("## Context\n")
		system.WriteString(contextText)
		system.WriteString("\n\n")
	}
	system.WriteString("## Available Tools\n")
	system.WriteString(l.tools.ToolsPrompt(l.cfg.AllowedTools))
	system.WriteString("\n")
	system.WriteString(formatInstructions)

	var user strings.Builder
	fmt.Fprintf(&user, "## User Query\n%s\n\n", query)

	if len(trace) > 0 {
		user.WriteString("## Trace\n")
		for _, step := range trace {
			fmt.Fprintf(&user, "[THOUGHT]\n%s\n", step.Thought)
			for _, call := range step.Actions {
				fmt.Fprintf(&user, "[ACTION]\n%s\n", renderActionJSON(call))
			}
			for _, obs := range step.Observations {
				fmt.Fprintf(&user, "[OBSERVATION]\n%s\n", observationText(obs))
			}
			user.WriteString("\n")
		}
	}

	if steerHint != "" {
		fmt.Fprintf(&user, "## Steering Instruction (high priority, from the user)\n%s\n\n", steerHint)
	}

	user.WriteString("Continue:\n")

	return []llmprovider.Message{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user.String()},
	}
}

func renderActionJSON(call types.ToolCall) string {
	b, err := json.Marshal(struct {
		Name       string         `json:"name"`
		Parameters map[string]any `json:"parameters"`
	}{Name: call.Name, Parameters: call.Params})
	if err != nil {
		return fmt.Sprintf(`{"name": %q, "parameters": {}}`, call.Name)
	}
	return string(b)
}

func observationText(out types.ToolOutput) string {
	if !out.Success {
		if out.Error != "" {
			return "ERROR: " + out.Error
		}
		return "ERROR: tool call failed"
	}
	return out.Summary
}
