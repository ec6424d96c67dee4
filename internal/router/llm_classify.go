package router

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/types"
)

const classificationSystemPrompt = `You are a query router. Classify the user's query into exactly one
agent and say whether memory search is needed. Respond with a single
JSON object: {"agent": "...", "memory": "yes"|"no", "reason": "..."}.
Valid agents: general_chat, reasoner, coder, researcher, planner.`

var (
	agentLineRe  = regexp.MustCompile(`(?i)AGENT:\s*(\w+)`)
	memoryLineRe = regexp.MustCompile(`(?i)MEMORY:\s*(yes|no)`)
	reasonLineRe = regexp.MustCompile(`(?i)REASON:\s*(.+)`)
)

type llmRoutingReply struct {
	Agent  string `json:"agent"`
	Memory string `json:"memory"`
	Reason string `json:"reason"`
}

func agentFromString(s string) types.AgentKind {
	switch strings.ToLower(s) {
	case "general_chat", "generalchat", "chat":
		return types.AgentGeneralChat
	case "coder", "programmer", "developer":
		return types.AgentCoder
	case "researcher", "research":
		return types.AgentResearcher
	case "planner", "planning":
		return types.AgentPlanner
	case "reviewer":
		return types.AgentReviewer
	default:
		return types.AgentReasoner
	}
}

// classifyWithLLM asks the fallback provider to classify query when no
// heuristic fired, grounded on original_source's Router::llm_route +
// parse_routing_response: try a JSON reply first, then fall back to
// AGENT:/MEMORY:/REASON: line parsing for models that ignore the JSON
// instruction.
func classifyWithLLM(ctx context.Context, provider llmprovider.Provider, query string) (types.RoutingDecision, error) {
	messages := []llmprovider.Message{
		{Role: "system", Content: classificationSystemPrompt},
		{Role: "user", Content: query},
	}

	resp, err := provider.Generate(ctx, messages, nil)
	if err != nil {
		return types.RoutingDecision{}, fmt.Errorf("router: llm classification: %w", err)
	}

	return parseRoutingReply(resp.Text), nil
}

func parseRoutingReply(text string) types.RoutingDecision {
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var reply llmRoutingReply
		if err := json.Unmarshal([]byte(text[start:end+1]), &reply); err == nil && reply.Agent != "" {
			return types.RoutingDecision{
				CandidateAgents:    []types.AgentKind{agentFromString(reply.Agent)},
				ShouldSearchMemory: strings.EqualFold(reply.Memory, "yes") || strings.EqualFold(reply.Memory, "true"),
				ReasoningRequired:  true,
				Confidence:         0.7,
				Rationale:          firstNonEmpty(reply.Reason, "LLM routing decision"),
			}
		}
	}

	agent := types.AgentReasoner
	if m := agentLineRe.FindStringSubmatch(text); m != nil {
		agent = agentFromString(m[1])
	}
	shouldSearchMemory := false
	if m := memoryLineRe.FindStringSubmatch(text); m != nil {
		shouldSearchMemory = strings.EqualFold(m[1], "yes")
	}
	reason := "LLM routing decision"
	if m := reasonLineRe.FindStringSubmatch(text); m != nil {
		reason = strings.TrimSpace(m[1])
	}

	return types.RoutingDecision{
		CandidateAgents:    []types.AgentKind{agent},
		ShouldSearchMemory: shouldSearchMemory,
		ReasoningRequired:  true,
		Confidence:         0.7,
		Rationale:          reason,
	}
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
