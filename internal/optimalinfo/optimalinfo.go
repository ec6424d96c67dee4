// Package optimalinfo implements the optimal information selector
// (spec §4.7 step 4, supplemented from original_source's
// orchestrator/optimal_info.rs): given a plan summary, it asks the
// LLM to enumerate the plan's critical assumptions along with minimal
// verification queries, then greedily keeps the cheapest query per
// assumption whose relevance clears the threshold. The Supervisor
// injects the selected queries' descriptions as verified-assumption
// lines ahead of the escalation loop.
package optimalinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hectorcore/hectorcore/internal/llmprovider"
)

// relevanceThreshold is the cutoff above which an assumption is
// considered critical enough to verify (original_source:
// "if need.relevance_score > 0.5").
const relevanceThreshold = 0.5

// DataQuery is one candidate verification query against the plan's
// environment (a tool call, not yet executed).
type DataQuery struct {
	Description  string `json:"description"`
	ToolCall     string `json:"tool_call"`
	CostEstimate int    `json:"cost_estimate"`
}

// InformationNeed is one critical assumption in a plan, along with
// the candidate queries that would verify or refute it.
type InformationNeed struct {
	Assumption     string      `json:"assumption"`
	RelevanceScore float64     `json:"relevance_score"`
	Queries        []DataQuery `json:"queries"`
}

const systemPrompt = "You are an expert in optimal experiment design and decision theory."

const promptTemplate = `Goal: %s
Plan: %s

Task: Identify critical assumptions in this plan.
An assumption is CRITICAL if its falsehood would require changing the plan (decision sensitivity).

For each assumption, suggest 1-2 specific tool queries (e.g. read_file, grep, web_search) to verify it.
Keep queries MINIMAL (e.g. check specific lines rather than reading whole files).

Output JSON format:
[
  {
    "assumption": "The API endpoint /v1/chat exists",
    "relevance_score": 0.9,
    "queries": [
      { "description": "Check routes file", "tool_call": "grep '/v1/chat' src/routes.go", "cost_estimate": 1 }
    ]
  }
]
`

// Selector asks a Provider to identify a plan's critical assumptions
// and picks the minimal sufficient set of queries to verify them.
type Selector struct {
	provider llmprovider.Provider
	log      *slog.Logger
}

// New builds a Selector bound to provider.
func New(provider llmprovider.Provider, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{provider: provider, log: log}
}

// SelectMinimalQueries returns the cheapest verification query for
// each critical assumption (relevance > relevanceThreshold) in the
// plan. A malformed or empty model response yields an empty slice,
// not an error: the caller treats "nothing to verify" as a valid
// outcome (spec §4.7 step 4 is optional).
func (s *Selector) SelectMinimalQueries(ctx context.Context, goal, planSummary string) ([]DataQuery, error) {
	s.log.Debug("selecting optimal information", "goal", goal)

	prompt := fmt.Sprintf(promptTemplate, goal, planSummary)
	messages := []llmprovider.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}

	resp, err := s.provider.Generate(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("optimalinfo: generate: %w", err)
	}

	needs := parseNeeds(resp.Text)

	var selected []DataQuery
	for _, need := range needs {
		if need.RelevanceScore <= relevanceThreshold || len(need.Queries) == 0 {
			continue
		}
		best := cheapest(need.Queries)
		selected = append(selected, best)
	}
	return selected, nil
}

// cheapest returns the lowest CostEstimate entry in queries. queries
// is never empty when called.
func cheapest(queries []DataQuery) DataQuery {
	best := queries[0]
	for _, q := range queries[1:] {
		if q.CostEstimate < best.CostEstimate {
			best = q
		}
	}
	return best
}

// parseNeeds extracts the JSON array of InformationNeed from a raw
// model response, tolerating surrounding prose. Returns nil on any
// parse failure rather than erroring: the original treats this as a
// soft fallback too ("Fallback or empty if parsing fails").
func parseNeeds(response string) []InformationNeed {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end < start {
		return nil
	}
	var needs []InformationNeed
	if err := json.Unmarshal([]byte(response[start:end+1]), &needs); err != nil {
		return nil
	}
	sort.SliceStable(needs, func(i, j int) bool {
		return needs[i].RelevanceScore > needs[j].RelevanceScore
	})
	return needs
}

// FormatVerifiedLines renders queries as the verified-assumption
// lines the Supervisor splices into the escalation loop's prompt
// (spec §4.7 step 4).
func FormatVerifiedLines(queries []DataQuery) string {
	if len(queries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Verified assumptions:\n")
	for _, q := range queries {
		fmt.Fprintf(&b, "- %s (via `%s`)\n", q.Description, q.ToolCall)
	}
	return b.String()
}
