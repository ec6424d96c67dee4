package optimalinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	text string
	err  error
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (llmprovider.CompletionResponse, error) {
	if p.err != nil {
		return llmprovider.CompletionResponse{}, p.err
	}
	return llmprovider.CompletionResponse{Text: p.text, Tokens: 42}, nil
}
func (p *scriptedProvider) GenerateStreaming(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (<-chan llmprovider.StreamChunk, error) {
	return nil, nil
}
func (p *scriptedProvider) ModelName() string    { return "scripted" }
func (p *scriptedProvider) MaxTokens() int       { return 1000 }
func (p *scriptedProvider) Temperature() float64 { return 0 }
func (p *scriptedProvider) Close() error         { return nil }

const sampleResponse = `Sure, here are the assumptions:
[
  {
    "assumption": "The API endpoint /v1/chat exists",
    "relevance_score": 0.9,
    "queries": [
      { "description": "Check routes file", "tool_call": "grep '/v1/chat' src/routes.go", "cost_estimate": 3 },
      { "description": "Check router test", "tool_call": "grep '/v1/chat' src/routes_test.go", "cost_estimate": 1 }
    ]
  },
  {
    "assumption": "The user likes blue",
    "relevance_score": 0.1,
    "queries": [
      { "description": "Ask the user", "tool_call": "ask_user", "cost_estimate": 1 }
    ]
  }
]
Hope that helps!`

func TestSelectMinimalQueries_PicksCheapestAboveThreshold(t *testing.T) {
	provider := &scriptedProvider{text: sampleResponse}
	selector := New(provider, nil)

	queries, err := selector.SelectMinimalQueries(context.Background(), "ship chat endpoint", "add /v1/chat route")
	require.NoError(t, err)
	require.Len(t, queries, 1, "only the 0.9-relevance assumption clears the threshold")
	assert.Equal(t, "Check router test", queries[0].Description)
	assert.Equal(t, 1, queries[0].CostEstimate)
}

func TestSelectMinimalQueries_MalformedResponseYieldsEmptyNotError(t *testing.T) {
	provider := &scriptedProvider{text: "I couldn't think of any assumptions."}
	selector := New(provider, nil)

	queries, err := selector.SelectMinimalQueries(context.Background(), "goal", "plan")
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestSelectMinimalQueries_ProviderErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("provider unavailable")}
	selector := New(provider, nil)

	_, err := selector.SelectMinimalQueries(context.Background(), "goal", "plan")
	assert.ErrorContains(t, err, "provider unavailable")
}

func TestFormatVerifiedLines_EmptyQueriesYieldsEmptyString(t *testing.T) {
	assert.Equal(t, "", FormatVerifiedLines(nil))
}

func TestFormatVerifiedLines_RendersOneLinePerQuery(t *testing.T) {
	out := FormatVerifiedLines([]DataQuery{
		{Description: "Check routes file", ToolCall: "grep foo"},
		{Description: "Check config", ToolCall: "read_file bar"},
	})
	assert.Contains(t, out, "Check routes file (via `grep foo`)")
	assert.Contains(t, out, "Check config (via `read_file bar`)")
}
