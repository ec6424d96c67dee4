package router

import (
	"context"
	"testing"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouterConfig() config.RouterConfig {
	cfg := config.RouterConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestRouter_GreetingRoutesToGeneralChatAtTiny(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentGeneralChat}, decision.CandidateAgents)
	assert.Equal(t, types.ScaleTiny, decision.Scale)
	assert.False(t, decision.ReasoningRequired)
}

func TestRouter_CodeKeywordRoutesToCoderAtStandardOrHigher(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "write a python function to sort a list")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentCoder}, decision.CandidateAgents)
	assert.GreaterOrEqual(t, decision.Scale, types.ScaleStandard)
}

func TestRouter_FilesystemKeywordRoutesToCoder(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "list the files in this directory")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentCoder}, decision.CandidateAgents)
}

func TestRouter_PlanningKeywordRoutesToPlannerWithReasoningRequired(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "make a plan to migrate the database")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentPlanner}, decision.CandidateAgents)
	assert.True(t, decision.ReasoningRequired)
	assert.True(t, decision.ShouldSearchMemory)
}

func TestRouter_ResearchKeywordRoutesToResearcher(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "research the latest developments in fusion energy")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentResearcher}, decision.CandidateAgents)
}

func TestRouter_ExplicitToolMentionRoutesToCoder(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "use the shell to check disk space")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentCoder}, decision.CandidateAgents)
	assert.Equal(t, 0.95, decision.Confidence)
}

func TestRouter_URLRoutesToHeavyWithExpandedPortfolio(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "summarize https://example.com/some/long/article/about/complex/topics and explain refactor implications")
	require.NoError(t, err)
	assert.Equal(t, types.ScaleHeavy, decision.Scale)
	assert.GreaterOrEqual(t, len(decision.CandidateAgents), 2)
}

func TestRouter_UnmatchedQueryFallsBackToLLMClassifier(t *testing.T) {
	fallback := &stubProvider{text: `{"agent": "coder", "memory": "no", "reason": "looks like a dev task"}`}
	r := New(testRouterConfig(), fallback)

	// A query that defeats every fast-path heuristic but is still long
	// enough to skip the short-simple branch.
	decision, err := r.Route(context.Background(), "ruminate at length about the philosophical implications of distributed systems")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentCoder}, decision.CandidateAgents)
	assert.Equal(t, "looks like a dev task", decision.Rationale)
}

func TestRouter_NoFallbackConfiguredDefaultsToReasoner(t *testing.T) {
	r := New(testRouterConfig(), nil)
	decision, err := r.Route(context.Background(), "ruminate at length about the philosophical implications of distributed systems")
	require.NoError(t, err)
	assert.Equal(t, []types.AgentKind{types.AgentReasoner}, decision.CandidateAgents)
}

func TestRouter_ModelResolvesFromConfiguredTier(t *testing.T) {
	cfg := testRouterConfig()
	cfg.ModelsByTier["tiny"] = "custom-tiny-model"
	r := New(cfg, nil)

	decision, err := r.Route(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "custom-tiny-model", decision.Model)
}

type stubProvider struct {
	text string
	err  error
}

func (s *stubProvider) Generate(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (llmprovider.CompletionResponse, error) {
	if s.err != nil {
		return llmprovider.CompletionResponse{}, s.err
	}
	return llmprovider.CompletionResponse{Text: s.text, Tokens: 1}, nil
}

func (s *stubProvider) GenerateStreaming(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (<-chan llmprovider.StreamChunk, error) {
	return nil, nil
}

func (s *stubProvider) ModelName() string    { return "stub" }
func (s *stubProvider) MaxTokens() int       { return 100 }
func (s *stubProvider) Temperature() float64 { return 0 }
func (s *stubProvider) Close() error         { return nil }
