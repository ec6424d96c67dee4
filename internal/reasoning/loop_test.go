package reasoning

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/safety"
	"github.com/hectorcore/hectorcore/internal/tool"
	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider returns one scripted response per call, in order.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (llmprovider.CompletionResponse, error) {
	if p.calls >= len(p.responses) {
		return llmprovider.CompletionResponse{}, assertNoMoreCalls
	}
	text := p.responses[p.calls]
	p.calls++
	return llmprovider.CompletionResponse{Text: text, Tokens: 10}, nil
}

func (p *scriptedProvider) GenerateStreaming(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (<-chan llmprovider.StreamChunk, error) {
	return nil, nil
}
func (p *scriptedProvider) ModelName() string    { return "scripted" }
func (p *scriptedProvider) MaxTokens() int       { return 1000 }
func (p *scriptedProvider) Temperature() float64 { return 0 }
func (p *scriptedProvider) Close() error         { return nil }

var assertNoMoreCalls = errors.New("scriptedProvider: ran out of scripted responses")

// echoTool always succeeds with a fixed summary.
type echoTool struct{ name string }

func (e echoTool) Name() string                 { return e.name }
func (e echoTool) Description() string          { return "echo" }
func (e echoTool) Parameters() []tool.ParameterSchema { return nil }
func (e echoTool) WorkScope() tool.WorkScope     { return tool.WorkScope{Environment: "local"} }
func (e echoTool) Cacheable() bool               { return false }
func (e echoTool) SecurityCheck(_ context.Context, _ map[string]any) error { return nil }
func (e echoTool) Execute(_ context.Context, _ map[string]any) (types.ToolOutput, error) {
	return types.ToolOutput{Success: true, Summary: "ok"}, nil
}

func testGuard() *safety.Guard {
	cfg := config.SafetyConfig{}
	cfg.SetDefaults()
	return safety.NewGuard(cfg, safety.CommandPolicy{}, nil)
}

func testReasoningConfig() config.ReasoningConfig {
	cfg := config.ReasoningConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestLoop_TerminatesOnAnswerForConversationalQuery(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"[THOUGHT]\nEasy.\n[ANSWER]\nHi!\n"}}
	registry := tool.New()
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentGeneralChat, AllowedTools: nil}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "hi", "")
	assert.True(t, resp.Success)
	assert.Equal(t, "Hi!", resp.Answer)
	assert.Len(t, resp.Trace, 1)
}

func TestLoop_LazinessFilterRejectsBareAnswerOnActionQuery(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"[THOUGHT]\nI'll just answer.\n[ANSWER]\nDone.\n",
		"[THOUGHT]\nFine, I'll use a tool.\n[ACTION]\n{\"name\": \"search\", \"parameters\": {}}\n",
		"[THOUGHT]\nNow I can answer.\n[ANSWER]\nFound it.\n",
	}}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "search"}))
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentResearcher, AllowedTools: []string{"search"}}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "search for the answer", "")
	require.True(t, resp.Success)
	assert.Equal(t, "Found it.", resp.Answer)
	require.Len(t, resp.Trace, 3)
	assert.False(t, resp.Trace[0].IsTerminal, "first step should have been rejected by the laziness filter")
}

func TestLoop_LoopGuardHaltsRepeatedIdenticalCalls(t *testing.T) {
	action := "[THOUGHT]\nTry again.\n[ACTION]\n{\"name\": \"search\", \"parameters\": {\"q\": \"x\"}}\n"
	provider := &scriptedProvider{responses: []string{action, action, "[THOUGHT]\nGive up and answer.\n[ANSWER]\nBest guess.\n"}}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "search"}))
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentResearcher, AllowedTools: []string{"search"}}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "search for x", "")
	require.True(t, resp.Success)
	require.Len(t, resp.Trace, 3)
	assert.Equal(t, loopGuardHint, resp.Trace[1].Observations[0].Summary)
}

func TestLoop_ExecutesToolAndAppendsObservation(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"[THOUGHT]\nUse the tool.\n[ACTION]\n{\"name\": \"search\", \"parameters\": {\"q\": \"x\"}}\n",
		"[THOUGHT]\nDone.\n[ANSWER]\nResult is ok.\n",
	}}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "search"}))
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentCoder, AllowedTools: []string{"search"}}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "search for x", "")
	require.True(t, resp.Success)
	require.Len(t, resp.Trace, 2)
	require.Len(t, resp.Trace[0].Observations, 1)
	assert.Equal(t, "ok", resp.Trace[0].Observations[0].Summary)
}

func TestLoop_IterationCapReturnsFailureWithPartialTrace(t *testing.T) {
	var responses []string
	for i := 0; i < 12; i++ {
		responses = append(responses, fmt.Sprintf(
			"[THOUGHT]\nkeep going\n[ACTION]\n{\"name\": \"search\", \"parameters\": {\"q\": \"%d\"}}\n", i))
	}
	provider := &scriptedProvider{responses: responses}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "search"}))
	reasoningCfg := testReasoningConfig()
	reasoningCfg.MaxIterations = 3
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentCoder, AllowedTools: []string{"search"}}, "session-1", reasoningCfg)

	resp := loop.Run(context.Background(), "search for x", "")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "maximum iterations")
	assert.Len(t, resp.Trace, 3)
}

func TestLoop_SteerMessageAppearsInNextPrompt(t *testing.T) {
	provider := &promptCapturingProvider{
		scriptedProvider: scriptedProvider{responses: []string{
			"[THOUGHT]\nfirst\n[ACTION]\n{\"name\": \"search\", \"parameters\": {}}\n",
			"[THOUGHT]\nsecond\n[ANSWER]\ndone\n",
		}},
	}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "search"}))
	loop := New(provider, registry, testGuard(), AgentConfig{Kind: types.AgentCoder, AllowedTools: []string{"search"}}, "session-1", testReasoningConfig())

	loop.Steer("focus on the budget numbers")
	resp := loop.Run(context.Background(), "search for x", "")
	require.True(t, resp.Success)
	require.Len(t, provider.prompts, 2)
	assert.Contains(t, provider.prompts[0][1].Content, "focus on the budget numbers")
}

func TestLoop_ResumeApprovedExecutesBlockedCallAndContinues(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"[THOUGHT]\ndo the risky thing\n[ACTION]\n{\"name\": \"sandbox_exec\", \"parameters\": {\"cmd\": \"x\"}}\n",
		"[THOUGHT]\nnow answer\n[ANSWER]\nall done\n",
	}}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "sandbox_exec"}))
	guard := testGuard()
	loop := New(provider, registry, guard, AgentConfig{Kind: types.AgentCoder, AllowedTools: []string{"sandbox_exec"}}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "run the sandboxed command", "")
	require.False(t, resp.Success)
	require.NotNil(t, resp.Pending, "sandbox_exec is in the always-approval tool list")

	guard.Approve("session-1", resp.Pending.Request.Hash)
	resumed := loop.Resume(context.Background(), "run the sandboxed command", "", *resp.Pending, true)
	require.True(t, resumed.Success)
	assert.Equal(t, "all done", resumed.Answer)
	require.Len(t, resumed.Trace, 2)
	require.Len(t, resumed.Trace[0].Observations, 1)
	assert.Equal(t, "ok", resumed.Trace[0].Observations[0].Summary)
}

func TestLoop_ResumeRejectedSurfacesFailureWithoutExecuting(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"[THOUGHT]\ndo the risky thing\n[ACTION]\n{\"name\": \"sandbox_exec\", \"parameters\": {\"cmd\": \"x\"}}\n",
	}}
	registry := tool.New()
	require.NoError(t, registry.Register(echoTool{name: "sandbox_exec"}))
	guard := testGuard()
	loop := New(provider, registry, guard, AgentConfig{Kind: types.AgentCoder, AllowedTools: []string{"sandbox_exec"}}, "session-1", testReasoningConfig())

	resp := loop.Run(context.Background(), "run the sandboxed command", "")
	require.NotNil(t, resp.Pending)

	resumed := loop.Resume(context.Background(), "run the sandboxed command", "", *resp.Pending, false)
	assert.False(t, resumed.Success)
	assert.Contains(t, resumed.Error, "rejected")
	require.Len(t, resumed.Trace, 1)
	assert.False(t, resumed.Trace[0].Observations[0].Success)
}

type promptCapturingProvider struct {
	scriptedProvider
	prompts [][]llmprovider.Message
}

func (p *promptCapturingProvider) Generate(ctx context.Context, messages []llmprovider.Message, tools []llmprovider.ToolDefinition) (llmprovider.CompletionResponse, error) {
	p.prompts = append(p.prompts, messages)
	return p.scriptedProvider.Generate(ctx, messages, tools)
}
