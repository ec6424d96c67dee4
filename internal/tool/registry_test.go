package tool

import (
	"context"
	"fmt"
	"testing"

	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct {
	calls     int
	cacheable bool
}

func (e *echoTool) Name() string                 { return "echo" }
func (e *echoTool) Description() string          { return "echoes its input" }
func (e *echoTool) Parameters() []ParameterSchema { return nil }
func (e *echoTool) WorkScope() WorkScope          { return WorkScope{} }
func (e *echoTool) Cacheable() bool               { return e.cacheable }
func (e *echoTool) SecurityCheck(_ context.Context, _ map[string]any) error { return nil }
func (e *echoTool) Execute(_ context.Context, params map[string]any) (types.ToolOutput, error) {
	e.calls++
	return types.ToolOutput{Success: true, Summary: "ok", Data: params}, nil
}

type failingSecurityTool struct{}

func (failingSecurityTool) Name() string                 { return "blocked" }
func (failingSecurityTool) Description() string          { return "" }
func (failingSecurityTool) Parameters() []ParameterSchema { return nil }
func (failingSecurityTool) WorkScope() WorkScope          { return WorkScope{} }
func (failingSecurityTool) Cacheable() bool               { return true }
func (failingSecurityTool) SecurityCheck(context.Context, map[string]any) error {
	return fmt.Errorf("not allowed")
}
func (failingSecurityTool) Execute(context.Context, map[string]any) (types.ToolOutput, error) {
	return types.ToolOutput{Success: true}, nil
}

func TestRegistry_ExecuteCachesSuccessfulOutput(t *testing.T) {
	reg := New()
	tool := &echoTool{cacheable: true}
	require.NoError(t, reg.Register(tool))

	call := types.ToolCall{Name: "echo", Params: map[string]any{"x": 1}}
	out1 := reg.Execute(context.Background(), call)
	out2 := reg.Execute(context.Background(), call)

	assert.True(t, out1.Success)
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, tool.calls, "second call should have hit the cache")
}

func TestRegistry_ExecuteDoesNotCacheWhenToolDeclaresNonCacheable(t *testing.T) {
	reg := New()
	tool := &echoTool{cacheable: false}
	require.NoError(t, reg.Register(tool))

	call := types.ToolCall{Name: "echo", Params: map[string]any{"x": 1}}
	reg.Execute(context.Background(), call)
	reg.Execute(context.Background(), call)

	assert.Equal(t, 2, tool.calls)
}

func TestRegistry_ExecuteMissingToolProducesFailureOutputNotError(t *testing.T) {
	reg := New()
	out := reg.Execute(context.Background(), types.ToolCall{Name: "does_not_exist"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "not found")
}

func TestRegistry_ExecuteFailedSecurityCheckProducesFailureOutput(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(failingSecurityTool{}))

	out := reg.Execute(context.Background(), types.ToolCall{Name: "blocked"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "security check failed")
}

func TestRegistry_RegisterReplacesExistingByName(t *testing.T) {
	reg := New()
	first := &echoTool{cacheable: true}
	second := &echoTool{cacheable: true}
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))

	got, ok := reg.Get("echo")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegistry_ExecuteParallelPreservesOrder(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(&echoTool{cacheable: false}))

	calls := []types.ToolCall{
		{Name: "echo", Params: map[string]any{"i": 0}},
		{Name: "echo", Params: map[string]any{"i": 1}},
		{Name: "echo", Params: map[string]any{"i": 2}},
	}
	outputs := reg.ExecuteParallel(context.Background(), calls)
	require.Len(t, outputs, 3)
	for i, out := range outputs {
		data := out.Data.(map[string]any)
		assert.Equal(t, i, data["i"])
	}
}

func TestRegistry_ToolsPromptFiltersByAllowList(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(&echoTool{cacheable: true}))
	require.NoError(t, reg.Register(failingSecurityTool{}))

	prompt := reg.ToolsPrompt([]string{"echo"})
	assert.Contains(t, prompt, "echo")
	assert.NotContains(t, prompt, "blocked")
}
