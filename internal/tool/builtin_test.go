package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileTool_RejectsPathEscapingRoot(t *testing.T) {
	dir := t.TempDir()
	tool := &ReadFileTool{WorkingDirectory: dir}

	err := tool.SecurityCheck(context.Background(), map[string]any{"path": "../../etc/passwd"})
	assert.Error(t, err)
}

func TestReadFileTool_ReadsFileContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello world"), 0o644))
	tool := &ReadFileTool{WorkingDirectory: dir}

	out, err := tool.Execute(context.Background(), map[string]any{"path": "note.txt"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "hello world", out.Data)
}

func TestListDirTool_ListsEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(""), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	tool := &ListDirTool{WorkingDirectory: dir}

	out, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.True(t, out.Success)
	names := out.Data.([]string)
	assert.Contains(t, names, "a.txt")
	assert.Contains(t, names, "sub/")
}

func TestShellExecTool_RunsCommandAndCapturesOutput(t *testing.T) {
	tool := &ShellExecTool{}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo hi"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Contains(t, out.Data, "hi")
}

func TestShellExecTool_FailingCommandProducesFailureOutput(t *testing.T) {
	tool := &ShellExecTool{}
	out, err := tool.Execute(context.Background(), map[string]any{"command": "exit 1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
}

type stubAgentCaller struct {
	answer string
}

func (s stubAgentCaller) CallAgent(_ context.Context, _ string, _ string) (string, error) {
	return s.answer, nil
}

func TestAgentCallTool_DelegatesToCaller(t *testing.T) {
	tool := &AgentCallTool{Caller: stubAgentCaller{answer: "delegated answer"}}
	out, err := tool.Execute(context.Background(), map[string]any{"agent_kind": "reasoner", "request": "help"})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "delegated answer", out.Data)
}
