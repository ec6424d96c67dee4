package tool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hectorcore/hectorcore/internal/types"
)

// ListDirTool lists directory contents. Grounded on the teacher's
// pkg/tools/local.go filesystem tool family.
type ListDirTool struct {
	WorkingDirectory string
}

func (t *ListDirTool) Name() string        { return "list_directory" }
func (t *ListDirTool) Description() string { return "List files and subdirectories at a path." }
func (t *ListDirTool) Parameters() []ParameterSchema {
	return []ParameterSchema{{Name: "path", Type: "string", Description: "directory path, relative to the working directory", Required: false}}
}
func (t *ListDirTool) WorkScope() WorkScope { return WorkScope{Environment: "local", Status: "stable"} }
func (t *ListDirTool) Cacheable() bool      { return false } // directory contents can change between calls
func (t *ListDirTool) SecurityCheck(_ context.Context, params map[string]any) error {
	return checkPathEscape(t.WorkingDirectory, params)
}

func (t *ListDirTool) Execute(_ context.Context, params map[string]any) (types.ToolOutput, error) {
	rel, _ := params["path"].(string)
	dir := filepath.Join(t.WorkingDirectory, rel)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return types.ToolOutput{
		Success: true,
		Data:    names,
		Summary: strings.Join(names, "\n"),
	}, nil
}

// ReadFileTool reads a file's contents.
type ReadFileTool struct {
	WorkingDirectory string
	MaxBytes         int
}

func (t *ReadFileTool) Name() string        { return "read_file" }
func (t *ReadFileTool) Description() string { return "Read the contents of a file." }
func (t *ReadFileTool) Parameters() []ParameterSchema {
	return []ParameterSchema{{Name: "path", Type: "string", Required: true, Description: "file path, relative to the working directory"}}
}
func (t *ReadFileTool) WorkScope() WorkScope { return WorkScope{Environment: "local", Status: "stable"} }
func (t *ReadFileTool) Cacheable() bool      { return false } // files may change on disk between calls
func (t *ReadFileTool) SecurityCheck(_ context.Context, params map[string]any) error {
	return checkPathEscape(t.WorkingDirectory, params)
}

func (t *ReadFileTool) Execute(_ context.Context, params map[string]any) (types.ToolOutput, error) {
	rel, ok := params["path"].(string)
	if !ok || rel == "" {
		return types.ToolOutput{Success: false, Error: "path parameter is required"}, nil
	}
	path := filepath.Join(t.WorkingDirectory, rel)

	maxBytes := t.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	info, err := os.Stat(path)
	if err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}
	if info.Size() > int64(maxBytes) {
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("file exceeds max size of %d bytes", maxBytes)}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}
	return types.ToolOutput{Success: true, Data: string(content), Summary: string(content)}, nil
}

// checkPathEscape rejects paths that resolve outside workingDir,
// spec §7's "paths escaping allowed roots" validation failure.
func checkPathEscape(workingDir string, params map[string]any) error {
	rel, _ := params["path"].(string)
	if rel == "" {
		return nil
	}
	root, err := filepath.Abs(workingDir)
	if err != nil {
		return err
	}
	target, err := filepath.Abs(filepath.Join(workingDir, rel))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(target, root) {
		return fmt.Errorf("path %q escapes the allowed root", rel)
	}
	return nil
}

// ShellExecTool runs a shell command. It is intentionally permissive
// at the tool layer — allow/deny-listing and approval gating are the
// Safety Guard's job (spec §4.3), not the tool's; this tool only
// declares a work scope that marks it as requiring confirmation. The
// Safety Guard does not read that flag: it gates this tool by its
// name, which is in the guard's risky-tool set.
type ShellExecTool struct {
	WorkingDirectory string
}

func (t *ShellExecTool) Name() string        { return "execute_command" }
func (t *ShellExecTool) Description() string { return "Execute a shell command." }
func (t *ShellExecTool) Parameters() []ParameterSchema {
	return []ParameterSchema{{Name: "command", Type: "string", Required: true, Description: "shell command to run"}}
}
func (t *ShellExecTool) WorkScope() WorkScope {
	return WorkScope{Environment: "local", SideEffects: []string{"process_exec"}, RequiresConfirmation: true}
}
func (t *ShellExecTool) Cacheable() bool                                        { return false }
func (t *ShellExecTool) SecurityCheck(_ context.Context, _ map[string]any) error { return nil }

func (t *ShellExecTool) Execute(ctx context.Context, params map[string]any) (types.ToolOutput, error) {
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return types.ToolOutput{Success: false, Error: "command parameter is required"}, nil
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if t.WorkingDirectory != "" {
		cmd.Dir = t.WorkingDirectory
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return types.ToolOutput{Success: false, Data: string(output), Error: err.Error()}, nil
	}
	return types.ToolOutput{Success: true, Data: string(output), Summary: string(output)}, nil
}

// AgentCaller invokes a peer agent by kind with a free-form request,
// returning its final answer. internal/supervisor supplies the
// concrete implementation; this package only depends on the
// interface, to avoid an import cycle (supervisor already depends on
// tool).
type AgentCaller interface {
	CallAgent(ctx context.Context, agentKind string, request string) (string, error)
}

// AgentCallTool lets one agent delegate a sub-task to another,
// grounded on the teacher's pkg/tools/agent_call.go.
type AgentCallTool struct {
	Caller AgentCaller
}

func (t *AgentCallTool) Name() string        { return "call_agent" }
func (t *AgentCallTool) Description() string { return "Delegate a sub-task to another agent kind and return its answer." }
func (t *AgentCallTool) Parameters() []ParameterSchema {
	return []ParameterSchema{
		{Name: "agent_kind", Type: "string", Required: true, Description: "target agent kind"},
		{Name: "request", Type: "string", Required: true, Description: "the sub-task request"},
	}
}
func (t *AgentCallTool) WorkScope() WorkScope { return WorkScope{Environment: "local"} }
func (t *AgentCallTool) Cacheable() bool      { return false } // a peer agent's answer may vary between calls
func (t *AgentCallTool) SecurityCheck(_ context.Context, params map[string]any) error {
	if _, ok := params["agent_kind"].(string); !ok {
		return fmt.Errorf("agent_kind parameter is required")
	}
	return nil
}

func (t *AgentCallTool) Execute(ctx context.Context, params map[string]any) (types.ToolOutput, error) {
	agentKind, _ := params["agent_kind"].(string)
	request, _ := params["request"].(string)

	answer, err := t.Caller.CallAgent(ctx, agentKind, request)
	if err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}
	return types.ToolOutput{Success: true, Data: answer, Summary: answer}, nil
}
