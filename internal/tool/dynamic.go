package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hectorcore/hectorcore/internal/types"
)

// dynamicMeta is the on-disk metadata half of a dynamic tool pair
// (spec §4.2: "loaded from a directory of metadata+script pairs").
type dynamicMeta struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Parameters  []ParameterSchema `json:"parameters"`
	WorkScope   WorkScope         `json:"work_scope"`
	Cacheable   bool              `json:"cacheable"`
	Script      string            `json:"script"` // filename, relative to the dynamic tool dir
}

// dynamicTool executes an external script, piping parameters in as a
// JSON object on stdin and parsing a JSON Tool Output from stdout. A
// script that doesn't emit valid JSON has its raw stdout wrapped as a
// plain summary instead of failing outright.
type dynamicTool struct {
	meta       dynamicMeta
	scriptPath string
}

func newDynamicTool(dir string, meta dynamicMeta) dynamicTool {
	return dynamicTool{meta: meta, scriptPath: filepath.Join(dir, meta.Script)}
}

func (d dynamicTool) Name() string                 { return d.meta.Name }
func (d dynamicTool) Description() string          { return d.meta.Description }
func (d dynamicTool) Parameters() []ParameterSchema { return d.meta.Parameters }
func (d dynamicTool) WorkScope() WorkScope         { return d.meta.WorkScope }
func (d dynamicTool) Cacheable() bool              { return d.meta.Cacheable }

func (d dynamicTool) SecurityCheck(_ context.Context, _ map[string]any) error { return nil }

func (d dynamicTool) Execute(ctx context.Context, params map[string]any) (types.ToolOutput, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return types.ToolOutput{}, fmt.Errorf("dynamic tool %s: marshal params: %w", d.meta.Name, err)
	}

	cmd := exec.CommandContext(ctx, d.scriptPath)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var out types.ToolOutput
	if jsonErr := json.Unmarshal(stdout.Bytes(), &out); jsonErr != nil {
		out = types.ToolOutput{
			Success: runErr == nil,
			Summary: strings.TrimSpace(stdout.String()),
		}
	}
	if runErr != nil {
		out.Success = false
		if out.Error == "" {
			out.Error = strings.TrimSpace(stderr.String())
			if out.Error == "" {
				out.Error = runErr.Error()
			}
		}
	}
	return out, nil
}

// LoadDynamicTools scans dir for *.json metadata files and builds a
// dynamicTool for each, skipping (with a logged warning left to the
// caller) any entry whose script file is missing.
func LoadDynamicTools(dir string) ([]Tool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load dynamic tools from %s: %w", dir, err)
	}

	var tools []Tool
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load dynamic tool metadata %s: %w", entry.Name(), err)
		}
		var meta dynamicMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("parse dynamic tool metadata %s: %w", entry.Name(), err)
		}
		if meta.Name == "" || meta.Script == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, meta.Script)); err != nil {
			continue
		}
		tools = append(tools, newDynamicTool(dir, meta))
	}
	return tools, nil
}

// ForgeTool is the special "forge_tool" capability (spec §9, REDESIGN
// FLAGS: "Forged tools"): it writes a new tool's script, writes its
// metadata, then hot-registers it into reg. If registration fails, it
// removes both files it just wrote, so no orphaned metadata+script
// pair is left behind without a corresponding registry entry.
type ForgeTool struct {
	dir string
	reg *Registry
}

// NewForgeTool creates a forge_tool bound to dir (where new dynamic
// tool pairs are written) and reg (where they're hot-registered).
func NewForgeTool(dir string, reg *Registry) *ForgeTool {
	return &ForgeTool{dir: dir, reg: reg}
}

func (f *ForgeTool) Name() string        { return "forge_tool" }
func (f *ForgeTool) Description() string { return "Create and hot-register a new dynamic tool from a script and its metadata." }
func (f *ForgeTool) Parameters() []ParameterSchema {
	return []ParameterSchema{
		{Name: "name", Type: "string", Required: true, Description: "unique tool name"},
		{Name: "description", Type: "string", Required: true, Description: "tool description"},
		{Name: "script", Type: "string", Required: true, Description: "executable script contents"},
	}
}
func (f *ForgeTool) WorkScope() WorkScope {
	return WorkScope{Status: "experimental", Environment: "local", SideEffects: []string{"filesystem_write"}, RequiresConfirmation: true}
}
func (f *ForgeTool) Cacheable() bool { return false }

func (f *ForgeTool) SecurityCheck(_ context.Context, params map[string]any) error {
	name, _ := params["name"].(string)
	if name == "" {
		return fmt.Errorf("forge_tool: name is required")
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("forge_tool: name must not contain path separators")
	}
	return nil
}

func (f *ForgeTool) Execute(_ context.Context, params map[string]any) (types.ToolOutput, error) {
	name, _ := params["name"].(string)
	description, _ := params["description"].(string)
	script, _ := params["script"].(string)

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}

	scriptName := name + ".sh"
	scriptPath := filepath.Join(f.dir, scriptName)
	metaPath := filepath.Join(f.dir, name+".json")

	// Step 1: write the script.
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("forge_tool: write script: %v", err)}, nil
	}

	// Step 2: write the metadata.
	meta := dynamicMeta{Name: name, Description: description, Script: scriptName, Cacheable: true}
	metaData, err := json.Marshal(meta)
	if err != nil {
		os.Remove(scriptPath)
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("forge_tool: marshal metadata: %v", err)}, nil
	}
	if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
		os.Remove(scriptPath)
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("forge_tool: write metadata: %v", err)}, nil
	}

	// Step 3: register. Roll back both files on failure.
	newTool := newDynamicTool(f.dir, meta)
	if err := f.reg.Register(newTool); err != nil {
		os.Remove(scriptPath)
		os.Remove(metaPath)
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("forge_tool: register: %v", err)}, nil
	}

	return types.ToolOutput{Success: true, Summary: fmt.Sprintf("forged and registered tool %q", name)}, nil
}
