package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDynamicTools_SkipsMetadataWithMissingScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ghost.json"), []byte(`{"name":"ghost","script":"ghost.sh"}`), 0o644))

	tools, err := LoadDynamicTools(dir)
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestLoadDynamicTools_LoadsValidPair(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho '{\"success\":true,\"summary\":\"hi\"}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.sh"), []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.json"), []byte(`{"name":"greet","description":"says hi","script":"greet.sh","cacheable":true}`), 0o644))

	tools, err := LoadDynamicTools(dir)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "greet", tools[0].Name())
}

func TestForgeTool_WritesScriptMetadataAndRegisters(t *testing.T) {
	dir := t.TempDir()
	reg := New()
	forge := NewForgeTool(dir, reg)

	out, err := forge.Execute(context.Background(), map[string]any{
		"name":        "greeter",
		"description": "says hello",
		"script":      "#!/bin/sh\necho '{\"success\":true}'\n",
	})
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, ok := reg.Get("greeter")
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, "greeter.sh"))
	assert.FileExists(t, filepath.Join(dir, "greeter.json"))
}

func TestForgeTool_RollsBackFilesIfRegistrationFails(t *testing.T) {
	dir := t.TempDir()
	reg := New()
	// Simulate a registration failure by calling Execute directly with an
	// empty name, bypassing SecurityCheck: both files get written, then
	// Register rejects the empty name and Execute must remove them.
	forge := NewForgeTool(dir, reg)

	out, err := forge.Execute(context.Background(), map[string]any{
		"name":   "",
		"script": "#!/bin/sh\necho '{\"success\":true}'\n",
	})
	require.NoError(t, err)
	assert.False(t, out.Success)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
