package main

import (
	"testing"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestFirstProviderFor_ResolvesConfiguredScaleTier(t *testing.T) {
	cfg := testConfig(t)
	provider := firstProviderFor(cfg, "tiny")
	require.NotNil(t, provider)
	assert.NotEmpty(t, provider.ModelName())
}

func TestFirstProviderFor_UnknownTierReturnsNil(t *testing.T) {
	cfg := testConfig(t)
	assert.Nil(t, firstProviderFor(cfg, "nonexistent-tier"))
}

func TestSortedProviderNames_ReturnsAlphabeticalOrder(t *testing.T) {
	cfg := testConfig(t)
	names := sortedProviderNames(cfg)
	require.Len(t, names, 2) // zero-config default seeds local-logic-small and local-tiny
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

func TestNewRootCmd_RegistersAllSubcommands(t *testing.T) {
	root := newRootCmd()
	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["ask"])
	assert.True(t, names["chat"])
	assert.True(t, names["info"])
	assert.True(t, names["version"])
}
