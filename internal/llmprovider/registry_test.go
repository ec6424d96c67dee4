package llmprovider

import (
	"testing"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateFromConfigRegistersLocalAndRemote(t *testing.T) {
	r := NewRegistry()

	localCfg := config.ProviderConfig{Type: "local", Model: "llama3.2"}
	localCfg.SetDefaults()
	_, err := r.CreateFromConfig("local-tiny", localCfg)
	require.NoError(t, err)

	remoteCfg := config.ProviderConfig{Type: "remote", Model: "gpt-4o", APIKey: "k"}
	remoteCfg.SetDefaults()
	_, err = r.CreateFromConfig("remote-standard", remoteCfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"local-tiny", "remote-standard"}, r.Names())
}

func TestRegistry_CreateFromConfigRejectsUnknownType(t *testing.T) {
	r := NewRegistry()
	_, err := r.CreateFromConfig("bad", config.ProviderConfig{Type: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestRegistry_CreateFromConfigWrapsInCacheWhenConfigured(t *testing.T) {
	r := NewRegistry()
	cfg := config.ProviderConfig{Type: "local", Model: "llama3.2", CacheTTLSeconds: 60}
	cfg.SetDefaults()

	p, err := r.CreateFromConfig("cached-local", cfg)
	require.NoError(t, err)

	_, ok := p.(*CachedProvider)
	assert.True(t, ok)
}

func TestRegistry_GetMissingProviderReturnsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("does-not-exist")
	assert.Error(t, err)
}
