package llmprovider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// CachedProvider decorates another Provider with a time-bounded memo
// of (messages, tools) -> response, the same cache-the-deterministic-
// call idiom the Tool Registry applies to tool execution (spec §4.2),
// applied here to LLM calls that the Router or an optimal-information
// query may issue repeatedly with identical input within one turn.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration

	mu    sync.Mutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	response CompletionResponse
	expires  time.Time
}

// NewCachedProvider wraps inner with a cache whose entries expire
// after ttl.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, ttl: ttl, cache: make(map[string]cachedEntry)}
}

func cacheKey(messages []Message, tools []ToolDefinition) string {
	b, _ := json.Marshal(struct {
		Messages []Message
		Tools    []ToolDefinition
	}{messages, tools})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (CompletionResponse, error) {
	key := cacheKey(messages, tools)

	p.mu.Lock()
	if entry, ok := p.cache[key]; ok && time.Now().Before(entry.expires) {
		p.mu.Unlock()
		return entry.response, nil
	}
	p.mu.Unlock()

	resp, err := p.inner.Generate(ctx, messages, tools)
	if err != nil {
		return resp, err
	}

	p.mu.Lock()
	p.cache[key] = cachedEntry{response: resp, expires: time.Now().Add(p.ttl)}
	p.mu.Unlock()

	return resp, nil
}

// GenerateStreaming is never cached: a streaming caller wants live
// output, not a replayed memo.
func (p *CachedProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	return p.inner.GenerateStreaming(ctx, messages, tools)
}

func (p *CachedProvider) ModelName() string    { return p.inner.ModelName() }
func (p *CachedProvider) MaxTokens() int       { return p.inner.MaxTokens() }
func (p *CachedProvider) Temperature() float64 { return p.inner.Temperature() }
func (p *CachedProvider) Close() error         { return p.inner.Close() }
