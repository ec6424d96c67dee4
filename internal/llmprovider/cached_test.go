package llmprovider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (CompletionResponse, error) {
	p.calls.Add(1)
	return CompletionResponse{Text: "result", Tokens: 1}, nil
}

func (p *countingProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	return nil, nil
}

func (p *countingProvider) ModelName() string    { return "counting" }
func (p *countingProvider) MaxTokens() int       { return 100 }
func (p *countingProvider) Temperature() float64 { return 0 }
func (p *countingProvider) Close() error         { return nil }

func TestCachedProvider_RepeatsIdenticalRequestFromCache(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	messages := []Message{{Role: "user", Content: "hello"}}
	first, err := cached.Generate(context.Background(), messages, nil)
	require.NoError(t, err)
	second, err := cached.Generate(context.Background(), messages, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedProvider_ExpiredEntryReissuesRequest(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, -time.Second) // already expired

	messages := []Message{{Role: "user", Content: "hello"}}
	_, err := cached.Generate(context.Background(), messages, nil)
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), messages, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestCachedProvider_DifferentMessagesBypassCache(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner, time.Minute)

	_, err := cached.Generate(context.Background(), []Message{{Role: "user", Content: "a"}}, nil)
	require.NoError(t, err)
	_, err = cached.Generate(context.Background(), []Message{{Role: "user", Content: "b"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.calls.Load())
}
