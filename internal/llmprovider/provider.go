// Package llmprovider is the LLM Provider abstraction the Reasoning
// Loop drives each iteration's completion request through: a small
// Message/ToolDefinition wire-agnostic shape (grounded on the
// teacher's pkg/llms/types.go), a Provider interface every concrete
// implementation satisfies, and local/remote/cached implementations
// registered under the names the Router's ModelsByTier map resolves
// against.
package llmprovider

import "context"

// Message is one turn of conversation handed to a Provider. This is
// the universal shape the Reasoning Loop builds its prompt trace in,
// independent of any one provider's wire format.
type Message struct {
	Role       string // "system", "user", "assistant", "tool"
	Content    string
	ToolCallID string // set when Role == "tool"
	Name       string // tool name, set when Role == "tool"
}

// ToolDefinition describes one tool the model may call, in JSON-Schema
// shape, mirroring pkg/llms/types.go's ToolDefinition.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// StreamChunk is one piece of a streaming completion.
type StreamChunk struct {
	Type  string // "text", "done", "error"
	Text  string
	Tokens int
	Error error
}

// CompletionResponse is a non-streaming Generate result.
type CompletionResponse struct {
	Text   string
	Tokens int
}

// Provider is the LLM Provider contract (spec §4.5 step 2: "Request
// completion from the provider").
type Provider interface {
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (CompletionResponse, error)
	GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error)
	ModelName() string
	MaxTokens() int
	Temperature() float64
	Close() error
}
