package llmprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/httpclient"
)

const remoteDefaultBaseURL = "https://api.openai.com/v1"

// RemoteProvider talks to an OpenAI-compatible chat completions
// endpoint, grounded on pkg/llms/openai.go's createHTTPClient +
// request/response shape (minus streaming SSE event parsing and the
// teacher's otel instrumentation, trimmed to what the Reasoning Loop
// actually needs: text, tool-agnostic since tool-call parsing is the
// Reasoning Loop's own responsibility per spec §4.5 step 3).
type RemoteProvider struct {
	cfg        config.ProviderConfig
	httpClient *httpclient.Client
	baseURL    string
}

func NewRemoteProvider(cfg config.ProviderConfig) *RemoteProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = remoteDefaultBaseURL
	}
	return &RemoteProvider{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithHeaderParser(httpclient.ParseOpenAIRateLimitHeaders),
		),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionChoice struct {
	Message      chatMessage `json:"message"`
	Delta        chatMessage `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type chatCompletionResponse struct {
	Choices []chatCompletionChoice `json:"choices"`
	Usage   chatCompletionUsage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *RemoteProvider) buildRequest(messages []Message, stream bool) chatCompletionRequest {
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: m.Role, Content: m.Content})
	}
	return chatCompletionRequest{
		Model:       p.cfg.Model,
		Messages:    out,
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Stream:      stream,
	}
}

func (p *RemoteProvider) do(ctx context.Context, req chatCompletionRequest) (chatCompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: decode response: %w", err)
	}
	if decoded.Error != nil {
		return chatCompletionResponse{}, fmt.Errorf("llmprovider remote: %s", decoded.Error.Message)
	}
	return decoded, nil
}

func (p *RemoteProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (CompletionResponse, error) {
	decoded, err := p.do(ctx, p.buildRequest(messages, false))
	if err != nil {
		return CompletionResponse{}, err
	}
	if len(decoded.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("llmprovider remote: empty choices")
	}
	return CompletionResponse{Text: decoded.Choices[0].Message.Content, Tokens: decoded.Usage.TotalTokens}, nil
}

// GenerateStreaming issues a non-streaming request and replays it as a
// single text chunk followed by done. The teacher's SSE event-by-event
// parser (openai.go's response.output_text.delta handling) isn't
// reproduced here since the Reasoning Loop consumes a whole parsed
// ReasoningStep per iteration rather than incremental text (spec
// §4.5); streaming exists on the interface for parity with
// LocalProvider and future incremental-UI consumers.
func (p *RemoteProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk, 2)
	go func() {
		defer close(out)
		resp, err := p.Generate(ctx, messages, tools)
		if err != nil {
			out <- StreamChunk{Type: "error", Error: err}
			return
		}
		out <- StreamChunk{Type: "text", Text: resp.Text}
		out <- StreamChunk{Type: "done", Tokens: resp.Tokens}
	}()
	return out, nil
}

func (p *RemoteProvider) ModelName() string    { return p.cfg.Model }
func (p *RemoteProvider) MaxTokens() int       { return p.cfg.MaxTokens }
func (p *RemoteProvider) Temperature() float64 { return p.cfg.Temperature }
func (p *RemoteProvider) Close() error         { return nil }
