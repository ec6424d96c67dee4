package llmprovider

import (
	"bufio"
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

// LocalProvider talks to an Ollama-style local inference server over
// its chat API, grounded on pkg/llms/ollama.go's request/response
// shape (stripped of the teacher's otel span instrumentation; this
// repository has no otel instrumentation anywhere, only slog logging).
type LocalProvider struct {
	cfg        config.ProviderConfig
	httpClient *httpclient.Client
	baseURL    string
}

func NewLocalProvider(cfg config.ProviderConfig) *LocalProvider {
	return &LocalProvider{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}),
			httpclient.WithMaxRetries(cfg.MaxRetries),
		),
	}
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message            ollamaMessage `json:"message"`
	Done               bool          `json:"done"`
	PromptEvalCount    int           `json:"prompt_eval_count"`
	EvalCount          int           `json:"eval_count"`
	Error              string        `json:"error,omitempty"`
}

func (p *LocalProvider) buildRequest(messages []Message, stream bool) ollamaRequest {
	out := make([]ollamaMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		if role == "tool" {
			role = "user"
		}
		out = append(out, ollamaMessage{Role: role, Content: m.Content})
	}
	return ollamaRequest{
		Model:    p.cfg.Model,
		Messages: out,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: p.cfg.Temperature, NumPredict: p.cfg.MaxTokens},
	}
}

func (p *LocalProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (CompletionResponse, error) {
	req := p.buildRequest(messages, false)
	body, err := json.Marshal(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded ollamaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: decode response: %w", err)
	}
	if decoded.Error != "" {
		return CompletionResponse{}, fmt.Errorf("llmprovider local: %s", decoded.Error)
	}

	return CompletionResponse{
		Text:   decoded.Message.Content,
		Tokens: decoded.PromptEvalCount + decoded.EvalCount,
	}, nil
}

func (p *LocalProvider) GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	req := p.buildRequest(messages, true)
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llmprovider local: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llmprovider local: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llmprovider local: request: %w", err)
	}

	out := make(chan StreamChunk, 100)
	go func() {
		defer resp.Body.Close()
		defer close(out)

		scanner := bufio.NewScanner(resp.Body)
		totalTokens := 0
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				out <- StreamChunk{Type: "error", Error: fmt.Errorf("llmprovider local: %s", chunk.Error)}
				return
			}
			if chunk.Message.Content != "" {
				out <- StreamChunk{Type: "text", Text: chunk.Message.Content}
			}
			if chunk.Done {
				totalTokens = chunk.PromptEvalCount + chunk.EvalCount
				out <- StreamChunk{Type: "done", Tokens: totalTokens}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			out <- StreamChunk{Type: "error", Error: err}
		}
	}()

	return out, nil
}

func (p *LocalProvider) ModelName() string    { return p.cfg.Model }
func (p *LocalProvider) MaxTokens() int       { return p.cfg.MaxTokens }
func (p *LocalProvider) Temperature() float64 { return p.cfg.Temperature }
func (p *LocalProvider) Close() error         { return nil }
