package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// MCPToolSource discovers and wraps tools exposed by a remote MCP
// server, satisfying spec §6's "out-of-process tools communicate via
// line-delimited JSON-RPC 2.0 with a handshake that lists their
// tools" boundary description. Grounded on the teacher's
// pkg/tools/mcp.go (MCPToolSource/MCPTool split: a source owns the
// transport, individual tools delegate calls back to it), adapted to
// use mark3labs/mcp-go's client instead of hand-rolling the JSON-RPC
// envelope.
type MCPToolSource struct {
	name string
	mcp  *client.Client
}

// NewMCPToolSource connects to an MCP server reachable over SSE at
// url and completes the initialize handshake.
func NewMCPToolSource(ctx context.Context, name, url string) (*MCPToolSource, error) {
	c, err := client.NewSSEMCPClient(url)
	if err != nil {
		return nil, fmt.Errorf("mcp source %s: connect: %w", name, err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "hectorcore", Version: "0.1.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, fmt.Errorf("mcp source %s: initialize: %w", name, err)
	}
	return &MCPToolSource{name: name, mcp: c}, nil
}

// DiscoverTools lists every tool the remote server advertises and
// returns a Tool wrapper for each.
func (s *MCPToolSource) DiscoverTools(ctx context.Context) ([]Tool, error) {
	res, err := s.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp source %s: list tools: %w", s.name, err)
	}
	tools := make([]Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, &mcpTool{source: s, name: t.Name, description: t.Description})
	}
	return tools, nil
}

// mcpTool delegates Execute to its owning source's MCP session.
type mcpTool struct {
	source      *MCPToolSource
	name        string
	description string
}

func (t *mcpTool) Name() string                 { return t.name }
func (t *mcpTool) Description() string          { return t.description }
func (t *mcpTool) Parameters() []ParameterSchema { return nil }
func (t *mcpTool) WorkScope() WorkScope          { return WorkScope{Environment: "network"} }
func (t *mcpTool) Cacheable() bool               { return true }

func (t *mcpTool) SecurityCheck(_ context.Context, _ map[string]any) error { return nil }

func (t *mcpTool) Execute(ctx context.Context, params map[string]any) (types.ToolOutput, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.name
	req.Params.Arguments = params

	res, err := t.source.mcp.CallTool(ctx, req)
	if err != nil {
		return types.ToolOutput{Success: false, Error: err.Error()}, nil
	}
	if res.IsError {
		return types.ToolOutput{Success: false, Error: summarizeMCPContent(res.Content)}, nil
	}

	summary := summarizeMCPContent(res.Content)
	data, _ := json.Marshal(res.Content)
	return types.ToolOutput{Success: true, Summary: summary, Data: json.RawMessage(data)}, nil
}

func summarizeMCPContent(content []mcp.Content) string {
	for _, c := range content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
