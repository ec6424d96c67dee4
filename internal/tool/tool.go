// Package tool implements the Tool Registry (spec §4.2): a catalog of
// capabilities keyed by name, with per-tool work-scope declarations,
// execution caching, and parallel execution.
//
// Grounded on the teacher's pkg/tools package (Tool/ToolInfo/ToolResult
// interface shapes, registry.BaseRegistry composition) and
// pkg/tools/command.go (timeout-via-context, config-driven defaults).
package tool

import (
	"context"
	"time"

	"github.com/hectorcore/hectorcore/internal/types"
)

// ParameterSchema describes one parameter in JSON-schema shape.
type ParameterSchema struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Enum        []string       `json:"enum,omitempty"`
	Items       map[string]any `json:"items,omitempty"`
}

// WorkScope is a tool's self-description of constraints, side effects,
// and approval requirements (glossary: "Work scope").
type WorkScope struct {
	Status               string   // e.g. "stable", "experimental"
	Environment          string   // e.g. "local", "sandbox", "network"
	SideEffects          []string // e.g. "filesystem_write", "network_egress"
	RequiresConfirmation bool
}

// defaultTimeout and sandboxTimeout are the wall-clock execution caps
// spec §5 names: 30s for ordinary tools (code execution included), 60s
// for anything running in a sandboxed environment.
const (
	defaultTimeout = 30 * time.Second
	sandboxTimeout = 60 * time.Second
)

func (w WorkScope) timeout() time.Duration {
	if w.Environment == "sandbox" {
		return sandboxTimeout
	}
	return defaultTimeout
}

// Tool is one registered capability.
type Tool interface {
	Name() string
	Description() string
	Parameters() []ParameterSchema
	WorkScope() WorkScope

	// Cacheable reports whether successful outputs may be memoized by
	// (name, canonical-params). Most tools are cacheable; tools with
	// externally-changing side effects (e.g. a clock, a mutable
	// filesystem listing) should return false.
	Cacheable() bool

	// SecurityCheck runs before Execute. A non-nil error short-circuits
	// execution with a failure Tool Output; tools with no additional
	// constraints beyond the Safety Guard return nil.
	SecurityCheck(ctx context.Context, params map[string]any) error

	// Execute runs the tool. The Tool Registry wraps this call with a
	// timeout derived from WorkScope().
	Execute(ctx context.Context, params map[string]any) (types.ToolOutput, error)
}
