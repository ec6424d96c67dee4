package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hectorcore/hectorcore/internal/registry"
	"github.com/hectorcore/hectorcore/internal/types"
	"golang.org/x/sync/errgroup"
)

// Registry holds every registered Tool plus the execution cache (spec
// §4.2). Unlike registry.BaseRegistry, Register here replaces rather
// than rejects a duplicate name — "later registrations of the same
// name replace" is the spec's explicit semantics, needed so forged
// tools and hot-reloaded dynamic tools can supersede a prior
// definition.
type Registry struct {
	base *registry.BaseRegistry[Tool]

	cacheMu sync.Mutex
	cache   map[string]types.ToolOutput // key: ToolCall.CanonicalJSON()
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		base:  registry.NewBaseRegistry[Tool](),
		cache: make(map[string]types.ToolOutput),
	}
}

// Register adds t, replacing any existing tool of the same name.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool registry: tool name cannot be empty")
	}
	if _, exists := r.base.Get(name); exists {
		_ = r.base.Remove(name)
	}
	return r.base.Register(name, t)
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	return r.base.Get(name)
}

// Names lists every registered tool name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.base.Count())
	for _, t := range r.base.List() {
		names = append(names, t.Name())
	}
	sort.Strings(names)
	return names
}

// Execute runs call, consulting and populating the execution cache.
// A missing tool, a failed security check, a timeout, or an error from
// the tool's own Execute all produce a failure Tool Output; Execute has
// no error return.
func (r *Registry) Execute(ctx context.Context, call types.ToolCall) types.ToolOutput {
	key := call.CanonicalJSON()

	r.cacheMu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.cacheMu.Unlock()
		return cached
	}
	r.cacheMu.Unlock()

	t, exists := r.Get(call.Name)
	if !exists {
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("tool %q not found", call.Name)}
	}

	if err := t.SecurityCheck(ctx, call.Params); err != nil {
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("security check failed: %v", err)}
	}

	execCtx, cancel := context.WithTimeout(ctx, t.WorkScope().timeout())
	defer cancel()

	out, err := t.Execute(execCtx, call.Params)
	if execCtx.Err() != nil {
		return types.ToolOutput{Success: false, Error: fmt.Sprintf("tool %q timed out", call.Name)}
	}
	if err != nil {
		if out.Error == "" {
			out.Error = err.Error()
		}
		out.Success = false
	}
	out = out.Truncate()

	if out.Success && t.Cacheable() {
		r.cacheMu.Lock()
		r.cache[key] = out
		r.cacheMu.Unlock()
	}
	return out
}

// ExecuteParallel runs calls concurrently and returns their outputs in
// the same order as calls, satisfying spec §4.4's "tool calls within a
// step are concurrent but their observations are emitted in the same
// order as the calls."
func (r *Registry) ExecuteParallel(ctx context.Context, calls []types.ToolCall) []types.ToolOutput {
	outputs := make([]types.ToolOutput, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			outputs[i] = r.Execute(gctx, call)
			return nil
		})
	}
	_ = g.Wait() // Execute never returns an error from the goroutine itself
	return outputs
}

// ToolsPrompt renders a structured description of the allow-listed
// tools, suitable for splicing into a reasoning prompt.
func (r *Registry) ToolsPrompt(allowList []string) string {
	allowed := make(map[string]bool, len(allowList))
	for _, name := range allowList {
		allowed[name] = true
	}

	var names []string
	for _, t := range r.base.List() {
		if allowed[t.Name()] {
			names = append(names, t.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		t, _ := r.Get(name)
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		for _, p := range t.Parameters() {
			req := ""
			if p.Required {
				req = ", required"
			}
			fmt.Fprintf(&b, "    %s (%s%s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	return b.String()
}

// InvalidateCache drops the cached output for call. Nothing in this
// repository calls it; Register does not clear cached outputs of a
// replaced tool.
func (r *Registry) InvalidateCache(call types.ToolCall) {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	delete(r.cache, call.CanonicalJSON())
}
