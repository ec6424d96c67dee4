package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/embedding"
	"github.com/hectorcore/hectorcore/internal/eventbus"
	"github.com/hectorcore/hectorcore/internal/historylog"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/memory"
	"github.com/hectorcore/hectorcore/internal/optimalinfo"
	"github.com/hectorcore/hectorcore/internal/router"
	"github.com/hectorcore/hectorcore/internal/safety"
	"github.com/hectorcore/hectorcore/internal/supervisor"
	"github.com/hectorcore/hectorcore/internal/tool"
)

// app bundles every long-lived handle ask/chat need, so each command
// only has to build one of these rather than repeat the wiring.
type app struct {
	cfg        *config.Config
	supervisor *supervisor.Supervisor
	history    *historylog.Log
	bus        *eventbus.Bus
}

// buildApp constructs every subsystem named in SPEC_FULL.md's MODULE
// LAYOUT and wires them into one Supervisor, mirroring the teacher's
// cmd/hector/main.go Run() sequence (load config -> build registries
// -> build runtime -> build executors) restated against this repo's
// own subsystem set instead of the teacher's agent/team runtime.
func buildApp(cfg *config.Config, projectDir string) (*app, error) {
	providers := llmprovider.NewRegistry()
	for name, pc := range cfg.LLM.Providers {
		if _, err := providers.CreateFromConfig(name, pc); err != nil {
			return nil, fmt.Errorf("hectorcore: provider %s: %w", name, err)
		}
	}

	embedder := embedding.NewHashingProvider(256)
	store, err := memory.NewStore(cfg.Memory, embedder)
	if err != nil {
		return nil, fmt.Errorf("hectorcore: memory store: %w", err)
	}
	if err := store.LoadSnapshot(context.Background()); err != nil {
		slog.Warn("hectorcore: no memory snapshot loaded", "error", err)
	}

	sessions, err := memory.NewSessionService("./data/sessions", cfg.Memory.EpisodicMaxTurns, cfg.Memory.EpisodicMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("hectorcore: session service: %w", err)
	}

	guard := safety.NewGuard(cfg.Safety, safety.CommandPolicy{}, nil)

	tiny := firstProviderFor(cfg, "tiny")
	rt := router.New(cfg.Router, tiny)

	tools := tool.New()
	registerBuiltinTools(tools, projectDir)

	var optimal *optimalinfo.Selector
	if standard := firstProviderFor(cfg, "standard"); standard != nil {
		optimal = optimalinfo.New(standard, slog.Default())
	}

	bus := eventbus.New()
	history := historylog.New(cfg.History.Path, cfg.History.MaxBytes)

	sup := supervisor.New(providers, tools, guard, rt, store, sessions, optimal, bus, projectDir, cfg.Supervisor, cfg.Reasoning)

	// call_agent needs the Supervisor itself as its AgentCaller, so it
	// can only be registered once the Supervisor exists.
	_ = tools.Register(&tool.AgentCallTool{Caller: sup})

	return &app{cfg: cfg, supervisor: sup, history: history, bus: bus}, nil
}

// registerBuiltinTools registers every built-in tool the default
// agent profiles (internal/supervisor/profiles.go) name in their
// allow-lists, scoping filesystem/shell tools to projectDir.
func registerBuiltinTools(tools *tool.Registry, projectDir string) {
	_ = tools.Register(&tool.ListDirTool{WorkingDirectory: projectDir})
	_ = tools.Register(&tool.ReadFileTool{WorkingDirectory: projectDir})
	_ = tools.Register(&tool.ShellExecTool{WorkingDirectory: projectDir})
}

// firstProviderFor resolves the provider registered for scale's
// configured model name, building a fresh unregistered instance
// (rather than looking it up in the registry) so callers that run
// before the registry is fully populated — the Router's classifier and
// the optimal-info selector both only need a usable Provider, not a
// shared one — still get a working client.
func firstProviderFor(cfg *config.Config, scale string) llmprovider.Provider {
	name, ok := cfg.Router.ModelsByTier[scale]
	if !ok {
		return nil
	}
	pc, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil
	}
	switch pc.Type {
	case "local":
		return llmprovider.NewLocalProvider(pc)
	case "remote":
		return llmprovider.NewRemoteProvider(pc)
	default:
		return nil
	}
}

// sortedProviderNames is used by the info command to print a
// deterministic provider list.
func sortedProviderNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.LLM.Providers))
	for name := range cfg.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
