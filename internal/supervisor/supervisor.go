// Package supervisor implements the Supervisor (spec §4.7): the
// orchestration entry point for one user turn. It persists history,
// compacts episodic memory, gathers context concurrently (semantic
// memory search, routing decision, project-context files), optionally
// injects optimal-information verification lines, runs an escalation
// loop of candidate reasoning loops bounded by a concurrency
// semaphore, aggregates their answers into a winning Publication, and
// owns the human-in-the-loop approve/reject state machine for any
// turn that pauses on a risky tool call.
//
// Grounded throughout on original_source's src/orchestrator/
// supervisor.rs (Supervisor::handle) — the closest 1:1 match in the
// whole retrieval pack to this module's responsibilities — and
// context.rs (ContextLoader). The teacher has no single-turn
// orchestration concept of its own at this scope (its pkg/team runs a
// fixed static pipeline, not an escalating multi-candidate portfolio),
// so this package's control flow is ported from the Rust original and
// restated in the teacher's idiom: exported constructor + config
// struct, errgroup-based fan-out, slog logging.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hectorcore/hectorcore/internal/aggregator"
	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/eventbus"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/memory"
	"github.com/hectorcore/hectorcore/internal/optimalinfo"
	"github.com/hectorcore/hectorcore/internal/reasoning"
	"github.com/hectorcore/hectorcore/internal/router"
	"github.com/hectorcore/hectorcore/internal/safety"
	"github.com/hectorcore/hectorcore/internal/tool"
	"github.com/hectorcore/hectorcore/internal/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// memorySearchK is how many semantic memory entries are folded into
// context per turn.
const memorySearchK = 5

// subagentSessionID scopes Safety Guard approvals for calls made by
// CallAgent (tool.AgentCaller) — a peer-to-peer delegation has no
// parent session of its own to suspend on, so sub-agent calls share
// one fixed session bucket rather than a per-caller one. A deliberate
// simplification: a call made through call_agent can't pause for
// human approval the way a top-level turn can; if the sub-agent's loop
// reaches a call that needs approval, CallAgent returns an error
// instead. See DESIGN.md.
const subagentSessionID = "__subagent__"

// Result is what Handle returns for one turn: exactly one of
// Publication or Pending is set, unless Err is non-nil.
type Result struct {
	Publication *types.Publication
	Pending     *types.ApprovalRequest
	Err         error
}

// pendingTurn is the suspended state of one turn awaiting a human
// decision, keyed by session ID so Approve/Reject can find it again.
type pendingTurn struct {
	loop        *reasoning.Loop
	query       string
	contextText string
	pending     types.PendingApproval
	kind        types.AgentKind
	startedAt   time.Time
}

// Supervisor is the turn-level orchestrator described in spec §4.7.
type Supervisor struct {
	providers  *llmprovider.Registry
	tools      *tool.Registry
	guard      *safety.Guard
	router     *router.Router
	memory     *memory.Store
	sessions   *memory.SessionService
	optimal    *optimalinfo.Selector // nil disables step 4 entirely
	bus        *eventbus.Bus         // nil disables telemetry publication
	projectDir string                // root directory context.go walks upward from

	cfg          config.SupervisorConfig
	reasoningCfg config.ReasoningConfig
	sem          *semaphore.Weighted

	mu      sync.Mutex
	pending map[string]*pendingTurn
}

// New builds a Supervisor. optimal and bus may both be nil.
func New(
	providers *llmprovider.Registry,
	tools *tool.Registry,
	guard *safety.Guard,
	rt *router.Router,
	store *memory.Store,
	sessions *memory.SessionService,
	optimal *optimalinfo.Selector,
	bus *eventbus.Bus,
	projectDir string,
	cfg config.SupervisorConfig,
	reasoningCfg config.ReasoningConfig,
) *Supervisor {
	return &Supervisor{
		providers:    providers,
		tools:        tools,
		guard:        guard,
		router:       rt,
		memory:       store,
		sessions:     sessions,
		optimal:      optimal,
		bus:          bus,
		projectDir:   projectDir,
		cfg:          cfg,
		reasoningCfg: reasoningCfg,
		sem:          semaphore.NewWeighted(int64(cfg.ConcurrencyCap)),
		pending:      make(map[string]*pendingTurn),
	}
}

// Handle runs one full user turn to completion: it either returns a
// Publication, parks the turn pending human approval, or fails outright
// (spec §4.7).
func (s *Supervisor) Handle(ctx context.Context, req types.Request) Result {
	started := time.Now()
	s.publish(eventbus.KindTurnStarted, req.SessionID, nil)

	if err := s.sessions.AppendTurn(req.SessionID, types.EpisodicTurn{
		Role: types.RoleUser, Content: req.Text, Timestamp: started,
	}); err != nil {
		return Result{Err: fmt.Errorf("supervisor: append user turn: %w", err)}
	}
	s.compactSession(ctx, req.SessionID)

	memoryHits, decision, projectContext := s.gatherContext(ctx, req)
	contextText := s.buildContextText(ctx, req, memoryHits, decision, projectContext)

	result := s.runEscalationLoop(ctx, req, decision, contextText)
	if result.Pending != nil {
		s.publish(eventbus.KindStatusUpdate, req.SessionID, map[string]any{"state": "pending_approval"})
		return result
	}
	if result.Err != nil {
		s.publish(eventbus.KindTurnFinished, req.SessionID, map[string]any{"success": false})
		return result
	}

	result.Publication.LatencyMS = time.Since(started).Milliseconds()
	_ = s.sessions.AppendTurn(req.SessionID, types.EpisodicTurn{
		Role: types.RoleAssistant, Content: result.Publication.Answer, Timestamp: time.Now(),
	})
	s.publish(eventbus.KindTurnFinished, req.SessionID, map[string]any{
		"success": true, "latency_ms": result.Publication.LatencyMS,
	})
	return result
}

// compactSession runs episodic compaction (spec §4.7 step 2) against a
// tiny-tier provider, persisting the result only if it changed the
// turn count (a compaction whose middle span is a single turn leaves
// the count unchanged and is not persisted). A missing tiny-tier
// provider simply skips compaction for
// this turn — it is a latency optimization, never load-bearing.
func (s *Supervisor) compactSession(ctx context.Context, sessionID string) {
	turns, err := s.sessions.Episodic(sessionID)
	if err != nil {
		return
	}
	provider, err := s.providers.Get(s.router.ModelForScale(types.ScaleTiny))
	if err != nil {
		return
	}
	compacted := compactIfNeeded(ctx, provider, turns, s.cfg.CompactionThreshold)
	if len(compacted) != len(turns) {
		_ = s.sessions.Compact(sessionID, compacted)
	}
}

// gatherContext runs the three context sources concurrently (spec
// §4.7 step 3): a semantic memory search, the Router's decision, and
// recursively discovered project-context files. None of the three can
// fail the turn: memory search and project context are best-effort,
// and a routing error falls back to a Reasoner decision at Standard
// scale.
func (s *Supervisor) gatherContext(ctx context.Context, req types.Request) ([]types.MemoryEntry, types.RoutingDecision, string) {
	var memoryHits []types.MemoryEntry
	var decision types.RoutingDecision
	var projectContext string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := s.memory.Search(gctx, req.Text, memorySearchK, "", "")
		if err == nil {
			memoryHits = hits
		}
		return nil // memory search is best-effort; never fails the turn
	})
	g.Go(func() error {
		d, err := s.router.Route(gctx, req.Text)
		if err != nil {
			return err
		}
		decision = d
		return nil
	})
	g.Go(func() error {
		projectContext = loadProjectContext(s.projectDir)
		return nil
	})

	if err := g.Wait(); err != nil {
		decision = types.RoutingDecision{
			CandidateAgents: []types.AgentKind{types.AgentReasoner},
			Scale:           types.ScaleStandard,
			Rationale:       "router unavailable, defaulting to Reasoner: " + err.Error(),
		}
	}
	return memoryHits, decision, projectContext
}

// buildContextText assembles every gathered context source plus,
// optionally, optimal-information verification lines (spec §4.7 step
// 4) into the single context string every candidate reasoning loop
// receives.
func (s *Supervisor) buildContextText(ctx context.Context, req types.Request, memoryHits []types.MemoryEntry, decision types.RoutingDecision, projectContext string) string {
	var b strings.Builder
	if len(memoryHits) > 0 {
		b.WriteString("Relevant memory:\n")
		for _, m := range memoryHits {
			b.WriteString("- " + m.Content + "\n")
		}
	}
	if projectContext != "" {
		b.WriteString(projectContext)
	}
	if s.optimal != nil && decision.ReasoningRequired {
		queries, err := s.optimal.SelectMinimalQueries(ctx, req.Text, decision.Rationale)
		if err == nil && len(queries) > 0 {
			b.WriteString("\n" + optimalinfo.FormatVerifiedLines(queries))
		}
	}
	return b.String()
}

// candidateResult is one candidate agent's finished reasoning loop.
type candidateResult struct {
	kind types.AgentKind
	loop *reasoning.Loop
	resp types.AgentResponse
}

// runEscalationLoop runs up to cfg.MaxEscalations attempts (spec §4.7
// step 5), bumping the scale tier between attempts, until a winning
// candidate succeeds, a winning candidate pauses on approval, or every
// tier has been tried. Grounded on supervisor.rs's own escalation for
// loop: the winner of each attempt is always kept as the running
// "final_res" even on failure, so a turn that exhausts every tier
// still surfaces the most-recent winner's error rather than a generic
// one.
func (s *Supervisor) runEscalationLoop(ctx context.Context, req types.Request, decision types.RoutingDecision, contextText string) Result {
	scale := decision.Scale
	var lastKind types.AgentKind
	var lastResp types.AgentResponse
	haveResult := false

	for attempt := 0; attempt < s.cfg.MaxEscalations; attempt++ {
		if attempt > 0 {
			next := scale.Next()
			if next == scale {
				break // already at the intelligence ceiling
			}
			scale = next
		}

		results := s.runCandidates(ctx, req, decision, scale, contextText)
		if len(results) == 0 {
			continue
		}

		candidates := make([]types.Candidate, len(results))
		for i, r := range results {
			candidates[i] = candidateFrom(r)
		}
		winner := aggregator.Select(candidates)
		winnerResult := results[winner]

		if winnerResult.resp.Success {
			return s.publication(req, winnerResult, candidates, scale)
		}
		if winnerResult.resp.Pending != nil {
			s.mu.Lock()
			s.pending[req.SessionID] = &pendingTurn{
				loop: winnerResult.loop, query: req.Text, contextText: contextText,
				pending: *winnerResult.resp.Pending, kind: winnerResult.kind, startedAt: time.Now(),
			}
			s.mu.Unlock()
			return Result{Pending: &winnerResult.resp.Pending.Request}
		}

		lastKind, lastResp, haveResult = winnerResult.kind, winnerResult.resp, true
	}

	if !haveResult {
		return Result{Err: fmt.Errorf("supervisor: no candidate agent produced a response")}
	}
	return Result{Err: fmt.Errorf("supervisor: all escalation attempts failed, last performer %s: %s", lastKind, lastResp.Error)}
}

// runCandidates spawns one reasoning.Loop per candidate agent kind at
// scale, bounded by the concurrency semaphore (spec §5: "a semaphore
// caps simultaneously-running reasoning loops"). A candidate whose
// provider can't be resolved is skipped rather than failing the whole
// attempt, mirroring supervisor.rs's `match tr { Ok(Ok(res)) => ...,
// _ => warn!(...) }`.
func (s *Supervisor) runCandidates(ctx context.Context, req types.Request, decision types.RoutingDecision, scale types.ScaleTier, contextText string) []candidateResult {
	model := s.router.ModelForScale(scale)
	results := make([]candidateResult, len(decision.CandidateAgents))
	present := make([]bool, len(decision.CandidateAgents))

	var wg sync.WaitGroup
	for i, kind := range decision.CandidateAgents {
		provider, err := s.providers.Get(model)
		if err != nil {
			slog.Warn("supervisor: model unavailable for candidate", "kind", kind, "model", model, "error", err)
			continue
		}
		if err := s.sem.Acquire(ctx, 1); err != nil {
			continue
		}
		wg.Add(1)
		go func(i int, kind types.AgentKind, provider llmprovider.Provider) {
			defer wg.Done()
			defer s.sem.Release(1)

			profile := profileFor(kind)
			loop := reasoning.New(provider, s.tools, s.guard, reasoning.AgentConfig{
				Kind: kind, SystemPrompt: profile.SystemPrompt, AllowedTools: profile.AllowedTools,
			}, req.SessionID, s.reasoningCfg)

			resp := loop.Run(ctx, req.Text, contextText)
			results[i] = candidateResult{kind: kind, loop: loop, resp: resp}
			present[i] = true
		}(i, kind, provider)
	}
	wg.Wait()

	out := make([]candidateResult, 0, len(results))
	for i, ok := range present {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

// candidateFrom scores one candidate's reasoning response (spec §4.6:
// Quality/Risk feed the Pareto score). 0.9/0.1 success/failure quality
// and a flat 0.1 risk are ported verbatim from supervisor.rs's own
// Candidate construction — neither original_source nor this repo has
// a finer-grained quality estimator than "did it finish successfully".
func candidateFrom(r candidateResult) types.Candidate {
	quality := 0.1
	if r.resp.Success {
		quality = 0.9
	}
	return types.Candidate{
		AgentID:    string(r.kind),
		Answer:     r.resp.Answer,
		Quality:    quality,
		Risk:       0.1,
		CostTokens: r.resp.TokensUsed,
		Assurance:  types.AssuranceL1,
	}
}

// publication builds the success-path Publication bundle (spec §4.7
// step 6).
func (s *Supervisor) publication(req types.Request, winner candidateResult, candidates []types.Candidate, scale types.ScaleTier) Result {
	return Result{Publication: &types.Publication{
		Answer:        winner.resp.Answer,
		Trace:         winner.resp.Trace,
		Scale:         scale,
		Model:         s.router.ModelForScale(scale),
		ToolCallCount: types.ToolCallCount(winner.resp.Trace),
		EvidenceCount: types.EvidenceCount(winner.resp.Trace),
		Reliability:   reliability(winner.resp.Trace),
		Rationale:     fmt.Sprintf("winner: %s (assurance %s)", winner.kind, aggregator.RollUpAssurance(candidates)),
	}}
}

// reliability derives a [0,1] score from how much evidence backs the
// answer: more successful observations per tool call raises
// confidence. A turn with no tool calls at all (a pure-chat answer)
// scores a neutral 0.7 rather than 0 or 1.
func reliability(trace []types.ReasoningStep) float64 {
	calls := types.ToolCallCount(trace)
	if calls == 0 {
		return 0.7
	}
	evidence := types.EvidenceCount(trace)
	score := float64(evidence) / float64(calls)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Approve resumes a turn parked on a pending approval, registering the
// hash with the Safety Guard first so the resumed loop's re-check
// clears (spec §4.7: "On approve, the Safety Guard registers the hash;
// the Supervisor resumes from the paused step").
func (s *Supervisor) Approve(ctx context.Context, sessionID string) Result {
	return s.resolvePending(ctx, sessionID, true)
}

// Reject surfaces a failure for a turn parked on a pending approval,
// without executing the blocked call.
func (s *Supervisor) Reject(ctx context.Context, sessionID string) Result {
	return s.resolvePending(ctx, sessionID, false)
}

func (s *Supervisor) resolvePending(ctx context.Context, sessionID string, approved bool) Result {
	s.mu.Lock()
	pt, ok := s.pending[sessionID]
	if ok {
		delete(s.pending, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return Result{Err: fmt.Errorf("supervisor: no pending approval for session %s", sessionID)}
	}

	if approved {
		s.guard.Approve(sessionID, pt.pending.Request.Hash)
	}
	resp := pt.loop.Resume(ctx, pt.query, pt.contextText, pt.pending, approved)

	if resp.Pending != nil {
		s.mu.Lock()
		s.pending[sessionID] = &pendingTurn{
			loop: pt.loop, query: pt.query, contextText: pt.contextText,
			pending: *resp.Pending, kind: pt.kind, startedAt: pt.startedAt,
		}
		s.mu.Unlock()
		return Result{Pending: &resp.Pending.Request}
	}
	if !resp.Success {
		return Result{Err: fmt.Errorf("supervisor: resumed turn failed: %s", resp.Error)}
	}

	candidate := candidateFrom(candidateResult{kind: pt.kind, resp: resp})
	return s.publication(types.Request{SessionID: sessionID}, candidateResult{kind: pt.kind, resp: resp}, []types.Candidate{candidate}, types.ScaleStandard)
}

// Steer forwards an out-of-band steering message to a session's
// parked reasoning loop, if one exists (spec §4.5). Only a loop parked
// on a pending approval is reachable; a loop still running inside
// Handle is not registered here. Returns false if no loop is parked
// for sessionID.
func (s *Supervisor) Steer(sessionID, message string) bool {
	s.mu.Lock()
	pt, ok := s.pending[sessionID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return pt.loop.Steer(message)
}

// CallAgent implements tool.AgentCaller, letting one agent delegate a
// sub-task to another kind through the call_agent tool. Sub-agent
// calls run a single, non-escalating reasoning loop at Standard scale
// and share subagentSessionID's Safety Guard approval scope (see its
// doc comment).
func (s *Supervisor) CallAgent(ctx context.Context, agentKindStr, request string) (string, error) {
	kind := types.AgentKind(agentKindStr)
	model := s.router.ModelForScale(types.ScaleStandard)
	provider, err := s.providers.Get(model)
	if err != nil {
		return "", fmt.Errorf("supervisor: call_agent: resolve model %s: %w", model, err)
	}

	profile := profileFor(kind)
	loop := reasoning.New(provider, s.tools, s.guard, reasoning.AgentConfig{
		Kind: kind, SystemPrompt: profile.SystemPrompt, AllowedTools: profile.AllowedTools,
	}, subagentSessionID, s.reasoningCfg)

	resp := loop.Run(ctx, request, "")
	if resp.Pending != nil {
		return "", fmt.Errorf("supervisor: call_agent: sub-agent %s paused on a call requiring approval", kind)
	}
	if !resp.Success {
		return "", fmt.Errorf("supervisor: call_agent: sub-agent %s failed: %s", kind, resp.Error)
	}
	return resp.Answer, nil
}

func (s *Supervisor) publish(kind eventbus.Kind, sessionID string, attrs map[string]any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Kind: kind, SessionID: sessionID, Attrs: attrs})
}
