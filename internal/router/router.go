// Package router implements the Router (spec §4.4): for a given
// request, decide which agent kinds should attempt it and at what
// scale. A heuristic fast-path handles most queries; an LLM
// classification call is the fallback. Grounded throughout on
// original_source's src/orchestrator/router.rs and src/orchestrator/
// scale.rs, the Rust implementation this module's algorithm was
// distilled from.
package router

import (
	"context"
	"strings"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/types"
)

// Router classifies requests into a RoutingDecision.
type Router struct {
	cfg             config.RouterConfig
	fallback        llmprovider.Provider // used only when no heuristic fires
	vramAvailableGB float64
}

// New builds a Router. fallback may be nil; if every query is handled
// by a heuristic, it is never called, but an unmatched query with a
// nil fallback returns a default Reasoner decision rather than a
// panic.
func New(cfg config.RouterConfig, fallback llmprovider.Provider) *Router {
	return &Router{cfg: cfg, fallback: fallback, vramAvailableGB: defaultVRAMGB}
}

// WithVRAMAvailableGB overrides the hardware-detection hint used to
// break Standard/Heavy scale ties.
func (r *Router) WithVRAMAvailableGB(gb float64) *Router {
	r.vramAvailableGB = gb
	return r
}

// Route classifies query into a RoutingDecision.
func (r *Router) Route(ctx context.Context, query string) (types.RoutingDecision, error) {
	q := strings.ToLower(query)
	complexity := scaleProbe(query, r.vramAvailableGB)
	scale := complexityToScale(complexity, r.vramAvailableGB)
	reasoningRequired := complexity > 0.3 || mentionsTool(q)

	decision, matched := r.fastPath(q, scale, reasoningRequired)
	if !matched {
		llmDecision, err := r.classify(ctx, query)
		if err != nil {
			return types.RoutingDecision{}, err
		}
		llmDecision.Scale = scale
		llmDecision.ReasoningRequired = reasoningRequired
		decision = llmDecision
	}

	decision = expandHeavyPortfolio(decision)
	decision.Model = r.modelFor(decision.Scale)
	return decision, nil
}

// fastPath tries each surface-cue heuristic in priority order. The
// second return value reports whether one matched.
func (r *Router) fastPath(q string, scale types.ScaleTier, reasoningRequired bool) (types.RoutingDecision, bool) {
	if mentionsTool(q) {
		return types.RoutingDecision{
			CandidateAgents:   []types.AgentKind{types.AgentCoder},
			ReasoningRequired: true,
			Confidence:        0.95,
			Rationale:         "query explicitly mentions tool usage",
			Scale:             scale,
		}, true
	}

	// Deviates from original_source here: the original's is_short_simple
	// doesn't exclude filesystem/graph keywords, so a short query like
	// "list the files here" would fall through to GeneralChat before
	// ever reaching the filesystem branch below. spec.md §4.4 lists
	// "filesystem/directory keywords -> Coder" as an unconditional
	// fast-path match, so it's excluded here too.
	isShortSimple := len(q) < 60 && !isCodeRelated(q) && !isResearchRelated(q) && !isPlanningRelated(q) &&
		!isFilesystemRelated(q) && !isKnowledgeGraphRelated(q)
	if isShortSimple || isGreeting(q) || isIdentityQuery(q) {
		return types.RoutingDecision{
			CandidateAgents:   []types.AgentKind{types.AgentGeneralChat},
			ReasoningRequired: false,
			Confidence:        0.9,
			Rationale:         "simple greeting or short message",
			Scale:             types.ScaleTiny,
		}, true
	}

	if isFilesystemRelated(q) {
		return types.RoutingDecision{
			CandidateAgents:   []types.AgentKind{types.AgentCoder},
			ReasoningRequired: true,
			Confidence:        0.95,
			Rationale:         "direct filesystem query",
			Scale:             scale,
		}, true
	}

	if isKnowledgeGraphRelated(q) {
		return types.RoutingDecision{
			CandidateAgents:    []types.AgentKind{types.AgentReasoner},
			ShouldSearchMemory: true,
			ReasoningRequired:  true,
			Confidence:         0.9,
			Rationale:          "knowledge graph or relationship query",
			Scale:              scale,
		}, true
	}

	if isCodeRelated(q) && !isComplexQuery(q) {
		return types.RoutingDecision{
			CandidateAgents:   []types.AgentKind{types.AgentCoder},
			ReasoningRequired: true,
			Confidence:        0.85,
			Rationale:         "query contains code-related keywords",
			Scale:             clampAtLeast(scale, types.ScaleStandard),
		}, true
	}

	if isPlanningRelated(q) || isComplexQuery(q) {
		return types.RoutingDecision{
			CandidateAgents:    []types.AgentKind{types.AgentPlanner},
			ShouldSearchMemory: true,
			ReasoningRequired:  true,
			Confidence:         0.8,
			Rationale:          "query involves planning or task decomposition",
			Scale:              scale,
		}, true
	}

	if isResearchRelated(q) {
		return types.RoutingDecision{
			CandidateAgents:    []types.AgentKind{types.AgentResearcher},
			ShouldSearchMemory: true,
			ReasoningRequired:  true,
			Confidence:         0.8,
			Rationale:          "query requires information gathering",
			Scale:              scale,
		}, true
	}

	return types.RoutingDecision{}, false
}

func (r *Router) classify(ctx context.Context, query string) (types.RoutingDecision, error) {
	if r.fallback == nil {
		return types.RoutingDecision{
			CandidateAgents:   []types.AgentKind{types.AgentReasoner},
			ReasoningRequired: true,
			Confidence:        0.5,
			Rationale:         "no heuristic matched and no fallback classifier configured",
		}, nil
	}
	return classifyWithLLM(ctx, r.fallback, query)
}

// expandHeavyPortfolio mandates at least two candidates at Heavy scale
// (spec §4.4: "expand the single candidate to at least two... Coder +
// Reasoner or Researcher + Reasoner").
func expandHeavyPortfolio(decision types.RoutingDecision) types.RoutingDecision {
	if decision.Scale != types.ScaleHeavy || len(decision.CandidateAgents) >= 2 {
		return decision
	}
	switch decision.CandidateAgents[0] {
	case types.AgentCoder:
		decision.CandidateAgents = append(decision.CandidateAgents, types.AgentReasoner)
	case types.AgentResearcher:
		decision.CandidateAgents = append(decision.CandidateAgents, types.AgentReasoner)
	default:
		decision.CandidateAgents = append(decision.CandidateAgents, types.AgentResearcher)
	}
	return decision
}

func (r *Router) modelFor(scale types.ScaleTier) string {
	if model, ok := r.cfg.ModelsByTier[scale.String()]; ok {
		return model
	}
	return r.cfg.ModelsByTier["standard"]
}

// ModelForScale exposes modelFor so the Supervisor's escalation loop
// (spec §4.7 step 5: "bump the scale to the next tier... and retry")
// can resolve a target model for a tier the original routing decision
// didn't pick.
func (r *Router) ModelForScale(scale types.ScaleTier) string {
	return r.modelFor(scale)
}
