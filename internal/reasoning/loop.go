// Package reasoning implements the Reasoning Loop / Agent (spec §4.5):
// one agent's think -> act -> observe cycle, up to a configured
// iteration cap, with a laziness filter, a loop guard against
// repeating identical tool calls, per-call Safety Guard gating, and an
// out-of-band steering message queue. Grounded on original_source's
// src/agent/react.rs (ReActAgent::execute/step/build_react_prompt),
// since the teacher's own pkg/reasoning strategies drive native
// provider function-calling (OpenAI/Anthropic tool_calls) rather than
// the strict THOUGHT/ACTION/ANSWER text-tag format spec.md mandates.
package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/safety"
	"github.com/hectorcore/hectorcore/internal/tool"
	"github.com/hectorcore/hectorcore/internal/types"
)

const (
	lazinessHint  = "SYSTEM HINT: Your query requires ACTION (creating, analyzing, searching, running a command). You MUST use tools before giving a final answer."
	loopGuardHint = "SYSTEM HINT: you just ran these same tools with the same parameters. Try different tools or different parameters, or provide your ANSWER based on what you already know."
)

// AgentConfig configures one Loop instance.
type AgentConfig struct {
	Kind          types.AgentKind
	SystemPrompt  string
	AllowedTools  []string
	MaxIterations int
}

// Loop drives one agent through its reasoning cycle for a single user
// turn.
type Loop struct {
	provider  llmprovider.Provider
	tools     *tool.Registry
	guard     *safety.Guard
	cfg       AgentConfig
	sessionID string

	steer chan string
}

// New builds a Loop. provider should already be bound to the model the
// Router selected for this agent/scale; tools and guard are shared
// across agents in one Supervisor turn.
func New(provider llmprovider.Provider, tools *tool.Registry, guard *safety.Guard, cfg AgentConfig, sessionID string, reasoningCfg config.ReasoningConfig) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = reasoningCfg.MaxIterations
	}
	return &Loop{
		provider:  provider,
		tools:     tools,
		guard:     guard,
		cfg:       cfg,
		sessionID: sessionID,
		steer:     make(chan string, reasoningCfg.SteerQueueSize),
	}
}

// Steer queues an out-of-band steering message, spliced into the next
// iteration's prompt as a high-priority user-side instruction (spec
// §4.5). Returns false if the queue is full and the message was
// dropped.
func (l *Loop) Steer(message string) bool {
	select {
	case l.steer <- message:
		return true
	default:
		return false
	}
}

// drainSteer collects every currently queued steering message into one
// hint string, clearing the queue.
func (l *Loop) drainSteer() string {
	var messages []string
	for {
		select {
		case m := <-l.steer:
			messages = append(messages, m)
		default:
			return strings.Join(messages, "\n")
		}
	}
}

// Run drives the loop to completion: a terminal ANSWER, the iteration
// cap, a pending approval, or a fatal provider error.
func (l *Loop) Run(ctx context.Context, query, contextText string) types.AgentResponse {
	return l.run(ctx, query, contextText, nil, 0, 0)
}

// Resume continues a Loop previously suspended into a PendingApproval,
// now that a human has approved or rejected the blocked call (spec
// §4.7: "On approve, the Safety Guard registers the hash; the
// Supervisor resumes from the paused step. On reject, the Supervisor
// surfaces a failure without executing the call."). The caller is
// expected to have already called safety.Guard.Approve for the
// approved case before invoking Resume, so gateAndExecute's re-check
// of the same call now clears.
func (l *Loop) Resume(ctx context.Context, query, contextText string, pending types.PendingApproval, approved bool) types.AgentResponse {
	trace := append([]types.ReasoningStep(nil), pending.Trace...)
	step := pending.Step

	if !approved {
		step.Observations = []types.ToolOutput{{Success: false, Error: "denied by operator: approval rejected"}}
		trace = append(trace, step)
		return types.AgentResponse{
			Kind: l.cfg.Kind, Success: false, Error: "tool call rejected by operator",
			Trace: trace, TokensUsed: pending.TokensUsed,
		}
	}

	outputs, stillPending := l.gateAndExecute(ctx, step, pending.IterationSeen)
	if stillPending != nil {
		stillPending.Trace = trace
		stillPending.Step = step
		stillPending.TokensUsed = pending.TokensUsed
		return types.AgentResponse{
			Kind: l.cfg.Kind, Success: false, Pending: stillPending,
			Trace: trace, TokensUsed: pending.TokensUsed,
		}
	}
	step.Observations = outputs
	trace = append(trace, step)

	return l.run(ctx, query, contextText, trace, pending.IterationSeen+1, pending.TokensUsed)
}

// run drives iterations startIteration..MaxIterations, continuing from
// an existing trace and token count. Run and Resume are both thin
// wrappers over this shared body.
func (l *Loop) run(ctx context.Context, query, contextText string, trace []types.ReasoningStep, startIteration, startTokens int) types.AgentResponse {
	tokensUsed := startTokens

	for iteration := startIteration; iteration < l.cfg.MaxIterations; iteration++ {
		steerHint := l.drainSteer()
		messages := l.buildPrompt(query, contextText, trace, steerHint)

		resp, err := l.provider.Generate(ctx, messages, nil)
		if err != nil {
			return types.AgentResponse{
				Kind: l.cfg.Kind, Success: false, Error: fmt.Sprintf("provider error: %v", err),
				Trace: trace, TokensUsed: tokensUsed,
			}
		}
		tokensUsed += resp.Tokens

		step, parseErr := parseStep(query, resp.Text)
		if parseErr != nil {
			trace = append(trace, types.ReasoningStep{Thought: fmt.Sprintf("parse error: %v", parseErr)})
			return types.AgentResponse{
				Kind: l.cfg.Kind, Success: false, Error: parseErr.Error(),
				Trace: trace, TokensUsed: tokensUsed,
			}
		}

		// Laziness filter (spec §4.5 step 4): a terminal answer with no
		// prior tool use, for a query that clearly needs one, is
		// rejected and the loop continues with a hint.
		if step.IsTerminal && len(trace) == 0 && isActionQuery(query) {
			step.IsTerminal = false
			step.Answer = ""
			step.Observations = []types.ToolOutput{{Success: true, Summary: lazinessHint}}
			trace = append(trace, step)
			continue
		}

		if step.IsTerminal {
			trace = append(trace, step)
			return types.AgentResponse{
				Kind: l.cfg.Kind, Success: true, Answer: step.Answer,
				Trace: trace, TokensUsed: tokensUsed,
			}
		}

		// Loop guard (spec §4.5 step 5): identical tool-call list to the
		// previous step means hint and skip execution this iteration.
		if len(trace) > 0 && types.ToolCallsEqual(trace[len(trace)-1].Actions, step.Actions) {
			step.Observations = []types.ToolOutput{{Success: true, Summary: loopGuardHint}}
			trace = append(trace, step)
			continue
		}

		outputs, pending := l.gateAndExecute(ctx, step, iteration)
		if pending != nil {
			pending.Trace = trace
			pending.Step = step
			pending.TokensUsed = tokensUsed
			return types.AgentResponse{
				Kind: l.cfg.Kind, Success: false, Pending: pending,
				Trace: trace, TokensUsed: tokensUsed,
			}
		}
		step.Observations = outputs
		trace = append(trace, step)
	}

	return types.AgentResponse{
		Kind: l.cfg.Kind, Success: false,
		Error: fmt.Sprintf("reached maximum iterations (%d)", l.cfg.MaxIterations),
		Trace: trace, TokensUsed: tokensUsed,
	}
}

// gateAndExecute runs every action in step through the Safety Guard
// (spec §4.5 step 6), then executes the survivors in parallel through
// the Tool Registry (step 7), preserving call order. The first call
// requiring approval suspends the whole step immediately: calls after
// it in the same step are neither denied nor executed.
func (l *Loop) gateAndExecute(ctx context.Context, step types.ReasoningStep, iteration int) ([]types.ToolOutput, *types.PendingApproval) {
	outputs := make([]types.ToolOutput, len(step.Actions))
	var toExecute []int

	for i, call := range step.Actions {
		formality, scopeAlignment := l.assess(call, step.Thought)
		verdict := l.guard.Check(l.sessionID, call, formality, scopeAlignment)

		switch verdict.Decision {
		case safety.RequireApproval:
			return nil, &types.PendingApproval{
				Request:       *verdict.Approval,
				BlockedCall:   call,
				IterationSeen: iteration,
			}
		case safety.Deny:
			outputs[i] = types.ToolOutput{Success: false, Error: "denied by safety guard: " + verdict.Reason}
		default:
			toExecute = append(toExecute, i)
		}
	}

	if len(toExecute) == 0 {
		return outputs, nil
	}

	calls := make([]types.ToolCall, len(toExecute))
	for j, i := range toExecute {
		calls[j] = step.Actions[i]
	}
	results := l.tools.ExecuteParallel(ctx, calls)
	for j, i := range toExecute {
		outputs[i] = results[j]
	}
	return outputs, nil
}

// assess derives the Safety Guard's formality/scope-alignment inputs
// (spec §4.3: "formality x scope alignment, both in [0,1]") from the
// step's own thought and the agent's tool allow-list. Neither original
// input exists as a concept in original_source; this is a deliberate,
// documented choice (DESIGN.md, internal/reasoning) rather than a
// grounded port: formality tracks how much the model explained itself
// before acting (a longer, more deliberate thought scores higher);
// scope alignment checks whether the call targets a tool this agent
// was actually granted.
func (l *Loop) assess(call types.ToolCall, thought string) (formality, scopeAlignment float64) {
	formality = 0.6 + float64(len(strings.TrimSpace(thought)))/200.0
	if formality > 1.0 {
		formality = 1.0
	}

	scopeAlignment = 0.2
	for _, allowed := range l.cfg.AllowedTools {
		if allowed == call.Name {
			scopeAlignment = 1.0
			break
		}
	}
	return formality, scopeAlignment
}
