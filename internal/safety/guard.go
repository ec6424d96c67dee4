// Package safety implements the Safety Guard (spec §4.3): it decides
// whether a pending tool call may run, denying, allowing, or pausing
// for human approval.
//
// Grounded on the teacher's pkg/ratelimit (token-bucket/window-limiter
// idiom, wrapped sentinel errors) and pkg/agent/tool_approval.go
// (human-in-the-loop approve/deny decision flow), generalized from
// the teacher's A2A-protocol-specific INPUT_REQUIRED machinery into a
// transport-agnostic PendingApproval the Supervisor suspends on.
package safety

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/types"
)

// Decision is the Safety Guard's verdict on a tool call.
type Decision int

const (
	Allow Decision = iota
	Deny
	RequireApproval
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case RequireApproval:
		return "require_approval"
	default:
		return "unknown"
	}
}

// Verdict is the Safety Guard's answer for one ToolCall.
type Verdict struct {
	Decision Decision
	Reason   string
	Approval *types.ApprovalRequest // set only when Decision == RequireApproval
}

// riskyTools always require approval regardless of assurance score
// (spec §4.3: "calls... targeting risky tools (code execution,
// sandbox, system monitor) require human approval").
var riskyTools = map[string]bool{
	"execute_command": true,
	"sandbox_exec":     true,
	"system_monitor":   true,
}

// Guard is the Safety Guard.
type Guard struct {
	cfg            config.SafetyConfig
	limiter        *rateLimiter
	contentFilter  *ContentFilter
	commandPolicy  CommandPolicy
	signer         *tokenSigner

	mu       sync.Mutex
	approved map[string]map[string]bool // sessionID -> hash -> approved
}

// NewGuard builds a Guard from cfg. signingKey seeds the JWS approval
// token signer; if nil, a random key is generated (acceptable for a
// single-process deployment where tokens never need to outlive this
// process).
func NewGuard(cfg config.SafetyConfig, commandPolicy CommandPolicy, signingKey []byte) *Guard {
	if signingKey == nil {
		signingKey = make([]byte, 32)
		_, _ = rand.Read(signingKey)
	}
	return &Guard{
		cfg:           cfg,
		limiter:       newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefillPerSec),
		contentFilter: NewContentFilter(cfg.ContentFilterBlockAt),
		commandPolicy: commandPolicy,
		signer:        newTokenSigner(signingKey),
		approved:      make(map[string]map[string]bool),
	}
}

// Check evaluates call for sessionID. formality and scopeAlignment are
// both in [0,1] and multiply to the assurance score (spec §4.3).
func (g *Guard) Check(sessionID string, call types.ToolCall, formality, scopeAlignment float64) Verdict {
	hash := types.ApprovalHash(call.Name, call.Params)
	if g.IsApproved(sessionID, hash) {
		return Verdict{Decision: Allow, Reason: "previously approved this session"}
	}

	if !g.limiter.allow(call.Name) {
		return Verdict{Decision: Deny, Reason: "rate limit exceeded for tool " + call.Name}
	}

	if call.Name == "execute_command" {
		if cmd, ok := call.Params["command"].(string); ok {
			if err := g.commandPolicy.Check(cmd); err != nil {
				return Verdict{Decision: Deny, Reason: err.Error()}
			}
			if g.contentFilter.Blocks(cmd) {
				return Verdict{Decision: Deny, Reason: "command content blocked by safety filter"}
			}
		}
	}

	assurance := formality * scopeAlignment
	if assurance < g.cfg.AssuranceDenyBelow {
		return Verdict{Decision: Deny, Reason: fmt.Sprintf("assurance %.2f below deny threshold %.2f", assurance, g.cfg.AssuranceDenyBelow)}
	}

	needsApproval := assurance < g.cfg.AssuranceApproveAbove || riskyTools[call.Name]
	if needsApproval {
		req := types.NewApprovalRequest(call.Name, call.Params, assuranceLevel(assurance), fmt.Sprintf("assurance %.2f", assurance))
		return Verdict{Decision: RequireApproval, Reason: "requires human approval", Approval: &req}
	}

	return Verdict{Decision: Allow, Reason: "assurance above approval threshold"}
}

func assuranceLevel(score float64) types.AssuranceLevel {
	switch {
	case score >= 0.6:
		return types.AssuranceL2
	case score >= 0.3:
		return types.AssuranceL1
	default:
		return types.AssuranceL0
	}
}

// Approve marks (sessionID, hash) approved; subsequent identical calls
// bypass further safety checks for the remainder of the session (spec
// §4.3, invariant in §8).
func (g *Guard) Approve(sessionID, hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.approved[sessionID] == nil {
		g.approved[sessionID] = make(map[string]bool)
	}
	g.approved[sessionID][hash] = true
}

// IsApproved reports whether (sessionID, hash) was previously approved.
func (g *Guard) IsApproved(sessionID, hash string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.approved[sessionID][hash]
}

// IssueApprovalToken signs a portable approval token for (sessionID,
// hash), usable by an out-of-process tool runner that can't consult
// this Guard's in-memory approved set directly.
func (g *Guard) IssueApprovalToken(sessionID, hash string, ttl time.Duration) (string, error) {
	return g.signer.Issue(sessionID, hash, ttl)
}

// RedeemApprovalToken verifies a token issued by IssueApprovalToken
// and, if valid, records the approval as if Approve had been called
// directly.
func (g *Guard) RedeemApprovalToken(token string) error {
	sessionID, hash, err := g.signer.Verify(token)
	if err != nil {
		return err
	}
	g.Approve(sessionID, hash)
	return nil
}
