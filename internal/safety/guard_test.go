package safety

import (
	"testing"
	"time"

	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.SafetyConfig {
	cfg := config.SafetyConfig{}
	cfg.SetDefaults()
	cfg.RateLimitBurst = 1000
	cfg.RateLimitRefillPerSec = 1000
	return cfg
}

func TestGuard_LowAssuranceIsDenied(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, nil)
	v := g.Check("sess-1", types.ToolCall{Name: "read_file"}, 0.2, 0.2)
	assert.Equal(t, Deny, v.Decision)
}

func TestGuard_MidAssuranceRequiresApproval(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, nil)
	v := g.Check("sess-1", types.ToolCall{Name: "read_file"}, 0.7, 0.6)
	require.Equal(t, RequireApproval, v.Decision)
	require.NotNil(t, v.Approval)
}

func TestGuard_HighAssuranceIsAllowed(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, nil)
	v := g.Check("sess-1", types.ToolCall{Name: "read_file"}, 0.95, 0.95)
	assert.Equal(t, Allow, v.Decision)
}

func TestGuard_RiskyToolAlwaysRequiresApprovalEvenAtHighAssurance(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, nil)
	v := g.Check("sess-1", types.ToolCall{Name: "execute_command", Params: map[string]any{"command": "ls"}}, 0.95, 0.95)
	assert.Equal(t, RequireApproval, v.Decision)
}

func TestGuard_ApprovalBypassesFurtherChecksForSession(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, nil)
	call := types.ToolCall{Name: "execute_command", Params: map[string]any{"command": "ls"}}

	first := g.Check("sess-1", call, 0.95, 0.95)
	require.Equal(t, RequireApproval, first.Decision)

	g.Approve("sess-1", first.Approval.Hash)

	second := g.Check("sess-1", call, 0.95, 0.95)
	assert.Equal(t, Allow, second.Decision)
}

func TestGuard_ApprovalHashIsDeterministicAcrossIdenticalCalls(t *testing.T) {
	call1 := types.ToolCall{Name: "execute_command", Params: map[string]any{"command": "ls", "x": 1}}
	call2 := types.ToolCall{Name: "execute_command", Params: map[string]any{"x": 1, "command": "ls"}}
	assert.Equal(t, types.ApprovalHash(call1.Name, call1.Params), types.ApprovalHash(call2.Name, call2.Params))
}

func TestGuard_DeniedCommandByPolicy(t *testing.T) {
	policy := CommandPolicy{Deny: []string{"rm"}}
	g := NewGuard(testConfig(), policy, nil)

	v := g.Check("sess-1", types.ToolCall{Name: "execute_command", Params: map[string]any{"command": "rm -rf /tmp/x"}}, 0.95, 0.95)
	assert.Equal(t, Deny, v.Decision)
}

func TestGuard_RateLimitDeniesAfterBurstExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitBurst = 1
	cfg.RateLimitRefillPerSec = 0.0001
	g := NewGuard(cfg, CommandPolicy{}, nil)

	first := g.Check("sess-1", types.ToolCall{Name: "read_file"}, 0.95, 0.95)
	assert.NotEqual(t, Deny, first.Decision)

	second := g.Check("sess-1", types.ToolCall{Name: "read_file"}, 0.95, 0.95)
	assert.Equal(t, Deny, second.Decision)
}

func TestGuard_ApprovalTokenRoundTrip(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, []byte("test-signing-key-0123456789abcd"))

	token, err := g.IssueApprovalToken("sess-1", "hash-abc", time.Minute)
	require.NoError(t, err)

	require.NoError(t, g.RedeemApprovalToken(token))
	assert.True(t, g.IsApproved("sess-1", "hash-abc"))
}

func TestGuard_ExpiredApprovalTokenIsRejected(t *testing.T) {
	g := NewGuard(testConfig(), CommandPolicy{}, []byte("test-signing-key-0123456789abcd"))

	token, err := g.IssueApprovalToken("sess-1", "hash-abc", -time.Minute)
	require.NoError(t, err)

	assert.Error(t, g.RedeemApprovalToken(token))
}
