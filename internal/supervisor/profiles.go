package supervisor

import "github.com/hectorcore/hectorcore/internal/types"

// agentProfile is a kind's default system prompt and tool allow-list
// (spec.md §3, Agent Kind: "each kind carries a default system prompt,
// a default allow-list of tool names").
type agentProfile struct {
	SystemPrompt string
	AllowedTools []string
}

// defaultProfiles is grounded on original_source's
// src/agent/types.rs (AgentConfig::new's per-AgentType allowed_tools
// match, AgentType::generate_system_prompt's per-kind prompt text),
// restated against this repo's actual built-in tool names
// (list_directory, read_file, execute_command, call_agent — a smaller
// catalog than the Rust original's, which names tools this repo
// doesn't implement, like science_tool or forge_tool's unpromoted
// lab-tool list).
var defaultProfiles = map[types.AgentKind]agentProfile{
	types.AgentGeneralChat: {
		SystemPrompt: "You are a high-fidelity intelligence layer. Answer directly and concisely. " +
			"Use tools only when the question actually requires grounding in the filesystem or a peer agent.",
		AllowedTools: []string{"list_directory", "read_file", "call_agent"},
	},
	types.AgentReasoner: {
		SystemPrompt: "You are a logical reasoning assistant. Verify claims against observed evidence before answering.",
		AllowedTools: []string{"list_directory", "read_file", "call_agent"},
	},
	types.AgentCoder: {
		SystemPrompt: "You are an expert programmer. Ground every claim about code state in an explicit read_file or " +
			"list_directory observation before asserting it; never assume.",
		AllowedTools: []string{"list_directory", "read_file", "execute_command", "call_agent"},
	},
	types.AgentResearcher: {
		SystemPrompt: "You are a research assistant. Formulate targeted queries and synthesize findings from what you observe.",
		AllowedTools: []string{"list_directory", "read_file", "call_agent"},
	},
	types.AgentPlanner: {
		SystemPrompt: "You are a task decomposition specialist. Break goals into discrete, ordered steps.",
		AllowedTools: []string{"list_directory", "read_file", "call_agent"},
	},
	types.AgentReviewer: {
		SystemPrompt: "You are a technical reviewer. Judge answers against their evidence trace; flag unsupported claims.",
		AllowedTools: []string{"list_directory", "read_file", "call_agent"},
	},
}

// profileFor returns kind's profile, falling back to GeneralChat's for
// an unrecognized kind rather than panicking — Router is the only
// producer of AgentKind values and is itself closed over the same
// enumeration, so this fallback should be unreachable in practice.
func profileFor(kind types.AgentKind) agentProfile {
	if p, ok := defaultProfiles[kind]; ok {
		return p
	}
	return defaultProfiles[types.AgentGeneralChat]
}
