package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/hectorcore/hectorcore/internal/llmprovider"
	"github.com/hectorcore/hectorcore/internal/types"
)

// keepVerbatimTail is how many of the most recent turns compaction
// always keeps untouched (spec §4.7 step 2: "keeping the first turn
// and the last five verbatim").
const keepVerbatimTail = 5

// approxTokens estimates token count at 4 bytes per token, matching
// types.EpisodicMemory's own estimator (spec §3).
func approxTokens(turns []types.EpisodicTurn) int {
	total := 0
	for _, t := range turns {
		total += (len(t.Content) + 3) / 4
	}
	return total
}

// compactIfNeeded replaces the middle span of turns with a single
// LLM-produced summary turn when the session's approximate token count
// crosses threshold, keeping the first turn and the last
// keepVerbatimTail turns verbatim (spec §4.7 step 2). Returns turns
// unchanged if compaction doesn't apply or the summarizing call fails
// — compaction is a latency/context-budget optimization, never a
// correctness requirement, so a provider error here must not fail the
// turn (spec §7: "I/O / Serialization... degrade gracefully").
func compactIfNeeded(ctx context.Context, provider llmprovider.Provider, turns []types.EpisodicTurn, threshold int) []types.EpisodicTurn {
	if threshold <= 0 || approxTokens(turns) <= threshold {
		return turns
	}
	if len(turns) <= keepVerbatimTail+1 {
		return turns
	}

	first := turns[0]
	middle := turns[1 : len(turns)-keepVerbatimTail]
	tail := turns[len(turns)-keepVerbatimTail:]

	summary, err := summarize(ctx, provider, middle)
	if err != nil {
		return turns
	}

	compacted := make([]types.EpisodicTurn, 0, 2+len(tail))
	compacted = append(compacted, first, summary)
	compacted = append(compacted, tail...)
	return compacted
}

func summarize(ctx context.Context, provider llmprovider.Provider, turns []types.EpisodicTurn) (types.EpisodicTurn, error) {
	var transcript string
	for _, t := range turns {
		transcript += fmt.Sprintf("%s: %s\n", t.Role, t.Content)
	}

	messages := []llmprovider.Message{
		{Role: "system", Content: "Summarize this conversation span in a few sentences, preserving facts and decisions a later turn might need."},
		{Role: "user", Content: transcript},
	}
	resp, err := provider.Generate(ctx, messages, nil)
	if err != nil {
		return types.EpisodicTurn{}, err
	}
	return types.EpisodicTurn{
		Role:      types.RoleSystem,
		Content:   "[compacted summary] " + resp.Text,
		Timestamp: time.Now(),
	}, nil
}
