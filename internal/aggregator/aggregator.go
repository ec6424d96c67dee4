// Package aggregator implements the Portfolio Aggregator (spec §4.6):
// picks a single winning Candidate from a Portfolio by a Pareto score
// with reward override, rolls up assurance to the weakest link, and
// rolls up cost by summing. Grounded on original_source's
// src/orchestrator/aggregation.rs (Gamma::select_pareto_winner /
// roll_up_assurance / roll_up_costs) — the teacher has no equivalent
// portfolio-selection concept of its own (its "aggregator", v2/model's
// StreamingAggregator, accumulates streamed text deltas, an unrelated
// problem), so this package's algorithm is ported from the Rust
// original rather than adapted from a teacher file.
package aggregator

import (
	"github.com/hectorcore/hectorcore/internal/types"
)

// minRisk floors the risk term in the score denominator so a
// zero-risk candidate doesn't divide by zero (spec §4.6:
// "max(risk_score, 0.1)").
const minRisk = 0.1

// score computes effective_quality / (max(risk_score, 0.1) * normalized_cost).
func score(c types.Candidate) float64 {
	risk := c.Risk
	if risk < minRisk {
		risk = minRisk
	}
	normalizedCost := 1.0 + float64(c.CostTokens)/1000.0
	return c.EffectiveQuality() / (risk * normalizedCost)
}

// Select picks the winning candidate index in candidates (spec §4.6).
// Ties break by lower cost, then by earlier portfolio position.
// Returns -1 if candidates is empty.
func Select(candidates []types.Candidate) int {
	if len(candidates) == 0 {
		return -1
	}

	winner := 0
	winnerScore := score(candidates[0])

	for i := 1; i < len(candidates); i++ {
		s := score(candidates[i])
		switch {
		case s > winnerScore:
			winner, winnerScore = i, s
		case s == winnerScore && candidates[i].CostTokens < candidates[winner].CostTokens:
			winner, winnerScore = i, s
		}
	}
	return winner
}

// Aggregate builds a Portfolio from candidates with the winner
// selected per Select.
func Aggregate(candidates []types.Candidate) types.Portfolio {
	return types.Portfolio{
		Candidates: candidates,
		Selected:   Select(candidates),
	}
}

// RollUpAssurance is the weakest-link assurance across candidates.
func RollUpAssurance(candidates []types.Candidate) types.AssuranceLevel {
	levels := make([]types.AssuranceLevel, len(candidates))
	for i, c := range candidates {
		levels[i] = c.Assurance
	}
	return types.MinAssurance(levels)
}

// RollUpCost is the summed token cost across candidates.
func RollUpCost(candidates []types.Candidate) int {
	return types.RollUpCost(candidates)
}
