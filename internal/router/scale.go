package router

import (
	"strings"

	"github.com/hectorcore/hectorcore/internal/types"
)

// scaleProbe estimates query complexity in [0,1] from surface cues,
// folding in original_source's src/orchestrator/scale.rs ScaleProfile
// (spec.md §9's supplemented feature): a URL always signals a
// high-complexity external unknown; long or code-flavored prompts are
// next; short "explain" questions are moderate; everything else is
// cheap. vramAvailableGB — the hardware-detection hint spec §6
// mentions — only breaks the Standard/Heavy tie, never overrides one
// of these heuristic matches.
func scaleProbe(query string, vramAvailableGB float64) float64 {
	q := strings.ToLower(query)

	switch {
	case hasURL(q):
		return 0.9
	case len(query) > 100 || strings.Contains(q, "code") || strings.Contains(q, "analyze") || strings.Contains(q, "refactor"):
		return 0.8
	case len(query) > 30 || strings.Contains(q, "explain"):
		return 0.5
	default:
		return 0.1
	}
}

// scaleTieBreakBand is how close to the Standard/Heavy boundary
// (complexity 0.7) a score has to land before the VRAM hint gets a
// say; outside the band the heuristic match stands on its own.
const scaleTieBreakBand = 0.05

// lowVRAMThresholdGB below this, a borderline Heavy call is held back
// to Standard (original_source: Heavy's 7b+ model needs ~8GB).
const lowVRAMThresholdGB = 8.0

// complexityToScale maps a scaleProbe complexity score to a ScaleTier,
// per original_source's ScaleProfile::new thresholds. vramAvailableGB
// only matters when complexity lands within scaleTieBreakBand of the
// Standard/Heavy boundary.
func complexityToScale(complexity, vramAvailableGB float64) types.ScaleTier {
	switch {
	case complexity < 0.15:
		return types.ScaleLogic
	case complexity < 0.3:
		return types.ScaleTiny
	case complexity < 0.7:
		return types.ScaleStandard
	case complexity < 0.7+scaleTieBreakBand && vramAvailableGB < lowVRAMThresholdGB:
		return types.ScaleStandard
	default:
		return types.ScaleHeavy
	}
}

// clampAtLeast raises tier to min if it's currently lower, used by the
// code-keyword branch which must land on Standard or Heavy, never
// Tiny or Logic.
func clampAtLeast(tier, min types.ScaleTier) types.ScaleTier {
	if tier < min {
		return min
	}
	return tier
}

const defaultVRAMGB = 8.0
