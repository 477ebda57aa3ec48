package orchestrator

import (
	"math"

	"github.com/seekwell/atlas/pkg/evidence"
)

// ConfidenceScore rates a traced sub-question set in [0,1] from three
// signals: the fraction of sub-questions that discovered at least one
// seed (weight 0.5), how deep the evidence paths run relative to the
// configured maximum (weight 0.3), and how evenly seeds spread across
// sub-questions (weight 0.2). A decomposition where every sub-question
// found seeds and traced full paths scores 1.
func ConfidenceScore(subs []evidence.SubQuestion, maxPathLength int) float64 {
	if len(subs) == 0 {
		return 0
	}

	seeded := 0
	depth := 0.0
	for _, sq := range subs {
		if len(sq.Seeds) > 0 {
			seeded++
		}
		depth += math.Min(1, float64(len(sq.Path))/float64(maxPathLength))
	}

	coverage := float64(seeded) / float64(len(subs))
	depth /= float64(len(subs))

	spread := 1.0
	if len(subs) > 1 {
		spread = float64(seeded-1) / float64(len(subs)-1)
		if spread < 0 {
			spread = 0
		}
	}

	return 0.5*coverage + 0.3*depth + 0.2*spread
}

// Concentrated reports whether the decomposition is over-fragmented: all
// discovered seeds collapse onto at most one sub-question, leaving the
// rest with nothing to expand from. This is the refinement trigger; a
// low score without concentration means the graph is genuinely sparse
// and regenerating sub-questions will not help.
func Concentrated(subs []evidence.SubQuestion) bool {
	if len(subs) < 2 {
		return false
	}
	seeded := 0
	for _, sq := range subs {
		if len(sq.Seeds) > 0 {
			seeded++
		}
	}
	return seeded <= 1
}

// subConfidence rates one traced sub-question from its own seeds and
// path depth.
func subConfidence(sq evidence.SubQuestion, maxPathLength int) float64 {
	seedPart := math.Min(1, float64(len(sq.Seeds))/2)
	pathPart := math.Min(1, float64(len(sq.Path))/float64(maxPathLength))
	return 0.5*seedPart + 0.5*pathPart
}
