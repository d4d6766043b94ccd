package ai

import "github.com/udisondev/npccoord/internal/config"

// AttackScorer computes how desirable it is for an agent to attack now.
// The score is advisory: admission does not consult it.
type AttackScorer struct {
	cfg config.Scoring
}

// NewAttackScorer creates a scorer with the given weights.
func NewAttackScorer(cfg config.Scoring) *AttackScorer {
	return &AttackScorer{cfg: cfg}
}

// Score combines normalized distance, line of sight and wait time.
// Closer, visible and longer-waiting agents score higher.
func (s *AttackScorer) Score(distance float64, hasLOS bool, waitSeconds float64) float64 {
	var normalized float64
	if s.cfg.MaxScoringDistance > 0 {
		normalized = 1 - clamp01(distance/s.cfg.MaxScoringDistance)
	}

	score := normalized * s.cfg.DistanceWeight
	if hasLOS {
		score += s.cfg.LineOfSightWeight
	}
	score += waitSeconds * s.cfg.WaitTimeWeight
	return score
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
