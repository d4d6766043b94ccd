package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/npccoord/internal/config"
)

func TestAttackScorer_Score(t *testing.T) {
	s := NewAttackScorer(config.DefaultCoordinator().Scoring)

	tests := []struct {
		name     string
		distance float64
		los      bool
		wait     float64
		want     float64
	}{
		{"at target with LOS", 0, true, 0, 3},
		{"at target without LOS", 0, false, 0, 1},
		{"half range", 1500, false, 0, 0.5},
		{"beyond max distance", 9000, false, 0, 0},
		{"waiting two seconds", 3000, false, 2, 3},
		{"everything", 750, true, 1, 0.75 + 2 + 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.distance, tt.los, tt.wait), 1e-9)
		})
	}
}

func TestAttackScorer_Monotonic(t *testing.T) {
	s := NewAttackScorer(config.DefaultCoordinator().Scoring)

	assert.Greater(t, s.Score(500, false, 0), s.Score(1500, false, 0), "closer scores higher")
	assert.Greater(t, s.Score(1500, true, 0), s.Score(1500, false, 0), "visible scores higher")
	assert.Greater(t, s.Score(1500, false, 3), s.Score(1500, false, 1), "longer wait scores higher")
}

func TestAttackScorer_ZeroMaxDistance(t *testing.T) {
	cfg := config.DefaultCoordinator().Scoring
	cfg.MaxScoringDistance = 0
	s := NewAttackScorer(cfg)

	assert.InDelta(t, 2.0, s.Score(0, true, 0), 1e-9, "distance term dropped")
}
