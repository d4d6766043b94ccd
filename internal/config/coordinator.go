package config

import "time"

// TokenCaps holds per-category attack token capacities.
type TokenCaps struct {
	Ranged  int `yaml:"ranged"`
	Melee   int `yaml:"melee"`
	Special int `yaml:"special"`
}

// Scoring holds attack score weights.
type Scoring struct {
	DistanceWeight     float64 `yaml:"distance_weight"`
	LineOfSightWeight  float64 `yaml:"line_of_sight_weight"`
	WaitTimeWeight     float64 `yaml:"wait_time_weight"` // per second of waiting
	MaxScoringDistance float64 `yaml:"max_scoring_distance"`
}

// BattleCircle holds ring layout around the target.
type BattleCircle struct {
	Enabled        bool          `yaml:"enabled"`
	InnerRadius    float64       `yaml:"inner_radius"`
	MiddleRadius   float64       `yaml:"middle_radius"`
	OuterRadius    float64       `yaml:"outer_radius"`
	RecalcInterval time.Duration `yaml:"recalc_interval"` // slot world position refresh
}

// Pressure holds target-state thresholds that make NPCs more aggressive.
type Pressure struct {
	LowHPThreshold    float64 `yaml:"low_hp_threshold"`    // 0..1
	LowArmorThreshold float64 `yaml:"low_armor_threshold"` // 0..1
}

// Coordinator holds all runtime-tunable combat coordinator settings.
// Nothing here is persisted state; SetConfig may swap it between ticks.
type Coordinator struct {
	// Admission
	MaxSimultaneousAttackers  int           `yaml:"max_simultaneous_attackers"`
	Tokens                    TokenCaps     `yaml:"tokens"`
	MinTimeBetweenGrants      time.Duration `yaml:"min_time_between_grants"`
	PermissionTimeout         time.Duration `yaml:"permission_timeout"` // granted but unused
	MaxAttackingTime          time.Duration `yaml:"max_attacking_time"` // stuck attack detection
	ProximityOverrideDistance float64       `yaml:"proximity_override_distance"`
	EnableTokenStealing       bool          `yaml:"enable_token_stealing"`

	// Engagement range (0 = everyone shares the pools)
	MaxEngagementDistance  float64 `yaml:"max_engagement_distance"`
	FreeAttackOutsideRange bool    `yaml:"free_attack_outside_range"`

	Scoring      Scoring      `yaml:"scoring"`
	BattleCircle BattleCircle `yaml:"battle_circle"`
	Pressure     Pressure     `yaml:"pressure"`

	// FlankerAngle is the minimum angle (degrees) between the target's facing
	// and the direction to the NPC for the NPC to count as flanking.
	FlankerAngle float64 `yaml:"flanker_angle"`
}

// DefaultCoordinator returns Coordinator config with sensible defaults.
// Distances are in world units (cm).
func DefaultCoordinator() Coordinator {
	return Coordinator{
		MaxSimultaneousAttackers: 3,
		Tokens: TokenCaps{
			Ranged:  2,
			Melee:   2,
			Special: 1,
		},
		MinTimeBetweenGrants:      100 * time.Millisecond,
		PermissionTimeout:         2 * time.Second,
		MaxAttackingTime:          10 * time.Second,
		ProximityOverrideDistance: 250,
		EnableTokenStealing:       true,
		MaxEngagementDistance:     2500,
		FreeAttackOutsideRange:    true,
		Scoring: Scoring{
			DistanceWeight:     1.0,
			LineOfSightWeight:  2.0,
			WaitTimeWeight:     1.5,
			MaxScoringDistance: 3000,
		},
		BattleCircle: BattleCircle{
			Enabled:        true,
			InnerRadius:    400,
			MiddleRadius:   900,
			OuterRadius:    1500,
			RecalcInterval: 500 * time.Millisecond,
		},
		Pressure: Pressure{
			LowHPThreshold:    0.3,
			LowArmorThreshold: 0.25,
		},
		FlankerAngle: 120,
	}
}
