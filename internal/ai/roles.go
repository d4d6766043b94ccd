package ai

import (
	"cmp"
	"slices"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/world"
)

// RoleChange describes one role transition made by RoleAssigner.
type RoleChange struct {
	Handle world.Handle
	From   Role
	To     Role
}

// RoleAssigner labels agents Aggressor / Supporter / Flanker / Pressurer.
// Roles are recomputed from scratch every tick; nothing persists except by
// being recomputed identically.
type RoleAssigner struct {
	flankerAngle float64
	pressure     config.Pressure
}

// NewRoleAssigner creates an assigner with the given thresholds.
func NewRoleAssigner(flankerAngle float64, pressure config.Pressure) *RoleAssigner {
	return &RoleAssigner{
		flankerAngle: flankerAngle,
		pressure:     pressure,
	}
}

// Assign classifies agents against target and returns changed roles.
// Agent distances and positions must already be sampled for this tick.
// Guarantees at least one Aggressor whenever agents is non-empty.
func (ra *RoleAssigner) Assign(agents []*AgentRecord, target TargetState) []RoleChange {
	if len(agents) == 0 || !target.Valid {
		return nil
	}

	for _, rec := range agents {
		rec.AngleToTargetFacing = target.Facing.AngleDeg(rec.position.Sub(target.Position))
	}

	ordered := slices.Clone(agents)
	slices.SortFunc(ordered, func(a, b *AgentRecord) int {
		if c := cmp.Compare(a.distance, b.distance); c != 0 {
			return c
		}
		return a.Handle.Compare(b.Handle)
	})

	before := make([]Role, len(ordered))
	hasAggressor := false
	for i, rec := range ordered {
		before[i] = rec.Role
		rec.Role = ra.classify(rec, target)
		if rec.Role == RoleAggressor {
			hasAggressor = true
		}
	}

	if !hasAggressor {
		ra.promoteClosest(ordered)
	}

	var changes []RoleChange
	for i, rec := range ordered {
		if rec.Role != before[i] {
			changes = append(changes, RoleChange{Handle: rec.Handle, From: before[i], To: rec.Role})
		}
	}
	return changes
}

func (ra *RoleAssigner) classify(rec *AgentRecord, target TargetState) Role {
	switch {
	case rec.IsEngaged():
		return RoleAggressor
	case rec.AngleToTargetFacing >= ra.flankerAngle:
		return RoleFlanker
	case target.HPPercent <= ra.pressure.LowHPThreshold && rec.Kind.IsMelee():
		return RolePressurer
	case target.ArmorPercent <= ra.pressure.LowArmorThreshold:
		return RolePressurer
	default:
		return RoleSupporter
	}
}

// promoteClosest makes the closest non-Flanker an Aggressor, or the closest
// agent if everyone is flanking. ordered is sorted by distance.
func (ra *RoleAssigner) promoteClosest(ordered []*AgentRecord) {
	for _, rec := range ordered {
		if rec.Role != RoleFlanker {
			rec.Role = RoleAggressor
			return
		}
	}
	ordered[0].Role = RoleAggressor
}

// PreferredRing returns the ring an agent should stand in given its role and
// target pressure.
func (ra *RoleAssigner) PreferredRing(rec *AgentRecord, target TargetState) Ring {
	switch rec.Role {
	case RoleAggressor:
		if rec.Kind.IsMelee() {
			return RingInner
		}
		return RingMiddle
	case RolePressurer:
		if target.Valid && target.HPPercent <= ra.pressure.LowHPThreshold {
			return RingInner
		}
		if rec.Kind.IsMelee() {
			return RingInner
		}
		return RingMiddle
	default:
		return rec.Kind.DefaultRing()
	}
}
