package ai

import (
	"slices"
	"time"

	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// AgentRecord is the coordinator's per-agent state.
type AgentRecord struct {
	Handle world.Handle
	Kind   AgentKind

	Role        Role
	AttackScore float64

	WaitTime       time.Duration // waiting without permission (anti-starvation)
	PermissionTime time.Duration // granted but not yet attacking (timeout)
	AttackingTime  time.Duration // attacking (stuck detection)

	HasAttackPermission  bool
	IsCurrentlyAttacking bool

	TokenKind         TokenKind
	HoldsToken        bool
	ProximityOverride bool

	AssignedSlot         int // -1 when unassigned
	AssignedSlotPosition geom.Vec3
	PreferredRing        Ring

	AngleToTargetFacing float64 // degrees, [0, 180]

	// Per-tick samples.
	position       geom.Vec3
	distance       float64
	hasLineOfSight bool
}

func newAgentRecord(h world.Handle, kind AgentKind) *AgentRecord {
	return &AgentRecord{
		Handle:        h,
		Kind:          kind,
		Role:          RoleSupporter,
		TokenKind:     kind.TokenKind(),
		AssignedSlot:  -1,
		PreferredRing: kind.DefaultRing(),
	}
}

// HasSlot reports whether the battle circle assigned a slot.
func (r *AgentRecord) HasSlot() bool {
	return r.AssignedSlot >= 0
}

// IsEngaged reports whether the agent counts as an active attacker.
func (r *AgentRecord) IsEngaged() bool {
	return r.HasAttackPermission || r.IsCurrentlyAttacking
}

func (r *AgentRecord) clearSlot() {
	r.AssignedSlot = -1
	r.AssignedSlotPosition = geom.Vec3{}
}

// registry holds agent records in registration order.
// Order matters: every per-tick pass iterates it, so it must be deterministic.
type registry struct {
	records []*AgentRecord
	index   map[world.Handle]*AgentRecord
}

func newRegistry() *registry {
	return &registry{
		index: make(map[world.Handle]*AgentRecord),
	}
}

func (r *registry) get(h world.Handle) *AgentRecord {
	return r.index[h]
}

func (r *registry) add(rec *AgentRecord) {
	r.records = append(r.records, rec)
	r.index[rec.Handle] = rec
}

func (r *registry) remove(h world.Handle) *AgentRecord {
	rec, ok := r.index[h]
	if !ok {
		return nil
	}
	delete(r.index, h)
	for i, x := range r.records {
		if x == rec {
			r.records = slices.Delete(r.records, i, i+1)
			break
		}
	}
	return rec
}

// removeIf drops every record matching fn and returns them.
func (r *registry) removeIf(fn func(*AgentRecord) bool) []*AgentRecord {
	var removed []*AgentRecord
	kept := r.records[:0]
	for _, rec := range r.records {
		if fn(rec) {
			removed = append(removed, rec)
			delete(r.index, rec.Handle)
			continue
		}
		kept = append(kept, rec)
	}
	clear(r.records[len(kept):])
	r.records = kept
	return removed
}

func (r *registry) len() int {
	return len(r.records)
}
