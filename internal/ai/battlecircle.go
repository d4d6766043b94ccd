package ai

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// BattleSlot is one standing position around the target.
type BattleSlot struct {
	Ring     Ring
	AngleDeg float64
	Position geom.Vec3

	Agent    world.Handle
	Occupied bool
}

// BattleCircle partitions space around the target into three rings of
// evenly spaced slots and binds agents to slots.
//
// Slots are regenerated whenever the live agent count changes. Between
// regenerations only slot world positions follow the target, and only every
// RecalcInterval, so agents are not re-targeted on every small target move.
type BattleCircle struct {
	slots       []BattleSlot
	agentCount  int
	sinceRecalc time.Duration
	rng         *rand.Rand
}

// NewBattleCircle creates an empty circle. rng drives per-ring phase offsets.
func NewBattleCircle(rng *rand.Rand) *BattleCircle {
	return &BattleCircle{rng: rng}
}

// Slots returns a copy of current slots.
func (bc *BattleCircle) Slots() []BattleSlot {
	out := make([]BattleSlot, len(bc.slots))
	copy(out, bc.slots)
	return out
}

// Reset drops all slots and unbinds agents.
func (bc *BattleCircle) Reset(agents []*AgentRecord) {
	bc.slots = bc.slots[:0]
	bc.agentCount = 0
	bc.sinceRecalc = 0
	for _, rec := range agents {
		rec.clearSlot()
	}
}

// Update advances the circle by dt around center.
// agents must be the live records with PreferredRing and position already
// sampled for this tick. Returns true if agents were (re)assigned.
func (bc *BattleCircle) Update(dt time.Duration, cfg config.BattleCircle, center geom.Vec3, agents []*AgentRecord) bool {
	if !cfg.Enabled || len(agents) == 0 {
		if len(bc.slots) > 0 || bc.agentCount > 0 {
			bc.Reset(agents)
		}
		return false
	}

	if len(bc.slots) == 0 || len(agents) != bc.agentCount {
		bc.regenerate(cfg, center, agents)
		bc.assign(agents)
		bc.sinceRecalc = 0
		return true
	}

	bc.sinceRecalc += dt
	if bc.sinceRecalc < cfg.RecalcInterval {
		return false
	}
	bc.sinceRecalc = 0

	for i := range bc.slots {
		s := &bc.slots[i]
		s.Position = center.OnCircle(ringRadius(cfg, s.Ring), s.AngleDeg)
	}
	bc.assign(agents)
	return true
}

// regenerate builds one slot per agent in the agent's preferred ring.
func (bc *BattleCircle) regenerate(cfg config.BattleCircle, center geom.Vec3, agents []*AgentRecord) {
	var perRing [ringCount]int
	for _, rec := range agents {
		perRing[rec.PreferredRing]++
	}

	bc.slots = bc.slots[:0]
	for ring := range ringCount {
		n := perRing[ring]
		if n == 0 {
			continue
		}
		// Random phase so slots do not land on the same angles every encounter.
		phase := bc.rng.Float64() * 360
		step := 360 / float64(n)
		radius := ringRadius(cfg, ring)
		for i := range n {
			angle := phase + step*float64(i)
			if angle >= 360 {
				angle -= 360
			}
			bc.slots = append(bc.slots, BattleSlot{
				Ring:     ring,
				AngleDeg: angle,
				Position: center.OnCircle(radius, angle),
			})
		}
	}
	bc.agentCount = len(agents)

	if IsDebugEnabled() {
		slog.Debug("battle circle regenerated",
			"slots", len(bc.slots),
			"inner", perRing[RingInner],
			"middle", perRing[RingMiddle],
			"outer", perRing[RingOuter])
	}
}

// assign binds agents to slots. Pass 1 honors ring preference, pass 2 fills
// remaining slots from any ring. Greedy: each free slot takes the closest
// unassigned agent.
func (bc *BattleCircle) assign(agents []*AgentRecord) {
	for i := range bc.slots {
		bc.slots[i].Occupied = false
		bc.slots[i].Agent = world.Handle{}
	}
	for _, rec := range agents {
		rec.clearSlot()
	}

	bc.assignPass(agents, true)
	bc.assignPass(agents, false)
}

func (bc *BattleCircle) assignPass(agents []*AgentRecord, matchRing bool) {
	for i := range bc.slots {
		s := &bc.slots[i]
		if s.Occupied {
			continue
		}

		var best *AgentRecord
		var bestDist float64
		for _, rec := range agents {
			if rec.HasSlot() {
				continue
			}
			if matchRing && rec.PreferredRing != s.Ring {
				continue
			}
			d := rec.position.DistanceSquared(s.Position)
			if best == nil || d < bestDist {
				best = rec
				bestDist = d
			}
		}
		if best == nil {
			continue
		}

		s.Occupied = true
		s.Agent = best.Handle
		best.AssignedSlot = i
		best.AssignedSlotPosition = s.Position
	}
}

func ringRadius(cfg config.BattleCircle, r Ring) float64 {
	switch r {
	case RingInner:
		return cfg.InnerRadius
	case RingOuter:
		return cfg.OuterRadius
	default:
		return cfg.MiddleRadius
	}
}
