package sim

import (
	"time"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// profile holds per-archetype NPC tuning.
type profile struct {
	speed      float64       // units per second
	attackTime time.Duration // one attack action
	retry      time.Duration // between permission requests
}

var profiles = map[ai.AgentKind]profile{
	ai.AgentKindRanged: {speed: 300, attackTime: 1200 * time.Millisecond, retry: 400 * time.Millisecond},
	ai.AgentKindMelee:  {speed: 450, attackTime: 800 * time.Millisecond, retry: 300 * time.Millisecond},
	ai.AgentKindFlying: {speed: 500, attackTime: time.Second, retry: 400 * time.Millisecond},
	ai.AgentKindSniper: {speed: 200, attackTime: 2 * time.Second, retry: 600 * time.Millisecond},
	ai.AgentKindElite:  {speed: 350, attackTime: 1500 * time.Millisecond, retry: 500 * time.Millisecond},
}

// Npc is a simulated enemy. It implements ai.Agent.
//
// Its brain is deliberately simple: walk to the assigned battle circle slot,
// ask for permission on a fixed cadence, attack for a fixed time, report
// completion. All pacing decisions are left to the coordinator.
type Npc struct {
	handle world.Handle
	kind   ai.AgentKind
	prof   profile
	pos    geom.Vec3
	hp     float64

	attacking  bool
	permitted  bool // attack runs under coordinator permission
	attackLeft time.Duration
	retryIn    time.Duration

	attacks int
}

func newNpc(kind ai.AgentKind, pos geom.Vec3) *Npc {
	return &Npc{
		kind: kind,
		prof: profiles[kind],
		pos:  pos,
		hp:   1,
	}
}

func (n *Npc) Position() geom.Vec3      { return n.pos }
func (n *Npc) Kind() ai.AgentKind       { return n.kind }
func (n *Npc) IsDead() bool             { return n.hp <= 0 }
func (n *Npc) IsPerformingAttack() bool { return n.attacking }

// Handle returns the NPC's roster handle.
func (n *Npc) Handle() world.Handle { return n.handle }

// HP returns remaining HP fraction.
func (n *Npc) HP() float64 { return n.hp }

// Attacks returns number of completed attacks.
func (n *Npc) Attacks() int { return n.attacks }

// Step runs one brain update.
func (n *Npc) Step(dt time.Duration, coord *ai.Coordinator, field *Battlefield) {
	if n.IsDead() {
		return
	}
	n.checkPermission(coord)

	if n.attacking {
		n.attackLeft -= dt
		if n.attackLeft > 0 {
			return
		}
		n.attacking = false
		n.attacks++
		n.retryIn = n.prof.retry
		coord.NotifyAttackComplete(n.handle)
		return
	}

	if slot, ok := coord.AssignedSlotPosition(n.handle); ok {
		n.moveTowards(slot, dt, field)
	}

	n.retryIn -= dt
	if n.retryIn > 0 {
		return
	}
	n.retryIn = n.prof.retry

	if coord.RequestAttackPermission(n.handle) {
		n.attacking = true
		n.attackLeft = n.prof.attackTime
		coord.NotifyAttackStarted(n.handle)
		n.permitted = coord.HasAttackPermission(n.handle)
	}
}

// checkPermission aborts an attack whose permission the coordinator has
// revoked. Free attacks outside engagement range never held one and go on.
// An aborted attack does not count as completed.
func (n *Npc) checkPermission(coord *ai.Coordinator) {
	if !n.attacking || !n.permitted || coord.HasAttackPermission(n.handle) {
		return
	}
	n.attacking = false
	n.permitted = false
	n.retryIn = n.prof.retry
}

// TakeDamage lowers HP and reports whether the NPC died.
// A survivor gets to shoot back right away.
func (n *Npc) TakeDamage(amount float64, coord *ai.Coordinator) bool {
	if n.IsDead() {
		return false
	}
	n.hp -= amount
	if n.IsDead() {
		n.attacking = false
		n.permitted = false
		return true
	}
	coord.GrantRetaliationPermission(n.handle)
	n.retryIn = 0
	return false
}

func (n *Npc) moveTowards(dst geom.Vec3, dt time.Duration, field *Battlefield) {
	dir := dst.Sub(n.pos)
	dist := dir.Len()
	if dist == 0 {
		return
	}
	step := n.prof.speed * dt.Seconds()
	if step >= dist {
		n.pos = field.Clamp(dst)
		return
	}
	n.pos = field.Clamp(n.pos.Add(dir.Scale(step / dist)))
}
