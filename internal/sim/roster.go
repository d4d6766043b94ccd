package sim

import (
	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// Roster owns the encounter's NPCs. It implements ai.AgentSource.
type Roster struct {
	npcs *world.Arena[*Npc]
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{npcs: world.NewArena[*Npc]()}
}

// Spawn adds an NPC and returns it.
func (r *Roster) Spawn(kind ai.AgentKind, pos geom.Vec3) *Npc {
	n := newNpc(kind, pos)
	n.handle = r.npcs.Insert(n)
	return n
}

// Remove drops the NPC behind h. Its handle goes stale.
func (r *Roster) Remove(h world.Handle) {
	r.npcs.Remove(h)
}

// Agent resolves h for the coordinator.
func (r *Roster) Agent(h world.Handle) (ai.Agent, bool) {
	n, ok := r.npcs.Get(h)
	if !ok {
		return nil, false
	}
	return n, true
}

// Npc returns the NPC behind h.
func (r *Roster) Npc(h world.Handle) (*Npc, bool) {
	return r.npcs.Get(h)
}

// Len returns number of live NPCs.
func (r *Roster) Len() int {
	return r.npcs.Len()
}

// ForEach calls fn for every NPC in handle order until fn returns false.
func (r *Roster) ForEach(fn func(*Npc) bool) {
	r.npcs.ForEach(func(_ world.Handle, n *Npc) bool {
		return fn(n)
	})
}
