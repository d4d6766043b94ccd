// Package sim runs a scripted encounter against the combat coordinator:
// a square arena with pillars, one player and a group of NPCs.
package sim

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
)

// pillar is a vertical cylinder that blocks line of sight at any height.
type pillar struct {
	center orb.Point
	radius float64
}

// Battlefield is the encounter's world: arena bounds, occluders and clock.
// It implements ai.World.
type Battlefield struct {
	bounds  orb.Polygon
	half    float64
	pillars []pillar
	clock   time.Duration
}

// NewBattlefield builds a square arena of cfg.HalfSize around the origin.
func NewBattlefield(cfg config.Arena) *Battlefield {
	h := cfg.HalfSize
	b := &Battlefield{
		bounds: orb.Polygon{orb.Ring{
			{-h, -h}, {h, -h}, {h, h}, {-h, h}, {-h, -h},
		}},
		half: h,
	}
	for _, p := range cfg.Pillars {
		if p.Radius <= 0 {
			continue
		}
		b.pillars = append(b.pillars, pillar{center: orb.Point{p.X, p.Y}, radius: p.Radius})
	}
	return b
}

// Now returns encounter time.
func (b *Battlefield) Now() time.Duration {
	return b.clock
}

// Advance moves the encounter clock forward.
func (b *Battlefield) Advance(dt time.Duration) {
	if dt > 0 {
		b.clock += dt
	}
}

// LineOfSight reports whether the segment from a to b clears every pillar.
func (b *Battlefield) LineOfSight(from, to geom.Vec3) bool {
	p, q := from.Planar(), to.Planar()
	for _, pl := range b.pillars {
		if planar.DistanceFromSegment(p, q, pl.center) <= pl.radius {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside the arena bounds.
func (b *Battlefield) Contains(p geom.Vec3) bool {
	return planar.PolygonContains(b.bounds, p.Planar())
}

// Clamp pulls p back inside the arena bounds.
func (b *Battlefield) Clamp(p geom.Vec3) geom.Vec3 {
	if b.Contains(p) {
		return p
	}
	p.X = math.Max(-b.half, math.Min(b.half, p.X))
	p.Y = math.Max(-b.half, math.Min(b.half, p.Y))
	return p
}
