package sim

import (
	"math"
	"time"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
)

// Player is the target every NPC coordinates against. It implements ai.Target.
//
// The player strafes on a circle around its anchor and keeps facing the NPC
// it last shot at, so agents behind it end up flanking.
type Player struct {
	cfg    config.PlayerConfig
	anchor geom.Vec3
	angle  float64 // degrees on the orbit

	pos    geom.Vec3
	facing geom.Vec3
	hp     float64
	armor  float64

	sinceShot time.Duration
}

// NewPlayer creates a player at full HP and armor.
func NewPlayer(cfg config.PlayerConfig) *Player {
	anchor := geom.V(cfg.X, cfg.Y, cfg.Z)
	p := &Player{
		cfg:    cfg,
		anchor: anchor,
		facing: geom.V(1, 0, 0),
		hp:     1,
		armor:  1,
	}
	p.pos = p.orbitPosition()
	return p
}

func (p *Player) Valid() bool                { return p.hp > 0 }
func (p *Player) Position() geom.Vec3        { return p.pos }
func (p *Player) HPPercent() float64         { return p.hp }
func (p *Player) ArmorPercent() float64      { return p.armor }
func (p *Player) FacingDirection() geom.Vec3 { return p.facing }

// Move advances the player along its orbit.
func (p *Player) Move(dt time.Duration) {
	if !p.Valid() || p.cfg.OrbitRadius <= 0 || p.cfg.OrbitSpeed <= 0 {
		return
	}
	// Arc length to degrees.
	p.angle += p.cfg.OrbitSpeed * dt.Seconds() / p.cfg.OrbitRadius * 180 / math.Pi
	p.angle = math.Mod(p.angle, 360)
	p.pos = p.orbitPosition()
}

func (p *Player) orbitPosition() geom.Vec3 {
	if p.cfg.OrbitRadius <= 0 {
		return p.anchor
	}
	return p.anchor.OnCircle(p.cfg.OrbitRadius, p.angle)
}

// TakeHits applies attackers' damage over dt. Armor soaks first.
func (p *Player) TakeHits(attackers int, dt time.Duration) {
	if attackers <= 0 || !p.Valid() {
		return
	}
	secs := float64(attackers) * dt.Seconds()
	p.armor = math.Max(0, p.armor-p.cfg.ArmorDrain*secs)
	drain := p.cfg.HPDrain * secs
	if p.armor > 0 {
		drain /= 2
	}
	p.hp = math.Max(0, p.hp-drain)
}

// ReadyToShoot advances the shot timer and reports whether a shot is due.
func (p *Player) ReadyToShoot(dt time.Duration) bool {
	if !p.Valid() || p.cfg.AttackInterval <= 0 || p.cfg.AttackDamage <= 0 {
		return false
	}
	p.sinceShot += dt
	if p.sinceShot < p.cfg.AttackInterval {
		return false
	}
	p.sinceShot = 0
	return true
}

// FaceTowards turns the player to look at pos.
func (p *Player) FaceTowards(pos geom.Vec3) {
	dir := pos.Sub(p.pos)
	dir.Z = 0
	if dir.IsZero() {
		return
	}
	p.facing = dir.Normalize()
}
