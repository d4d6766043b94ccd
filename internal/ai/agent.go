package ai

import (
	"time"

	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// Agent is the capability set the coordinator needs from an NPC.
// Movement, animation and weapon logic live behind the agent and are not
// driven from here.
type Agent interface {
	// Position returns current world position.
	Position() geom.Vec3

	// Kind returns agent archetype. Read once at registration.
	Kind() AgentKind

	// IsDead reports whether the agent should be dropped from coordination.
	IsDead() bool

	// IsPerformingAttack reports whether the attack action is still running.
	// Used to release tokens when an agent stops attacking without notifying.
	IsPerformingAttack() bool
}

// AgentSource resolves handles to live agents.
// The coordinator never owns agents; a failed resolve means the agent is gone.
type AgentSource interface {
	Agent(h world.Handle) (Agent, bool)
}

// Target is the shared attack target (usually the player).
type Target interface {
	// Valid reports whether the target still exists.
	Valid() bool
	Position() geom.Vec3
	// HPPercent returns normalized HP, 0..1.
	HPPercent() float64
	// ArmorPercent returns normalized armor, 0..1.
	ArmorPercent() float64
	FacingDirection() geom.Vec3
}

// World provides occlusion tests and the encounter clock.
type World interface {
	LineOfSight(a, b geom.Vec3) bool
	Now() time.Duration
}

// AgentKind is the NPC archetype.
type AgentKind uint8

const (
	AgentKindRanged AgentKind = iota
	AgentKindMelee
	AgentKindFlying
	AgentKindSniper
	AgentKindElite
)

func (k AgentKind) String() string {
	switch k {
	case AgentKindRanged:
		return "RANGED"
	case AgentKindMelee:
		return "MELEE"
	case AgentKindFlying:
		return "FLYING"
	case AgentKindSniper:
		return "SNIPER"
	case AgentKindElite:
		return "ELITE"
	default:
		return "UNKNOWN"
	}
}

// ParseAgentKind parses a lower-case kind name (as used in config files).
func ParseAgentKind(s string) (AgentKind, bool) {
	switch s {
	case "ranged":
		return AgentKindRanged, true
	case "melee":
		return AgentKindMelee, true
	case "flying":
		return AgentKindFlying, true
	case "sniper":
		return AgentKindSniper, true
	case "elite":
		return AgentKindElite, true
	default:
		return AgentKindRanged, false
	}
}

// IsMelee reports whether the kind fights at contact range.
func (k AgentKind) IsMelee() bool {
	return k == AgentKindMelee
}

// TokenKind returns the token category this kind competes for.
func (k AgentKind) TokenKind() TokenKind {
	switch k {
	case AgentKindMelee:
		return TokenMelee
	case AgentKindElite:
		return TokenSpecial
	default:
		return TokenRanged
	}
}

// DefaultRing returns the ring this kind prefers absent role pressure.
func (k AgentKind) DefaultRing() Ring {
	switch k {
	case AgentKindMelee:
		return RingInner
	case AgentKindFlying, AgentKindSniper:
		return RingOuter
	default:
		return RingMiddle
	}
}

// TokenKind is an attack token category.
type TokenKind uint8

const (
	TokenRanged TokenKind = iota
	TokenMelee
	TokenSpecial

	tokenKindCount
)

func (k TokenKind) String() string {
	switch k {
	case TokenRanged:
		return "RANGED"
	case TokenMelee:
		return "MELEE"
	case TokenSpecial:
		return "SPECIAL"
	default:
		return "UNKNOWN"
	}
}

// Role is a tactical label recomputed every tick.
type Role uint8

const (
	RoleSupporter Role = iota // default
	RoleAggressor
	RoleFlanker
	RolePressurer
)

func (r Role) String() string {
	switch r {
	case RoleSupporter:
		return "SUPPORTER"
	case RoleAggressor:
		return "AGGRESSOR"
	case RoleFlanker:
		return "FLANKER"
	case RolePressurer:
		return "PRESSURER"
	default:
		return "UNKNOWN"
	}
}

// Ring is a battle circle band around the target.
type Ring uint8

const (
	RingInner Ring = iota
	RingMiddle
	RingOuter

	ringCount
)

func (r Ring) String() string {
	switch r {
	case RingInner:
		return "INNER"
	case RingMiddle:
		return "MIDDLE"
	case RingOuter:
		return "OUTER"
	default:
		return "UNKNOWN"
	}
}
