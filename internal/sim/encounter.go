package sim

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
)

// Summary is a snapshot of encounter progress.
type Summary struct {
	Ticks       int
	Elapsed     time.Duration
	PlayerHP    float64
	PlayerArmor float64
	NpcsAlive   int
	Attacks     int
	Kills       int
	Coordinator ai.Stats
}

// Encounter wires a battlefield, a player and NPCs to one coordinator.
// Tick runs NPC brains first and the coordinator last, all on the caller's
// goroutine; register it with ai.TickManager.
type Encounter struct {
	interval time.Duration
	field    *Battlefield
	player   *Player
	roster   *Roster
	coord    *ai.Coordinator

	ticks   int
	attacks int
	kills   int

	done     chan struct{}
	doneOnce sync.Once
}

// NewEncounter builds the encounter described by cfg.
// opts are passed to the coordinator after the seeded random source.
func NewEncounter(cfg config.Simulation, opts ...ai.Option) (*Encounter, error) {
	kinds := make([]ai.AgentKind, len(cfg.Arena.Npcs))
	for i, spawn := range cfg.Arena.Npcs {
		kind, ok := ai.ParseAgentKind(spawn.Kind)
		if !ok {
			return nil, fmt.Errorf("npc %d: unknown kind %q", i, spawn.Kind)
		}
		kinds[i] = kind
	}

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	e := &Encounter{
		interval: interval,
		field:    NewBattlefield(cfg.Arena),
		player:   NewPlayer(cfg.Arena.Player),
		roster:   NewRoster(),
		done:     make(chan struct{}),
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	opts = append([]ai.Option{ai.WithRand(rng)}, opts...)
	e.coord = ai.NewCoordinator(cfg.Coordinator, e.roster, e.field, opts...)
	e.coord.SetPrimaryTarget(e.player)

	for i, spawn := range cfg.Arena.Npcs {
		pos := e.field.Clamp(geom.V(spawn.X, spawn.Y, spawn.Z))
		n := e.roster.Spawn(kinds[i], pos)
		e.coord.Register(n.Handle())
	}

	slog.Info("encounter created",
		"npcs", e.roster.Len(),
		"pillars", len(cfg.Arena.Pillars),
		"tick_interval", interval)

	return e, nil
}

// Tick advances the encounter by one interval.
func (e *Encounter) Tick() {
	if e.isDone() {
		return
	}
	dt := e.interval

	e.field.Advance(dt)
	e.player.Move(dt)

	e.roster.ForEach(func(n *Npc) bool {
		before := n.Attacks()
		n.Step(dt, e.coord, e.field)
		e.attacks += n.Attacks() - before
		return true
	})

	// A later NPC may have stolen the token of one that already stepped.
	attacking := 0
	e.roster.ForEach(func(n *Npc) bool {
		n.checkPermission(e.coord)
		if n.IsPerformingAttack() {
			attacking++
		}
		return true
	})
	e.player.TakeHits(attacking, dt)

	if e.player.ReadyToShoot(dt) {
		e.playerShoots()
	}

	e.coord.Tick()
	e.ticks++

	if ai.IsDebugEnabled() && e.ticks%10 == 0 {
		s := e.coord.Stats()
		slog.Debug("encounter progress",
			"clock", e.field.Now(),
			"player_hp", e.player.HPPercent(),
			"attackers", s.ActiveAttackers,
			"npcs", e.roster.Len())
	}

	if !e.player.Valid() || e.roster.Len() == 0 {
		e.finish()
	}
}

// playerShoots hits the nearest NPC the player can see.
func (e *Encounter) playerShoots() {
	var (
		target *Npc
		best   = math.Inf(1)
	)
	from := e.player.Position()
	e.roster.ForEach(func(n *Npc) bool {
		if n.IsDead() || !e.field.LineOfSight(from, n.Position()) {
			return true
		}
		if d := from.DistanceSquared(n.Position()); d < best {
			best = d
			target = n
		}
		return true
	})
	if target == nil {
		return
	}

	e.player.FaceTowards(target.Position())
	if target.TakeDamage(e.player.cfg.AttackDamage, e.coord) {
		e.kills++
		e.roster.Remove(target.Handle())
		slog.Info("npc killed", "npc", target.Handle(), "kind", target.Kind(), "clock", e.field.Now())
	}
}

func (e *Encounter) finish() {
	e.doneOnce.Do(func() {
		close(e.done)
		slog.Info("encounter finished",
			"clock", e.field.Now(),
			"player_hp", e.player.HPPercent(),
			"npcs_alive", e.roster.Len())
	})
}

func (e *Encounter) isDone() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Done is closed when the player dies or every NPC is dead.
func (e *Encounter) Done() <-chan struct{} {
	return e.done
}

// Coordinator returns the encounter's coordinator.
func (e *Encounter) Coordinator() *ai.Coordinator { return e.coord }

// Player returns the encounter's player.
func (e *Encounter) Player() *Player { return e.player }

// Roster returns the encounter's NPCs.
func (e *Encounter) Roster() *Roster { return e.roster }

// Battlefield returns the encounter's world.
func (e *Encounter) Battlefield() *Battlefield { return e.field }

// Summary returns current progress.
func (e *Encounter) Summary() Summary {
	return Summary{
		Ticks:       e.ticks,
		Elapsed:     e.field.Now(),
		PlayerHP:    e.player.HPPercent(),
		PlayerArmor: e.player.ArmorPercent(),
		NpcsAlive:   e.roster.Len(),
		Attacks:     e.attacks,
		Kills:       e.kills,
		Coordinator: e.coord.Stats(),
	}
}
