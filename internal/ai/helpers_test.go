package ai

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

type fakeAgent struct {
	pos       geom.Vec3
	kind      AgentKind
	dead      bool
	attacking bool
}

func (a *fakeAgent) Position() geom.Vec3      { return a.pos }
func (a *fakeAgent) Kind() AgentKind          { return a.kind }
func (a *fakeAgent) IsDead() bool             { return a.dead }
func (a *fakeAgent) IsPerformingAttack() bool { return a.attacking }

type fakeAgents struct {
	arena *world.Arena[*fakeAgent]
}

func (s *fakeAgents) Agent(h world.Handle) (Agent, bool) {
	a, ok := s.arena.Get(h)
	if !ok {
		return nil, false
	}
	return a, true
}

type fakeTarget struct {
	pos    geom.Vec3
	facing geom.Vec3
	hp     float64
	armor  float64
	gone   bool
}

func (t *fakeTarget) Valid() bool                { return !t.gone }
func (t *fakeTarget) Position() geom.Vec3        { return t.pos }
func (t *fakeTarget) HPPercent() float64         { return t.hp }
func (t *fakeTarget) ArmorPercent() float64      { return t.armor }
func (t *fakeTarget) FacingDirection() geom.Vec3 { return t.facing }

// fakeWorld has a manual clock. LOS is blocked for any start point whose X
// coordinate is registered in blockedX.
type fakeWorld struct {
	now      time.Duration
	blockedX map[float64]bool
}

func (w *fakeWorld) Now() time.Duration { return w.now }

func (w *fakeWorld) LineOfSight(a, _ geom.Vec3) bool {
	return !w.blockedX[a.X]
}

func (w *fakeWorld) advance(d time.Duration) {
	w.now += d
}

type eventLog struct {
	events []Event
}

func (l *eventLog) OnEvent(e Event) {
	l.events = append(l.events, e)
}

func (l *eventLog) ofKind(k EventKind) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// fixture is a coordinator wired to fakes. Target sits at origin facing +X
// with full HP and armor.
type fixture struct {
	cfg    config.Coordinator
	agents *fakeAgents
	target *fakeTarget
	world  *fakeWorld
	events *eventLog
	coord  *Coordinator
}

func newFixture(t *testing.T, mutate func(*config.Coordinator)) *fixture {
	t.Helper()

	cfg := config.DefaultCoordinator()
	cfg.MinTimeBetweenGrants = 0
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		cfg:    cfg,
		agents: &fakeAgents{arena: world.NewArena[*fakeAgent]()},
		target: &fakeTarget{facing: geom.V(1, 0, 0), hp: 1, armor: 1},
		world:  &fakeWorld{now: time.Second, blockedX: make(map[float64]bool)},
		events: &eventLog{},
	}
	f.coord = NewCoordinator(cfg, f.agents, f.world,
		WithObserver(f.events),
		WithRand(rand.New(rand.NewPCG(1, 2))))
	f.coord.SetPrimaryTarget(f.target)
	return f
}

// spawn adds an agent at pos and registers it.
func (f *fixture) spawn(t *testing.T, kind AgentKind, pos geom.Vec3) world.Handle {
	t.Helper()
	a := &fakeAgent{pos: pos, kind: kind}
	h := f.agents.arena.Insert(a)
	if !f.coord.Register(h) {
		t.Fatalf("Register(%v) = false", h)
	}
	return h
}

func (f *fixture) agent(t *testing.T, h world.Handle) *fakeAgent {
	t.Helper()
	a, ok := f.agents.arena.Get(h)
	if !ok {
		t.Fatalf("agent %v not found", h)
	}
	return a
}

func (f *fixture) blockLOS(x float64) {
	f.world.blockedX[x] = true
}

func (f *fixture) tick(dt time.Duration) {
	f.world.advance(dt)
	f.coord.Tick()
}
