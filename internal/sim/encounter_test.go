package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
)

func testSimulation() config.Simulation {
	cfg := config.DefaultSimulation()
	cfg.Coordinator.MinTimeBetweenGrants = 0
	return cfg
}

type eventCounter map[ai.EventKind]int

func (c eventCounter) OnEvent(e ai.Event) { c[e.Kind]++ }

func TestNewEncounter_UnknownKind(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Npcs = append(cfg.Arena.Npcs, config.NpcSpawn{Kind: "dragon"})

	_, err := NewEncounter(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dragon")
}

func TestNewEncounter_RegistersNpcs(t *testing.T) {
	cfg := testSimulation()
	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	assert.Equal(t, len(cfg.Arena.Npcs), e.Roster().Len())
	assert.Equal(t, len(cfg.Arena.Npcs), e.Coordinator().Stats().Registered)
	assert.True(t, e.Coordinator().TargetState().Valid)
}

func TestNpc_AttackCycle(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "melee", X: 600}}
	cfg.Arena.Player = config.PlayerConfig{}

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	require.NotNil(t, npc)

	coord := e.Coordinator()
	npc.Step(100*time.Millisecond, coord, e.Battlefield())

	assert.True(t, npc.IsPerformingAttack())
	assert.True(t, coord.HasAttackPermission(npc.Handle()))
	assert.Equal(t, 1, coord.TokensHeld(ai.TokenMelee))

	// Run out the attack.
	for range 8 {
		npc.Step(100*time.Millisecond, coord, e.Battlefield())
	}
	assert.False(t, npc.IsPerformingAttack())
	assert.Equal(t, 1, npc.Attacks())
	assert.False(t, coord.HasAttackPermission(npc.Handle()))
	assert.Zero(t, coord.TokensHeld(ai.TokenMelee))
}

func TestNpc_StopsWhenPermissionRevoked(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "melee", X: 600}}
	cfg.Arena.Player = config.PlayerConfig{}

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	coord := e.Coordinator()

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	require.True(t, npc.IsPerformingAttack())

	// Shrinking the melee pool evicts the holder on the next coordinator tick.
	ccfg := coord.Config()
	ccfg.Tokens.Melee = 0
	coord.SetConfig(ccfg)
	coord.Tick()
	require.False(t, coord.HasAttackPermission(npc.Handle()))

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	assert.False(t, npc.IsPerformingAttack())
	assert.Zero(t, npc.Attacks(), "aborted attack is not completed")
}

func TestNpc_FreeAttackOutsideRangeContinues(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "sniper", X: 2000}}
	cfg.Arena.Player = config.PlayerConfig{}
	cfg.Coordinator.MaxEngagementDistance = 1000

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	coord := e.Coordinator()

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	require.True(t, npc.IsPerformingAttack())
	require.False(t, coord.HasAttackPermission(npc.Handle()), "free attack holds no permission")

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	assert.True(t, npc.IsPerformingAttack())
}

func TestEncounter_RevokedAttackersDoNotHitPlayer(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "melee", X: 600}}
	cfg.Arena.Player = config.PlayerConfig{HPDrain: 0.1}

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	coord := e.Coordinator()

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	require.True(t, npc.IsPerformingAttack())
	ccfg := coord.Config()
	ccfg.Tokens.Melee = 0
	coord.SetConfig(ccfg)
	coord.Tick()

	e.Tick()
	assert.False(t, npc.IsPerformingAttack())
	assert.Equal(t, 1.0, e.Player().HPPercent())
}

func TestNpc_MovesToSlot(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "sniper", X: 3000, Y: 3000}}
	cfg.Arena.Player = config.PlayerConfig{}
	cfg.Coordinator.MaxEngagementDistance = 10000

	e, err := NewEncounter(cfg)
	require.NoError(t, err)
	e.Coordinator().Tick()

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	slot, ok := e.Coordinator().AssignedSlotPosition(npc.Handle())
	require.True(t, ok)

	before := npc.Position().Distance(slot)
	npc.retryIn = time.Hour
	npc.Step(time.Second, e.Coordinator(), e.Battlefield())
	after := npc.Position().Distance(slot)

	assert.InDelta(t, before-profiles[ai.AgentKindSniper].speed, after, 1e-6)
}

func TestNpc_RetaliatesWhenShot(t *testing.T) {
	cfg := testSimulation()
	cfg.Coordinator.Tokens = config.TokenCaps{}
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "ranged", X: 1200}}

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	var npc *Npc
	e.Roster().ForEach(func(n *Npc) bool { npc = n; return false })
	coord := e.Coordinator()

	require.False(t, coord.RequestAttackPermission(npc.Handle()), "no tokens")

	died := npc.TakeDamage(0.3, coord)
	assert.False(t, died)
	assert.InDelta(t, 0.7, npc.HP(), 1e-9)
	assert.True(t, coord.HasAttackPermission(npc.Handle()))

	npc.Step(100*time.Millisecond, coord, e.Battlefield())
	assert.True(t, npc.IsPerformingAttack(), "retaliation bypasses the empty pool")

	assert.True(t, npc.TakeDamage(1, coord))
	assert.True(t, npc.IsDead())
	assert.False(t, npc.IsPerformingAttack())
	assert.False(t, npc.TakeDamage(1, coord), "already dead")
}

func TestEncounter_RunRespectsTokenCaps(t *testing.T) {
	cfg := testSimulation()
	counter := eventCounter{}

	e, err := NewEncounter(cfg, ai.WithObserver(counter))
	require.NoError(t, err)

	caps := e.Coordinator().Stats().TokenCaps
	for range 600 {
		e.Tick()
		s := e.Coordinator().Stats()
		for k := range s.TokensHeld {
			require.LessOrEqual(t, s.TokensHeld[k], caps[k])
		}
	}

	sum := e.Summary()
	assert.Greater(t, sum.Attacks, 0)
	assert.Greater(t, counter[ai.EventPermissionGranted], 0)
	assert.Greater(t, counter[ai.EventRoleChanged], 0)
	assert.Less(t, sum.PlayerHP, 1.0)
	assert.LessOrEqual(t, sum.Ticks, 600)
	assert.Equal(t, time.Duration(sum.Ticks)*cfg.TickInterval, sum.Elapsed)
}

func TestEncounter_FinishesWhenNpcsDie(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "ranged", X: 800}}
	cfg.Arena.Player.AttackInterval = 100 * time.Millisecond
	cfg.Arena.Player.AttackDamage = 0.5

	e, err := NewEncounter(cfg)
	require.NoError(t, err)

	for range 10 {
		e.Tick()
	}

	select {
	case <-e.Done():
	default:
		t.Fatal("encounter should be finished")
	}

	sum := e.Summary()
	assert.Equal(t, 1, sum.Kills)
	assert.Zero(t, sum.NpcsAlive)
	assert.Zero(t, sum.Coordinator.Registered, "dead NPC cleaned from coordinator")

	ticks := sum.Ticks
	e.Tick()
	assert.Equal(t, ticks, e.Summary().Ticks, "no ticks after finish")
}

func TestEncounter_PlayerFacesTarget(t *testing.T) {
	cfg := testSimulation()
	cfg.Arena.Pillars = nil
	cfg.Arena.Npcs = []config.NpcSpawn{{Kind: "sniper", X: 0, Y: -1500}}
	cfg.Arena.Player = config.PlayerConfig{AttackInterval: 100 * time.Millisecond, AttackDamage: 0.01}

	e, err := NewEncounter(cfg)
	require.NoError(t, err)
	e.Tick()

	assert.InDelta(t, -1, e.Player().FacingDirection().Y, 0.05)
	assert.Equal(t, geom.Vec3{}, e.Player().Position())
}
