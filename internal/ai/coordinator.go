package ai

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// TargetState is the per-tick snapshot of the primary target.
// Every subsystem reads the snapshot, never the live target, so all of them
// see the same target within one tick.
type TargetState struct {
	Valid        bool
	Position     geom.Vec3
	Facing       geom.Vec3 // normalized
	HPPercent    float64
	ArmorPercent float64
	Speed        float64 // units per second, from position delta between refreshes
}

// Stats is a point-in-time summary of coordinator state.
type Stats struct {
	Registered      int
	ActiveAttackers int
	MaxAttackers    int
	TokensHeld      [tokenKindCount]int
	TokenCaps       [tokenKindCount]int
	Slots           int
	TargetValid     bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithRand sets the random source used for battle circle phase offsets.
func WithRand(r *rand.Rand) Option {
	return func(c *Coordinator) {
		c.rng = r
	}
}

// Coordinator arbitrates which NPCs may attack the primary target, where
// they stand around it and which tactical role each one holds.
//
// One Coordinator per encounter. It is not safe for concurrent use: Tick and
// every agent-facing call must happen on the same goroutine (see TickManager).
// No call blocks; denials are returned as false and the caller retries later.
type Coordinator struct {
	cfg    config.Coordinator
	agents AgentSource
	world  World

	target        Target
	targetState   TargetState
	lastTarget    geom.Vec3
	lastTargetAt  time.Duration
	hasLastTarget bool

	reg    *registry
	pools  [tokenKindCount]*TokenPool
	scorer *AttackScorer
	roles  *RoleAssigner
	circle *BattleCircle

	observer Observer
	rng      *rand.Rand

	lastTick    time.Duration
	ticked      bool
	lastGrantAt time.Duration
	hasGranted  bool
}

// NewCoordinator creates a coordinator for one encounter.
func NewCoordinator(cfg config.Coordinator, agents AgentSource, w World, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:    cfg,
		agents: agents,
		world:  w,
		reg:    newRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observer == nil {
		c.observer = ObserverFunc(func(Event) {})
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c.pools[TokenRanged] = NewTokenPool(TokenRanged, cfg.Tokens.Ranged)
	c.pools[TokenMelee] = NewTokenPool(TokenMelee, cfg.Tokens.Melee)
	c.pools[TokenSpecial] = NewTokenPool(TokenSpecial, cfg.Tokens.Special)
	c.scorer = NewAttackScorer(cfg.Scoring)
	c.roles = NewRoleAssigner(cfg.FlankerAngle, cfg.Pressure)
	c.circle = NewBattleCircle(c.rng)

	return c
}

// Config returns current settings.
func (c *Coordinator) Config() config.Coordinator {
	return c.cfg
}

// SetConfig swaps settings. Pool capacities follow on the next Tick.
func (c *Coordinator) SetConfig(cfg config.Coordinator) {
	c.cfg = cfg
	c.scorer = NewAttackScorer(cfg.Scoring)
	c.roles = NewRoleAssigner(cfg.FlankerAngle, cfg.Pressure)
}

// Tick runs one coordinator update. Call at a fixed low rate (10 Hz).
func (c *Coordinator) Tick() {
	now := c.world.Now()
	var dt time.Duration
	if c.ticked && now > c.lastTick {
		dt = now - c.lastTick
	}
	c.lastTick = now
	c.ticked = true

	c.cleanupInvalidAgents()
	c.syncPoolCapacities()
	c.sampleAgents()
	c.updateAttackScores()
	c.updatePermissionTimeouts(dt)
	c.updateWaitTimes(dt)
	c.refreshTargetState(now)
	c.assignRoles()
	c.updateBattleCircle(dt)

	if IsDebugEnabled() && c.reg.len() > 0 {
		slog.Debug("combat coordinator tick completed",
			"agents", c.reg.len(),
			"attackers", c.ActiveAttackerCount(),
			"target", c.targetState.Valid)
	}
}

// Register starts coordinating h. No-op if already registered.
// Returns false if h does not resolve to a live agent.
func (c *Coordinator) Register(h world.Handle) bool {
	agent, ok := c.resolve(h)
	if !ok {
		return false
	}
	c.ensureRegistered(h, agent)
	return true
}

// Unregister stops coordinating h and releases any token it held.
func (c *Coordinator) Unregister(h world.Handle) {
	rec := c.reg.remove(h)
	if rec == nil {
		c.releaseFromPools(h)
		return
	}
	c.releaseToken(rec)
	c.emit(Event{Kind: EventAgentRemoved, Agent: h})
}

// IsRegistered reports whether h is coordinated.
func (c *Coordinator) IsRegistered(h world.Handle) bool {
	return c.reg.get(h) != nil
}

// Role returns current role of h (Supporter if unknown).
func (c *Coordinator) Role(h world.Handle) Role {
	if rec := c.reg.get(h); rec != nil {
		return rec.Role
	}
	return RoleSupporter
}

// SetRole overrides the role of h until the next role assignment.
func (c *Coordinator) SetRole(h world.Handle, role Role) {
	if rec := c.reg.get(h); rec != nil {
		rec.Role = role
	}
}

// AttackScore returns last computed attack score of h.
func (c *Coordinator) AttackScore(h world.Handle) float64 {
	if rec := c.reg.get(h); rec != nil {
		return rec.AttackScore
	}
	return 0
}

// Record returns a copy of h's coordinator state.
func (c *Coordinator) Record(h world.Handle) (AgentRecord, bool) {
	rec := c.reg.get(h)
	if rec == nil {
		return AgentRecord{}, false
	}
	return *rec, true
}

// ActiveAttackerCount returns number of agents holding permission or
// attacking within engagement range.
func (c *Coordinator) ActiveAttackerCount() int {
	count := 0
	for _, rec := range c.reg.records {
		if !rec.IsEngaged() {
			continue
		}
		agent, ok := c.resolve(rec.Handle)
		if !ok {
			continue
		}
		if c.inEngagementRange(agent.Position()) {
			count++
		}
	}
	return count
}

// TokensHeld returns number of held tokens of kind.
func (c *Coordinator) TokensHeld(kind TokenKind) int {
	if kind >= tokenKindCount {
		return 0
	}
	return c.pools[kind].Count()
}

// Pool returns the token pool for kind (nil for unknown kinds).
func (c *Coordinator) Pool(kind TokenKind) *TokenPool {
	if kind >= tokenKindCount {
		return nil
	}
	return c.pools[kind]
}

// SetPrimaryTarget sets the target all agents coordinate against.
// The target snapshot is refreshed immediately. nil clears the target.
func (c *Coordinator) SetPrimaryTarget(t Target) {
	c.target = t
	c.hasLastTarget = false
	c.refreshTargetState(c.world.Now())
}

// TargetState returns the cached target snapshot.
func (c *Coordinator) TargetState() TargetState {
	return c.targetState
}

// AssignedSlotPosition returns h's battle circle position.
// Returns false if the battle circle is disabled or h has no slot.
func (c *Coordinator) AssignedSlotPosition(h world.Handle) (geom.Vec3, bool) {
	if !c.cfg.BattleCircle.Enabled {
		return geom.Vec3{}, false
	}
	rec := c.reg.get(h)
	if rec == nil || !rec.HasSlot() {
		return geom.Vec3{}, false
	}
	return rec.AssignedSlotPosition, true
}

// Ring returns the ring of h's slot (Middle if unassigned).
func (c *Coordinator) Ring(h world.Handle) Ring {
	rec := c.reg.get(h)
	if rec == nil || !rec.HasSlot() || rec.AssignedSlot >= len(c.circle.slots) {
		return RingMiddle
	}
	return c.circle.slots[rec.AssignedSlot].Ring
}

// Slots returns a copy of battle circle slots.
func (c *Coordinator) Slots() []BattleSlot {
	return c.circle.Slots()
}

// Stats returns a summary of coordinator state.
func (c *Coordinator) Stats() Stats {
	s := Stats{
		Registered:      c.reg.len(),
		ActiveAttackers: c.ActiveAttackerCount(),
		MaxAttackers:    c.cfg.MaxSimultaneousAttackers,
		Slots:           len(c.circle.slots),
		TargetValid:     c.targetState.Valid,
	}
	for k, p := range c.pools {
		s.TokensHeld[k] = p.Count()
		s.TokenCaps[k] = p.MaxTokens()
	}
	return s
}

// resolve returns the live, non-dead agent behind h.
func (c *Coordinator) resolve(h world.Handle) (Agent, bool) {
	if c.agents == nil {
		return nil, false
	}
	agent, ok := c.agents.Agent(h)
	if !ok || agent == nil || agent.IsDead() {
		return nil, false
	}
	return agent, true
}

func (c *Coordinator) ensureRegistered(h world.Handle, agent Agent) *AgentRecord {
	if rec := c.reg.get(h); rec != nil {
		return rec
	}
	rec := newAgentRecord(h, agent.Kind())
	rec.position = agent.Position()
	rec.distance = c.distanceToTarget(rec.position)
	c.reg.add(rec)
	c.emit(Event{Kind: EventAgentRegistered, Agent: h, Token: rec.TokenKind})
	return rec
}

func (c *Coordinator) emit(e Event) {
	e.At = c.world.Now()
	c.observer.OnEvent(e)
}

// cleanupInvalidAgents drops agents that no longer resolve or are dead, and
// pool holders without a record.
func (c *Coordinator) cleanupInvalidAgents() {
	removed := c.reg.removeIf(func(rec *AgentRecord) bool {
		_, ok := c.resolve(rec.Handle)
		return !ok
	})
	for _, rec := range removed {
		c.releaseToken(rec)
		c.emit(Event{Kind: EventAgentRemoved, Agent: rec.Handle})
	}

	for _, p := range c.pools {
		p.CleanupInvalid(func(h world.Handle) bool {
			return c.reg.get(h) != nil
		})
	}
}

// syncPoolCapacities applies configured token caps. Holders evicted by a
// shrinking cap lose their permission.
func (c *Coordinator) syncPoolCapacities() {
	caps := [tokenKindCount]int{
		TokenRanged:  c.cfg.Tokens.Ranged,
		TokenMelee:   c.cfg.Tokens.Melee,
		TokenSpecial: c.cfg.Tokens.Special,
	}
	for k, p := range c.pools {
		for _, h := range p.SetMaxTokens(caps[k]) {
			rec := c.reg.get(h)
			if rec == nil {
				continue
			}
			rec.HoldsToken = false
			c.forceTerminate(rec, "capacity")
		}
	}
}

// sampleAgents reads positions and line of sight once per tick and refreshes
// proximity overrides.
func (c *Coordinator) sampleAgents() {
	for _, rec := range c.reg.records {
		agent, ok := c.resolve(rec.Handle)
		if !ok {
			continue
		}
		rec.position = agent.Position()
		rec.distance = c.distanceToTarget(rec.position)
		rec.hasLineOfSight = c.hasLineOfSight(rec.position)
		rec.ProximityOverride = c.withinProximity(rec.position)
	}
}

func (c *Coordinator) updateAttackScores() {
	for _, rec := range c.reg.records {
		if !c.targetState.Valid || !c.inEngagementRange(rec.position) {
			rec.AttackScore = 0
			continue
		}
		rec.AttackScore = c.scorer.Score(rec.distance, rec.hasLineOfSight, rec.WaitTime.Seconds())
	}
}

func (c *Coordinator) updateWaitTimes(dt time.Duration) {
	for _, rec := range c.reg.records {
		if !rec.HasAttackPermission && !rec.IsCurrentlyAttacking {
			rec.WaitTime += dt
		}
	}
}

func (c *Coordinator) refreshTargetState(now time.Duration) {
	if c.target == nil || !c.target.Valid() {
		c.targetState = TargetState{}
		c.hasLastTarget = false
		return
	}

	pos := c.target.Position()
	var speed float64
	if c.hasLastTarget && now > c.lastTargetAt {
		speed = pos.Distance(c.lastTarget) / (now - c.lastTargetAt).Seconds()
	}
	c.lastTarget = pos
	c.lastTargetAt = now
	c.hasLastTarget = true

	c.targetState = TargetState{
		Valid:        true,
		Position:     pos,
		Facing:       c.target.FacingDirection().Normalize(),
		HPPercent:    clamp01(c.target.HPPercent()),
		ArmorPercent: clamp01(c.target.ArmorPercent()),
		Speed:        speed,
	}
}

func (c *Coordinator) assignRoles() {
	if !c.targetState.Valid {
		return
	}
	for _, rec := range c.reg.records {
		rec.distance = c.distanceToTarget(rec.position)
	}
	for _, ch := range c.roles.Assign(c.reg.records, c.targetState) {
		c.emit(Event{Kind: EventRoleChanged, Agent: ch.Handle, From: ch.From, To: ch.To})
	}
}

func (c *Coordinator) updateBattleCircle(dt time.Duration) {
	if !c.targetState.Valid {
		return
	}
	for _, rec := range c.reg.records {
		rec.PreferredRing = c.roles.PreferredRing(rec, c.targetState)
	}
	c.circle.Update(dt, c.cfg.BattleCircle, c.targetState.Position, c.reg.records)
}

// distanceToTarget returns distance from pos to the cached target, or +Inf
// without a target.
func (c *Coordinator) distanceToTarget(pos geom.Vec3) float64 {
	if !c.targetState.Valid {
		return math.Inf(1)
	}
	return pos.Distance(c.targetState.Position)
}

// inEngagementRange reports whether pos competes for tokens.
// A non-positive range or a missing target puts everyone in range.
func (c *Coordinator) inEngagementRange(pos geom.Vec3) bool {
	if c.cfg.MaxEngagementDistance <= 0 || !c.targetState.Valid {
		return true
	}
	return c.distanceToTarget(pos) <= c.cfg.MaxEngagementDistance
}

func (c *Coordinator) withinProximity(pos geom.Vec3) bool {
	if c.cfg.ProximityOverrideDistance <= 0 || !c.targetState.Valid {
		return false
	}
	return c.distanceToTarget(pos) <= c.cfg.ProximityOverrideDistance
}

func (c *Coordinator) hasLineOfSight(pos geom.Vec3) bool {
	if !c.targetState.Valid {
		return false
	}
	return c.world.LineOfSight(pos, c.targetState.Position)
}
