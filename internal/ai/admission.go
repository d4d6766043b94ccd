package ai

import (
	"time"

	"github.com/udisondev/npccoord/internal/geom"
	"github.com/udisondev/npccoord/internal/world"
)

// RequestAttackPermission asks whether h may attack now.
//
// Agents outside engagement range are not limited by tokens and get
// FreeAttackOutsideRange. Otherwise h is registered if needed and must win a
// token of its kind. Idempotent while permission is held. A false result is
// a normal denial; the caller retries on its own cadence.
func (c *Coordinator) RequestAttackPermission(h world.Handle) bool {
	agent, ok := c.resolve(h)
	if !ok {
		return false
	}

	pos := agent.Position()
	if !c.inEngagementRange(pos) {
		return c.cfg.FreeAttackOutsideRange
	}

	rec := c.ensureRegistered(h, agent)
	if rec.HasAttackPermission {
		return true
	}

	if !c.acquireToken(rec, pos, rec.TokenKind) {
		return false
	}

	rec.HasAttackPermission = true
	rec.PermissionTime = 0
	rec.WaitTime = 0
	rec.Role = RoleAggressor
	c.markGrant()

	c.emit(Event{Kind: EventPermissionGranted, Agent: h, Token: rec.TokenKind})
	return true
}

// HasAttackPermission reports whether h currently holds permission.
func (c *Coordinator) HasAttackPermission(h world.Handle) bool {
	rec := c.reg.get(h)
	return rec != nil && rec.HasAttackPermission
}

// NotifyAttackStarted starts the attacking timer for h.
func (c *Coordinator) NotifyAttackStarted(h world.Handle) {
	rec := c.reg.get(h)
	if rec == nil {
		return
	}
	rec.IsCurrentlyAttacking = true
	rec.PermissionTime = 0
	rec.AttackingTime = 0
	c.emit(Event{Kind: EventAttackStarted, Agent: h, Token: rec.TokenKind})
}

// NotifyAttackComplete releases h's token and permission.
func (c *Coordinator) NotifyAttackComplete(h world.Handle) {
	rec := c.reg.get(h)
	if rec == nil {
		return
	}
	c.releaseToken(rec)
	rec.HasAttackPermission = false
	rec.IsCurrentlyAttacking = false
	rec.PermissionTime = 0
	rec.AttackingTime = 0
	rec.Role = RoleSupporter
	rec.ProximityOverride = false
	c.emit(Event{Kind: EventAttackCompleted, Agent: h, Token: rec.TokenKind})
}

// GrantRetaliationPermission lets a just-damaged agent shoot back without
// waiting for a token. If h is already attacking, its attacking timer is
// reset instead (extends the attack).
func (c *Coordinator) GrantRetaliationPermission(h world.Handle) {
	agent, ok := c.resolve(h)
	if !ok {
		return
	}
	rec := c.ensureRegistered(h, agent)

	if rec.IsCurrentlyAttacking {
		rec.AttackingTime = 0
		return
	}

	rec.HasAttackPermission = true
	rec.PermissionTime = 0
	rec.AttackingTime = 0
	rec.WaitTime = 0
	rec.Role = RoleAggressor
	c.emit(Event{Kind: EventRetaliationGranted, Agent: h})
}

// RequestAttackToken tries to give h a token of kind.
// See acquireToken for the admission order.
func (c *Coordinator) RequestAttackToken(h world.Handle, kind TokenKind) bool {
	if kind >= tokenKindCount {
		return false
	}
	agent, ok := c.resolve(h)
	if !ok {
		return false
	}
	rec := c.ensureRegistered(h, agent)
	return c.acquireToken(rec, agent.Position(), kind)
}

// ReleaseAttackToken returns h's token to its pool.
func (c *Coordinator) ReleaseAttackToken(h world.Handle) {
	rec := c.reg.get(h)
	if rec == nil {
		c.releaseFromPools(h)
		return
	}
	c.releaseToken(rec)
}

// HasAttackToken reports whether h holds a token.
func (c *Coordinator) HasAttackToken(h world.Handle) bool {
	rec := c.reg.get(h)
	return rec != nil && rec.HoldsToken
}

// acquireToken runs token admission for rec standing at pos:
//  1. proximity override bypasses tokens entirely;
//  2. already holding a token of kind succeeds;
//  3. global cooldown between grants;
//  4. normal acquisition, bounded by MaxSimultaneousAttackers;
//  5. stealing from a worse-positioned holder.
func (c *Coordinator) acquireToken(rec *AgentRecord, pos geom.Vec3, kind TokenKind) bool {
	if rec.ProximityOverride || c.withinProximity(pos) {
		rec.ProximityOverride = true
		return true
	}

	pool := c.pools[kind]
	if rec.HoldsToken && rec.TokenKind == kind && pool.Holds(rec.Handle) {
		return true
	}

	if c.inCooldown() {
		return false
	}

	granted := c.ActiveAttackerCount() < c.cfg.MaxSimultaneousAttackers && pool.TryAcquire(rec.Handle)
	if !granted && c.cfg.EnableTokenStealing {
		granted = c.trySteal(rec, pos, pool)
	}
	if !granted {
		return false
	}

	// One token per agent: the old category is returned only once the new
	// token is in hand, so a denied switch keeps what the agent had.
	for k, p := range c.pools {
		if TokenKind(k) != kind {
			p.Release(rec.Handle)
		}
	}
	rec.HoldsToken = true
	rec.TokenKind = kind
	c.markGrant()
	return true
}

// trySteal takes a token from the holder that lacks line of sight and is
// farther from the target than the requester, provided the requester itself
// sees the target. The farthest such holder loses (ties: lowest handle).
func (c *Coordinator) trySteal(rec *AgentRecord, pos geom.Vec3, pool *TokenPool) bool {
	if !c.targetState.Valid || !c.hasLineOfSight(pos) {
		return false
	}
	requesterDist := c.distanceToTarget(pos)

	var (
		victim     world.Handle
		victimDist float64
		found      bool
	)
	for _, h := range pool.Holders() {
		if h == rec.Handle {
			continue
		}
		agent, ok := c.resolve(h)
		if !ok {
			continue
		}
		hpos := agent.Position()
		d := c.distanceToTarget(hpos)
		if d <= requesterDist {
			continue
		}
		if c.hasLineOfSight(hpos) {
			continue
		}
		if !found || d > victimDist || (d == victimDist && h.Less(victim)) {
			victim = h
			victimDist = d
			found = true
		}
	}
	if !found {
		return false
	}

	pool.Release(victim)
	if vrec := c.reg.get(victim); vrec != nil {
		vrec.HoldsToken = false
		vrec.HasAttackPermission = false
		vrec.IsCurrentlyAttacking = false
		vrec.PermissionTime = 0
		vrec.AttackingTime = 0
		vrec.Role = RoleSupporter
	}

	if !pool.TryAcquire(rec.Handle) {
		// Unreachable: the slot was freed above.
		return false
	}

	c.emit(Event{Kind: EventTokenStolen, Agent: rec.Handle, Other: victim, Token: pool.Kind()})
	return true
}

// updatePermissionTimeouts revokes permissions that were never used or whose
// attack is stuck or has silently stopped. Tokens are scarce, so no agent may
// hold one indefinitely.
func (c *Coordinator) updatePermissionTimeouts(dt time.Duration) {
	for _, rec := range c.reg.records {
		if !rec.HasAttackPermission {
			continue
		}

		if rec.IsCurrentlyAttacking {
			rec.AttackingTime += dt
			still := false
			if agent, ok := c.resolve(rec.Handle); ok {
				still = agent.IsPerformingAttack()
			}
			switch {
			case !still:
				c.forceTerminate(rec, "attack_stopped")
			case rec.AttackingTime >= c.cfg.MaxAttackingTime:
				c.forceTerminate(rec, "attack_timeout")
			}
			continue
		}

		rec.PermissionTime += dt
		if rec.PermissionTime >= c.cfg.PermissionTimeout {
			c.forceTerminate(rec, "permission_timeout")
		}
	}
}

// forceTerminate revokes permission and token and demotes rec to Supporter.
func (c *Coordinator) forceTerminate(rec *AgentRecord, reason string) {
	c.releaseToken(rec)
	rec.HasAttackPermission = false
	rec.IsCurrentlyAttacking = false
	rec.PermissionTime = 0
	rec.AttackingTime = 0
	rec.Role = RoleSupporter
	c.emit(Event{Kind: EventPermissionRevoked, Agent: rec.Handle, Token: rec.TokenKind, Reason: reason})
}

func (c *Coordinator) releaseToken(rec *AgentRecord) {
	c.releaseFromPools(rec.Handle)
	rec.HoldsToken = false
}

// releaseFromPools removes h from every pool.
func (c *Coordinator) releaseFromPools(h world.Handle) {
	for _, p := range c.pools {
		p.Release(h)
	}
}

func (c *Coordinator) inCooldown() bool {
	if !c.hasGranted {
		return false
	}
	return c.world.Now()-c.lastGrantAt < c.cfg.MinTimeBetweenGrants
}

func (c *Coordinator) markGrant() {
	c.lastGrantAt = c.world.Now()
	c.hasGranted = true
}
