package ai

import (
	"slices"

	"github.com/udisondev/npccoord/internal/world"
)

// TokenPool is a capped set of attack token holders for one category.
// Acquisition failure is a normal outcome (pool full), not an error.
type TokenPool struct {
	kind      TokenKind
	maxTokens int
	heldBy    []world.Handle
}

// NewTokenPool creates an empty pool. Negative capacity is treated as zero.
func NewTokenPool(kind TokenKind, maxTokens int) *TokenPool {
	return &TokenPool{
		kind:      kind,
		maxTokens: max(maxTokens, 0),
	}
}

// Kind returns pool category.
func (p *TokenPool) Kind() TokenKind {
	return p.kind
}

// MaxTokens returns pool capacity.
func (p *TokenPool) MaxTokens() int {
	return p.maxTokens
}

// Count returns number of held tokens.
func (p *TokenPool) Count() int {
	return len(p.heldBy)
}

// IsFull reports whether no token is free.
func (p *TokenPool) IsFull() bool {
	return len(p.heldBy) >= p.maxTokens
}

// Holds reports whether h holds a token from this pool.
func (p *TokenPool) Holds(h world.Handle) bool {
	return slices.Contains(p.heldBy, h)
}

// Holders returns a copy of current holders in acquisition order.
func (p *TokenPool) Holders() []world.Handle {
	return slices.Clone(p.heldBy)
}

// TryAcquire gives h a token. Idempotent: true if h already holds one.
// Returns false if the pool is at capacity.
func (p *TokenPool) TryAcquire(h world.Handle) bool {
	if p.Holds(h) {
		return true
	}
	if p.IsFull() {
		return false
	}
	p.heldBy = append(p.heldBy, h)
	return true
}

// Release removes every occurrence of h.
// Returns true if h held a token.
func (p *TokenPool) Release(h world.Handle) bool {
	before := len(p.heldBy)
	p.heldBy = slices.DeleteFunc(p.heldBy, func(x world.Handle) bool {
		return x == h
	})
	return len(p.heldBy) != before
}

// CleanupInvalid drops holders for which live returns false.
// Returns dropped handles.
func (p *TokenPool) CleanupInvalid(live func(world.Handle) bool) []world.Handle {
	var dropped []world.Handle
	p.heldBy = slices.DeleteFunc(p.heldBy, func(h world.Handle) bool {
		if live(h) {
			return false
		}
		dropped = append(dropped, h)
		return true
	})
	return dropped
}

// SetMaxTokens changes capacity. If the pool now holds more tokens than
// allowed, the most recently acquired holders are evicted and returned.
func (p *TokenPool) SetMaxTokens(n int) []world.Handle {
	p.maxTokens = max(n, 0)
	if len(p.heldBy) <= p.maxTokens {
		return nil
	}
	evicted := slices.Clone(p.heldBy[p.maxTokens:])
	p.heldBy = p.heldBy[:p.maxTokens]
	return evicted
}
