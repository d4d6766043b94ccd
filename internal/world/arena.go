package world

import "sync"

type arenaSlot[T any] struct {
	gen   uint32
	alive bool
	value T
}

// Arena owns entities and hands out generation-checked handles to them.
// Freed slots are reused with a bumped generation, so handles held by
// other systems go stale instead of aliasing a new entity.
// Thread-safe.
type Arena[T any] struct {
	mu    sync.RWMutex
	slots []arenaSlot[T]
	free  []uint32
	count int
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores value and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot[T]{})
	}

	s := &a.slots[idx]
	s.gen++
	s.alive = true
	s.value = value
	a.count++

	return Handle{Index: idx, Gen: s.gen}
}

// Remove frees the slot referenced by h. Stale handles are ignored.
// Returns true if an entity was removed.
func (a *Arena[T]) Remove(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.liveLocked(h) {
		return false
	}

	s := &a.slots[h.Index]
	var zero T
	s.value = zero
	s.alive = false
	a.free = append(a.free, h.Index)
	a.count--
	return true
}

// Get resolves h. Returns false if h is stale or was never issued.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.liveLocked(h) {
		var zero T
		return zero, false
	}
	return a.slots[h.Index].value, true
}

// Live reports whether h still references a stored entity.
func (a *Arena[T]) Live(h Handle) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.liveLocked(h)
}

// Len returns number of live entities.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.count
}

// ForEach calls fn for every live entity in index order.
// Stops early if fn returns false. fn must not modify the arena.
func (a *Arena[T]) ForEach(fn func(Handle, T) bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for i := range a.slots {
		s := &a.slots[i]
		if !s.alive {
			continue
		}
		if !fn(Handle{Index: uint32(i), Gen: s.gen}, s.value) {
			return
		}
	}
}

func (a *Arena[T]) liveLocked(h Handle) bool {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	return s.alive && s.gen == h.Gen
}
