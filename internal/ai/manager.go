package ai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Ticker is anything driven by the TickManager (coordinators, NPC brains).
type Ticker interface {
	Tick()
}

// TickFunc adapts a function to Ticker.
type TickFunc func()

func (f TickFunc) Tick() { f() }

type tickEntry struct {
	id     uint32
	ticker Ticker
}

// TickManager drives registered tickers at a fixed rate from one goroutine.
// Tickers run in registration order, so an encounter can register its NPC
// brains before its coordinator and all of them share a single thread.
type TickManager struct {
	mu       sync.Mutex
	entries  []tickEntry
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTickManager creates a tick manager firing every interval
// (100ms when interval is not positive).
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &TickManager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Interval returns tick period.
func (m *TickManager) Interval() time.Duration {
	return m.interval
}

// Register adds ticker under id. Re-registering an id replaces the ticker
// and keeps its position.
func (m *TickManager) Register(id uint32, t Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexLocked(id); i >= 0 {
		m.entries[i].ticker = t
	} else {
		m.entries = append(m.entries, tickEntry{id: id, ticker: t})
	}

	slog.Debug("ticker registered", "id", id)
}

// Unregister removes ticker id.
func (m *TickManager) Unregister(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return
	}
	m.entries = slices.Delete(m.entries, i, i+1)

	slog.Debug("ticker unregistered", "id", id)
}

// Start runs the tick loop (blocks until context is canceled or Stop).
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped")
			return nil

		case <-ticker.C:
			m.tickAll()
		}
	}
}

// Stop stops the tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// tickAll ticks all registered tickers in registration order.
func (m *TickManager) tickAll() {
	m.mu.Lock()
	entries := slices.Clone(m.entries)
	m.mu.Unlock()

	for _, e := range entries {
		e.ticker.Tick()
	}

	if len(entries) > 0 && IsDebugEnabled() {
		slog.Debug("tick completed", "tickers", len(entries))
	}
}

// Count returns number of registered tickers.
func (m *TickManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Get returns ticker by id.
func (m *TickManager) Get(id uint32) (Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return nil, fmt.Errorf("ticker not found for id %d", id)
	}
	return m.entries[i].ticker, nil
}

func (m *TickManager) indexLocked(id uint32) int {
	return slices.IndexFunc(m.entries, func(e tickEntry) bool {
		return e.id == id
	})
}
