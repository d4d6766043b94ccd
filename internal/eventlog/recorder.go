// Package eventlog records combat coordinator events for offline tuning.
package eventlog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/config"
)

// Record is one coordinator event tagged with its encounter.
type Record struct {
	EncounterID uuid.UUID
	RecordedAt  time.Time
	Event       ai.Event
}

// EventWriter persists batches of records.
type EventWriter interface {
	WriteEvents(ctx context.Context, records []Record) error
}

// Recorder is an ai.Observer that hands events to a background writer.
//
// OnEvent never blocks the tick goroutine: when the buffer is full the event
// is dropped and counted. Run drains the buffer and flushes batches by size
// or by FlushInterval, whichever comes first.
type Recorder struct {
	encounter uuid.UUID
	writer    EventWriter
	cfg       config.Recorder
	events    chan Record

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewRecorder creates a recorder for one encounter.
// Non-positive sizes and intervals fall back to small defaults.
func NewRecorder(encounter uuid.UUID, w EventWriter, cfg config.Recorder) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &Recorder{
		encounter: encounter,
		writer:    w,
		cfg:       cfg,
		events:    make(chan Record, cfg.BufferSize),
	}
}

// EncounterID returns the encounter this recorder tags events with.
func (r *Recorder) EncounterID() uuid.UUID {
	return r.encounter
}

// OnEvent queues e for writing.
func (r *Recorder) OnEvent(e ai.Event) {
	rec := Record{EncounterID: r.encounter, RecordedAt: time.Now(), Event: e}
	select {
	case r.events <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Run flushes queued events until ctx is canceled, then drains what is left
// and flushes once more.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, r.cfg.BatchSize)

	slog.Info("event recorder started",
		"encounter", r.encounter,
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval)

	for {
		select {
		case <-ctx.Done():
			batch = r.drain(batch)
			r.flush(context.WithoutCancel(ctx), batch)
			slog.Info("event recorder stopped",
				"written", r.written.Load(),
				"dropped", r.dropped.Load(),
				"failed", r.failed.Load())
			return nil

		case rec := <-r.events:
			batch = append(batch, rec)
			if len(batch) >= r.cfg.BatchSize {
				batch = r.flush(ctx, batch)
			}

		case <-ticker.C:
			batch = r.flush(ctx, batch)
		}
	}
}

func (r *Recorder) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-r.events:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// flush writes batch and returns it emptied for reuse.
// A failed write is logged and the batch discarded.
func (r *Recorder) flush(ctx context.Context, batch []Record) []Record {
	if len(batch) == 0 {
		return batch
	}

	if err := r.writer.WriteEvents(ctx, batch); err != nil {
		r.failed.Add(uint64(len(batch)))
		slog.Error("writing coordinator events",
			"encounter", r.encounter,
			"count", len(batch),
			"err", err)
	} else {
		r.written.Add(uint64(len(batch)))
		if ai.IsDebugEnabled() {
			slog.Debug("coordinator events flushed", "count", len(batch))
		}
	}

	clear(batch)
	return batch[:0]
}

// Written returns number of events persisted.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Dropped returns number of events discarded because the buffer was full.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Failed returns number of events lost to write errors.
func (r *Recorder) Failed() uint64 { return r.failed.Load() }
