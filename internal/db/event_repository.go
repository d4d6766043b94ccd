package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/eventlog"
)

// EventRepository stores coordinator events.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

var eventColumns = []string{
	"encounter_id", "recorded_at", "clock_ms", "kind", "agent",
	"other_agent", "token", "from_role", "to_role", "reason",
}

// WriteEvents inserts records through COPY.
func (r *EventRepository) WriteEvents(ctx context.Context, records []eventlog.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, eventRow(rec))
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"coordinator_events"},
		eventColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("inserting %d coordinator events: %w", len(records), err)
	}
	return nil
}

// eventRow maps a record to column values. Columns that do not apply to the
// event kind are NULL.
func eventRow(rec eventlog.Record) []any {
	e := rec.Event

	var other, token, from, to, reason *string
	if !e.Other.IsZero() {
		other = ptr(e.Other.String())
	}
	switch e.Kind {
	case ai.EventRoleChanged:
		from = ptr(e.From.String())
		to = ptr(e.To.String())
	case ai.EventRetaliationGranted, ai.EventAgentRemoved:
	default:
		token = ptr(e.Token.String())
	}
	if e.Reason != "" {
		reason = ptr(e.Reason)
	}

	return []any{
		rec.EncounterID,
		rec.RecordedAt,
		e.At.Milliseconds(),
		e.Kind.String(),
		e.Agent.String(),
		other, token, from, to, reason,
	}
}

func ptr(s string) *string { return &s }

// CountByEncounter returns number of events stored for encounter.
func (r *EventRepository) CountByEncounter(ctx context.Context, encounter uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM coordinator_events WHERE encounter_id = $1`, encounter,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events for encounter %s: %w", encounter, err)
	}
	return n, nil
}

// KindCounts returns per-kind event counts for encounter.
func (r *EventRepository) KindCounts(ctx context.Context, encounter uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kind, count(*) FROM coordinator_events
		 WHERE encounter_id = $1
		 GROUP BY kind`, encounter,
	)
	if err != nil {
		return nil, fmt.Errorf("querying event kinds for encounter %s: %w", encounter, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning event kind row: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event kind rows: %w", err)
	}
	return counts, nil
}

// StolenTokens returns (thief, victim) agent pairs of TokenStolen events in
// clock order.
func (r *EventRepository) StolenTokens(ctx context.Context, encounter uuid.UUID) ([][2]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT agent, other_agent FROM coordinator_events
		 WHERE encounter_id = $1 AND kind = $2
		 ORDER BY clock_ms, id`, encounter, ai.EventTokenStolen.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying stolen tokens for encounter %s: %w", encounter, err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, fmt.Errorf("scanning stolen token row: %w", err)
		}
		out = append(out, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stolen token rows: %w", err)
	}
	return out, nil
}
