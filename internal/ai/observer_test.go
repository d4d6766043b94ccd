package ai

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/npccoord/internal/geom"
)

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "permission_granted", EventPermissionGranted.String())
	assert.Equal(t, "token_stolen", EventTokenStolen.String())
	assert.Equal(t, "role_changed", EventRoleChanged.String())
	assert.Equal(t, "unknown", EventKind(200).String())
}

func TestObservers_FanOutInOrder(t *testing.T) {
	var order []string
	obs := Observers{
		ObserverFunc(func(Event) { order = append(order, "first") }),
		ObserverFunc(func(Event) { order = append(order, "second") }),
	}

	obs.OnEvent(Event{Kind: EventAgentRegistered})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	o := NewLogObserver(logger)

	EnableDebugLogging(false)
	t.Cleanup(func() { EnableDebugLogging(false) })

	o.OnEvent(Event{Kind: EventRoleChanged, Agent: hnd(1), From: RoleSupporter, To: RoleFlanker})
	assert.Empty(t, buf.String(), "role changes need AI debug")

	o.OnEvent(Event{Kind: EventPermissionRevoked, Agent: hnd(1), Reason: "attack_timeout"})
	assert.Contains(t, buf.String(), "attack permission revoked")
	assert.Contains(t, buf.String(), "reason=attack_timeout")

	EnableDebugLogging(true)
	buf.Reset()
	o.OnEvent(Event{Kind: EventRoleChanged, Agent: hnd(1), From: RoleSupporter, To: RoleFlanker})
	assert.Contains(t, buf.String(), "combat role changed")
}

func TestLogObserver_NilLoggerUsesDefault(t *testing.T) {
	assert.NotPanics(t, func() {
		NewLogObserver(nil).OnEvent(Event{Kind: EventAttackStarted})
	})
}

func TestCoordinator_EventsStampedWithClock(t *testing.T) {
	f := newFixture(t, nil)
	h := f.spawn(t, AgentKindRanged, geom.V(1000, 0, 0))

	f.world.advance(250 * time.Millisecond)
	require.True(t, f.coord.RequestAttackPermission(h))
	f.coord.NotifyAttackStarted(h)
	f.coord.NotifyAttackComplete(h)

	registered := f.events.ofKind(EventAgentRegistered)
	require.Len(t, registered, 1)
	assert.Equal(t, time.Second, registered[0].At)

	for _, kind := range []EventKind{EventPermissionGranted, EventAttackStarted, EventAttackCompleted} {
		got := f.events.ofKind(kind)
		require.Len(t, got, 1, kind.String())
		assert.Equal(t, 1250*time.Millisecond, got[0].At)
		assert.Equal(t, h, got[0].Agent)
		assert.Equal(t, TokenRanged, got[0].Token)
	}
}
