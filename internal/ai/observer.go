package ai

import (
	"log/slog"
	"time"

	"github.com/udisondev/npccoord/internal/world"
)

// EventKind identifies a coordinator event.
type EventKind uint8

const (
	EventAgentRegistered EventKind = iota
	EventAgentRemoved
	EventPermissionGranted
	EventRetaliationGranted
	EventPermissionRevoked // timeout, stuck attack, capacity shrink
	EventAttackStarted
	EventAttackCompleted
	EventTokenStolen
	EventRoleChanged
)

func (k EventKind) String() string {
	switch k {
	case EventAgentRegistered:
		return "agent_registered"
	case EventAgentRemoved:
		return "agent_removed"
	case EventPermissionGranted:
		return "permission_granted"
	case EventRetaliationGranted:
		return "retaliation_granted"
	case EventPermissionRevoked:
		return "permission_revoked"
	case EventAttackStarted:
		return "attack_started"
	case EventAttackCompleted:
		return "attack_completed"
	case EventTokenStolen:
		return "token_stolen"
	case EventRoleChanged:
		return "role_changed"
	default:
		return "unknown"
	}
}

// Event is emitted by the coordinator on every state transition worth
// recording. Fields not meaningful for a kind are zero.
type Event struct {
	Kind  EventKind
	At    time.Duration // encounter clock
	Agent world.Handle
	Other world.Handle // steal victim
	Token TokenKind
	From  Role
	To    Role
	// Reason is a short tag for revocations ("permission_timeout",
	// "attack_timeout", "attack_stopped", "capacity").
	Reason string
}

// Observer receives coordinator events synchronously, on the tick goroutine.
// Implementations must not block and must not call back into the coordinator.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers fans one event out to several observers in order.
type Observers []Observer

func (obs Observers) OnEvent(e Event) {
	for _, o := range obs {
		o.OnEvent(e)
	}
}

// LogObserver writes events to slog at debug level.
// Role changes are frequent; they are logged only when AI debug is enabled.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer logging through logger (slog.Default if nil).
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnEvent(e Event) {
	switch e.Kind {
	case EventRoleChanged:
		if !IsDebugEnabled() {
			return
		}
		o.logger.Debug("combat role changed",
			"agent", e.Agent, "from", e.From, "to", e.To, "at", e.At)
	case EventTokenStolen:
		o.logger.Debug("attack token stolen",
			"agent", e.Agent, "victim", e.Other, "token", e.Token, "at", e.At)
	case EventPermissionRevoked:
		o.logger.Debug("attack permission revoked",
			"agent", e.Agent, "reason", e.Reason, "at", e.At)
	default:
		o.logger.Debug("combat coordinator event",
			"event", e.Kind, "agent", e.Agent, "token", e.Token, "at", e.At)
	}
}
