package battle

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cory-johannsen/codebattle/internal/game/combat"
)

// EventKind classifies presentation events.
type EventKind int

const (
	EventEncounterStarted EventKind = iota
	EventTurnAdvanced
	EventTurnSkipped
	EventDamage
	EventHeal
	EventStatusApplied
	EventStatusRefreshed
	EventStatusExpired
	EventDefend
	EventPotionUsed
	EventLevelUp
	EventBattleEnded
	EventPurchase
	EventPortraitReady
)

// String returns a human-readable event label.
func (k EventKind) String() string {
	switch k {
	case EventEncounterStarted:
		return "encounter_started"
	case EventTurnAdvanced:
		return "turn_advanced"
	case EventTurnSkipped:
		return "turn_skipped"
	case EventDamage:
		return "damage"
	case EventHeal:
		return "heal"
	case EventStatusApplied:
		return "status_applied"
	case EventStatusRefreshed:
		return "status_refreshed"
	case EventStatusExpired:
		return "status_expired"
	case EventDefend:
		return "defend"
	case EventPotionUsed:
		return "potion_used"
	case EventLevelUp:
		return "level_up"
	case EventBattleEnded:
		return "battle_ended"
	case EventPurchase:
		return "purchase"
	case EventPortraitReady:
		return "portrait_ready"
	default:
		return "unknown"
	}
}

// Event is one presentation-facing occurrence. Fields not relevant to Kind
// are zero.
type Event struct {
	Kind        EventKind
	EncounterID uuid.UUID
	Turn        int
	Actor       string
	Target      string
	Amount      int
	Critical    bool
	Status      combat.StatusType
	Level       int
	Outcome     Outcome
	Item        string
}

// Sink receives events in emission order. Implementations must not block; the
// controller calls Emit while holding its lock.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

type nopSink struct{}

func (nopSink) Emit(Event) {}

// ChannelSink delivers events to a buffered channel, dropping events when the
// buffer is full.
type ChannelSink struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChannelSink creates a ChannelSink with the given buffer size.
//
// Precondition: size must be > 0.
func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, size)}
}

// Emit enqueues e without blocking.
func (s *ChannelSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// Events returns the receive side of the sink.
func (s *ChannelSink) Events() <-chan Event { return s.ch }

// Dropped returns the number of events discarded because the buffer was full.
func (s *ChannelSink) Dropped() int64 { return s.dropped.Load() }
