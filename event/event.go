// Package event bridges the synchronous trading loop to asynchronous
// observers through a bounded, thread-safe queue.
package event

import (
	"time"

	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/metrics"
)

// Type tags a trading event.
type Type string

const (
	Candle         Type = "candle"
	FSMTransition  Type = "fsm_transition"
	Entry          Type = "entry"
	ExitEvent      Type = "exit"
	KillSwitch     Type = "kill_switch"
	RiskVeto       Type = "risk_veto"
	Snapshot       Type = "snapshot"
	Alert          Type = "alert"
	SessionStarted Type = "session_started"
	SessionStopped Type = "session_stopped"
	SessionFlatten Type = "session_flatten"
)

// Event is an immutable record of something the trader did or observed.
// Data carries a small key/value payload each consumer interprets.
type Event struct {
	Type      Type
	Data      map[string]any
	Timestamp time.Time
}

// DefaultCapacity bounds the bus queue.
const DefaultCapacity = 1000

// Bus is a bounded multi-producer multi-consumer queue. Emission never
// blocks: when the queue is full the new event is dropped with a warning.
// Each event is delivered to exactly one consumer.
type Bus struct {
	ch  chan Event
	log logger.Logger
}

// NewBus creates a bus holding at most capacity events.
func NewBus(capacity int, log logger.Logger) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan Event, capacity), log: log}
}

// Emit enqueues an event without blocking. On overflow the event is dropped.
func (b *Bus) Emit(t Type, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	ev := Event{Type: t, Data: data, Timestamp: time.Now()}
	select {
	case b.ch <- ev:
	default:
		metrics.EventsDropped.Inc()
		if b.log != nil {
			b.log.Warn("event bus full, dropping event", logger.String("type", string(t)))
		}
	}
}

// Get blocks up to timeout for the next event.
func (b *Bus) Get(timeout time.Duration) (Event, bool) {
	select {
	case ev := <-b.ch:
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

// GetNowait returns the next event if one is queued.
func (b *Bus) GetNowait() (Event, bool) {
	select {
	case ev := <-b.ch:
		return ev, true
	default:
		return Event{}, false
	}
}

// Drain returns every currently queued event without blocking.
func (b *Bus) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-b.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Len reports the number of queued events.
func (b *Bus) Len() int { return len(b.ch) }
