// Package session runs the trading loop: it owns the feed goroutine, fans
// events out to sinks, and handles start/stop/flatten lifecycle.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
	"github.com/evdnx/goicc/store"
	"github.com/evdnx/goicc/trader"
)

var ErrAlreadyRunning = errors.New("session already running")

// Session drives one trading run on its own goroutine. The trader itself
// stays single-threaded: only the loop goroutine touches it while running.
type Session struct {
	trader *trader.Trader
	feed   market.Feed
	bus    *event.Bus
	sink   *store.Store
	log    logger.Logger

	// onEvent, when set, receives every drained event (dashboard hub,
	// watchdog). Called from the loop goroutine.
	onEvent func(event.Event)

	mu      sync.Mutex
	id      string
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func New(tr *trader.Trader, feed market.Feed, bus *event.Bus, log logger.Logger) *Session {
	return &Session{trader: tr, feed: feed, bus: bus, log: log}
}

// WithSink attaches the persistence sink.
func (s *Session) WithSink(sink *store.Store) *Session {
	s.sink = sink
	return s
}

// WithEventHandler attaches an extra event consumer.
func (s *Session) WithEventHandler(fn func(event.Event)) *Session {
	s.onEvent = fn
	return s
}

// ID returns the current (or last) session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// IsRunning reports whether the loop goroutine is active.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Trader exposes the trader for snapshot readers.
func (s *Session) Trader() *trader.Trader { return s.trader }

// Start resets the engine state and launches the loop goroutine.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.id = uuid.NewString()[:8]
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	id := s.id
	s.mu.Unlock()

	s.trader.ResetSession()
	if s.sink != nil {
		if err := s.sink.StartSession(id); err != nil && s.log != nil {
			s.log.Error("session record failed", logger.Err(err))
		}
	}
	s.bus.Emit(event.SessionStarted, map[string]any{"session_id": id})
	s.feed.Start()

	go s.loop(id)
	if s.log != nil {
		s.log.Info("session started", logger.String("session_id", id))
	}
	return nil
}

func (s *Session) loop(id string) {
	defer close(s.done)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		c, ok := s.feed.Next()
		if !ok {
			return
		}
		s.trader.OnCandle(c)
		s.dispatch(id)
	}
}

// dispatch drains the bus into the sinks.
func (s *Session) dispatch(id string) {
	for _, ev := range s.bus.Drain() {
		if s.sink != nil {
			s.sink.Consume(id, ev)
		}
		if s.onEvent != nil {
			s.onEvent(ev)
		}
	}
}

// Stop requests a cooperative loop exit, flattens any open position at the
// last known close, and stamps the session record.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	id := s.id
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	s.feed.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		if s.log != nil {
			s.log.Warn("session loop did not exit in time")
		}
	}

	if last, ok := s.trader.Buffer().Last(); ok {
		s.trader.Flatten(last.Close, "session_stop")
	}
	s.bus.Emit(event.Snapshot, s.trader.Snapshot())
	s.bus.Emit(event.SessionStopped, map[string]any{"session_id": id})
	s.dispatch(id)

	if s.sink != nil {
		riskState := s.trader.Risk().State()
		if err := s.sink.CloseSession(id, riskState.DailyPnL, s.trader.TradeCount()); err != nil && s.log != nil {
			s.log.Error("session close record failed", logger.Err(err))
		}
	}
	if s.log != nil {
		s.log.Info("session stopped", logger.String("session_id", id))
	}
}

// Wait blocks until the loop goroutine exits (feed exhaustion or Stop).
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}
