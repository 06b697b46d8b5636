package session

import (
	"sync"
	"time"

	"github.com/evdnx/goicc/logger"
)

// Watchdog thresholds.
const (
	WarnAfter         = 3 * time.Minute
	RestartAfter      = 5 * time.Minute
	WatchdogInterval  = 30 * time.Second
	MaxRestartsPerDay = 3
)

// Watchdog monitors candle-flow health for live sessions: it warns after a
// silent stretch and restarts the session after a longer one, with a bounded
// restart budget.
type Watchdog struct {
	session *Session
	log     logger.Logger
	now     func() time.Time

	mu           sync.Mutex
	lastCandle   time.Time
	warned       bool
	restartCount int
	running      bool
	stopCh       chan struct{}
}

func NewWatchdog(s *Session, log logger.Logger) *Watchdog {
	return &Watchdog{session: s, log: log, now: time.Now}
}

// SetClock replaces the wall clock. Test hook.
func (w *Watchdog) SetClock(now func() time.Time) { w.now = now }

// RecordCandle resets the silence timer. Wire it to candle events.
func (w *Watchdog) RecordCandle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastCandle = w.now()
	w.warned = false
}

// Start launches the monitor goroutine.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.lastCandle = w.now()
	w.warned = false
	w.restartCount = 0
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(WatchdogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				w.Check()
			}
		}
	}()
}

// Stop halts the monitor goroutine.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}

// Check evaluates feed freshness once. Exported so tests can drive it.
func (w *Watchdog) Check() {
	if !w.session.IsRunning() {
		return
	}
	w.mu.Lock()
	silence := w.now().Sub(w.lastCandle)
	warned := w.warned
	w.mu.Unlock()

	switch {
	case silence >= RestartAfter:
		w.attemptRestart()
	case silence >= WarnAfter && !warned:
		w.mu.Lock()
		w.warned = true
		w.mu.Unlock()
		if w.log != nil {
			w.log.Warn("no candles received",
				logger.Duration("silence", silence))
		}
	}
}

func (w *Watchdog) attemptRestart() {
	w.mu.Lock()
	if w.restartCount >= MaxRestartsPerDay {
		w.mu.Unlock()
		if w.log != nil {
			w.log.Error("restart budget exhausted",
				logger.Int("max", MaxRestartsPerDay))
		}
		return
	}
	w.restartCount++
	count := w.restartCount
	w.mu.Unlock()

	if w.log != nil {
		w.log.Warn("restarting session after prolonged silence",
			logger.Int("attempt", count),
			logger.Int("max", MaxRestartsPerDay))
	}
	w.session.Stop()
	if err := w.session.Start(); err != nil {
		if w.log != nil {
			w.log.Error("watchdog restart failed", logger.Err(err))
		}
		return
	}
	w.RecordCandle()
}

// RestartCount reports restarts attempted since Start.
func (w *Watchdog) RestartCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.restartCount
}
