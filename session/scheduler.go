package session

import (
	"sync"
	"time"

	"github.com/evdnx/goicc/logger"
)

// Scheduler opens and closes the trading session on a weekday clock
// (exchange-local time). It polls rather than arming timers so clock jumps
// and DST shifts cannot strand a job.
type Scheduler struct {
	session *Session
	loc     *time.Location
	log     logger.Logger

	openHour, openMinute   int
	closeHour, closeMinute int
	interval               time.Duration
	now                    func() time.Time

	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	lastOpenDay  int
	lastCloseDay int
}

// NewScheduler builds a scheduler for the given open/close wall times.
func NewScheduler(s *Session, loc *time.Location, openHour, openMinute, closeHour, closeMinute int, log logger.Logger) *Scheduler {
	return &Scheduler{
		session:      s,
		loc:          loc,
		log:          log,
		openHour:     openHour,
		openMinute:   openMinute,
		closeHour:    closeHour,
		closeMinute:  closeMinute,
		interval:     30 * time.Second,
		now:          time.Now,
		lastOpenDay:  -1,
		lastCloseDay: -1,
	}
}

// SetClock replaces the wall clock and poll interval. Test hook.
func (sc *Scheduler) SetClock(now func() time.Time, interval time.Duration) {
	sc.now = now
	sc.interval = interval
}

// Start launches the polling goroutine.
func (sc *Scheduler) Start() {
	sc.mu.Lock()
	if sc.running {
		sc.mu.Unlock()
		return
	}
	sc.running = true
	sc.stopCh = make(chan struct{})
	stop := sc.stopCh
	sc.mu.Unlock()

	go func() {
		ticker := time.NewTicker(sc.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				sc.Tick()
			}
		}
	}()
	if sc.log != nil {
		sc.log.Info("scheduler started",
			logger.Int("open_hour", sc.openHour),
			logger.Int("close_hour", sc.closeHour))
	}
}

// Stop halts the polling goroutine.
func (sc *Scheduler) Stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.running {
		return
	}
	sc.running = false
	close(sc.stopCh)
}

// Tick evaluates the schedule once. Exported so tests can drive it without
// real time.
func (sc *Scheduler) Tick() {
	now := sc.now().In(sc.loc)
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return
	}
	day := now.YearDay()
	minutes := now.Hour()*60 + now.Minute()
	openAt := sc.openHour*60 + sc.openMinute
	closeAt := sc.closeHour*60 + sc.closeMinute

	sc.mu.Lock()
	shouldOpen := minutes >= openAt && minutes < closeAt && sc.lastOpenDay != day
	if shouldOpen {
		sc.lastOpenDay = day
	}
	shouldClose := minutes >= closeAt && sc.lastCloseDay != day
	if shouldClose {
		sc.lastCloseDay = day
	}
	sc.mu.Unlock()

	if shouldOpen && !sc.session.IsRunning() {
		if err := sc.session.Start(); err != nil && sc.log != nil {
			sc.log.Error("scheduled open failed", logger.Err(err))
		}
	}
	if shouldClose && sc.session.IsRunning() {
		sc.session.Stop()
	}
}
