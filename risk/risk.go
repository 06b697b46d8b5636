// Package risk implements the gate-style risk engine. It vetoes entries and
// trips the kill switch; it never initiates trades.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/metrics"
	"github.com/evdnx/goicc/types"
)

// State is the running per-session risk bookkeeping.
type State struct {
	DailyPnL           float64
	TradeCount         int
	OpenPositions      int
	ConsecutiveLosses  int
	LastLossTime       time.Time
	HasLoss            bool
	Killed             bool
	PreKillTriggered   bool
}

// Engine tracks session risk and answers CanOpenTrade. Not safe for
// concurrent use; it lives on the trading thread.
type Engine struct {
	cfg        config.RiskConfig
	instrument config.InstrumentConfig
	state      State
	killCap    float64
	prekillCap float64
	log        logger.Logger

	now func() time.Time // injectable clock for the cooldown gate
}

// NewEngine captures the configuration and precomputes the loss caps.
func NewEngine(cfg config.RiskConfig, instrument config.InstrumentConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		instrument: instrument,
		killCap:    cfg.AccountSize * cfg.DailyLossKillPct,
		prekillCap: cfg.AccountSize * cfg.DailyLossPrekillPct,
		log:        log,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// State returns a copy of the current risk state.
func (e *Engine) State() State { return e.state }

// ResetSession zeroes all risk state atomically at session start.
func (e *Engine) ResetSession() {
	e.state = State{}
	metrics.DailyPnL.Set(0)
}

// UpdatePnL adds a realized trade result to the daily total. Losses bump the
// consecutive-loss counter and stamp the cooldown clock; wins clear it.
func (e *Engine) UpdatePnL(delta float64) {
	e.state.DailyPnL += delta
	if delta < 0 {
		e.state.ConsecutiveLosses++
		e.state.LastLossTime = e.now()
		e.state.HasLoss = true
	} else {
		e.state.ConsecutiveLosses = 0
	}
	metrics.DailyPnL.Set(e.state.DailyPnL)
}

// RecordTrade counts an entered trade against the session limit.
func (e *Engine) RecordTrade() { e.state.TradeCount++ }

// SetOpenPositions records the current open-position count.
func (e *Engine) SetOpenPositions(n int) {
	e.state.OpenPositions = n
	metrics.PositionsOpen.Set(float64(n))
}

// CheckKillSwitch latches and reports the kill condition: daily P&L negative
// and at or beyond the kill cap.
func (e *Engine) CheckKillSwitch() bool {
	if e.state.DailyPnL < 0 && math.Abs(e.state.DailyPnL) >= e.killCap {
		if !e.state.Killed && e.log != nil {
			e.log.Error("daily loss kill cap breached",
				logger.Float64("daily_pnl", e.state.DailyPnL),
				logger.Float64("cap", e.killCap))
		}
		e.state.Killed = true
		return true
	}
	return false
}

// CheckPreKill latches and reports the softer pre-kill condition.
func (e *Engine) CheckPreKill() bool {
	if e.state.DailyPnL < 0 && math.Abs(e.state.DailyPnL) >= e.prekillCap {
		e.state.PreKillTriggered = true
		return true
	}
	return false
}

// CanOpenTrade evaluates the gates in fixed priority order. The first
// failing gate wins; later gates are not probed.
func (e *Engine) CanOpenTrade() (bool, string) {
	if e.state.Killed {
		return false, "Kill switch active"
	}
	if e.CheckKillSwitch() {
		return false, "Daily loss kill triggered"
	}
	if e.CheckPreKill() {
		return false, "Pre-kill threshold breached — no new entries"
	}
	if e.state.TradeCount >= e.cfg.MaxTradesPerSession {
		return false, fmt.Sprintf("Max trades (%d) reached", e.cfg.MaxTradesPerSession)
	}
	if e.state.OpenPositions >= e.cfg.MaxOpenPositions {
		return false, fmt.Sprintf("Max open positions (%d) reached", e.cfg.MaxOpenPositions)
	}
	if e.state.ConsecutiveLosses >= e.cfg.MaxConsecutiveLosses {
		return false, fmt.Sprintf("Max consecutive losses (%d) reached", e.cfg.MaxConsecutiveLosses)
	}
	if e.state.HasLoss {
		elapsed := e.now().Sub(e.state.LastLossTime)
		cooldown := time.Duration(e.cfg.CooldownSeconds) * time.Second
		if elapsed < cooldown {
			remaining := int((cooldown - elapsed).Seconds())
			return false, fmt.Sprintf("Cooldown active (%ds remaining)", remaining)
		}
	}
	return true, "OK"
}

// ComputeCommission returns the commission for the given number of sides.
func (e *Engine) ComputeCommission(sides int) float64 {
	return e.cfg.CommissionPerSide * float64(sides)
}

// ApplySlippage adjusts a price against the side by the configured number of
// ticks.
func (e *Engine) ApplySlippage(price float64, side types.Side) float64 {
	slip := float64(e.cfg.SlippageTicks) * e.instrument.TickSize
	if side == types.Buy {
		return price + slip
	}
	return price - slip
}
