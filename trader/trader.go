// Package trader wires the buffer, strategy, state machine, risk engine and
// OMS into the per-bar pipeline. OnCandle is the single entry point and must
// not be called concurrently.
package trader

import (
	"fmt"

	"github.com/evdnx/golog"

	"github.com/evdnx/goicc/alert"
	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/fsm"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
	"github.com/evdnx/goicc/metrics"
	"github.com/evdnx/goicc/oms"
	"github.com/evdnx/goicc/risk"
	"github.com/evdnx/goicc/strategy"
	"github.com/evdnx/goicc/types"
)

// Trader drives the full pipeline for every incoming candle.
type Trader struct {
	cfg      config.Config
	machine  *fsm.Machine
	riskEng  *risk.Engine
	strat    *strategy.Engine
	manager  *oms.Manager
	tracker  *oms.Tracker
	buffer   *market.CandleBuffer
	bus      *event.Bus
	alerts   *alert.Router
	diag     *strategy.Diagnostics
	log      logger.Logger
	tradeCnt int
}

// Option configures optional collaborators.
type Option func(*Trader)

// WithEventBus attaches the observer bridge.
func WithEventBus(bus *event.Bus) Option {
	return func(t *Trader) { t.bus = bus }
}

// WithAlertRouter attaches alert fan-out for kill-switch and loss events.
func WithAlertRouter(r *alert.Router) Option {
	return func(t *Trader) { t.alerts = r }
}

// WithDiagnostics attaches the oscillator diagnostics suite.
func WithDiagnostics(d *strategy.Diagnostics) Option {
	return func(t *Trader) { t.diag = d }
}

// New builds a trader from validated configuration.
func New(cfg config.Config, manager *oms.Manager, log logger.Logger, opts ...Option) (*Trader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("trader config: %w", err)
	}
	strat, err := strategy.NewEngine(cfg.Strategy, cfg.Instrument.TickSize, log)
	if err != nil {
		return nil, err
	}
	t := &Trader{
		cfg:     cfg,
		machine: fsm.New(log),
		riskEng: risk.NewEngine(cfg.Risk, cfg.Instrument, log),
		strat:   strat,
		manager: manager,
		tracker: oms.NewTracker(cfg.Instrument.PointValue, log),
		buffer:  market.NewCandleBuffer(market.DefaultBufferSize),
		log:     log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Machine exposes the state machine (read-mostly; used by session control).
func (t *Trader) Machine() *fsm.Machine { return t.machine }

// Risk exposes the risk engine.
func (t *Trader) Risk() *risk.Engine { return t.riskEng }

// Tracker exposes the position tracker.
func (t *Trader) Tracker() *oms.Tracker { return t.tracker }

// Buffer exposes the candle window.
func (t *Trader) Buffer() *market.CandleBuffer { return t.buffer }

// TradeCount returns the number of entries taken this session.
func (t *Trader) TradeCount() int { return t.tradeCnt }

// OnCandle runs the fixed per-bar sequence. The ordering is part of the
// engine contract; do not reorder.
func (t *Trader) OnCandle(c market.Candle) {
	t.buffer.Append(c)
	metrics.BarsProcessed.Inc()
	if t.diag != nil {
		t.diag.Update(c)
	}
	t.emit(event.Candle, map[string]any{
		"timestamp": c.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		"open":      c.Open,
		"high":      c.High,
		"low":       c.Low,
		"close":     c.Close,
		"volume":    c.Volume,
	})

	// Manage the open position before anything else.
	if !t.tracker.IsFlat() {
		t.checkExit(c)
		if !t.tracker.IsFlat() {
			bars := t.tracker.IncrementBars()
			if bars >= t.cfg.Strategy.TradeTimeoutBars {
				t.exitPosition(c.Close, string(fsm.ActionTimeoutExit))
				return
			}
		} else {
			return
		}
	}

	t.riskEng.SetOpenPositions(t.tracker.OpenPositionCount())

	if t.riskEng.CheckKillSwitch() {
		t.handleKillSwitch(c)
		return
	}

	signal := t.strat.Evaluate(t.machine.State(), t.buffer)
	if signal.Action == fsm.ActionNone {
		return
	}

	switch signal.Action {
	case fsm.ActionEnterLong, fsm.ActionEnterShort:
		t.handleEntry(signal)
	case fsm.ActionTimeout:
		t.machine.Transition(fsm.ActionTimeout)
		t.strat.Reset()
		t.emitTransition()
	default:
		t.machine.Transition(signal.Action)
		t.emitTransition()
	}
}

// checkExit applies the intra-bar stop/target check.
func (t *Trader) checkExit(c market.Candle) {
	result := t.tracker.CheckStopTarget(c.High, c.Low)
	if result == "" {
		return
	}
	pos := t.tracker.Position()
	exitPrice := c.Close
	switch result {
	case oms.ReasonStopHit:
		if pos != nil {
			exitPrice = pos.StopPrice
		}
	case oms.ReasonTargetHit:
		if pos != nil {
			exitPrice = pos.TargetPrice
		}
	}
	t.exitPosition(exitPrice, result)
}

// handleEntry runs the risk gate and, if allowed, routes a stop order sized
// at one contract through the OMS.
func (t *Trader) handleEntry(sig strategy.Signal) {
	allowed, reason := t.riskEng.CanOpenTrade()
	if !allowed {
		if t.log != nil {
			t.log.Info("risk veto", golog.String("reason", reason))
		}
		metrics.RiskVetoes.Inc()
		t.machine.Transition(fsm.ActionRiskBlock)
		t.emit(event.RiskVeto, map[string]any{"reason": reason})
		if t.alerts != nil {
			t.alerts.Send("risk_veto", "Trade blocked: "+reason)
		}
		return
	}

	side := types.Buy
	if sig.Action == fsm.ActionEnterShort {
		side = types.Sell
	}
	order := t.manager.Submit(&types.Order{
		Type:  types.Stop,
		Side:  side,
		Qty:   1,
		Price: sig.EntryPrice,
	})
	if order.Status != types.StatusFilled {
		if t.log != nil {
			t.log.Warn("entry order rejected, invalidating setup",
				golog.String("order_id", order.ID))
		}
		t.machine.Transition(fsm.ActionInvalidate)
		t.strat.Reset()
		return
	}

	t.machine.Transition(sig.Action)
	if _, err := t.tracker.OpenPosition(side, order.FilledPrice, sig.StopPrice, sig.TargetPrice, 1); err != nil {
		// Unreachable by construction: the gate caps open positions at one.
		if t.log != nil {
			t.log.Error("position open failed", golog.Err(err))
		}
		return
	}
	t.riskEng.RecordTrade()
	t.riskEng.SetOpenPositions(t.tracker.OpenPositionCount())
	t.tradeCnt++
	if t.log != nil {
		t.log.Info("trade entered",
			golog.String("side", string(side)),
			golog.Float64("price", order.FilledPrice))
	}
	t.emit(event.Entry, map[string]any{
		"side":         string(side),
		"entry_price":  order.FilledPrice,
		"stop_price":   sig.StopPrice,
		"target_price": sig.TargetPrice,
	})
}

// exitPosition closes the trade, books P&L into the risk engine and walks
// the machine through EXIT back to FLAT.
func (t *Trader) exitPosition(exitPrice float64, reason string) {
	pos := t.tracker.Position()
	entryPrice := 0.0
	side := ""
	if pos != nil {
		entryPrice = pos.EntryPrice
		side = string(pos.Side)
	}

	commission := t.riskEng.ComputeCommission(2)
	pnl, err := t.tracker.ClosePosition(exitPrice, commission)
	if err != nil {
		if t.log != nil {
			t.log.Error("close failed", golog.Err(err))
		}
		return
	}
	t.riskEng.UpdatePnL(pnl)
	t.riskEng.SetOpenPositions(0)
	metrics.TradesClosed.WithLabelValues(reason).Inc()

	exitAction := fsm.ActionExit
	switch fsm.Action(reason) {
	case fsm.ActionStopHit, fsm.ActionTargetHit, fsm.ActionTimeoutExit:
		exitAction = fsm.Action(reason)
	}
	t.machine.Transition(exitAction)
	t.machine.Transition(fsm.ActionReset)
	t.strat.Reset()

	daily := t.riskEng.State().DailyPnL
	if t.log != nil {
		t.log.Info("trade exit",
			golog.String("reason", reason),
			golog.Float64("pnl", pnl),
			golog.Float64("daily_pnl", daily))
	}
	t.emit(event.ExitEvent, map[string]any{
		"side":        side,
		"entry_price": entryPrice,
		"exit_price":  exitPrice,
		"pnl":         pnl,
		"reason":      reason,
		"daily_pnl":   daily,
	})
	if t.alerts != nil && pnl < 0 {
		t.alerts.Send("trade_loss", fmt.Sprintf("Loss: $%.2f", pnl))
	}
}

// handleKillSwitch flattens any open trade and parks the machine in
// RISK_BLOCKED for the rest of the session.
func (t *Trader) handleKillSwitch(c market.Candle) {
	daily := t.riskEng.State().DailyPnL
	if t.log != nil {
		t.log.Error("kill switch activated", golog.Float64("daily_pnl", daily))
	}
	if !t.tracker.IsFlat() {
		t.exitPosition(c.Close, "kill_switch")
	}
	t.machine.ForceState(fsm.RiskBlocked)
	t.emit(event.KillSwitch, map[string]any{"daily_pnl": t.riskEng.State().DailyPnL})
	if t.alerts != nil {
		t.alerts.Send("kill_switch",
			fmt.Sprintf("Kill switch activated! Daily PnL: $%.2f", t.riskEng.State().DailyPnL))
	}
}

// Flatten force-exits any open position at the given price. Used by session
// teardown; a no-op when flat.
func (t *Trader) Flatten(price float64, reason string) {
	if t.tracker.IsFlat() {
		return
	}
	t.exitPosition(price, reason)
	t.emit(event.SessionFlatten, map[string]any{"price": price, "reason": reason})
}

// ResetSession rearms the engine for a new session: risk state, machine,
// strategy memory and the candle window.
func (t *Trader) ResetSession() {
	t.riskEng.ResetSession()
	t.machine.Reset()
	t.strat.Reset()
	t.buffer.Clear()
	t.tradeCnt = 0
}

// Snapshot returns the current state as a plain serializable map.
func (t *Trader) Snapshot() map[string]any {
	riskState := t.riskEng.State()
	snap := map[string]any{
		"fsm_state":    string(t.machine.State()),
		"daily_pnl":    riskState.DailyPnL,
		"trade_count":  t.tradeCnt,
		"is_flat":      t.tracker.IsFlat(),
		"candle_count": t.buffer.Len(),
		"risk_killed":  riskState.Killed,
	}

	lastPrice := 0.0
	if last, ok := t.buffer.Last(); ok {
		lastPrice = last.Close
		snap["last_candle"] = map[string]any{
			"timestamp": last.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			"open":      last.Open,
			"high":      last.High,
			"low":       last.Low,
			"close":     last.Close,
			"volume":    last.Volume,
		}
	} else {
		snap["last_candle"] = nil
	}

	if pos := t.tracker.Position(); pos != nil {
		snap["position"] = map[string]any{
			"side":           string(pos.Side),
			"entry_price":    pos.EntryPrice,
			"stop_price":     pos.StopPrice,
			"target_price":   pos.TargetPrice,
			"bars_held":      pos.BarsHeld,
			"unrealized_pnl": t.tracker.UnrealizedPnL(lastPrice),
		}
	} else {
		snap["position"] = nil
	}

	if t.diag != nil {
		snap["diagnostics"] = t.diag.Snapshot()
	}
	return snap
}

func (t *Trader) emit(typ event.Type, data map[string]any) {
	if t.bus == nil {
		return
	}
	t.bus.Emit(typ, data)
}

func (t *Trader) emitTransition() {
	t.emit(event.FSMTransition, map[string]any{"state": string(t.machine.State())})
}
