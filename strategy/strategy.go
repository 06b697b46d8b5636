// Package strategy turns the candle buffer and the current machine state
// into trade signals following the indication -> correction -> continuation
// methodology.
package strategy

import (
	"fmt"

	"github.com/evdnx/golog"

	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/fsm"
	"github.com/evdnx/goicc/indicator"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
)

// Signal is the engine's verdict for one bar: the next FSM action plus the
// price levels for entry signals.
type Signal struct {
	Action      fsm.Action
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Reason      string
}

func none(reason string) Signal {
	return Signal{Action: fsm.ActionNone, Reason: reason}
}

// Engine evaluates the methodology. Configuration is fixed at construction;
// the only mutable state is the swing-reference memory carried across bars.
type Engine struct {
	cfg      config.StrategyConfig
	tickSize float64
	log      logger.Logger

	impulseHigh        float64
	impulseLow         float64
	hasImpulse         bool
	correctionHigh     float64
	correctionLow      float64
	hasCorrection      bool
	correctionBarCount int
}

// NewEngine validates the config and returns a fresh engine.
func NewEngine(cfg config.StrategyConfig, tickSize float64, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tickSize <= 0 {
		return nil, fmt.Errorf("tick size (%v) must be positive", tickSize)
	}
	return &Engine{cfg: cfg, tickSize: tickSize, log: log}, nil
}

// Reset clears the impulse/correction memory and counters. Called whenever
// the machine returns to FLAT.
func (e *Engine) Reset() {
	e.impulseHigh = 0
	e.impulseLow = 0
	e.hasImpulse = false
	e.correctionHigh = 0
	e.correctionLow = 0
	e.hasCorrection = false
	e.correctionBarCount = 0
}

// warmup is the minimum buffer length before any evaluation.
func (e *Engine) warmup() int {
	w := e.cfg.EMAPeriod + 2
	if a := e.cfg.ATRPeriod + 2; a > w {
		w = a
	}
	return w
}

// Evaluate produces a signal for the current bar. It dispatches on the
// machine state; states with no signal logic yield none.
func (e *Engine) Evaluate(state fsm.State, buf *market.CandleBuffer) Signal {
	if buf.Len() < e.warmup() {
		return none("insufficient data")
	}

	switch state {
	case fsm.Flat:
		return e.checkIndication(buf)
	case fsm.IndicationUp:
		return e.checkCorrection(buf, fsm.ActionCorrectionUp)
	case fsm.IndicationDown:
		return e.checkCorrection(buf, fsm.ActionCorrectionDown)
	case fsm.CorrectionUp:
		return e.checkContinuationUp(buf)
	case fsm.CorrectionDown:
		return e.checkContinuationDown(buf)
	case fsm.ContinuationUp:
		return e.buildLongEntry(buf)
	case fsm.ContinuationDown:
		return e.buildShortEntry(buf)
	default:
		return none("")
	}
}

// checkIndication looks for a fresh directional impulse: EMA slope, two
// strict swings, and a volume burst.
func (e *Engine) checkIndication(buf *market.CandleBuffer) Signal {
	closes := buf.Closes(0)
	highs := buf.Highs(0)
	lows := buf.Lows(0)
	volumes := buf.Volumes(0)

	slope, ok := indicator.EMASlope(closes, e.cfg.EMAPeriod)
	if !ok {
		return none("no EMA slope")
	}
	volumeOK := indicator.VolumeAboveAverage(volumes, e.cfg.VolumeAvgPeriod)

	if slope > 0 && volumeOK &&
		indicator.HigherHighs(highs, 2) && indicator.HigherLows(lows, 2) {
		e.rememberImpulse(highs, lows)
		return Signal{Action: fsm.ActionIndicationUp, Reason: "bullish indication confirmed"}
	}
	if slope < 0 && volumeOK &&
		indicator.LowerLows(lows, 2) && indicator.LowerHighs(highs, 2) {
		e.rememberImpulse(highs, lows)
		return Signal{Action: fsm.ActionIndicationDown, Reason: "bearish indication confirmed"}
	}
	return none("no indication")
}

// rememberImpulse stores the extremes of the last 3 bars as the swing
// reference for the Fibonacci zone.
func (e *Engine) rememberImpulse(highs, lows []float64) {
	hi := highs[len(highs)-3]
	lo := lows[len(lows)-3]
	for _, h := range highs[len(highs)-2:] {
		if h > hi {
			hi = h
		}
	}
	for _, l := range lows[len(lows)-2:] {
		if l < lo {
			lo = l
		}
	}
	e.impulseHigh = hi
	e.impulseLow = lo
	e.hasImpulse = true
	if e.log != nil {
		e.log.Debug("impulse recorded",
			golog.Float64("high", hi), golog.Float64("low", lo))
	}
}

// checkCorrection fires when the close pulls back into the Fibonacci zone of
// the stored impulse. The direction only selects the action; the zone test
// is symmetric.
func (e *Engine) checkCorrection(buf *market.CandleBuffer, action fsm.Action) Signal {
	if !e.hasImpulse {
		return none("no impulse reference")
	}
	candle, ok := buf.Last()
	if !ok {
		return none("")
	}
	if !indicator.IsInFibZone(candle.Close, e.impulseLow, e.impulseHigh, e.cfg.FibMin, e.cfg.FibMax) {
		return none("waiting for correction")
	}
	e.correctionHigh = candle.High
	e.correctionLow = candle.Low
	e.hasCorrection = true
	e.correctionBarCount = 0
	return Signal{Action: action, Reason: "price in fib retracement zone"}
}

// checkContinuationUp waits for a close above the correction high with
// volume confirmation, within the correction window.
func (e *Engine) checkContinuationUp(buf *market.CandleBuffer) Signal {
	if !e.hasCorrection {
		return none("no correction reference")
	}
	e.correctionBarCount++
	if e.correctionBarCount > e.cfg.CorrectionMaxBars {
		return Signal{Action: fsm.ActionTimeout, Reason: "correction exceeded max bars"}
	}
	candle, ok := buf.Last()
	if !ok {
		return none("")
	}
	prevHigh := e.correctionHigh
	e.extendCorrection(candle)

	if candle.Close > prevHigh &&
		indicator.VolumeAboveAverage(buf.Volumes(0), e.cfg.ContinuationVolumePeriod) {
		return Signal{Action: fsm.ActionContinuationUp, Reason: "break above correction high with volume"}
	}
	return none("waiting for continuation break")
}

// checkContinuationDown mirrors checkContinuationUp below the correction low.
func (e *Engine) checkContinuationDown(buf *market.CandleBuffer) Signal {
	if !e.hasCorrection {
		return none("no correction reference")
	}
	e.correctionBarCount++
	if e.correctionBarCount > e.cfg.CorrectionMaxBars {
		return Signal{Action: fsm.ActionTimeout, Reason: "correction exceeded max bars"}
	}
	candle, ok := buf.Last()
	if !ok {
		return none("")
	}
	prevLow := e.correctionLow
	e.extendCorrection(candle)

	if candle.Close < prevLow &&
		indicator.VolumeAboveAverage(buf.Volumes(0), e.cfg.ContinuationVolumePeriod) {
		return Signal{Action: fsm.ActionContinuationDown, Reason: "break below correction low with volume"}
	}
	return none("waiting for continuation break")
}

func (e *Engine) extendCorrection(c market.Candle) {
	if c.High > e.correctionHigh {
		e.correctionHigh = c.High
	}
	if c.Low < e.correctionLow {
		e.correctionLow = c.Low
	}
}

// buildLongEntry prices the entry one tick above the correction high with an
// ATR-sized stop and target.
func (e *Engine) buildLongEntry(buf *market.CandleBuffer) Signal {
	atrNow, ok := e.currentATR(buf)
	if !ok {
		return none("ATR not available")
	}
	entry := e.correctionHigh + e.tickSize
	stop := e.correctionLow - e.cfg.StopATRMult*atrNow
	target := entry + e.cfg.TargetATRMult*atrNow
	return Signal{
		Action:      fsm.ActionEnterLong,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Reason:      fmt.Sprintf("long entry: stop=%.2f target=%.2f atr=%.2f", stop, target, atrNow),
	}
}

// buildShortEntry mirrors buildLongEntry below the correction low.
func (e *Engine) buildShortEntry(buf *market.CandleBuffer) Signal {
	atrNow, ok := e.currentATR(buf)
	if !ok {
		return none("ATR not available")
	}
	entry := e.correctionLow - e.tickSize
	stop := e.correctionHigh + e.cfg.StopATRMult*atrNow
	target := entry - e.cfg.TargetATRMult*atrNow
	return Signal{
		Action:      fsm.ActionEnterShort,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Reason:      fmt.Sprintf("short entry: stop=%.2f target=%.2f atr=%.2f", stop, target, atrNow),
	}
}

func (e *Engine) currentATR(buf *market.CandleBuffer) (float64, bool) {
	if !e.hasCorrection {
		return 0, false
	}
	vals := indicator.ATR(buf.Highs(0), buf.Lows(0), buf.Closes(0), e.cfg.ATRPeriod)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[len(vals)-1], true
}
