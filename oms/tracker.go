package oms

import (
	"errors"
	"time"

	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/types"
)

// Exit reasons returned by CheckStopTarget.
const (
	ReasonStopHit   = "stop_hit"
	ReasonTargetHit = "target_hit"
)

var (
	// ErrPositionExists means OpenPosition was called while a position is
	// held. Reaching it is a bug in the caller.
	ErrPositionExists = errors.New("already holding a position")
	// ErrNoPosition means ClosePosition was called while flat.
	ErrNoPosition = errors.New("no position to close")
)

// Tracker owns the single open position and its realized P&L.
type Tracker struct {
	position   *types.Position
	closedPnL  float64
	pointValue float64
	log        logger.Logger
}

func NewTracker(pointValue float64, log logger.Logger) *Tracker {
	return &Tracker{pointValue: pointValue, log: log}
}

// IsFlat reports whether no position is held.
func (t *Tracker) IsFlat() bool { return t.position == nil }

// OpenPositionCount is 0 or 1, by construction.
func (t *Tracker) OpenPositionCount() int {
	if t.position == nil {
		return 0
	}
	return 1
}

// Position returns the open position, or nil.
func (t *Tracker) Position() *types.Position { return t.position }

// ClosedPnL returns the cumulative realized P&L net of commissions.
func (t *Tracker) ClosedPnL() float64 { return t.closedPnL }

// OpenPosition creates the position. Calling it while one exists is an
// invariant violation.
func (t *Tracker) OpenPosition(side types.Side, entryPrice float64, stopPrice, targetPrice float64, qty int) (*types.Position, error) {
	if t.position != nil {
		return nil, ErrPositionExists
	}
	if qty <= 0 {
		qty = 1
	}
	t.position = &types.Position{
		Side:        side,
		EntryPrice:  entryPrice,
		Qty:         qty,
		StopPrice:   stopPrice,
		TargetPrice: targetPrice,
		EntryTime:   time.Now().UTC(),
	}
	if t.log != nil {
		t.log.Info("position opened",
			logger.String("side", string(side)),
			logger.Float64("entry", entryPrice),
			logger.Float64("stop", stopPrice),
			logger.Float64("target", targetPrice))
	}
	return t.position, nil
}

// ClosePosition realizes P&L at the exit price net of commission, clears the
// slot, and returns the trade result.
func (t *Tracker) ClosePosition(exitPrice, commission float64) (float64, error) {
	if t.position == nil {
		return 0, ErrNoPosition
	}
	pnl := t.position.UnrealizedPnL(exitPrice, t.pointValue) - commission
	t.closedPnL += pnl
	if t.log != nil {
		t.log.Info("position closed",
			logger.Float64("exit", exitPrice),
			logger.Float64("pnl", pnl),
			logger.Float64("commission", commission))
	}
	t.position = nil
	return pnl, nil
}

// CheckStopTarget is the intra-bar exit check. When a bar crosses both
// levels the stop wins: it is checked first, pessimistically.
func (t *Tracker) CheckStopTarget(high, low float64) string {
	if t.position == nil {
		return ""
	}
	p := t.position
	if p.IsLong() {
		if low <= p.StopPrice {
			return ReasonStopHit
		}
		if high >= p.TargetPrice {
			return ReasonTargetHit
		}
	} else {
		if high >= p.StopPrice {
			return ReasonStopHit
		}
		if low <= p.TargetPrice {
			return ReasonTargetHit
		}
	}
	return ""
}

// IncrementBars advances the bars-held counter and returns the new value.
// Flat positions stay at zero.
func (t *Tracker) IncrementBars() int {
	if t.position == nil {
		return 0
	}
	t.position.BarsHeld++
	return t.position.BarsHeld
}

// UnrealizedPnL values the open position at the current price, or 0 if flat.
func (t *Tracker) UnrealizedPnL(current float64) float64 {
	if t.position == nil {
		return 0
	}
	return t.position.UnrealizedPnL(current, t.pointValue)
}
