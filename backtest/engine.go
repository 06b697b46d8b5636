// Package backtest replays historical candles through a full trader wired to
// the simulated broker.
package backtest

import (
	"github.com/evdnx/goicc/broker"
	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
	"github.com/evdnx/goicc/oms"
	"github.com/evdnx/goicc/trader"
)

// Engine owns one backtest run.
type Engine struct {
	cfg     config.Config
	candles []market.Candle
	log     logger.Logger
	// Events holds everything the trader emitted, in order, for sinks that
	// want to post-process the run (trade store, report tooling).
	Events []event.Event
}

func NewEngine(cfg config.Config, candles []market.Candle, log logger.Logger) *Engine {
	return &Engine{cfg: cfg, candles: candles, log: log}
}

// Run replays the candle series bar by bar, collecting per-trade P&L from
// the exit events and an equity point per bar. It stops early when the kill
// switch latches.
func (e *Engine) Run() (*Result, error) {
	sim := broker.NewBacktestBroker(
		e.cfg.Risk.SlippageTicks,
		e.cfg.Instrument.TickSize,
		e.cfg.Risk.CommissionPerSide,
	)
	sim.Connect()
	defer sim.Disconnect()

	bus := event.NewBus(event.DefaultCapacity, e.log)
	manager := oms.NewManager(sim, e.log)
	tr, err := trader.New(e.cfg, manager, e.log, trader.WithEventBus(bus))
	if err != nil {
		return nil, err
	}

	result := &Result{}
	feed := market.NewReplayFeed(e.candles)
	feed.Start()

	if e.log != nil {
		e.log.Info("backtest started", logger.Int("candles", len(e.candles)))
	}

	for {
		c, ok := feed.Next()
		if !ok {
			break
		}
		tr.OnCandle(c)

		for _, ev := range bus.Drain() {
			e.Events = append(e.Events, ev)
			if ev.Type == event.ExitEvent {
				if pnl, ok := ev.Data["pnl"].(float64); ok {
					result.Trades = append(result.Trades, pnl)
				}
			}
		}

		equity := e.cfg.Risk.AccountSize +
			tr.Tracker().ClosedPnL() +
			tr.Tracker().UnrealizedPnL(c.Close)
		result.EquityCurve = append(result.EquityCurve, equity)

		if tr.Risk().State().Killed {
			if e.log != nil {
				e.log.Warn("kill switch latched, stopping backtest")
			}
			break
		}
	}
	feed.Stop()

	if e.log != nil {
		e.log.Info("backtest complete",
			logger.Int("trades", result.TradeCount()),
			logger.Float64("total_pnl", result.TotalPnL()))
	}
	return result, nil
}
