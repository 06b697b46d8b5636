package backtest

import (
	"math"
	"testing"

	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/event"
	"github.com/evdnx/goicc/market"
	"github.com/evdnx/goicc/testutils"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Strategy.EMAPeriod = 5
	cfg.Strategy.ATRPeriod = 5
	cfg.Strategy.VolumeAvgPeriod = 5
	cfg.Strategy.ContinuationVolumePeriod = 3
	cfg.Strategy.CorrectionMaxBars = 5
	cfg.Strategy.StopATRMult = 1.0
	cfg.Strategy.TargetATRMult = 2.0
	cfg.Strategy.TradeTimeoutBars = 10
	cfg.Risk.MaxTradesPerSession = 5
	cfg.Risk.MaxConsecutiveLosses = 5
	cfg.Risk.CooldownSeconds = 0
	return cfg
}

// winningSeries produces exactly one long trade that runs to its target.
func winningSeries() []market.Candle {
	var out []market.Candle
	for i := 0; i < 7; i++ {
		vol := int64(1000)
		if i == 6 {
			vol = 2000
		}
		out = append(out, testutils.MakeCandle(i, 100+float64(i)*0.5, testutils.WithVolume(vol)))
	}
	out = append(out, testutils.MakeCandle(7, 102.5))                              // correction
	out = append(out, testutils.MakeCandle(8, 103.75, testutils.WithVolume(2500))) // continuation
	out = append(out, testutils.MakeCandle(9, 103.9))                              // entry
	out = append(out, testutils.MakeCandle(10, 111, testutils.WithHigh(112), testutils.WithLow(106))) // target run
	return out
}

func TestEngineCapturesPerTradePnL(t *testing.T) {
	eng := NewEngine(testConfig(), winningSeries(), testutils.NewMockLogger())
	result, err := eng.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.TradeCount() != 1 {
		t.Fatalf("trades = %d", result.TradeCount())
	}
	if result.Trades[0] <= 0 {
		t.Fatalf("winner pnl = %v", result.Trades[0])
	}
	if len(result.EquityCurve) != len(winningSeries()) {
		t.Fatalf("equity points = %d", len(result.EquityCurve))
	}
	last := result.EquityCurve[len(result.EquityCurve)-1]
	if last != testConfig().Risk.AccountSize+result.Trades[0] {
		t.Fatalf("final equity %v != account + pnl", last)
	}

	var sawEntry bool
	for _, ev := range eng.Events {
		if ev.Type == event.Entry {
			sawEntry = true
		}
	}
	if !sawEntry {
		t.Fatal("entry event missing from the recorded stream")
	}
}

func TestEngineStopsOnKillSwitch(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.AccountSize = 30 // one commission-laden loss trips the 20% cap
	cfg.Risk.DailyLossKillPct = 0.20
	cfg.Risk.DailyLossPrekillPct = 0.18

	// A short that stops out hard, then plenty of trailing bars.
	var candles []market.Candle
	for i := 0; i < 7; i++ {
		vol := int64(1000)
		if i == 6 {
			vol = 2000
		}
		candles = append(candles, testutils.MakeCandle(i, 120-float64(i)*0.5, testutils.WithVolume(vol)))
	}
	candles = append(candles, testutils.MakeCandle(7, 117.5))
	candles = append(candles, testutils.MakeCandle(8, 116.25, testutils.WithVolume(2500)))
	candles = append(candles, testutils.MakeCandle(9, 116)) // short entry
	candles = append(candles, testutils.MakeCandle(10, 122, testutils.WithHigh(123))) // stop pierce
	for i := 11; i < 40; i++ {
		candles = append(candles, testutils.MakeCandle(i, 120))
	}

	eng := NewEngine(cfg, candles, testutils.NewMockLogger())
	result, err := eng.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.TradeCount() != 1 {
		t.Fatalf("trades = %d", result.TradeCount())
	}
	// The run halts on the bar that latches the kill switch (the one after the
	// losing exit), not at series end.
	if len(result.EquityCurve) >= len(candles) {
		t.Fatalf("engine should stop early, processed %d bars", len(result.EquityCurve))
	}
}

func TestResultMetrics(t *testing.T) {
	r := &Result{
		Trades:      []float64{10, -5, 15, -10},
		EquityCurve: []float64{500, 510, 505, 520, 510},
	}
	if r.TotalPnL() != 10 {
		t.Fatalf("total = %v", r.TotalPnL())
	}
	if r.WinCount() != 2 || r.LossCount() != 2 {
		t.Fatalf("wins=%d losses=%d", r.WinCount(), r.LossCount())
	}
	if r.WinRate() != 0.5 {
		t.Fatalf("win rate = %v", r.WinRate())
	}
	if r.AvgWin() != 12.5 {
		t.Fatalf("avg win = %v", r.AvgWin())
	}
	if r.AvgLoss() != -7.5 {
		t.Fatalf("avg loss = %v", r.AvgLoss())
	}
	if pf := r.ProfitFactor(); pf != 25.0/15.0 {
		t.Fatalf("profit factor = %v", pf)
	}
	if dd := r.MaxDrawdown(); dd != 10 {
		t.Fatalf("max drawdown = %v", dd)
	}
	if r.SharpeRatio() == 0 {
		t.Fatal("sharpe should be nonzero for mixed trades")
	}
}

func TestResultEdgeCases(t *testing.T) {
	empty := &Result{}
	if empty.WinRate() != 0 || empty.AvgWin() != 0 || empty.AvgLoss() != 0 ||
		empty.MaxDrawdown() != 0 || empty.SharpeRatio() != 0 {
		t.Fatal("empty result should be all zeros")
	}
	if empty.ProfitFactor() != 0 {
		t.Fatal("no trades means profit factor 0")
	}
	allWins := &Result{Trades: []float64{5, 10}}
	if !math.IsInf(allWins.ProfitFactor(), 1) {
		t.Fatal("all-win profit factor should be +Inf")
	}
	summary := allWins.Summary()
	if summary["trade_count"] != 2 {
		t.Fatalf("summary = %v", summary)
	}
}
