package backtest

import "math"

// Result aggregates a finished backtest: one P&L entry per closed trade
// (captured from the exit event stream, not averaged after the fact) and the
// per-bar equity curve.
type Result struct {
	Trades      []float64
	EquityCurve []float64
}

func (r *Result) TotalPnL() float64 {
	sum := 0.0
	for _, t := range r.Trades {
		sum += t
	}
	return sum
}

func (r *Result) TradeCount() int { return len(r.Trades) }

func (r *Result) WinCount() int {
	n := 0
	for _, t := range r.Trades {
		if t > 0 {
			n++
		}
	}
	return n
}

func (r *Result) LossCount() int { return len(r.Trades) - r.WinCount() }

func (r *Result) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	return float64(r.WinCount()) / float64(len(r.Trades))
}

func (r *Result) AvgWin() float64 {
	sum, n := 0.0, 0
	for _, t := range r.Trades {
		if t > 0 {
			sum += t
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func (r *Result) AvgLoss() float64 {
	sum, n := 0.0, 0
	for _, t := range r.Trades {
		if t <= 0 {
			sum += t
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ProfitFactor is gross profit over gross loss. With no losses it is +Inf
// when any profit exists, else 0.
func (r *Result) ProfitFactor() float64 {
	profit, loss := 0.0, 0.0
	for _, t := range r.Trades {
		if t > 0 {
			profit += t
		} else {
			loss -= t
		}
	}
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// MaxDrawdown is the largest peak-to-trough equity decline.
func (r *Result) MaxDrawdown() float64 {
	if len(r.EquityCurve) == 0 {
		return 0
	}
	peak := r.EquityCurve[0]
	maxDD := 0.0
	for _, eq := range r.EquityCurve {
		if eq > peak {
			peak = eq
		}
		if dd := peak - eq; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SharpeRatio annualizes the per-trade mean/stddev over 252 trading days.
func (r *Result) SharpeRatio() float64 {
	if len(r.Trades) < 2 {
		return 0
	}
	mean := r.TotalPnL() / float64(len(r.Trades))
	variance := 0.0
	for _, t := range r.Trades {
		variance += (t - mean) * (t - mean)
	}
	variance /= float64(len(r.Trades) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252)
}

// Summary returns the headline numbers as a plain map.
func (r *Result) Summary() map[string]any {
	return map[string]any{
		"total_pnl":     round2(r.TotalPnL()),
		"trade_count":   r.TradeCount(),
		"win_rate":      round2(r.WinRate() * 100),
		"avg_win":       round2(r.AvgWin()),
		"avg_loss":      round2(r.AvgLoss()),
		"profit_factor": round2(r.ProfitFactor()),
		"max_drawdown":  round2(r.MaxDrawdown()),
		"sharpe_ratio":  round2(r.SharpeRatio()),
	}
}

func round2(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*100) / 100
}
