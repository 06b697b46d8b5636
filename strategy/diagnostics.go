package strategy

import (
	"github.com/evdnx/golog"
	"github.com/evdnx/goti"

	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/market"
)

// Diagnostics feeds a goti indicator suite alongside the core methodology
// and summarizes the oscillator picture for trader snapshots. It never
// participates in trading decisions.
type Diagnostics struct {
	suite *goti.IndicatorSuite
	log   logger.Logger
}

// NewDiagnostics builds the suite with the library defaults.
func NewDiagnostics(log logger.Logger) (*Diagnostics, error) {
	suite, err := goti.NewIndicatorSuiteWithConfig(goti.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Diagnostics{suite: suite, log: log}, nil
}

// Update feeds one bar into the suite. Suite errors are logged and swallowed:
// diagnostics must never stall the trading loop.
func (d *Diagnostics) Update(c market.Candle) {
	if err := d.suite.Add(c.High, c.Low, c.Close, float64(c.Volume)); err != nil && d.log != nil {
		d.log.Warn("diagnostics suite add failed", golog.Err(err))
	}
}

// Bias tallies bullish minus bearish crossover votes across the oscillator
// set: positive leans bullish, negative bearish. ok is false during warm-up.
func (d *Diagnostics) Bias() (score int, ok bool) {
	if len(d.suite.GetRSI().GetCloses()) < 14 {
		return 0, false
	}
	vote := func(bull, bear bool) int {
		switch {
		case bull:
			return 1
		case bear:
			return -1
		default:
			return 0
		}
	}

	rsiBull, _ := d.suite.GetRSI().IsBullishCrossover()
	rsiBear, _ := d.suite.GetRSI().IsBearishCrossover()
	mfiBull, _ := d.suite.GetMFI().IsBullishCrossover()
	mfiBear, _ := d.suite.GetMFI().IsBearishCrossover()
	hmaBull, _ := d.suite.GetHMA().IsBullishCrossover()
	hmaBear, _ := d.suite.GetHMA().IsBearishCrossover()

	score = vote(rsiBull, rsiBear) + vote(mfiBull, mfiBear) + vote(hmaBull, hmaBear)
	return score, true
}

// Snapshot returns the diagnostic view that Trader.Snapshot embeds (and the
// web layer serves).
func (d *Diagnostics) Snapshot() map[string]any {
	out := map[string]any{"warmed_up": false}
	score, ok := d.Bias()
	if !ok {
		return out
	}
	out["warmed_up"] = true
	out["oscillator_bias"] = score
	if admo, err := d.suite.GetAMDO().Calculate(); err == nil {
		out["admo"] = admo
	}
	if atso, err := d.suite.GetATSO().Calculate(); err == nil {
		out["atso"] = atso
	}
	return out
}
