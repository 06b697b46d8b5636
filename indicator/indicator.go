// Package indicator provides the pure, deterministic functions the strategy
// is built from. No function keeps state; equal inputs yield equal outputs.
package indicator

import "math"

// EMA computes an exponential moving average seeded by the SMA of the first
// period values. The result has length len(values)-period+1, or nil when the
// input is too short.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	k := 2.0 / float64(period+1)
	sum := 0.0
	for _, v := range values[:period] {
		sum += v
	}
	out = append(out, sum/float64(period))
	for _, v := range values[period:] {
		out = append(out, v*k+out[len(out)-1]*(1-k))
	}
	return out
}

// EMASlope returns the difference of the last two EMA points.
// ok is false when fewer than two EMA points exist.
func EMASlope(values []float64, period int) (slope float64, ok bool) {
	e := EMA(values, period)
	if len(e) < 2 {
		return 0, false
	}
	return e[len(e)-1]-e[len(e)-2], true
}

// ATR computes the Wilder-smoothed average true range. The three inputs must
// have equal length; the result is nil when fewer than period+1 bars exist.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(highs)
	if period <= 0 || n < 2 || len(lows) != n || len(closes) != n {
		return nil
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}
	if len(trs) < period {
		return nil
	}
	out := make([]float64, 0, len(trs)-period+1)
	sum := 0.0
	for _, tr := range trs[:period] {
		sum += tr
	}
	out = append(out, sum/float64(period))
	for _, tr := range trs[period:] {
		prev := out[len(out)-1]
		out = append(out, (prev*float64(period-1)+tr)/float64(period))
	}
	return out
}

// IsInFibZone reports whether price lies inside the fibMin..fibMax
// retracement zone of the swing. A degenerate swing (high <= low) is never
// in the zone.
func IsInFibZone(price, swingLow, swingHigh, fibMin, fibMax float64) bool {
	diff := swingHigh - swingLow
	if diff <= 0 {
		return false
	}
	upper := swingHigh - fibMin*diff
	lower := swingHigh - fibMax*diff
	return lower <= price && price <= upper
}

// HigherHighs reports count consecutive strictly higher values at the end of
// the series.
func HigherHighs(highs []float64, count int) bool {
	if len(highs) < count+1 {
		return false
	}
	for i := len(highs) - count; i < len(highs); i++ {
		if highs[i] <= highs[i-1] {
			return false
		}
	}
	return true
}

// HigherLows reports count consecutive strictly higher lows at the end of
// the series.
func HigherLows(lows []float64, count int) bool {
	return HigherHighs(lows, count)
}

// LowerLows reports count consecutive strictly lower values at the end of
// the series.
func LowerLows(lows []float64, count int) bool {
	if len(lows) < count+1 {
		return false
	}
	for i := len(lows) - count; i < len(lows); i++ {
		if lows[i] >= lows[i-1] {
			return false
		}
	}
	return true
}

// LowerHighs reports count consecutive strictly lower highs at the end of
// the series.
func LowerHighs(highs []float64, count int) bool {
	return LowerLows(highs, count)
}

// VolumeAboveAverage reports whether the last volume strictly exceeds the
// mean of the trailing period volumes. False with fewer than period samples.
func VolumeAboveAverage(volumes []int64, period int) bool {
	if period <= 0 || len(volumes) < period {
		return false
	}
	var sum int64
	for _, v := range volumes[len(volumes)-period:] {
		sum += v
	}
	avg := float64(sum) / float64(period)
	return float64(volumes[len(volumes)-1]) > avg
}
