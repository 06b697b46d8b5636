package testutils

import (
	"time"

	"github.com/evdnx/goicc/market"
)

// BaseTime anchors generated candle series at a fixed session open.
var BaseTime = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// CandleOpt mutates a generated candle.
type CandleOpt func(*market.Candle)

// WithVolume overrides the default volume.
func WithVolume(v int64) CandleOpt {
	return func(c *market.Candle) { c.Volume = v }
}

// WithHigh overrides the default high.
func WithHigh(h float64) CandleOpt {
	return func(c *market.Candle) { c.High = h }
}

// WithLow overrides the default low.
func WithLow(l float64) CandleOpt {
	return func(c *market.Candle) { c.Low = l }
}

// MakeCandle builds a bar around the given close with sensible defaults:
// high = close+1, low = close-1, open = close-0.5, volume 1000.
func MakeCandle(i int, close float64, opts ...CandleOpt) market.Candle {
	c := market.Candle{
		Timestamp: BaseTime.Add(time.Duration(i) * time.Minute),
		Open:      close - 0.5,
		High:      close + 1.0,
		Low:       close - 1.0,
		Close:     close,
		Volume:    1000,
		Symbol:    "MES",
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// UptrendCandles builds n bars rising by step per bar with a volume burst on
// the final bar so the indication volume filter passes.
func UptrendCandles(n int, base, step float64) []market.Candle {
	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := base + float64(i)*step
		c := market.Candle{
			Timestamp: BaseTime.Add(time.Duration(i) * time.Minute),
			Open:      price - 0.25,
			High:      price + 1.0,
			Low:       price - 0.5,
			Close:     price,
			Volume:    1000,
			Symbol:    "MES",
		}
		if i == n-1 {
			c.Volume = 2000
		}
		out = append(out, c)
	}
	return out
}

// DowntrendCandles mirrors UptrendCandles with falling prices.
func DowntrendCandles(n int, base, step float64) []market.Candle {
	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		price := base - float64(i)*step
		c := market.Candle{
			Timestamp: BaseTime.Add(time.Duration(i) * time.Minute),
			Open:      price + 0.25,
			High:      price + 0.5,
			Low:       price - 1.0,
			Close:     price,
			Volume:    1000,
			Symbol:    "MES",
		}
		if i == n-1 {
			c.Volume = 2000
		}
		out = append(out, c)
	}
	return out
}

// FillBuffer appends every candle to a fresh buffer of the given capacity.
func FillBuffer(capacity int, candles []market.Candle) *market.CandleBuffer {
	buf := market.NewCandleBuffer(capacity)
	for _, c := range candles {
		buf.Append(c)
	}
	return buf
}
