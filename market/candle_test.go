package market

import (
	"strings"
	"testing"
	"time"
)

func bar(i int, close float64) Candle {
	return Candle{
		Timestamp: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
		Open:      close - 0.5,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    1000,
		Symbol:    "MES",
	}
}

func TestCandleDerived(t *testing.T) {
	c := Candle{Open: 100, High: 102, Low: 98, Close: 101}
	if c.Mid() != 100 {
		t.Fatalf("mid = %v", c.Mid())
	}
	if c.Body() != 1 {
		t.Fatalf("body = %v", c.Body())
	}
	if !c.IsBullish() {
		t.Fatal("close above open is bullish")
	}
	flat := Candle{Open: 100, Close: 100}
	if !flat.IsBullish() {
		t.Fatal("doji counts as bullish")
	}
}

func TestBufferEvictsOldest(t *testing.T) {
	b := NewCandleBuffer(3)
	for i := 0; i < 4; i++ {
		b.Append(bar(i, 100+float64(i)))
	}
	if b.Len() != 3 {
		t.Fatalf("len = %d", b.Len())
	}
	closes := b.Closes(0)
	if closes[0] != 101 || closes[2] != 103 {
		t.Fatalf("oldest not evicted: %v", closes)
	}
}

func TestBufferLastOnEmpty(t *testing.T) {
	b := NewCandleBuffer(3)
	if _, ok := b.Last(); ok {
		t.Fatal("empty buffer must not return a last candle")
	}
	b.Append(bar(0, 100))
	c, ok := b.Last()
	if !ok || c.Close != 100 {
		t.Fatalf("last = %v ok=%v", c, ok)
	}
}

func TestBufferColumnViews(t *testing.T) {
	b := NewCandleBuffer(10)
	for i := 0; i < 5; i++ {
		b.Append(bar(i, 100+float64(i)))
	}
	if got := b.Closes(3); len(got) != 3 || got[2] != 104 {
		t.Fatalf("closes(3) = %v", got)
	}
	// Requesting more than buffered returns what exists.
	if got := b.Highs(99); len(got) != 5 {
		t.Fatalf("highs(99) len = %d", len(got))
	}
	if got := b.Volumes(2); len(got) != 2 || got[1] != 1000 {
		t.Fatalf("volumes(2) = %v", got)
	}
	if got := b.Lows(0); len(got) != 5 {
		t.Fatalf("lows(0) len = %d", len(got))
	}
}

func TestReplayFeed(t *testing.T) {
	feed := NewReplayFeed([]Candle{bar(0, 100), bar(1, 101)})
	feed.Start()
	c, ok := feed.Next()
	if !ok || c.Close != 100 {
		t.Fatalf("first = %v ok=%v", c.Close, ok)
	}
	if _, ok := feed.Next(); !ok {
		t.Fatal("second candle expected")
	}
	if _, ok := feed.Next(); ok {
		t.Fatal("feed should be exhausted")
	}
}

func TestReplayFeedStops(t *testing.T) {
	feed := NewReplayFeed([]Candle{bar(0, 100), bar(1, 101)})
	feed.Start()
	feed.Next()
	feed.Stop()
	if _, ok := feed.Next(); ok {
		t.Fatal("stopped feed must not deliver")
	}
}

func TestChannelFeed(t *testing.T) {
	feed := NewChannelFeed(4)
	if !feed.Push(bar(0, 100)) {
		t.Fatal("push should succeed")
	}
	c, ok := feed.Next()
	if !ok || c.Close != 100 {
		t.Fatalf("next = %v ok=%v", c.Close, ok)
	}
	feed.Push(bar(1, 101))
	feed.Stop()
	if _, ok := feed.Next(); !ok {
		t.Fatal("buffered candle should drain after stop")
	}
	if _, ok := feed.Next(); ok {
		t.Fatal("feed should be done")
	}
	if feed.Push(bar(2, 102)) {
		t.Fatal("push after stop must fail")
	}
}

func TestReadCSV(t *testing.T) {
	body := strings.Join([]string{
		"timestamp,open,high,low,close,volume",
		"2024-01-02T09:30:00Z,100,101,99.5,100.5,1200",
		"2024-01-02 09:31:00,100.5,101.5,100,101,900",
	}, "\n")
	candles, err := ReadCSV(strings.NewReader(body), "MES")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("len = %d", len(candles))
	}
	if candles[0].Close != 100.5 || candles[0].Volume != 1200 {
		t.Fatalf("candle 0 = %+v", candles[0])
	}
	if candles[1].Timestamp.Minute() != 31 {
		t.Fatalf("fallback layout not parsed: %v", candles[1].Timestamp)
	}
	if candles[0].Symbol != "MES" {
		t.Fatalf("symbol = %q", candles[0].Symbol)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	body := "timestamp,open,high,low,close\n2024-01-02T09:30:00Z,1,1,1,1\n"
	if _, err := ReadCSV(strings.NewReader(body), "MES"); err == nil {
		t.Fatal("expected missing column error")
	}
}
