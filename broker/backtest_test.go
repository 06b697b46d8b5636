package broker

import (
	"testing"

	"github.com/evdnx/goicc/types"
)

func TestStopBuyFillsWithAdverseSlippage(t *testing.T) {
	b := NewBacktestBroker(1, 0.25, 2.50)
	b.Connect()
	fill, err := b.SubmitOrder(&types.Order{Type: types.Stop, Side: types.Buy, Qty: 1, Price: 100.0, ID: "abc"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if fill == nil {
		t.Fatal("expected a fill")
	}
	if fill.Price != 100.25 {
		t.Fatalf("buy should slip up: %v", fill.Price)
	}
	if fill.Commission != 2.50 || fill.OrderID != "abc" || fill.Qty != 1 {
		t.Fatalf("fill = %+v", fill)
	}
}

func TestStopSellFillsWithAdverseSlippage(t *testing.T) {
	b := NewBacktestBroker(2, 0.25, 2.50)
	fill, err := b.SubmitOrder(&types.Order{Type: types.Stop, Side: types.Sell, Qty: 1, Price: 100.0})
	if err != nil || fill == nil {
		t.Fatalf("fill=%v err=%v", fill, err)
	}
	if fill.Price != 99.5 {
		t.Fatalf("sell should slip down: %v", fill.Price)
	}
}

func TestMarketOrderFillsAtIntendedPrice(t *testing.T) {
	b := NewBacktestBroker(1, 0.25, 2.50)
	fill, err := b.SubmitOrder(&types.Order{Type: types.Market, Side: types.Buy, Qty: 1, Price: 100.0})
	if err != nil || fill == nil {
		t.Fatalf("fill=%v err=%v", fill, err)
	}
	if fill.Price != 100.0 {
		t.Fatalf("market order should not slip: %v", fill.Price)
	}
}

func TestPricelessNonMarketOrderRejected(t *testing.T) {
	b := NewBacktestBroker(1, 0.25, 2.50)
	fill, err := b.SubmitOrder(&types.Order{Type: types.Stop, Side: types.Buy, Qty: 1})
	if err != nil {
		t.Fatalf("rejection is not an error: %v", err)
	}
	if fill != nil {
		t.Fatal("priceless stop order must be rejected")
	}
}
