package broker

import (
	"time"

	"github.com/evdnx/goicc/types"
)

// BacktestBroker simulates fills deterministically: the intended price moved
// slippage_ticks against the side, or the intended price as-is for market
// orders. Orders with no price and a non-market type are rejected.
type BacktestBroker struct {
	slippageTicks     int
	tickSize          float64
	commissionPerSide float64
	connected         bool
}

func NewBacktestBroker(slippageTicks int, tickSize, commissionPerSide float64) *BacktestBroker {
	return &BacktestBroker{
		slippageTicks:     slippageTicks,
		tickSize:          tickSize,
		commissionPerSide: commissionPerSide,
	}
}

func (b *BacktestBroker) Connect() bool {
	b.connected = true
	return true
}

func (b *BacktestBroker) Disconnect() { b.connected = false }

func (b *BacktestBroker) SubmitOrder(o *types.Order) (*types.Fill, error) {
	if o.Price == 0 && o.Type != types.Market {
		return nil, nil
	}

	slip := float64(b.slippageTicks) * b.tickSize
	price := o.Price
	switch {
	case o.Type == types.Market:
	case o.Side == types.Buy:
		price += slip
	default:
		price -= slip
	}

	return &types.Fill{
		OrderID:    o.ID,
		Price:      price,
		Qty:        o.Qty,
		Side:       o.Side,
		Timestamp:  time.Now().UTC(),
		Commission: b.commissionPerSide,
	}, nil
}

func (b *BacktestBroker) CancelOrder(o *types.Order) (bool, error) {
	return true, nil
}

func (b *BacktestBroker) Positions() ([]types.Position, error) {
	return nil, nil
}
