// Package broker defines the adapter contract between the OMS and an
// execution venue, plus the deterministic backtest implementation.
package broker

import (
	"github.com/evdnx/goicc/types"
)

// Broker is the capability set the core needs from an execution venue.
// Backtest and live implementations are interchangeable here.
type Broker interface {
	// SubmitOrder executes an order, returning the fill or nil on rejection.
	SubmitOrder(o *types.Order) (*types.Fill, error)
	// CancelOrder cancels a working order.
	CancelOrder(o *types.Order) (bool, error)
	// Positions lists the broker-side open positions.
	Positions() ([]types.Position, error)
	Connect() bool
	Disconnect()
}
