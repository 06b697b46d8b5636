// Package testutils holds in-memory fakes shared by the package tests.
package testutils

import (
	"errors"
	"time"

	"github.com/evdnx/goicc/types"
)

// MockBroker implements broker.Broker in-memory and records every call.
type MockBroker struct {
	// FillPrice is returned on successful submits; zero falls back to the
	// order's intended price.
	FillPrice float64
	// FailSubmits makes the first n submits return an error.
	FailSubmits int
	// RejectAll makes every submit return a nil fill.
	RejectAll bool
	// CancelFails makes CancelOrder report failure.
	CancelFails bool

	SubmitCalls int
	CancelCalls int
	Submitted   []types.Order
	Connected   bool
}

func NewMockBroker() *MockBroker {
	return &MockBroker{}
}

func (m *MockBroker) Connect() bool {
	m.Connected = true
	return true
}

func (m *MockBroker) Disconnect() { m.Connected = false }

func (m *MockBroker) SubmitOrder(o *types.Order) (*types.Fill, error) {
	m.SubmitCalls++
	m.Submitted = append(m.Submitted, *o)
	if m.FailSubmits > 0 {
		m.FailSubmits--
		return nil, errors.New("mock broker unavailable")
	}
	if m.RejectAll {
		return nil, nil
	}
	price := m.FillPrice
	if price == 0 {
		price = o.Price
	}
	return &types.Fill{
		OrderID:   o.ID,
		Price:     price,
		Qty:       o.Qty,
		Side:      o.Side,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (m *MockBroker) CancelOrder(o *types.Order) (bool, error) {
	m.CancelCalls++
	if m.CancelFails {
		return false, nil
	}
	return true, nil
}

func (m *MockBroker) Positions() ([]types.Position, error) {
	return nil, nil
}
