// Package oms owns order routing and the single-position accounting.
package oms

import (
	"time"

	"github.com/google/uuid"

	"github.com/evdnx/goicc/broker"
	"github.com/evdnx/goicc/logger"
	"github.com/evdnx/goicc/metrics"
	"github.com/evdnx/goicc/types"
)

const (
	// MaxRetries bounds broker submission attempts per order.
	MaxRetries = 3
	// RetryBackoff is the base of the linear backoff between attempts.
	RetryBackoff = 2 * time.Second
)

// Manager submits orders to a broker with bounded retry and tracks them by
// an opaque 8-character id.
type Manager struct {
	broker  broker.Broker
	orders  map[string]*types.Order
	log     logger.Logger
	backoff time.Duration
	sleep   func(time.Duration) // injectable for tests
}

func NewManager(b broker.Broker, log logger.Logger) *Manager {
	return &Manager{
		broker:  b,
		orders:  make(map[string]*types.Order),
		log:     log,
		backoff: RetryBackoff,
		sleep:   time.Sleep,
	}
}

// SetBackoff overrides the retry backoff base. Test hook.
func (m *Manager) SetBackoff(d time.Duration) { m.backoff = d }

// Submit assigns an id, stores the order, and tries the broker up to
// MaxRetries times with linear backoff. The returned order carries the final
// status; submission failure is never an error, just a rejected order.
func (m *Manager) Submit(o *types.Order) *types.Order {
	o.ID = uuid.NewString()[:8]
	o.Status = types.StatusSubmitted
	o.CreatedAt = time.Now().UTC()
	m.orders[o.ID] = o

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		fill, err := m.broker.SubmitOrder(o)
		switch {
		case err != nil:
			if m.log != nil {
				m.log.Error("order submit error",
					logger.String("order_id", o.ID),
					logger.Int("attempt", attempt),
					logger.Err(err))
			}
		case fill != nil:
			o.Status = types.StatusFilled
			o.FilledPrice = fill.Price
			o.FilledAt = fill.Timestamp
			if m.log != nil {
				m.log.Info("order filled",
					logger.String("order_id", o.ID),
					logger.Float64("price", fill.Price))
			}
			metrics.OrdersSubmitted.WithLabelValues("filled").Inc()
			return o
		default:
			o.Status = types.StatusRejected
			if m.log != nil {
				m.log.Warn("order rejected",
					logger.String("order_id", o.ID),
					logger.Int("attempt", attempt))
			}
		}
		if attempt < MaxRetries {
			m.sleep(m.backoff * time.Duration(attempt))
		}
	}

	o.Status = types.StatusRejected
	if m.log != nil {
		m.log.Error("order failed after retries",
			logger.String("order_id", o.ID),
			logger.Int("retries", MaxRetries))
	}
	metrics.OrdersSubmitted.WithLabelValues("rejected").Inc()
	return o
}

// Cancel cancels a tracked non-terminal order through the broker.
func (m *Manager) Cancel(orderID string) bool {
	o, ok := m.orders[orderID]
	if !ok || o.Status.Terminal() {
		return false
	}
	ok, err := m.broker.CancelOrder(o)
	if err != nil || !ok {
		if m.log != nil {
			m.log.Error("cancel failed", logger.String("order_id", orderID), logger.Err(err))
		}
		return false
	}
	o.Status = types.StatusCancelled
	return true
}

// Get returns a tracked order by id.
func (m *Manager) Get(orderID string) (*types.Order, bool) {
	o, ok := m.orders[orderID]
	return o, ok
}
