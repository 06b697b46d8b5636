package alert

import (
	"github.com/evdnx/goicc/event"
)

// BusChannel publishes alerts onto the trading event bus so stream
// consumers (dashboard, sinks) see them alongside trade events.
type BusChannel struct {
	bus *event.Bus
}

func NewBusChannel(bus *event.Bus) *BusChannel {
	return &BusChannel{bus: bus}
}

func (c *BusChannel) Send(alertType, message string) bool {
	c.bus.Emit(event.Alert, map[string]any{
		"alert_type": alertType,
		"message":    message,
	})
	return true
}
