// Package alert fans trading alerts out to pluggable channels. Channel
// failures are logged and swallowed: alerting must never block or break the
// trading thread.
package alert

import (
	"github.com/evdnx/goicc/logger"
)

// Channel delivers one alert. Implementations report delivery success.
type Channel interface {
	Send(alertType, message string) bool
}

// Router fans an alert out to every registered channel.
type Router struct {
	channels []Channel
	log      logger.Logger
}

func NewRouter(log logger.Logger) *Router {
	return &Router{log: log}
}

// AddChannel registers a delivery channel.
func (r *Router) AddChannel(c Channel) {
	r.channels = append(r.channels, c)
}

// Send delivers to all channels, best-effort.
func (r *Router) Send(alertType, message string) {
	for _, c := range r.channels {
		func() {
			defer func() {
				if rec := recover(); rec != nil && r.log != nil {
					r.log.Error("alert channel panicked",
						logger.String("type", alertType),
						logger.Any("panic", rec))
				}
			}()
			if !c.Send(alertType, message) && r.log != nil {
				r.log.Error("alert channel failed",
					logger.String("type", alertType))
			}
		}()
	}
}

// ConsoleChannel writes alerts through the structured logger.
type ConsoleChannel struct {
	log logger.Logger
}

func NewConsoleChannel(log logger.Logger) *ConsoleChannel {
	return &ConsoleChannel{log: log}
}

func (c *ConsoleChannel) Send(alertType, message string) bool {
	if c.log == nil {
		return false
	}
	switch alertType {
	case "kill_switch", "trade_loss":
		c.log.Error("ALERT", logger.String("type", alertType), logger.String("message", message))
	case "risk_veto":
		c.log.Warn("ALERT", logger.String("type", alertType), logger.String("message", message))
	default:
		c.log.Info("ALERT", logger.String("type", alertType), logger.String("message", message))
	}
	return true
}
