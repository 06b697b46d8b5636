package alert

import (
	"fmt"
	"net/smtp"

	"github.com/evdnx/goicc/config"
	"github.com/evdnx/goicc/logger"
)

// EmailChannel delivers alerts over SMTP with STARTTLS.
type EmailChannel struct {
	cfg  config.AlertConfig
	log  logger.Logger
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailChannel(cfg config.AlertConfig, log logger.Logger) *EmailChannel {
	return &EmailChannel{cfg: cfg, log: log, send: smtp.SendMail}
}

func (c *EmailChannel) Send(alertType, message string) bool {
	if c.cfg.EmailTo == "" || c.cfg.SMTPUser == "" {
		if c.log != nil {
			c.log.Warn("email alert not configured")
		}
		return false
	}
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: goicc alert: %s\r\n\r\n%s\r\n",
		c.cfg.SMTPUser, c.cfg.EmailTo, alertType, message)
	addr := fmt.Sprintf("%s:%d", c.cfg.SMTPHost, c.cfg.SMTPPort)
	auth := smtp.PlainAuth("", c.cfg.SMTPUser, c.cfg.SMTPPass, c.cfg.SMTPHost)
	if err := c.send(addr, auth, c.cfg.SMTPUser, []string{c.cfg.EmailTo}, []byte(body)); err != nil {
		if c.log != nil {
			c.log.Error("email alert failed", logger.Err(err))
		}
		return false
	}
	return true
}
