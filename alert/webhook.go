package alert

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/evdnx/goicc/logger"
)

// WebhookChannel POSTs alerts as JSON to an HTTP endpoint with retry.
type WebhookChannel struct {
	url    string
	client *retryablehttp.Client
	log    logger.Logger
}

func NewWebhookChannel(url string, log logger.Logger) *WebhookChannel {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	return &WebhookChannel{url: url, client: client, log: log}
}

func (c *WebhookChannel) Send(alertType, message string) bool {
	payload, err := json.Marshal(map[string]string{
		"type":    alertType,
		"message": message,
	})
	if err != nil {
		return false
	}
	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		if c.log != nil {
			c.log.Error("webhook alert failed", logger.Err(err))
		}
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}
