package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"salesops_backend/platform/config"

	"golang.org/x/time/rate"
)

// WebhookClient posts event payloads to team-configured URLs. Outbound calls
// share a rate limiter so a misconfigured rule cannot flood an endpoint.
type WebhookClient struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookClient creates a rate-limited outbound webhook client.
func NewWebhookClient(cfg config.WebhookConfig) *WebhookClient {
	timeout := cfg.GetWebhookTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	perSecond := cfg.GetWebhookRatePerSecond()
	if perSecond <= 0 {
		perSecond = 5
	}

	burst := cfg.GetWebhookBurst()
	if burst < 1 {
		burst = 1
	}

	return &WebhookClient{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Post sends the payload as a JSON body. A non-2xx response is an error so
// the executor can report the step as skipped.
func (w *WebhookClient) Post(ctx context.Context, url string, payload map[string]any) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
