package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"salesops_backend/platform/phone"
)

// GatewayProvider delivers SMS or voice messages through an HTTP gateway.
// Recipient phone numbers are normalized to E.164 before dispatch.
type GatewayProvider struct {
	id     string
	url    string
	apiKey string
	client *http.Client
}

// NewSMSProvider creates a provider for an SMS HTTP gateway.
func NewSMSProvider(url, apiKey string) *GatewayProvider {
	return newGatewayProvider("sms_gateway", url, apiKey)
}

// NewVoiceProvider creates a provider for a voice-call HTTP gateway.
func NewVoiceProvider(url, apiKey string) *GatewayProvider {
	return newGatewayProvider("voice_gateway", url, apiKey)
}

func newGatewayProvider(id, url, apiKey string) *GatewayProvider {
	return &GatewayProvider{
		id:     id,
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// ID implements Provider.
func (p *GatewayProvider) ID() string { return p.id }

// Send implements Provider.
func (p *GatewayProvider) Send(ctx context.Context, out OutboundMessage) error {
	if p.url == "" {
		return fmt.Errorf("%s: gateway not configured", p.id)
	}

	payload, err := json.Marshal(gatewayRequest{
		To:   phone.NormalizeE164(out.Recipient),
		Body: out.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: gateway returned status %d", p.id, resp.StatusCode)
	}

	return nil
}
