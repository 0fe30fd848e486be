package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type webhookTestConfig struct{}

func (webhookTestConfig) GetWebhookTimeout() time.Duration  { return 2 * time.Second }
func (webhookTestConfig) GetWebhookRatePerSecond() float64  { return 100 }
func (webhookTestConfig) GetWebhookBurst() int              { return 10 }

func TestWebhookClientPostsPayload(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWebhookClient(webhookTestConfig{})
	payload := map[string]any{"leadId": "lead-1", "status": "new"}

	if err := client.Post(context.Background(), srv.URL, payload); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", contentType)
	}
	if got["leadId"] != "lead-1" || got["status"] != "new" {
		t.Fatalf("unexpected payload received: %v", got)
	}
}

func TestWebhookClientNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewWebhookClient(webhookTestConfig{})
	err := client.Post(context.Background(), srv.URL, map[string]any{"k": "v"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestWebhookClientRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewWebhookClient(webhookTestConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.Post(ctx, srv.URL, map[string]any{"k": "v"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
