package messaging

import (
	"context"
	"errors"
	"testing"

	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeProvider struct {
	id    string
	err   error
	calls int
}

func (f *fakeProvider) ID() string { return f.id }

func (f *fakeProvider) Send(context.Context, OutboundMessage) error {
	f.calls++
	return f.err
}

func TestRegistryFirstSuccessWins(t *testing.T) {
	reg := NewRegistry(logger.New("development"))
	failing := &fakeProvider{id: "primary", err: errors.New("unreachable")}
	working := &fakeProvider{id: "fallback"}
	unused := &fakeProvider{id: "unused"}
	reg.Register(ChannelSMS, failing)
	reg.Register(ChannelSMS, working)
	reg.Register(ChannelSMS, unused)

	result, err := reg.Send(context.Background(), OutboundMessage{
		TeamID:    uuid.New(),
		Channel:   ChannelSMS,
		Recipient: "+15551234567",
		Body:      "hi",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if result.ProviderID != "fallback" {
		t.Fatalf("expected fallback provider to win, got %q", result.ProviderID)
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Fatalf("expected one call each for primary and fallback, got %d and %d", failing.calls, working.calls)
	}
	if unused.calls != 0 {
		t.Fatalf("expected no call after first success, got %d", unused.calls)
	}
}

func TestRegistryNoProviderForChannel(t *testing.T) {
	reg := NewRegistry(logger.New("development"))

	_, err := reg.Send(context.Background(), OutboundMessage{Channel: ChannelVoice})
	if err == nil {
		t.Fatal("expected error for unregistered channel")
	}
}

func TestRegistryAllProvidersFailJoinsErrors(t *testing.T) {
	reg := NewRegistry(logger.New("development"))
	first := errors.New("first down")
	second := errors.New("second down")
	reg.Register(ChannelEmail, &fakeProvider{id: "a", err: first})
	reg.Register(ChannelEmail, &fakeProvider{id: "b", err: second})

	_, err := reg.Send(context.Background(), OutboundMessage{Channel: ChannelEmail})
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected joined error to include both failures, got %v", err)
	}
}
