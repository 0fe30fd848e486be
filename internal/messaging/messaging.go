// Package messaging provides the outbound message provider registry and the
// channel providers (email, SMS, voice, in-app). Multiple providers may be
// registered per channel; delivery fans out in registration order and the
// first success wins.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"salesops_backend/platform/logger"

	"github.com/google/uuid"
)

// Channel identifies an outbound delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelVoice Channel = "voice"
	ChannelInApp Channel = "in_app"
)

var knownChannels = map[Channel]struct{}{
	ChannelSMS:   {},
	ChannelEmail: {},
	ChannelVoice: {},
	ChannelInApp: {},
}

// IsKnownChannel reports whether the channel is supported.
func IsKnownChannel(channel Channel) bool {
	_, ok := knownChannels[channel]
	return ok
}

// OutboundMessage is one message to deliver over a channel.
type OutboundMessage struct {
	TeamID    uuid.UUID
	Channel   Channel
	Recipient string
	Subject   string
	Body      string
}

// MessageResult reports which provider delivered the message.
type MessageResult struct {
	ProviderID string
}

// Provider delivers messages for one channel.
type Provider interface {
	ID() string
	Send(ctx context.Context, msg OutboundMessage) error
}

// Registry holds the per-channel provider lists. It is an explicit
// dependency: constructed once at wiring time and injected, never a
// package-level singleton.
type Registry struct {
	providers map[Channel][]Provider
	log       *logger.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		providers: make(map[Channel][]Provider),
		log:       log,
	}
}

// Register adds a provider for the given channel. Registration happens at
// startup; the registry is read-only afterwards.
func (r *Registry) Register(channel Channel, p Provider) {
	r.providers[channel] = append(r.providers[channel], p)
}

// Send resolves providers for the message's channel and tries each in
// order until one succeeds. All failures are joined into the returned error.
func (r *Registry) Send(ctx context.Context, msg OutboundMessage) (MessageResult, error) {
	candidates := r.providers[msg.Channel]
	if len(candidates) == 0 {
		return MessageResult{}, fmt.Errorf("no provider registered for channel %q", msg.Channel)
	}

	var errs []error
	for _, p := range candidates {
		if err := p.Send(ctx, msg); err != nil {
			if r.log != nil {
				r.log.Warn("message provider failed",
					"provider", p.ID(), "channel", string(msg.Channel), "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", p.ID(), err))
			continue
		}
		return MessageResult{ProviderID: p.ID()}, nil
	}

	return MessageResult{}, errors.Join(errs...)
}
