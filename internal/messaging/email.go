package messaging

import (
	"context"
	"fmt"
	"net"
	"time"

	"salesops_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// EmailProvider delivers messages over a direct SMTP connection via go-mail.
type EmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewEmailProvider creates an SMTP-backed email provider.
func NewEmailProvider(cfg config.EmailConfig) *EmailProvider {
	return &EmailProvider{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// ID implements Provider.
func (p *EmailProvider) ID() string { return "smtp" }

// Send implements Provider.
func (p *EmailProvider) Send(ctx context.Context, out OutboundMessage) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(p.fromName, p.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(out.Recipient); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(out.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, out.Body)

	client, err := gomail.NewClient(p.host,
		gomail.WithPort(p.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(p.username),
		gomail.WithPassword(p.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
