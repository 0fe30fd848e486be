package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InAppProvider persists messages to the in-app notification inbox so they
// surface in the team's dashboard feed.
type InAppProvider struct {
	pool *pgxpool.Pool
}

// NewInAppProvider creates a provider backed by the in-app notification store.
func NewInAppProvider(pool *pgxpool.Pool) *InAppProvider {
	return &InAppProvider{pool: pool}
}

// ID implements Provider.
func (p *InAppProvider) ID() string { return "in_app" }

// Send implements Provider.
func (p *InAppProvider) Send(ctx context.Context, out OutboundMessage) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO in_app_notifications (id, team_id, recipient, subject, body)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), out.TeamID, out.Recipient, out.Subject, out.Body)
	return err
}
