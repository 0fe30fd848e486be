// Package confirmation provides the confirmation scheduling module:
// per-team step configuration and appointment-anchored follow-up tasks.
package confirmation

import (
	"salesops_backend/internal/confirmation/handler"
	"salesops_backend/internal/confirmation/repository"
	"salesops_backend/internal/confirmation/service"
	apphttp "salesops_backend/internal/http"
	"salesops_backend/internal/scheduler"
	"salesops_backend/platform/logger"
	"salesops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the confirmation domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new confirmation module with all dependencies wired.
// The scheduler may be nil when Redis is not configured.
func NewModule(pool *pgxpool.Pool, sched scheduler.ConfirmationScheduler, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, repo, sched, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "confirmations"
}

// RegisterRoutes registers the module's routes under /api/v1/confirmations
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	confirmations := ctx.Protected.Group("/confirmations")
	m.handler.RegisterRoutes(confirmations)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
