// Package organizations provides the organization bounded context module:
// tenant provisioning and office-day schedule settings.
package organizations

import (
	"rooftrack_backend/internal/events"
	apphttp "rooftrack_backend/internal/http"
	"rooftrack_backend/internal/organizations/handler"
	"rooftrack_backend/internal/organizations/repository"
	"rooftrack_backend/internal/organizations/service"
	"rooftrack_backend/platform/logger"
	"rooftrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the organizations bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the organizations module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "organizations"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts organization routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/organizations", m.handler.Create)

	ctx.Protected.GET("/organizations/me", m.handler.Get)
	ctx.Protected.GET("/organizations/me/schedule-settings", m.handler.GetSettings)
	ctx.Protected.PUT("/organizations/me/schedule-settings", m.handler.UpdateSettings)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
