// Package contacts provides the contacts bounded context module: the
// pipeline contacts themselves, the stage transition engine, the task
// lifecycle manager, and the reconciliation sweeper.
package contacts

import (
	"rooftrack_backend/internal/contacts/engine"
	"rooftrack_backend/internal/contacts/handler"
	"rooftrack_backend/internal/contacts/reconcile"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/contacts/service"
	"rooftrack_backend/internal/contacts/tasks"
	"rooftrack_backend/internal/events"
	apphttp "rooftrack_backend/internal/http"
	"rooftrack_backend/internal/scheduler"
	"rooftrack_backend/platform/logger"
	"rooftrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config is the subset of application configuration the module needs.
type Config interface {
	GetEmailFromName() string
}

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	svc     *service.Service
	eng     *engine.Service
	tasks   *tasks.Service
	sweeper *reconcile.Service
}

// NewModule creates and initializes the contacts module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, cfg Config, log *logger.Logger) *Module {
	store := repository.New(pool)

	svc := service.New(store, bus, log)
	eng := engine.New(store, bus, log)
	taskSvc := tasks.New(store, bus, log)
	sweeper := reconcile.New(store, bus, log)
	h := handler.New(svc, eng, taskSvc, sweeper, val, cfg.GetEmailFromName())

	return &Module{handler: h, svc: svc, eng: eng, tasks: taskSvc, sweeper: sweeper}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "contacts"
}

// Engine returns the stage transition engine for external use.
func (m *Module) Engine() *engine.Service {
	return m.eng
}

// SetReminderScheduler wires the queue-backed appointment reminder scheduler
// into the engine. Optional: without it no reminders are queued.
func (m *Module) SetReminderScheduler(reminders scheduler.ReminderScheduler) {
	m.eng.SetReminderScheduler(reminders)
}

// Tasks returns the task lifecycle manager for external use.
func (m *Module) Tasks() *tasks.Service {
	return m.tasks
}

// Sweeper returns the reconciliation sweeper; the background worker runs it
// on a schedule.
func (m *Module) Sweeper() *reconcile.Service {
	return m.sweeper
}

// RegisterRoutes mounts contact, transition, and task routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	contacts := ctx.Protected.Group("/contacts")
	contacts.POST("", m.handler.Create)
	contacts.GET("", m.handler.List)
	contacts.GET("/:id", m.handler.GetByID)
	contacts.DELETE("/:id", m.handler.Delete)

	contacts.POST("/:id/notes", m.handler.AddNote)
	contacts.GET("/:id/notes", m.handler.Timeline)
	contacts.POST("/:id/files", m.handler.AttachFile)
	contacts.GET("/:id/files", m.handler.ListFiles)
	contacts.POST("/:id/messages/preview", m.handler.PreviewMessage)

	contacts.POST("/:id/transitions/schedule-inspection", m.handler.ScheduleInspection)
	contacts.POST("/:id/transitions/after-inspection", m.handler.AfterInspection)
	contacts.POST("/:id/transitions/first-message-sent", m.handler.FirstMessageSent)
	contacts.POST("/:id/transitions/quote-sent", m.handler.QuoteSent)
	contacts.POST("/:id/transitions/claim-rec-sent", m.handler.ClaimRecSent)
	contacts.POST("/:id/transitions/pa-sent", m.handler.PASent)
	contacts.POST("/:id/transitions/open-claim", m.handler.OpenClaim)
	contacts.POST("/:id/transitions/terminal", m.handler.Terminal)
	contacts.PATCH("/:id/job-status", m.handler.JobStatus)

	taskRoutes := ctx.Protected.Group("/tasks")
	taskRoutes.GET("/due", m.handler.ListDueTasks)
	taskRoutes.PATCH("/:id/start", m.handler.StartTask)
	taskRoutes.PATCH("/:id/complete", m.handler.CompleteTask)
	taskRoutes.PATCH("/:id/reschedule", m.handler.RescheduleTask)
	taskRoutes.POST("/batch-reschedule", m.handler.BatchReschedule)

	ctx.Protected.POST("/workflow/reconcile", m.handler.Reconcile)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
