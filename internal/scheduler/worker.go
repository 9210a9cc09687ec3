package scheduler

import (
	"context"
	"fmt"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/reconcile"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/config"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	store   repository.Store
	sweeper *reconcile.Service
	bus     events.Bus
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sweeper *reconcile.Service, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		store:   repository.New(pool),
		sweeper: sweeper,
		bus:     bus,
		log:     log,
	}

	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	mux.HandleFunc(TaskReconcileSweep, w.handleReconcileSweep)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleAppointmentReminder republishes a due reminder onto the event bus if
// the appointment is still relevant: the contact must still be in
// SCHEDULED_INSPECTION with the appointment time unchanged.
func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return err
	}

	contactID, err := uuid.Parse(payload.ContactID)
	if err != nil {
		return err
	}
	orgID, err := uuid.Parse(payload.OrganizationID)
	if err != nil {
		return err
	}

	contact, err := w.store.GetContactByID(ctx, contactID, orgID)
	if err != nil {
		// The contact may have been deleted since scheduling; drop silently.
		return nil
	}
	if contact.StageName != domain.StageScheduledInspection || contact.AppointmentTime == nil {
		return nil
	}

	if w.bus == nil {
		return nil
	}
	w.bus.Publish(ctx, events.AppointmentScheduled{
		BaseEvent:      events.NewBaseEvent(),
		ContactID:      contact.ID,
		OrganizationID: contact.OrganizationID,
		ContactName:    contact.Name,
		Title:          fmt.Sprintf("Reminder: roof inspection for %s", contact.Name),
		Location:       contact.Address,
		StartTime:      *contact.AppointmentTime,
		ContactEmail:   contact.Email,
		ContactPhone:   contact.Phone,
	})
	return nil
}

func (w *Worker) handleReconcileSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseReconcileSweepPayload(task)
	if err != nil {
		return err
	}

	var orgID *uuid.UUID
	if payload.OrganizationID != "" {
		parsed, err := uuid.Parse(payload.OrganizationID)
		if err != nil {
			return err
		}
		orgID = &parsed
	}

	_, err = w.sweeper.CheckContactsWithoutTasks(ctx, orgID)
	return err
}
