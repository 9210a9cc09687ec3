// Package engine implements the stage transition engine. Every operation
// runs the same four-step protocol in a single transaction: resolve the
// target stage, cancel the contact's open tasks, update the contact under an
// optimistic version check, then create the next task and timeline notes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/contacts/tasks"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/internal/scheduler"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	store     repository.Store
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
	reminders scheduler.ReminderScheduler
}

func New(store repository.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// SetReminderScheduler enables day-before appointment reminders. Without it
// inspections are still booked, just not reminded.
func (s *Service) SetReminderScheduler(reminders scheduler.ReminderScheduler) {
	s.reminders = reminders
}

// mutation describes what a specific transition changes on the contact,
// beyond the stage itself.
type mutation struct {
	target domain.StageName
	update repository.StageUpdate
	notes  []repository.CreateNoteParams
}

// transitionResult carries what the protocol produced, for post-commit
// logging and events.
type transitionResult struct {
	contact  domain.Contact
	oldStage domain.StageName
	task     *domain.Task
}

// transition executes the four-step protocol atomically. The caller builds
// the mutation from the loaded contact; the version read there guards the
// write here, so a concurrent transition on the same contact loses with a
// Conflict instead of leaving two open tasks.
func (s *Service) transition(ctx context.Context, organizationID, contactID uuid.UUID, build func(*domain.Contact) (mutation, error)) (transitionResult, error) {
	const op = "engine.transition"

	var result transitionResult
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		contact, err := tx.GetContactByID(ctx, contactID, organizationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("contact not found").WithOp(op)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
		}
		result.oldStage = contact.StageName

		m, err := build(&contact)
		if err != nil {
			return err
		}

		// Step 1: resolve the target stage, lazily seeding defaults for
		// organizations that predate stage provisioning.
		stage, err := ResolveStage(ctx, tx, organizationID, m.target)
		if err != nil {
			return err
		}
		m.update.StageID = stage.ID
		m.update.StageName = stage.Name
		m.update.StageOrder = stage.DisplayOrder

		// Step 2: cancel whatever work was queued for the old state.
		if _, err := tx.CancelOpenTasks(ctx, contact.ID); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to cancel open tasks", err).WithOp(op)
		}

		// Step 3: write the contact under the version check.
		updated, err := tx.UpdateContactStage(ctx, contact.ID, organizationID, contact.Version, m.update)
		if errors.Is(err, repository.ErrStaleContact) {
			return apperr.Conflict("contact was modified by another request").WithOp(op)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("contact not found").WithOp(op)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to update contact", err).WithOp(op)
		}
		result.contact = updated

		// Step 4: queue the next task and describe the change on the timeline.
		next, ok := domain.DecideNextTask(&updated)
		if ok {
			settings, err := tx.GetScheduleSettings(ctx, organizationID)
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp(op)
			}
			due := tasks.DueDateFor(next, s.now(), settings, &updated)
			task, err := tx.CreateTask(ctx, repository.CreateTaskParams{
				ContactID:       updated.ID,
				OrganizationID:  organizationID,
				Type:            next.Type,
				Title:           next.Type.TitleFor(updated.Name),
				DueDate:         due,
				AppointmentTime: appointmentFor(next.Type, &updated),
				Priority:        next.Priority,
			})
			if err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to create task", err).WithOp(op)
			}
			result.task = &task
		}

		for _, note := range m.notes {
			note.ContactID = updated.ID
			if _, err := tx.CreateNote(ctx, note); err != nil {
				// Timeline writes never abort a transition.
				s.log.Warn("timeline write failed", "contact_id", updated.ID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return transitionResult{}, err
	}

	s.log.StageTransition(result.contact.ID.String(), string(result.oldStage), string(result.contact.StageName))
	if result.oldStage != result.contact.StageName {
		s.bus.Publish(ctx, events.StageChanged{
			BaseEvent:      events.NewBaseEvent(),
			ContactID:      result.contact.ID,
			OrganizationID: organizationID,
			OldStage:       string(result.oldStage),
			NewStage:       string(result.contact.StageName),
		})
	}
	if result.task != nil {
		s.bus.Publish(ctx, events.TaskCreated{
			BaseEvent:      events.NewBaseEvent(),
			TaskID:         result.task.ID,
			ContactID:      result.contact.ID,
			OrganizationID: organizationID,
			TaskType:       string(result.task.Type),
			DueDate:        result.task.DueDate,
		})
	}
	return result, nil
}

// ResolveStage looks up a stage by name, seeding the default pipeline first
// when the organization has no stages at all. If the stage is still missing
// after seeding, the caller's operation aborts with a stage resolution error.
func ResolveStage(ctx context.Context, tx repository.Store, organizationID uuid.UUID, name domain.StageName) (domain.Stage, error) {
	const op = "engine.ResolveStage"

	stage, err := tx.GetStageByName(ctx, organizationID, name)
	if err == nil {
		return stage, nil
	}
	if !errors.Is(err, repository.ErrStageNotFound) {
		return domain.Stage{}, apperr.Wrap(apperr.KindInternal, "failed to resolve stage", err).WithOp(op)
	}

	count, err := tx.CountStages(ctx, organizationID)
	if err != nil {
		return domain.Stage{}, apperr.Wrap(apperr.KindInternal, "failed to count stages", err).WithOp(op)
	}
	if count > 0 {
		// The organization has stages, just not this one. Seeding would not
		// help a corrupted pipeline.
		return domain.Stage{}, apperr.StageResolution(fmt.Sprintf("stage %s not found", name)).WithOp(op)
	}

	if err := tx.SeedStages(ctx, organizationID, defaultStages()); err != nil {
		return domain.Stage{}, apperr.StageResolution("default stage seeding failed").WithOp(op)
	}
	stage, err = tx.GetStageByName(ctx, organizationID, name)
	if err != nil {
		return domain.Stage{}, apperr.StageResolution(fmt.Sprintf("stage %s missing after seeding", name)).WithOp(op)
	}
	return stage, nil
}

func defaultStages() []domain.Stage {
	stages := make([]domain.Stage, 0, len(domain.AllStages))
	for i, name := range domain.AllStages {
		stages = append(stages, domain.Stage{
			Name:         name,
			Type:         name.Type(),
			DisplayOrder: i + 1,
		})
	}
	return stages
}

func appointmentFor(t domain.TaskType, c *domain.Contact) *time.Time {
	if t == domain.TaskAssignStatus {
		return c.AppointmentTime
	}
	return nil
}
