// Package tasks implements the task lifecycle manager. Tasks are the unit of
// work driving every contact: exactly one open task per contact is the
// steady-state invariant, and completion here never leaves a contact bare.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/officeday"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	store repository.Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

func New(store repository.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

// WithClock overrides the time source. Tests use this to pin office-day
// arithmetic to known dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DueDateFor turns a decision-table rule into a concrete due date using the
// organization's office-day settings.
func DueDateFor(next domain.NextTask, now time.Time, settings domain.ScheduleSettings, contact *domain.Contact) time.Time {
	days := settings.OfficeDays
	switch next.Due {
	case domain.DueEnforcedToday:
		return officeday.Enforce(now, days)
	case domain.DueAtAppointment:
		if contact != nil && contact.AppointmentTime != nil {
			return *contact.AppointmentTime
		}
		return officeday.Enforce(now, days)
	case domain.DueSeasonalDate:
		// The reminder date stored at transition time wins, so a later
		// settings change cannot make a repaired task disagree with it.
		if contact != nil && contact.SeasonalReminderDate != nil && contact.SeasonalReminderDate.After(now) {
			return officeday.Enforce(*contact.SeasonalReminderDate, days)
		}
		month := settings.SeasonalFollowUpMonth
		day := settings.SeasonalFollowUpDay
		if month == 0 || day == 0 {
			month, day = time.March, 1
		}
		return officeday.SeasonalFollowUp(month, day, now, days)
	case domain.DueOneYearOut:
		return officeday.Enforce(now.AddDate(1, 0, 0), days)
	default:
		return officeday.Next(now, days)
	}
}

type CreateParams struct {
	ContactID       uuid.UUID
	OrganizationID  uuid.UUID
	Type            domain.TaskType
	DueDate         time.Time
	AppointmentTime *time.Time
	Priority        domain.TaskPriority
}

// Create persists an open task for a contact. The title and action hint are
// derived from the task type, never accepted from callers.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.Task, error) {
	const op = "tasks.Create"

	contact, err := s.store.GetContactByID(ctx, params.ContactID, params.OrganizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Task{}, apperr.NotFound("contact not found").WithOp(op)
	}
	if err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}

	task, err := s.store.CreateTask(ctx, repository.CreateTaskParams{
		ContactID:       contact.ID,
		OrganizationID:  contact.OrganizationID,
		Type:            params.Type,
		Title:           params.Type.TitleFor(contact.Name),
		DueDate:         params.DueDate,
		AppointmentTime: params.AppointmentTime,
		Priority:        params.Priority,
	})
	if err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "failed to create task", err).WithOp(op)
	}

	s.log.TaskEvent("created", task.ID.String(), contact.ID.String(), string(task.Type))
	s.bus.Publish(ctx, events.TaskCreated{
		BaseEvent:      events.NewBaseEvent(),
		TaskID:         task.ID,
		ContactID:      contact.ID,
		OrganizationID: contact.OrganizationID,
		TaskType:       string(task.Type),
		DueDate:        task.DueDate,
	})
	return task, nil
}

// Start moves a pending task to IN_PROGRESS. Completion does not require a
// start; this only records that someone picked the task up.
func (s *Service) Start(ctx context.Context, taskID, organizationID uuid.UUID) (domain.Task, error) {
	const op = "tasks.Start"

	task, err := s.store.StartTask(ctx, taskID, organizationID)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domain.Task{}, apperr.NotFound("task not found or not pending").WithOp(op)
	}
	if err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "failed to start task", err).WithOp(op)
	}
	s.log.TaskEvent("started", task.ID.String(), task.ContactID.String(), string(task.Type))
	return task, nil
}

// CompleteOptions control what happens after a task is completed. Reschedule
// recreates the same task type for the next office day; NextTaskType creates
// a different successor instead.
type CompleteOptions struct {
	Reschedule   bool
	NextTaskType *domain.TaskType
}

// Complete marks a task completed, writes a timeline entry, optionally
// creates a successor, and finally runs the safety-net check so the contact
// is never left without an open task.
func (s *Service) Complete(ctx context.Context, taskID, organizationID uuid.UUID, opts CompleteOptions) (domain.Task, error) {
	const op = "tasks.Complete"

	var completed domain.Task
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		task, err := tx.CompleteTask(ctx, taskID, organizationID)
		if errors.Is(err, repository.ErrTaskNotFound) {
			return apperr.NotFound("task not found or not open").WithOp(op)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to complete task", err).WithOp(op)
		}
		completed = task

		contact, err := tx.GetContactByID(ctx, task.ContactID, organizationID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
		}

		if _, err := tx.CreateNote(ctx, repository.CreateNoteParams{
			ContactID: contact.ID,
			Category:  domain.NoteTaskEvent,
			Body:      fmt.Sprintf(repository.NoteTaskCompletedBody, task.Title),
		}); err != nil {
			// Timeline writes are best-effort.
			s.log.Warn("timeline write failed", "contact_id", contact.ID, "error", err)
		}

		settings, err := tx.GetScheduleSettings(ctx, organizationID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp(op)
		}

		successorType := task.Type
		create := opts.Reschedule
		if opts.NextTaskType != nil {
			successorType = *opts.NextTaskType
			create = true
		}
		if create {
			due := officeday.Next(s.now(), settings.OfficeDays)
			if _, err := tx.CreateTask(ctx, repository.CreateTaskParams{
				ContactID:      contact.ID,
				OrganizationID: organizationID,
				Type:           successorType,
				Title:          successorType.TitleFor(contact.Name),
				DueDate:        due,
				Priority:       domain.PriorityNormal,
			}); err != nil {
				return apperr.Wrap(apperr.KindInternal, "failed to create successor task", err).WithOp(op)
			}
			if isFollowUp(successorType) {
				if err := tx.IncrementFollowUpCount(ctx, contact.ID); err != nil {
					s.log.Warn("follow-up counter update failed", "contact_id", contact.ID, "error", err)
				}
			}
		}

		return s.ensureOpenTask(ctx, tx, &contact, settings)
	})
	if err != nil {
		return domain.Task{}, err
	}

	s.log.TaskEvent("completed", completed.ID.String(), completed.ContactID.String(), string(completed.Type))
	s.bus.Publish(ctx, events.TaskCompleted{
		BaseEvent:      events.NewBaseEvent(),
		TaskID:         completed.ID,
		ContactID:      completed.ContactID,
		OrganizationID: completed.OrganizationID,
		TaskType:       string(completed.Type),
	})
	return completed, nil
}

// ensureOpenTask is the safety-net check: if the contact has no open task
// after an operation, recreate the one the decision table prescribes.
func (s *Service) ensureOpenTask(ctx context.Context, tx repository.Store, contact *domain.Contact, settings domain.ScheduleSettings) error {
	open, err := tx.ListOpenTasks(ctx, contact.ID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to list open tasks", err).WithOp("tasks.ensureOpenTask")
	}
	if len(open) > 0 {
		return nil
	}

	next, ok := domain.DecideNextTask(contact)
	if !ok {
		return nil
	}
	due := DueDateFor(next, s.now(), settings, contact)
	_, err = tx.CreateTask(ctx, repository.CreateTaskParams{
		ContactID:      contact.ID,
		OrganizationID: contact.OrganizationID,
		Type:           next.Type,
		Title:          next.Type.TitleFor(contact.Name),
		DueDate:        due,
		Priority:       next.Priority,
	})
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to restore task", err).WithOp("tasks.ensureOpenTask")
	}
	s.log.TaskEvent("restored", "", contact.ID.String(), string(next.Type))
	return nil
}

// Reschedule moves a task to an explicit date, keeping its identity and type.
func (s *Service) Reschedule(ctx context.Context, taskID, organizationID uuid.UUID, dueDate time.Time) (domain.Task, error) {
	const op = "tasks.Reschedule"

	task, err := s.store.RescheduleTask(ctx, taskID, organizationID, dueDate)
	if errors.Is(err, repository.ErrTaskNotFound) {
		return domain.Task{}, apperr.NotFound("task not found or not open").WithOp(op)
	}
	if err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "failed to reschedule task", err).WithOp(op)
	}

	if _, err := s.store.CreateNote(ctx, repository.CreateNoteParams{
		ContactID: task.ContactID,
		Category:  domain.NoteTaskEvent,
		Body:      fmt.Sprintf(repository.NoteTaskRescheduled, task.Title, dueDate.Format("2006-01-02")),
	}); err != nil {
		s.log.Warn("timeline write failed", "contact_id", task.ContactID, "error", err)
	}
	return task, nil
}

// RescheduleByOfficeDays moves a task n office days past today.
func (s *Service) RescheduleByOfficeDays(ctx context.Context, taskID, organizationID uuid.UUID, n int) (domain.Task, error) {
	settings, err := s.store.GetScheduleSettings(ctx, organizationID)
	if err != nil {
		return domain.Task{}, apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp("tasks.RescheduleByOfficeDays")
	}
	due := officeday.NextN(n, s.now(), settings.OfficeDays)
	return s.Reschedule(ctx, taskID, organizationID, due)
}

// BatchResult reports the per-task outcome of a batch reschedule.
type BatchResult struct {
	Updated []uuid.UUID
	Failed  []uuid.UUID
}

// BatchReschedule moves many tasks to one date in a single set-based update.
// Ids that were not open (or not found) are reported in Failed rather than
// failing the batch.
func (s *Service) BatchReschedule(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID, dueDate time.Time) (BatchResult, error) {
	const op = "tasks.BatchReschedule"

	if len(ids) == 0 {
		return BatchResult{}, apperr.Validation("no task ids given").WithOp(op)
	}

	updated, err := s.store.RescheduleTasks(ctx, ids, organizationID, dueDate)
	if err != nil {
		return BatchResult{}, apperr.Wrap(apperr.KindInternal, "failed to reschedule tasks", err).WithOp(op)
	}

	updatedSet := make(map[uuid.UUID]bool, len(updated))
	for _, id := range updated {
		updatedSet[id] = true
	}
	result := BatchResult{Updated: updated}
	for _, id := range ids {
		if !updatedSet[id] {
			result.Failed = append(result.Failed, id)
		}
	}
	return result, nil
}

// BatchRescheduleByOfficeDays resolves n office days from today once, then
// applies the same set-based update.
func (s *Service) BatchRescheduleByOfficeDays(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID, n int) (BatchResult, error) {
	settings, err := s.store.GetScheduleSettings(ctx, organizationID)
	if err != nil {
		return BatchResult{}, apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp("tasks.BatchRescheduleByOfficeDays")
	}
	due := officeday.NextN(n, s.now(), settings.OfficeDays)
	return s.BatchReschedule(ctx, ids, organizationID, due)
}

// ListDue returns open tasks due on or before the given time.
func (s *Service) ListDue(ctx context.Context, organizationID uuid.UUID, dueBy time.Time) ([]domain.Task, error) {
	tasks, err := s.store.ListTasksDueBy(ctx, organizationID, dueBy)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list tasks", err).WithOp("tasks.ListDue")
	}
	return tasks, nil
}

func isFollowUp(t domain.TaskType) bool {
	switch t {
	case domain.TaskFirstMessageFollowUp, domain.TaskQuoteFollowUp,
		domain.TaskClaimRecFollowUp, domain.TaskPAFollowUp,
		domain.TaskClaimFollowUp, domain.TaskSeasonalFollowUp,
		domain.TaskNotInterestedFollowUp:
		return true
	}
	return false
}
