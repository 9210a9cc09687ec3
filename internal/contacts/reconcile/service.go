// Package reconcile implements the self-healing sweep that restores workflow
// tasks for contacts that lost theirs to a bug or a manual data edit. The
// sweep re-enters the same decision table used by normal transitions, so a
// repaired contact is indistinguishable from one that never broke.
package reconcile

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/contacts/tasks"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// repairConcurrency bounds how many contacts are repaired in parallel.
const repairConcurrency = 8

type Service struct {
	store repository.Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time
}

func New(store repository.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RepairedContact describes one fix the sweep made.
type RepairedContact struct {
	ContactID uuid.UUID `json:"contactId"`
	Name      string    `json:"name"`
	Stage     string    `json:"stage"`
	TaskType  string    `json:"taskType"`
	DueDate   time.Time `json:"dueDate"`
}

// Result summarizes one sweep run.
type Result struct {
	Processed int               `json:"processed"`
	Repaired  []RepairedContact `json:"repaired"`
	Failed    int               `json:"failed"`
}

// CheckContactsWithoutTasks scans for contacts with zero open tasks and
// restores the task the decision table prescribes. Passing a nil
// organizationID sweeps every organization.
//
// The sweep is idempotent: each repair re-checks the contact's open tasks
// inside its own transaction, so a second run right after the first finds
// nothing to do. Per-contact failures are logged and counted, never allowed
// to abort the rest of the sweep.
func (s *Service) CheckContactsWithoutTasks(ctx context.Context, organizationID *uuid.UUID) (Result, error) {
	const op = "reconcile.CheckContactsWithoutTasks"

	candidates, err := s.store.ListContactsWithoutOpenTasks(ctx, organizationID)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to scan contacts", err).WithOp(op)
	}

	repaired := make([]*RepairedContact, len(candidates))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repairConcurrency)
	for i, contact := range candidates {
		g.Go(func() error {
			fix, err := s.repair(gctx, contact)
			if err != nil {
				s.log.Warn("reconciliation failed for contact",
					"contact_id", contact.ID, "stage", contact.StageName, "error", err)
				failed.Add(1)
				return nil
			}
			repaired[i] = fix
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Processed: len(candidates), Failed: int(failed.Load())}
	for _, fix := range repaired {
		if fix != nil {
			result.Repaired = append(result.Repaired, *fix)
		}
	}
	s.log.SweepResult(result.Processed, len(result.Repaired), result.Failed)
	return result, nil
}

// repair restores the missing task for one contact. Returns nil when the
// contact turned out not to need one (a task appeared since the scan, or the
// stage has no prescribed task).
func (s *Service) repair(ctx context.Context, contact domain.Contact) (*RepairedContact, error) {
	var fix *RepairedContact

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		// Re-check inside the transaction; a concurrent transition may have
		// created a task since the scan ran.
		open, err := tx.ListOpenTasks(ctx, contact.ID)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return nil
		}

		next, ok := domain.DecideNextTask(&contact)
		if !ok {
			return nil
		}

		settings, err := tx.GetScheduleSettings(ctx, contact.OrganizationID)
		if err != nil {
			return err
		}

		due := tasks.DueDateFor(next, s.now(), settings, &contact)
		task, err := tx.CreateTask(ctx, repository.CreateTaskParams{
			ContactID:      contact.ID,
			OrganizationID: contact.OrganizationID,
			Type:           next.Type,
			Title:          next.Type.TitleFor(contact.Name),
			DueDate:        due,
			Priority:       next.Priority,
		})
		if err != nil {
			return err
		}

		if _, err := tx.CreateNote(ctx, repository.CreateNoteParams{
			ContactID: contact.ID,
			Category:  domain.NoteTaskEvent,
			Body:      fmt.Sprintf(repository.NoteTaskRestored, task.Title),
		}); err != nil {
			s.log.Warn("timeline write failed", "contact_id", contact.ID, "error", err)
		}

		fix = &RepairedContact{
			ContactID: contact.ID,
			Name:      contact.Name,
			Stage:     string(contact.StageName),
			TaskType:  string(task.Type),
			DueDate:   task.DueDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fix != nil {
		s.bus.Publish(ctx, events.ContactReconciled{
			BaseEvent:      events.NewBaseEvent(),
			ContactID:      contact.ID,
			OrganizationID: contact.OrganizationID,
			Stage:          fix.Stage,
			TaskType:       fix.TaskType,
		})
	}
	return fix, nil
}
