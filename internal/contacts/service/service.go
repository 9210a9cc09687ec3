// Package service implements contact CRUD and read-side composition: every
// contact read recomputes its action-button hint from the open task instead
// of trusting a stored value.
package service

import (
	"context"
	"errors"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/engine"
	"rooftrack_backend/internal/contacts/officeday"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"
	"rooftrack_backend/platform/phone"

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

// WithClock overrides the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ContactDetail pairs a contact with its open task and the action hint
// derived from it.
type ContactDetail struct {
	Contact  domain.Contact
	OpenTask *domain.Task
	Action   domain.ActionHint
}

type CreateParams struct {
	Name    string
	Email   *string
	Phone   string
	Address string
}

// Create inserts a contact in NEW_LEAD and queues its first-message task, all
// in one transaction.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, params CreateParams) (ContactDetail, error) {
	const op = "contacts.Create"

	normalized := phone.NormalizeE164(params.Phone)
	if normalized == "" {
		return ContactDetail{}, apperr.Validation("invalid phone number").WithOp(op)
	}

	var detail ContactDetail
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		stage, err := engine.ResolveStage(ctx, tx, organizationID, domain.StageNewLead)
		if err != nil {
			return err
		}

		contact, err := tx.CreateContact(ctx, repository.CreateContactParams{
			OrganizationID: organizationID,
			Name:           params.Name,
			Email:          params.Email,
			Phone:          normalized,
			Address:        params.Address,
			StageID:        stage.ID,
			StageName:      stage.Name,
			StageOrder:     stage.DisplayOrder,
		})
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to create contact", err).WithOp(op)
		}

		settings, err := tx.GetScheduleSettings(ctx, organizationID)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp(op)
		}

		next, _ := domain.DecideNextTask(&contact)
		task, err := tx.CreateTask(ctx, repository.CreateTaskParams{
			ContactID:      contact.ID,
			OrganizationID: organizationID,
			Type:           next.Type,
			Title:          next.Type.TitleFor(contact.Name),
			DueDate:        officeday.Enforce(s.now(), settings.OfficeDays),
			Priority:       next.Priority,
		})
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to create initial task", err).WithOp(op)
		}

		detail = ContactDetail{Contact: contact, OpenTask: &task, Action: task.Type.Action()}
		return nil
	})
	if err != nil {
		return ContactDetail{}, err
	}

	s.log.Info("contact created", "contact_id", detail.Contact.ID, "organization_id", organizationID)
	return detail, nil
}

// Get returns a contact with its open task and recomputed action hint.
func (s *Service) Get(ctx context.Context, id, organizationID uuid.UUID) (ContactDetail, error) {
	const op = "contacts.Get"

	contact, err := s.store.GetContactByID(ctx, id, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		return ContactDetail{}, apperr.NotFound("contact not found").WithOp(op)
	}
	if err != nil {
		return ContactDetail{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}
	return s.withAction(ctx, contact)
}

// List returns contacts with per-contact action hints.
func (s *Service) List(ctx context.Context, params repository.ListContactsParams) ([]ContactDetail, int, error) {
	const op = "contacts.List"

	contacts, total, err := s.store.ListContacts(ctx, params)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "failed to list contacts", err).WithOp(op)
	}

	details := make([]ContactDetail, 0, len(contacts))
	for _, contact := range contacts {
		detail, err := s.withAction(ctx, contact)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, detail)
	}
	return details, total, nil
}

func (s *Service) withAction(ctx context.Context, contact domain.Contact) (ContactDetail, error) {
	open, err := s.store.ListOpenTasks(ctx, contact.ID)
	if err != nil {
		return ContactDetail{}, apperr.Wrap(apperr.KindInternal, "failed to load open tasks", err).WithOp("contacts.withAction")
	}
	detail := ContactDetail{Contact: contact, Action: domain.ActionNone}
	if len(open) > 0 {
		detail.OpenTask = &open[0]
		detail.Action = open[0].Type.Action()
	}
	return detail, nil
}

// AddNote appends a user-authored timeline entry.
func (s *Service) AddNote(ctx context.Context, contactID, organizationID uuid.UUID, authorID *uuid.UUID, body string) (domain.Note, error) {
	const op = "contacts.AddNote"

	if _, err := s.store.GetContactByID(ctx, contactID, organizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Note{}, apperr.NotFound("contact not found").WithOp(op)
		}
		return domain.Note{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}

	note, err := s.store.CreateNote(ctx, repository.CreateNoteParams{
		ContactID: contactID,
		AuthorID:  authorID,
		Category:  domain.NoteGeneral,
		Body:      body,
	})
	if err != nil {
		return domain.Note{}, apperr.Wrap(apperr.KindInternal, "failed to create note", err).WithOp(op)
	}
	return note, nil
}

// Timeline returns the newest timeline entries for a contact.
func (s *Service) Timeline(ctx context.Context, contactID, organizationID uuid.UUID, limit int) ([]domain.Note, error) {
	const op = "contacts.Timeline"

	if _, err := s.store.GetContactByID(ctx, contactID, organizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("contact not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}

	notes, err := s.store.ListNotes(ctx, contactID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list notes", err).WithOp(op)
	}
	return notes, nil
}

type AttachFileParams struct {
	FileName     string
	ContentType  string
	SizeBytes    int64
	IsPADocument bool
	UploadedBy   *uuid.UUID
}

// AttachFile records an uploaded document on a contact.
func (s *Service) AttachFile(ctx context.Context, contactID, organizationID uuid.UUID, params AttachFileParams) (domain.ContactFile, error) {
	const op = "contacts.AttachFile"

	if _, err := s.store.GetContactByID(ctx, contactID, organizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ContactFile{}, apperr.NotFound("contact not found").WithOp(op)
		}
		return domain.ContactFile{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}

	file, err := s.store.CreateFile(ctx, repository.CreateFileParams{
		ContactID:    contactID,
		FileName:     params.FileName,
		ContentType:  params.ContentType,
		SizeBytes:    params.SizeBytes,
		IsPADocument: params.IsPADocument,
		UploadedBy:   params.UploadedBy,
	})
	if err != nil {
		return domain.ContactFile{}, apperr.Wrap(apperr.KindInternal, "failed to record file", err).WithOp(op)
	}
	return file, nil
}

// ListFiles returns a contact's document records.
func (s *Service) ListFiles(ctx context.Context, contactID, organizationID uuid.UUID) ([]domain.ContactFile, error) {
	const op = "contacts.ListFiles"

	if _, err := s.store.GetContactByID(ctx, contactID, organizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("contact not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load contact", err).WithOp(op)
	}

	files, err := s.store.ListFiles(ctx, contactID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list files", err).WithOp(op)
	}
	return files, nil
}

// Delete soft-deletes a contact. Its open tasks are cancelled so the sweeper
// does not resurrect work for a deleted record.
func (s *Service) Delete(ctx context.Context, id, organizationID uuid.UUID) error {
	const op = "contacts.Delete"

	return s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.CancelOpenTasks(ctx, id); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to cancel tasks", err).WithOp(op)
		}
		err := tx.DeleteContact(ctx, id, organizationID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("contact not found").WithOp(op)
		}
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to delete contact", err).WithOp(op)
		}
		return nil
	})
}
