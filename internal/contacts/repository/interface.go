package repository

import (
	"context"
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// ContactReader provides read-only access to contact data.
type ContactReader interface {
	GetContactByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error)
	ListContacts(ctx context.Context, params ListContactsParams) ([]domain.Contact, int, error)
}

// ContactWriter provides write operations for contacts. UpdateContactStage
// carries the optimistic version check used by the transition engine.
type ContactWriter interface {
	CreateContact(ctx context.Context, params CreateContactParams) (domain.Contact, error)
	UpdateContactStage(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, expectedVersion int64, update StageUpdate) (domain.Contact, error)
	IncrementFollowUpCount(ctx context.Context, id uuid.UUID) error
	DeleteContact(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error
}

// TaskReader provides read access to tasks.
type TaskReader interface {
	GetTaskByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error)
	ListOpenTasks(ctx context.Context, contactID uuid.UUID) ([]domain.Task, error)
	ListTasksDueBy(ctx context.Context, organizationID uuid.UUID, dueBy time.Time) ([]domain.Task, error)
	ListContactsWithoutOpenTasks(ctx context.Context, organizationID *uuid.UUID) ([]domain.Contact, error)
}

// TaskWriter provides write operations for tasks, including the bulk cancel
// and set-based batch reschedule used by the lifecycle manager.
type TaskWriter interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (domain.Task, error)
	CancelOpenTasks(ctx context.Context, contactID uuid.UUID) (int, error)
	StartTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error)
	CompleteTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Task, error)
	RescheduleTask(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, dueDate time.Time) (domain.Task, error)
	RescheduleTasks(ctx context.Context, ids []uuid.UUID, organizationID uuid.UUID, dueDate time.Time) ([]uuid.UUID, error)
}

// NoteStore manages the append-only contact timeline.
type NoteStore interface {
	CreateNote(ctx context.Context, params CreateNoteParams) (domain.Note, error)
	ListNotes(ctx context.Context, contactID uuid.UUID, limit int) ([]domain.Note, error)
}

// FileStore manages contact document records.
type FileStore interface {
	CreateFile(ctx context.Context, params CreateFileParams) (domain.ContactFile, error)
	GetFileByID(ctx context.Context, id uuid.UUID, contactID uuid.UUID) (domain.ContactFile, error)
	ListFiles(ctx context.Context, contactID uuid.UUID) ([]domain.ContactFile, error)
}

// StageStore resolves and seeds pipeline stages within an organization.
type StageStore interface {
	GetStageByName(ctx context.Context, organizationID uuid.UUID, name domain.StageName) (domain.Stage, error)
	ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error)
	SeedStages(ctx context.Context, organizationID uuid.UUID, stages []domain.Stage) error
	CountStages(ctx context.Context, organizationID uuid.UUID) (int, error)
}

// SettingsReader exposes the organization schedule configuration.
type SettingsReader interface {
	GetScheduleSettings(ctx context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error)
}

// =====================================
// Composite Interface
// =====================================

// Store is the complete persistence surface of the contacts feature.
// WithinTx hands the callback a Store bound to a single transaction; the
// transition engine runs its four-step protocol through it.
type Store interface {
	ContactReader
	ContactWriter
	TaskReader
	TaskWriter
	NoteStore
	FileStore
	StageStore
	SettingsReader

	WithinTx(ctx context.Context, fn func(Store) error) error
}

// Ensure Repository implements Store
var _ Store = (*Repository)(nil)
