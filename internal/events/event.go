package events

import (
	"time"

	"github.com/google/uuid"
)

// StageChanged is published after a contact completes a stage transition.
type StageChanged struct {
	BaseEvent
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	OldStage       string
	NewStage       string
}

func (StageChanged) EventName() string { return "contact.stage_changed" }

// TaskCreated is published when a new workflow task is persisted.
type TaskCreated struct {
	BaseEvent
	TaskID         uuid.UUID
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	TaskType       string
	DueDate        time.Time
}

func (TaskCreated) EventName() string { return "task.created" }

// TaskCompleted is published when a task is marked completed.
type TaskCompleted struct {
	BaseEvent
	TaskID         uuid.UUID
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	TaskType       string
}

func (TaskCompleted) EventName() string { return "task.completed" }

// AppointmentScheduled is published after an inspection appointment task is
// created. The notification module forwards it to the calendar-sync webhook
// and sends the confirmation message; failures there never roll back the
// stage transition.
type AppointmentScheduled struct {
	BaseEvent
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	ContactName    string
	Title          string
	Description    string
	Location       string
	StartTime      time.Time
	ContactEmail   *string
	ContactPhone   string
}

func (AppointmentScheduled) EventName() string { return "appointment.scheduled" }

// ContactReconciled is published when the reconciliation sweeper restores a
// missing task for a contact.
type ContactReconciled struct {
	BaseEvent
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	Stage          string
	TaskType       string
}

func (ContactReconciled) EventName() string { return "contact.reconciled" }

// OrganizationProvisioned is published after an organization is created with
// its default stages and schedule settings.
type OrganizationProvisioned struct {
	BaseEvent
	OrganizationID uuid.UUID
	Name           string
}

func (OrganizationProvisioned) EventName() string { return "organization.provisioned" }
