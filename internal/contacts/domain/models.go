package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a homeowner record moving through the pipeline. Version is an
// optimistic concurrency token: every stage transition checks and increments
// it, so a double-submit loses cleanly instead of leaving two open tasks.
type Contact struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Email          *string
	Phone          string
	Address        string

	StageID    uuid.UUID
	StageName  StageName
	StageOrder int
	Version    int64

	FirstMessageSentAt *time.Time
	QuoteSentAt        *time.Time
	ClaimRecSentAt     *time.Time
	PASentAt           *time.Time

	QuoteType            *string
	Carrier              *string
	DateOfLoss           *time.Time
	PolicyNumber         *string
	ClaimNumber          *string
	JobStatus            *JobStatus
	JobDate              *time.Time
	AppointmentTime      *time.Time
	SeasonalReminderDate *time.Time

	FollowUpCount int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Stage is one organization-owned pipeline column.
type Stage struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           StageName
	Type           StageType
	DisplayOrder   int
	CreatedAt      time.Time
}

// Task is a unit of pending work attached to a contact.
type Task struct {
	ID             uuid.UUID
	ContactID      uuid.UUID
	OrganizationID uuid.UUID
	Type           TaskType
	Title          string
	Status         TaskStatus
	DueDate        time.Time

	AppointmentTime *time.Time
	Priority        TaskPriority

	CompletedAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPriority orders tasks within a day's work list.
type TaskPriority string

const (
	PriorityNormal TaskPriority = "NORMAL"
	PriorityLow    TaskPriority = "LOW"
)

// Note is an append-only timeline entry on a contact.
type Note struct {
	ID        uuid.UUID
	ContactID uuid.UUID
	AuthorID  *uuid.UUID
	Category  NoteCategory
	Body      string
	CreatedAt time.Time
}

// NoteCategory classifies timeline entries for filtering.
type NoteCategory string

const (
	NoteStageChange NoteCategory = "STAGE_CHANGE"
	NoteTaskEvent   NoteCategory = "TASK_EVENT"
	NoteAppointment NoteCategory = "APPOINTMENT"
	NoteClaimInfo   NoteCategory = "CLAIM_INFO"
	NoteGeneral     NoteCategory = "GENERAL"
)

// ContactFile is an uploaded document attached to a contact. Uploading a file
// flagged as a PA document drives the CLAIM_PROSPECT → OPEN_CLAIM transition.
type ContactFile struct {
	ID           uuid.UUID
	ContactID    uuid.UUID
	FileName     string
	ContentType  string
	SizeBytes    int64
	IsPADocument bool
	UploadedBy   *uuid.UUID
	CreatedAt    time.Time
}

// ScheduleSettings is the organization's office-day calendar configuration.
// Weekdays use time.Weekday indices (Sunday=0).
type ScheduleSettings struct {
	OrganizationID        uuid.UUID
	OfficeDays            []time.Weekday
	InspectionDays        []time.Weekday
	SeasonalFollowUpMonth time.Month
	SeasonalFollowUpDay   int
	UpdatedAt             time.Time
}

// Organization is the tenant boundary. Stages and settings hang off it.
type Organization struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
