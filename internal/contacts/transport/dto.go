// Package transport defines the request and response shapes of the contacts
// and tasks API.
package transport

import (
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/service"

	"github.com/google/uuid"
)

type CreateContactRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=160"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"required,min=7,max=24"`
	Address string  `json:"address" validate:"required,min=4,max=240"`
}

type TaskResponse struct {
	ID              uuid.UUID  `json:"id"`
	ContactID       uuid.UUID  `json:"contactId"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	DueDate         time.Time  `json:"dueDate"`
	AppointmentTime *time.Time `json:"appointmentTime,omitempty"`
	Priority        string     `json:"priority"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

func ToTaskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:              t.ID,
		ContactID:       t.ContactID,
		Type:            string(t.Type),
		Title:           t.Title,
		Status:          string(t.Status),
		DueDate:         t.DueDate,
		AppointmentTime: t.AppointmentTime,
		Priority:        string(t.Priority),
		CompletedAt:     t.CompletedAt,
	}
}

type ContactResponse struct {
	ID                   uuid.UUID     `json:"id"`
	Name                 string        `json:"name"`
	Email                *string       `json:"email,omitempty"`
	Phone                string        `json:"phone"`
	Address              string        `json:"address"`
	Stage                string        `json:"stage"`
	StageOrder           int           `json:"stageOrder"`
	Version              int64         `json:"version"`
	CurrentAction        string        `json:"currentAction"`
	OpenTask             *TaskResponse `json:"openTask,omitempty"`
	FirstMessageSentAt   *time.Time    `json:"firstMessageSentAt,omitempty"`
	QuoteSentAt          *time.Time    `json:"quoteSentAt,omitempty"`
	ClaimRecSentAt       *time.Time    `json:"claimRecSentAt,omitempty"`
	PASentAt             *time.Time    `json:"paSentAt,omitempty"`
	QuoteType            *string       `json:"quoteType,omitempty"`
	Carrier              *string       `json:"carrier,omitempty"`
	DateOfLoss           *time.Time    `json:"dateOfLoss,omitempty"`
	PolicyNumber         *string       `json:"policyNumber,omitempty"`
	ClaimNumber          *string       `json:"claimNumber,omitempty"`
	JobStatus            *string       `json:"jobStatus,omitempty"`
	JobDate              *time.Time    `json:"jobDate,omitempty"`
	AppointmentTime      *time.Time    `json:"appointmentTime,omitempty"`
	SeasonalReminderDate *time.Time    `json:"seasonalReminderDate,omitempty"`
	FollowUpCount        int           `json:"followUpCount"`
	CreatedAt            time.Time     `json:"createdAt"`
}

func ToContactResponse(detail service.ContactDetail) ContactResponse {
	c := detail.Contact
	resp := ContactResponse{
		ID:                   c.ID,
		Name:                 c.Name,
		Email:                c.Email,
		Phone:                c.Phone,
		Address:              c.Address,
		Stage:                string(c.StageName),
		StageOrder:           c.StageOrder,
		Version:              c.Version,
		CurrentAction:        string(detail.Action),
		FirstMessageSentAt:   c.FirstMessageSentAt,
		QuoteSentAt:          c.QuoteSentAt,
		ClaimRecSentAt:       c.ClaimRecSentAt,
		PASentAt:             c.PASentAt,
		QuoteType:            c.QuoteType,
		Carrier:              c.Carrier,
		DateOfLoss:           c.DateOfLoss,
		PolicyNumber:         c.PolicyNumber,
		ClaimNumber:          c.ClaimNumber,
		JobDate:              c.JobDate,
		AppointmentTime:      c.AppointmentTime,
		SeasonalReminderDate: c.SeasonalReminderDate,
		FollowUpCount:        c.FollowUpCount,
		CreatedAt:            c.CreatedAt,
	}
	if c.JobStatus != nil {
		status := string(*c.JobStatus)
		resp.JobStatus = &status
	}
	if detail.OpenTask != nil {
		task := ToTaskResponse(*detail.OpenTask)
		resp.OpenTask = &task
	}
	return resp
}

type ListContactsResponse struct {
	Contacts []ContactResponse `json:"contacts"`
	Total    int               `json:"total"`
}

type ScheduleInspectionRequest struct {
	AppointmentTime time.Time `json:"appointmentTime" validate:"required"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

type AfterInspectionRequest struct {
	Outcome    string     `json:"outcome" validate:"required,oneof=retail claim"`
	Notes      string     `json:"notes" validate:"max=2000"`
	QuoteType  *string    `json:"quoteType" validate:"omitempty,max=80"`
	Carrier    *string    `json:"carrier" validate:"omitempty,max=120"`
	DateOfLoss *time.Time `json:"dateOfLoss"`
}

type QuoteSentRequest struct {
	QuoteType *string `json:"quoteType" validate:"omitempty,max=80"`
}

type ClaimRecSentRequest struct {
	Carrier      *string    `json:"carrier" validate:"omitempty,max=120"`
	DateOfLoss   *time.Time `json:"dateOfLoss"`
	PolicyNumber *string    `json:"policyNumber" validate:"omitempty,max=80"`
	ClaimNumber  *string    `json:"claimNumber" validate:"omitempty,max=80"`
}

type OpenClaimRequest struct {
	FileID uuid.UUID `json:"fileId" validate:"required"`
}

type TerminalRequest struct {
	Target string `json:"target" validate:"required,oneof=approved seasonal not_interested"`
	Notes  string `json:"notes" validate:"max=2000"`
}

type JobStatusRequest struct {
	Status string     `json:"status" validate:"required,oneof=SCHEDULED IN_PROGRESS COMPLETED"`
	Date   *time.Time `json:"date"`
}

type CompleteTaskRequest struct {
	Reschedule   bool    `json:"reschedule"`
	NextTaskType *string `json:"nextTaskType" validate:"omitempty,max=40"`
}

type RescheduleTaskRequest struct {
	DueDate    *time.Time `json:"dueDate"`
	OfficeDays *int       `json:"officeDays" validate:"omitempty,min=1,max=30"`
}

type BatchRescheduleRequest struct {
	TaskIDs    []uuid.UUID `json:"taskIds" validate:"required,min=1,max=500"`
	DueDate    *time.Time  `json:"dueDate"`
	OfficeDays *int        `json:"officeDays" validate:"omitempty,min=1,max=30"`
}

type BatchRescheduleResponse struct {
	Updated []uuid.UUID `json:"updated"`
	Failed  []uuid.UUID `json:"failed"`
}

type CreateNoteRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	Category  string     `json:"category"`
	Body      string     `json:"body"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func ToNoteResponse(n domain.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Category:  string(n.Category),
		Body:      n.Body,
		AuthorID:  n.AuthorID,
		CreatedAt: n.CreatedAt,
	}
}

type AttachFileRequest struct {
	FileName     string `json:"fileName" validate:"required,max=255"`
	ContentType  string `json:"contentType" validate:"required,max=120"`
	SizeBytes    int64  `json:"sizeBytes" validate:"required,min=1"`
	IsPADocument bool   `json:"isPaDocument"`
}

type FileResponse struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"fileName"`
	ContentType  string    `json:"contentType"`
	SizeBytes    int64     `json:"sizeBytes"`
	IsPADocument bool      `json:"isPaDocument"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToFileResponse(f domain.ContactFile) FileResponse {
	return FileResponse{
		ID:           f.ID,
		FileName:     f.FileName,
		ContentType:  f.ContentType,
		SizeBytes:    f.SizeBytes,
		IsPADocument: f.IsPADocument,
		CreatedAt:    f.CreatedAt,
	}
}

type PreviewMessageRequest struct {
	Category string `json:"category" validate:"required,oneof=first_message follow_up appointment_confirmation seasonal_reach_out"`
}

type PreviewMessageResponse struct {
	Text string `json:"text"`
}
