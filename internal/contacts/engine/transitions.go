package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/officeday"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/internal/scheduler"
	"rooftrack_backend/platform/apperr"

	"github.com/google/uuid"
)

// InspectionOutcome is the result of an on-site inspection.
type InspectionOutcome string

const (
	OutcomeRetail InspectionOutcome = "retail"
	OutcomeClaim  InspectionOutcome = "claim"
)

// TerminalTarget is a terminal stage chosen by the user.
type TerminalTarget string

const (
	TargetApproved      TerminalTarget = "approved"
	TargetSeasonal      TerminalTarget = "seasonal"
	TargetNotInterested TerminalTarget = "not_interested"
)

func stageChangeNote(from, to domain.StageName) repository.CreateNoteParams {
	return repository.CreateNoteParams{
		Category: domain.NoteStageChange,
		Body:     fmt.Sprintf(repository.NoteStageChanged, from.Label(), to.Label()),
	}
}

func userNote(body string) *repository.CreateNoteParams {
	if body == "" {
		return nil
	}
	return &repository.CreateNoteParams{Category: domain.NoteGeneral, Body: body}
}

// TransitionToScheduledInspection books an inspection appointment and moves
// the contact out of NEW_LEAD. The calendar notification is fire-and-forget.
func (s *Service) TransitionToScheduledInspection(ctx context.Context, organizationID, contactID uuid.UUID, appointmentTime time.Time, notes string) (domain.Contact, error) {
	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		m := mutation{target: domain.StageScheduledInspection}
		m.update.AppointmentTime = &appointmentTime
		m.notes = append(m.notes,
			stageChangeNote(c.StageName, domain.StageScheduledInspection),
			repository.CreateNoteParams{
				Category: domain.NoteAppointment,
				Body:     fmt.Sprintf(repository.NoteAppointmentBooked, appointmentTime.Format("2006-01-02 15:04")),
			},
		)
		if n := userNote(notes); n != nil {
			m.notes = append(m.notes, *n)
		}
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}

	contact := result.contact
	s.bus.Publish(ctx, events.AppointmentScheduled{
		BaseEvent:      events.NewBaseEvent(),
		ContactID:      contact.ID,
		OrganizationID: organizationID,
		ContactName:    contact.Name,
		Title:          fmt.Sprintf("Roof inspection: %s", contact.Name),
		Description:    notes,
		Location:       contact.Address,
		StartTime:      appointmentTime,
		ContactEmail:   contact.Email,
		ContactPhone:   contact.Phone,
	})

	if s.reminders != nil {
		reminderAt := appointmentTime.Add(-24 * time.Hour)
		if reminderAt.After(s.now()) {
			err := s.reminders.ScheduleAppointmentReminder(ctx, scheduler.AppointmentReminderPayload{
				ContactID:      contact.ID.String(),
				OrganizationID: organizationID.String(),
			}, reminderAt)
			if err != nil {
				s.log.Error("failed to queue appointment reminder", "contact_id", contact.ID, "error", err)
			}
		}
	}
	return contact, nil
}

// AfterInspectionParams carries the outcome-specific fields recorded when a
// status is assigned after inspection.
type AfterInspectionParams struct {
	Outcome    InspectionOutcome
	Notes      string
	QuoteType  *string
	Carrier    *string
	DateOfLoss *time.Time
}

// TransitionAfterInspection assigns the contact to the retail or claim track.
func (s *Service) TransitionAfterInspection(ctx context.Context, organizationID, contactID uuid.UUID, params AfterInspectionParams) (domain.Contact, error) {
	const op = "engine.TransitionAfterInspection"

	var target domain.StageName
	switch params.Outcome {
	case OutcomeRetail:
		target = domain.StageRetailProspect
	case OutcomeClaim:
		target = domain.StageClaimProspect
	default:
		return domain.Contact{}, apperr.Validation("outcome must be retail or claim").WithOp(op)
	}

	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		m := mutation{target: target}
		m.update.QuoteType = params.QuoteType
		m.update.Carrier = params.Carrier
		m.update.DateOfLoss = params.DateOfLoss
		m.notes = append(m.notes, stageChangeNote(c.StageName, target))
		if params.Carrier != nil && params.DateOfLoss != nil {
			m.notes = append(m.notes, repository.CreateNoteParams{
				Category: domain.NoteClaimInfo,
				Body:     fmt.Sprintf(repository.NoteClaimInfoRecorded, *params.Carrier, params.DateOfLoss.Format("2006-01-02")),
			})
		}
		if n := userNote(params.Notes); n != nil {
			m.notes = append(m.notes, *n)
		}
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return result.contact, nil
}

// markSent factors the shared shape of the four artifact-sent operations:
// same stage, one timestamp set, old task cancelled, follow-up task created.
func (s *Service) markSent(ctx context.Context, organizationID, contactID uuid.UUID, requiredStage domain.StageName, artifact string, apply func(*domain.Contact, *repository.StageUpdate) error) (domain.Contact, error) {
	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		if c.StageName != requiredStage {
			return mutation{}, apperr.Precondition(
				fmt.Sprintf("contact must be in %s to mark %s sent", requiredStage.Label(), artifact),
			).WithOp("engine.markSent")
		}
		m := mutation{target: c.StageName}
		if err := apply(c, &m.update); err != nil {
			return mutation{}, err
		}
		m.notes = append(m.notes, repository.CreateNoteParams{
			Category: domain.NoteTaskEvent,
			Body:     fmt.Sprintf(repository.NoteArtifactSent, artifact),
		})
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return result.contact, nil
}

// MarkFirstMessageSent records the first outreach and starts the follow-up
// cycle within NEW_LEAD.
func (s *Service) MarkFirstMessageSent(ctx context.Context, organizationID, contactID uuid.UUID) (domain.Contact, error) {
	return s.markSent(ctx, organizationID, contactID, domain.StageNewLead, "First message",
		func(c *domain.Contact, u *repository.StageUpdate) error {
			now := s.now()
			u.FirstMessageSentAt = &now
			return nil
		})
}

// MarkQuoteSent records a quote going out to a retail prospect.
func (s *Service) MarkQuoteSent(ctx context.Context, organizationID, contactID uuid.UUID, quoteType *string) (domain.Contact, error) {
	return s.markSent(ctx, organizationID, contactID, domain.StageRetailProspect, "Quote",
		func(c *domain.Contact, u *repository.StageUpdate) error {
			now := s.now()
			u.QuoteSentAt = &now
			u.QuoteType = quoteType
			return nil
		})
}

// ClaimInfo carries the insurance details recorded alongside claim-track
// transitions. Nil fields leave the stored values untouched.
type ClaimInfo struct {
	Carrier      *string
	DateOfLoss   *time.Time
	PolicyNumber *string
	ClaimNumber  *string
}

// MarkClaimRecSent records the claim recommendation going out. Carrier and
// date of loss must be known first; that is the one business precondition
// the engine enforces itself.
func (s *Service) MarkClaimRecSent(ctx context.Context, organizationID, contactID uuid.UUID, info ClaimInfo) (domain.Contact, error) {
	const op = "engine.MarkClaimRecSent"
	return s.markSent(ctx, organizationID, contactID, domain.StageClaimProspect, "Claim recommendation",
		func(c *domain.Contact, u *repository.StageUpdate) error {
			haveCarrier := info.Carrier != nil || c.Carrier != nil
			haveDOL := info.DateOfLoss != nil || c.DateOfLoss != nil
			if !haveCarrier || !haveDOL {
				return apperr.Precondition("carrier and date of loss are required before sending a claim recommendation").WithOp(op)
			}
			now := s.now()
			u.ClaimRecSentAt = &now
			u.Carrier = info.Carrier
			u.DateOfLoss = info.DateOfLoss
			u.PolicyNumber = info.PolicyNumber
			u.ClaimNumber = info.ClaimNumber
			return nil
		})
}

// MarkPASent records the public adjuster agreement going out.
func (s *Service) MarkPASent(ctx context.Context, organizationID, contactID uuid.UUID) (domain.Contact, error) {
	return s.markSent(ctx, organizationID, contactID, domain.StageClaimProspect, "PA agreement",
		func(c *domain.Contact, u *repository.StageUpdate) error {
			now := s.now()
			u.PASentAt = &now
			return nil
		})
}

// TransitionToOpenClaim moves a claim prospect to OPEN_CLAIM once a signed
// PA document is on file. The file must exist and be flagged as a PA
// document.
func (s *Service) TransitionToOpenClaim(ctx context.Context, organizationID, contactID, fileID uuid.UUID) (domain.Contact, error) {
	const op = "engine.TransitionToOpenClaim"

	file, err := s.store.GetFileByID(ctx, fileID, contactID)
	if errors.Is(err, repository.ErrFileNotFound) {
		return domain.Contact{}, apperr.NotFound("file not found").WithOp(op)
	}
	if err != nil {
		return domain.Contact{}, apperr.Wrap(apperr.KindInternal, "failed to load file", err).WithOp(op)
	}
	if !file.IsPADocument {
		return domain.Contact{}, apperr.Precondition("file is not a signed PA document").WithOp(op)
	}

	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		if c.StageName != domain.StageClaimProspect {
			return mutation{}, apperr.Precondition("only claim prospects can open a claim").WithOp(op)
		}
		m := mutation{target: domain.StageOpenClaim}
		m.notes = append(m.notes,
			stageChangeNote(c.StageName, domain.StageOpenClaim),
			repository.CreateNoteParams{
				Category: domain.NoteClaimInfo,
				Body:     fmt.Sprintf(repository.NotePADocumentUploaded, file.FileName),
			},
		)
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return result.contact, nil
}

// TransitionToTerminal moves a contact to APPROVED, SEASONAL, or
// NOT_INTERESTED.
func (s *Service) TransitionToTerminal(ctx context.Context, organizationID, contactID uuid.UUID, target TerminalTarget, notes string) (domain.Contact, error) {
	const op = "engine.TransitionToTerminal"

	// SEASONAL stores its reminder date on the contact; read the schedule
	// settings up front since the target date is part of the mutation.
	settings, err := s.store.GetScheduleSettings(ctx, organizationID)
	if err != nil {
		return domain.Contact{}, apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp(op)
	}

	var stageName domain.StageName
	switch target {
	case TargetApproved:
		stageName = domain.StageApproved
	case TargetSeasonal:
		stageName = domain.StageSeasonal
	case TargetNotInterested:
		stageName = domain.StageNotInterested
	default:
		return domain.Contact{}, apperr.Validation("target must be approved, seasonal, or not_interested").WithOp(op)
	}

	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		m := mutation{target: stageName}
		switch stageName {
		case domain.StageApproved:
			scheduled := domain.JobScheduled
			m.update.JobStatus = &scheduled
		case domain.StageSeasonal:
			month := settings.SeasonalFollowUpMonth
			day := settings.SeasonalFollowUpDay
			if month == 0 || day == 0 {
				month, day = time.March, 1
			}
			reminder := officeday.SeasonalFollowUp(month, day, s.now(), settings.OfficeDays)
			m.update.SeasonalReminderDate = &reminder
		}
		m.notes = append(m.notes, stageChangeNote(c.StageName, stageName))
		if n := userNote(notes); n != nil {
			m.notes = append(m.notes, *n)
		}
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return result.contact, nil
}

// UpdateJobStatus advances the nested job state machine inside APPROVED.
// Status only moves forward: SCHEDULED, IN_PROGRESS, COMPLETED.
func (s *Service) UpdateJobStatus(ctx context.Context, organizationID, contactID uuid.UUID, status domain.JobStatus, date *time.Time) (domain.Contact, error) {
	const op = "engine.UpdateJobStatus"

	result, err := s.transition(ctx, organizationID, contactID, func(c *domain.Contact) (mutation, error) {
		if c.StageName != domain.StageApproved {
			return mutation{}, apperr.Precondition("job status applies only to approved contacts").WithOp(op)
		}
		current := domain.JobScheduled
		if c.JobStatus != nil {
			current = *c.JobStatus
		}
		if jobRank(status) < jobRank(current) {
			return mutation{}, apperr.Precondition(
				fmt.Sprintf("job status cannot move from %s back to %s", current, status),
			).WithOp(op)
		}

		m := mutation{target: domain.StageApproved}
		m.update.JobStatus = &status
		m.update.JobDate = date
		m.notes = append(m.notes, repository.CreateNoteParams{
			Category: domain.NoteTaskEvent,
			Body:     fmt.Sprintf(repository.NoteJobStatusChanged, status),
		})
		return m, nil
	})
	if err != nil {
		return domain.Contact{}, err
	}
	return result.contact, nil
}

func jobRank(s domain.JobStatus) int {
	switch s {
	case domain.JobScheduled:
		return 0
	case domain.JobInProgress:
		return 1
	case domain.JobCompleted:
		return 2
	default:
		return -1
	}
}
