// Package notification subscribes to workflow events and delivers the
// outward-facing side effects: appointment confirmation emails and
// calendar-sync webhook pushes. It inverts the dependency so the workflow
// engine never needs to know about SMTP or webhooks, and its failures never
// roll back a stage transition.
package notification

import (
	"context"
	"errors"
	"fmt"

	"rooftrack_backend/internal/contacts/compose"
	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/config"
	"rooftrack_backend/platform/logger"
)

const subjectAppointmentConfirmation = "Your roof inspection is confirmed"

type Module struct {
	sender      Sender
	calendar    *CalendarClient
	companyName string
	log         *logger.Logger
}

// NewModule wires the email sender and calendar client from configuration.
// When email is disabled the module only forwards calendar events.
func NewModule(emailCfg config.EmailConfig, calendarCfg config.CalendarConfig, log *logger.Logger) *Module {
	m := &Module{
		calendar:    NewCalendarClient(calendarCfg),
		companyName: emailCfg.GetEmailFromName(),
		log:         log,
	}
	if emailCfg.GetEmailEnabled() {
		m.sender = NewSMTPSender(emailCfg)
	}
	return m
}

// WithSender overrides the email sender, used by tests.
func (m *Module) WithSender(sender Sender) *Module {
	m.sender = sender
	return m
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.AppointmentScheduled{}.EventName(), events.HandlerFunc(m.handleAppointmentScheduled))
	bus.Subscribe(events.ContactReconciled{}.EventName(), events.HandlerFunc(m.handleContactReconciled))
}

// handleAppointmentScheduled pushes the appointment to the calendar webhook
// and emails the confirmation to the contact. Both deliveries are attempted
// independently so one failing does not block the other.
func (m *Module) handleAppointmentScheduled(ctx context.Context, event events.Event) error {
	e, ok := event.(events.AppointmentScheduled)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	var calendarErr error
	if m.calendar.Enabled() {
		calendarErr = m.calendar.PushEvent(ctx, CalendarEvent{
			Title:       e.Title,
			Description: e.Description,
			Location:    e.Location,
			StartTime:   e.StartTime,
		})
		if calendarErr != nil {
			m.log.Error("calendar sync failed",
				"contact_id", e.ContactID,
				"error", calendarErr,
			)
		}
	}

	var emailErr error
	if m.sender != nil && e.ContactEmail != nil && *e.ContactEmail != "" {
		emailErr = m.sendConfirmation(ctx, e)
		if emailErr != nil {
			m.log.Error("appointment confirmation email failed",
				"contact_id", e.ContactID,
				"error", emailErr,
			)
		}
	}

	return errors.Join(calendarErr, emailErr)
}

func (m *Module) sendConfirmation(ctx context.Context, e events.AppointmentScheduled) error {
	startTime := e.StartTime
	contact := domain.Contact{
		Name:            e.ContactName,
		Address:         e.Location,
		AppointmentTime: &startTime,
	}
	body, err := compose.RenderMessage(compose.CategoryAppointment, compose.ContextFor(&contact, m.companyName))
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, *e.ContactEmail, subjectAppointmentConfirmation, body)
}

func (m *Module) handleContactReconciled(_ context.Context, event events.Event) error {
	e, ok := event.(events.ContactReconciled)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	m.log.Info("workflow task restored",
		"contact_id", e.ContactID,
		"organization_id", e.OrganizationID,
		"stage", e.Stage,
		"task_type", e.TaskType,
	)
	return nil
}
