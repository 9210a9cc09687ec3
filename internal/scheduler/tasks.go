package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskAppointmentReminder = "contacts.appointment.reminder"

const TaskReconcileSweep = "workflow.reconcile.sweep"

type AppointmentReminderPayload struct {
	ContactID      string `json:"contactId"`
	OrganizationID string `json:"organizationId"`
}

// ReconcileSweepPayload scopes a sweep to one organization; an empty
// OrganizationID sweeps everything.
type ReconcileSweepPayload struct {
	OrganizationID string `json:"organizationId,omitempty"`
}

func NewAppointmentReminderTask(payload AppointmentReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

func ParseAppointmentReminderPayload(task *asynq.Task) (AppointmentReminderPayload, error) {
	var payload AppointmentReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return AppointmentReminderPayload{}, err
	}
	return payload, nil
}

func NewReconcileSweepTask(payload ReconcileSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSweep, data), nil
}

func ParseReconcileSweepPayload(task *asynq.Task) (ReconcileSweepPayload, error) {
	var payload ReconcileSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReconcileSweepPayload{}, err
	}
	return payload, nil
}
