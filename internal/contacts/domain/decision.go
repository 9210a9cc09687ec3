package domain

// DueRule tells the caller how to compute the due date for a decided task.
// The decision table only picks the rule; the office-day scheduler turns the
// rule into a concrete date.
type DueRule int

const (
	// DueNextOfficeDay schedules for the first office day strictly after today.
	DueNextOfficeDay DueRule = iota
	// DueEnforcedToday schedules for today, advanced to an office day if needed.
	DueEnforcedToday
	// DueAtAppointment schedules for the contact's appointment time.
	DueAtAppointment
	// DueSeasonalDate schedules for the organization's seasonal follow-up date.
	DueSeasonalDate
	// DueOneYearOut schedules for one year from today, on an office day.
	DueOneYearOut
)

// NextTask is a decision-table result: which task a contact should have open
// and how its due date is derived.
type NextTask struct {
	Type     TaskType
	Due      DueRule
	Priority TaskPriority
}

// DecideNextTask returns the single task a contact in its current state
// should have open. The transition engine and the reconciliation sweeper both
// consult this table so a repaired contact ends up with exactly the task a
// normal transition would have created.
//
// The decision reads only the stage and the *SentAt timestamps; it never
// inspects the timeline.
func DecideNextTask(c *Contact) (NextTask, bool) {
	switch c.StageName {
	case StageNewLead:
		if c.FirstMessageSentAt == nil {
			return NextTask{Type: TaskFirstMessage, Due: DueEnforcedToday, Priority: PriorityNormal}, true
		}
		return NextTask{Type: TaskFirstMessageFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true

	case StageScheduledInspection:
		return NextTask{Type: TaskAssignStatus, Due: DueAtAppointment, Priority: PriorityNormal}, true

	case StageRetailProspect:
		if c.QuoteSentAt == nil {
			return NextTask{Type: TaskSendQuote, Due: DueEnforcedToday, Priority: PriorityNormal}, true
		}
		return NextTask{Type: TaskQuoteFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true

	case StageClaimProspect:
		switch {
		case c.PASentAt != nil:
			return NextTask{Type: TaskPAFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true
		case c.ClaimRecSentAt != nil:
			return NextTask{Type: TaskClaimRecFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true
		default:
			return NextTask{Type: TaskSendClaimRec, Due: DueEnforcedToday, Priority: PriorityNormal}, true
		}

	case StageOpenClaim:
		return NextTask{Type: TaskClaimFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true

	case StageApproved:
		status := JobScheduled
		if c.JobStatus != nil {
			status = *c.JobStatus
		}
		switch status {
		case JobInProgress:
			return NextTask{Type: TaskJobCheckIn, Due: DueNextOfficeDay, Priority: PriorityNormal}, true
		case JobCompleted:
			return NextTask{Type: TaskInvoiceFollowUp, Due: DueNextOfficeDay, Priority: PriorityNormal}, true
		default:
			return NextTask{Type: TaskApprovalCheckIn, Due: DueNextOfficeDay, Priority: PriorityNormal}, true
		}

	case StageSeasonal:
		return NextTask{Type: TaskSeasonalFollowUp, Due: DueSeasonalDate, Priority: PriorityLow}, true

	case StageNotInterested:
		return NextTask{Type: TaskNotInterestedFollowUp, Due: DueOneYearOut, Priority: PriorityLow}, true
	}
	return NextTask{}, false
}
