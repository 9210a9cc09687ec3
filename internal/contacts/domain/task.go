package domain

import "fmt"

// TaskType identifies what kind of work a task represents. Exactly one open
// task of one of these types drives each contact at any moment.
type TaskType string

const (
	TaskFirstMessage          TaskType = "FIRST_MESSAGE"
	TaskFirstMessageFollowUp  TaskType = "FIRST_MESSAGE_FOLLOW_UP"
	TaskAssignStatus          TaskType = "ASSIGN_STATUS"
	TaskSendQuote             TaskType = "SEND_QUOTE"
	TaskQuoteFollowUp         TaskType = "QUOTE_FOLLOW_UP"
	TaskSendClaimRec          TaskType = "SEND_CLAIM_REC"
	TaskClaimRecFollowUp      TaskType = "CLAIM_REC_FOLLOW_UP"
	TaskPAFollowUp            TaskType = "PA_FOLLOW_UP"
	TaskClaimFollowUp         TaskType = "CLAIM_FOLLOW_UP"
	TaskApprovalCheckIn       TaskType = "APPROVAL_CHECK_IN"
	TaskJobCheckIn            TaskType = "JOB_CHECK_IN"
	TaskInvoiceFollowUp       TaskType = "INVOICE_FOLLOW_UP"
	TaskSeasonalFollowUp      TaskType = "SEASONAL_FOLLOW_UP"
	TaskNotInterestedFollowUp TaskType = "NOT_INTERESTED_FOLLOW_UP"
)

// TaskStatus is the lifecycle state of a task. PENDING and IN_PROGRESS are
// both "open": they count against the one-open-task invariant and both get
// cancelled when a transition supersedes them.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// IsOpen reports whether the task still demands action.
func (s TaskStatus) IsOpen() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// ActionHint tells the frontend which action button to render for a contact.
// Hints are recomputed from the contact's open task on every read, never
// stored.
type ActionHint string

const (
	ActionSendMessage  ActionHint = "SEND_MESSAGE"
	ActionFollowUp     ActionHint = "FOLLOW_UP"
	ActionAssignStatus ActionHint = "ASSIGN_STATUS"
	ActionSendQuote    ActionHint = "SEND_QUOTE"
	ActionSendClaimRec ActionHint = "SEND_CLAIM_REC"
	ActionCheckIn      ActionHint = "CHECK_IN"
	ActionSendInvoice  ActionHint = "SEND_INVOICE"
	ActionReachOut     ActionHint = "REACH_OUT"
	ActionNone         ActionHint = "NONE"
)

// ParseTaskType returns the TaskType for a stored value.
func ParseTaskType(value string) (TaskType, bool) {
	t := TaskType(value)
	switch t {
	case TaskFirstMessage, TaskFirstMessageFollowUp, TaskAssignStatus,
		TaskSendQuote, TaskQuoteFollowUp, TaskSendClaimRec,
		TaskClaimRecFollowUp, TaskPAFollowUp, TaskClaimFollowUp,
		TaskApprovalCheckIn, TaskJobCheckIn, TaskInvoiceFollowUp,
		TaskSeasonalFollowUp, TaskNotInterestedFollowUp:
		return t, true
	}
	return "", false
}

// Action returns the action-button hint for an open task of this type.
func (t TaskType) Action() ActionHint {
	switch t {
	case TaskFirstMessage:
		return ActionSendMessage
	case TaskAssignStatus:
		return ActionAssignStatus
	case TaskSendQuote:
		return ActionSendQuote
	case TaskSendClaimRec:
		return ActionSendClaimRec
	case TaskApprovalCheckIn, TaskJobCheckIn:
		return ActionCheckIn
	case TaskInvoiceFollowUp:
		return ActionSendInvoice
	case TaskSeasonalFollowUp, TaskNotInterestedFollowUp:
		return ActionReachOut
	case TaskFirstMessageFollowUp, TaskQuoteFollowUp, TaskClaimRecFollowUp,
		TaskPAFollowUp, TaskClaimFollowUp:
		return ActionFollowUp
	default:
		return ActionNone
	}
}

// label is the short verb phrase used when deriving task titles.
func (t TaskType) label() string {
	switch t {
	case TaskFirstMessage:
		return "Send first message"
	case TaskFirstMessageFollowUp:
		return "Follow up on first message"
	case TaskAssignStatus:
		return "Inspect and assign status"
	case TaskSendQuote:
		return "Send quote"
	case TaskQuoteFollowUp:
		return "Follow up on quote"
	case TaskSendClaimRec:
		return "Send claim recommendation"
	case TaskClaimRecFollowUp:
		return "Follow up on claim recommendation"
	case TaskPAFollowUp:
		return "Follow up on PA agreement"
	case TaskClaimFollowUp:
		return "Follow up on open claim"
	case TaskApprovalCheckIn:
		return "Check in before job start"
	case TaskJobCheckIn:
		return "Check in on job progress"
	case TaskInvoiceFollowUp:
		return "Follow up on invoice"
	case TaskSeasonalFollowUp:
		return "Seasonal reach-out"
	case TaskNotInterestedFollowUp:
		return "Annual reach-out"
	default:
		return string(t)
	}
}

// TitleFor derives the display title of a task from its type and the contact
// name. Titles are never accepted from clients.
func (t TaskType) TitleFor(contactName string) string {
	return fmt.Sprintf("%s: %s", t.label(), contactName)
}
