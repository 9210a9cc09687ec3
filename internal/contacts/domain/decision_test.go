package domain

import (
	"testing"
	"time"
)

func ts(t time.Time) *time.Time { return &t }

func TestDecideNextTaskNewLead(t *testing.T) {
	c := &Contact{StageName: StageNewLead}

	next, ok := DecideNextTask(c)
	if !ok {
		t.Fatal("expected a decision for NEW_LEAD")
	}
	if next.Type != TaskFirstMessage {
		t.Fatalf("expected FIRST_MESSAGE before the first message is sent, got %s", next.Type)
	}

	c.FirstMessageSentAt = ts(time.Now())
	next, _ = DecideNextTask(c)
	if next.Type != TaskFirstMessageFollowUp {
		t.Fatalf("expected FIRST_MESSAGE_FOLLOW_UP after the first message, got %s", next.Type)
	}
	if next.Due != DueNextOfficeDay {
		t.Fatalf("follow-up should be due on the next office day, got rule %d", next.Due)
	}
}

func TestDecideNextTaskClaimProspectProgression(t *testing.T) {
	c := &Contact{StageName: StageClaimProspect}

	next, _ := DecideNextTask(c)
	if next.Type != TaskSendClaimRec {
		t.Fatalf("fresh claim prospect should owe a claim recommendation, got %s", next.Type)
	}

	c.ClaimRecSentAt = ts(time.Now())
	next, _ = DecideNextTask(c)
	if next.Type != TaskClaimRecFollowUp {
		t.Fatalf("expected CLAIM_REC_FOLLOW_UP, got %s", next.Type)
	}

	c.PASentAt = ts(time.Now())
	next, _ = DecideNextTask(c)
	if next.Type != TaskPAFollowUp {
		t.Fatalf("PA sent should win over claim rec sent, got %s", next.Type)
	}
}

func TestDecideNextTaskApprovedSubStates(t *testing.T) {
	cases := []struct {
		status *JobStatus
		want   TaskType
	}{
		{nil, TaskApprovalCheckIn},
		{jobStatusPtr(JobScheduled), TaskApprovalCheckIn},
		{jobStatusPtr(JobInProgress), TaskJobCheckIn},
		{jobStatusPtr(JobCompleted), TaskInvoiceFollowUp},
	}

	for _, tc := range cases {
		c := &Contact{StageName: StageApproved, JobStatus: tc.status}
		next, ok := DecideNextTask(c)
		if !ok {
			t.Fatal("expected a decision for APPROVED")
		}
		if next.Type != tc.want {
			t.Fatalf("job status %v: expected %s, got %s", tc.status, tc.want, next.Type)
		}
	}
}

func TestDecideNextTaskTerminalStages(t *testing.T) {
	seasonal := &Contact{StageName: StageSeasonal}
	next, _ := DecideNextTask(seasonal)
	if next.Type != TaskSeasonalFollowUp || next.Due != DueSeasonalDate {
		t.Fatalf("seasonal contact should get a seasonal follow-up on the seasonal date, got %s rule %d", next.Type, next.Due)
	}
	if next.Priority != PriorityLow {
		t.Fatalf("seasonal follow-up should be low priority, got %s", next.Priority)
	}

	notInterested := &Contact{StageName: StageNotInterested}
	next, _ = DecideNextTask(notInterested)
	if next.Type != TaskNotInterestedFollowUp || next.Due != DueOneYearOut {
		t.Fatalf("not-interested contact should get a one-year-out reach-out, got %s rule %d", next.Type, next.Due)
	}
}

func TestDecideNextTaskUnknownStage(t *testing.T) {
	c := &Contact{StageName: StageName("LEGACY_STAGE")}
	if _, ok := DecideNextTask(c); ok {
		t.Fatal("unknown stage must not yield a task decision")
	}
}

func TestParseStageRejectsFreeText(t *testing.T) {
	if _, ok := ParseStage("new lead"); ok {
		t.Fatal("stage parsing must not accept display text")
	}
	stage, ok := ParseStage("OPEN_CLAIM")
	if !ok || stage != StageOpenClaim {
		t.Fatalf("expected OPEN_CLAIM to parse, got %q ok=%v", stage, ok)
	}
}

func TestStageTerminality(t *testing.T) {
	for _, s := range AllStages {
		terminal := s == StageApproved || s == StageSeasonal || s == StageNotInterested
		if s.IsTerminal() != terminal {
			t.Fatalf("stage %s: IsTerminal=%v, expected %v", s, s.IsTerminal(), terminal)
		}
	}
}

func TestTaskTypeActionMapping(t *testing.T) {
	cases := map[TaskType]ActionHint{
		TaskFirstMessage:          ActionSendMessage,
		TaskFirstMessageFollowUp:  ActionFollowUp,
		TaskAssignStatus:          ActionAssignStatus,
		TaskSendQuote:             ActionSendQuote,
		TaskQuoteFollowUp:         ActionFollowUp,
		TaskSendClaimRec:          ActionSendClaimRec,
		TaskClaimRecFollowUp:      ActionFollowUp,
		TaskPAFollowUp:            ActionFollowUp,
		TaskClaimFollowUp:         ActionFollowUp,
		TaskApprovalCheckIn:       ActionCheckIn,
		TaskJobCheckIn:            ActionCheckIn,
		TaskInvoiceFollowUp:       ActionSendInvoice,
		TaskSeasonalFollowUp:      ActionReachOut,
		TaskNotInterestedFollowUp: ActionReachOut,
	}

	for taskType, want := range cases {
		if got := taskType.Action(); got != want {
			t.Fatalf("task %s: expected action %s, got %s", taskType, want, got)
		}
	}
}

func TestTaskTitleDerivation(t *testing.T) {
	got := TaskQuoteFollowUp.TitleFor("Jane Harper")
	if got != "Follow up on quote: Jane Harper" {
		t.Fatalf("unexpected title %q", got)
	}
}

func jobStatusPtr(s JobStatus) *JobStatus { return &s }
