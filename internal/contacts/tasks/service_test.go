package tasks

import (
	"context"
	"testing"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/storetest"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

// Tuesday; office days are Mon/Wed/Fri.
var testNow = time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

var officeDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

func newTestService(t *testing.T, store *storetest.Store) *Service {
	t.Helper()
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log).WithClock(func() time.Time { return testNow })
}

func seedFixture(t *testing.T, store *storetest.Store, stage domain.StageName) (uuid.UUID, domain.Contact) {
	t.Helper()
	orgID := uuid.New()
	store.SetSettings(domain.ScheduleSettings{OrganizationID: orgID, OfficeDays: officeDays})
	contact := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      stage,
	})
	return orgID, contact
}

func TestCreateDerivesTitleFromType(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageRetailProspect)
	svc := newTestService(t, store)

	task, err := svc.Create(context.Background(), CreateParams{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskSendQuote,
		DueDate:        testNow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if want := domain.TaskSendQuote.TitleFor(contact.Name); task.Title != want {
		t.Errorf("title = %q, want %q", task.Title, want)
	}
	if task.Priority != domain.PriorityNormal {
		t.Errorf("priority = %s, want NORMAL", task.Priority)
	}
}

func TestCompleteWithRescheduleCreatesSuccessorAndCountsFollowUp(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageRetailProspect)
	quoteSent := testNow.AddDate(0, 0, -2)
	contact.QuoteSentAt = &quoteSent
	store.AddContact(contact)

	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskQuoteFollowUp,
		Title:          domain.TaskQuoteFollowUp.TitleFor(contact.Name),
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	completed, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{Reschedule: true})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != domain.TaskStatusCompleted {
		t.Errorf("status = %s", completed.Status)
	}

	open, err := store.ListOpenTasks(context.Background(), contact.ID)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open tasks = %d, want 1", len(open))
	}
	if open[0].Type != domain.TaskQuoteFollowUp {
		t.Errorf("successor type = %s", open[0].Type)
	}
	// Tuesday Jan 7 -> Wednesday Jan 8.
	wantDue := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	if !open[0].DueDate.Equal(wantDue) {
		t.Errorf("due = %v, want %v", open[0].DueDate, wantDue)
	}

	got, err := store.GetContactByID(context.Background(), contact.ID, orgID)
	if err != nil {
		t.Fatalf("get contact: %v", err)
	}
	if got.FollowUpCount != 1 {
		t.Errorf("follow-up count = %d, want 1", got.FollowUpCount)
	}
}

func TestRepeatedFollowUpCyclesAdvanceDueDates(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageRetailProspect)
	quoteSent := testNow.AddDate(0, 0, -2)
	contact.QuoteSentAt = &quoteSent
	store.AddContact(contact)

	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskQuoteFollowUp,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	prevDue := task.DueDate
	current := task.ID
	for cycle := 0; cycle < 3; cycle++ {
		if _, err := svc.Complete(context.Background(), current, orgID, CompleteOptions{Reschedule: true}); err != nil {
			t.Fatalf("cycle %d: %v", cycle, err)
		}
		open, err := store.ListOpenTasks(context.Background(), contact.ID)
		if err != nil || len(open) != 1 {
			t.Fatalf("cycle %d: open = %d err = %v", cycle, len(open), err)
		}
		// The clock is pinned, so each successor lands on the same next
		// office day; due dates never move backward.
		if open[0].DueDate.Before(prevDue) {
			t.Errorf("cycle %d: due %v moved before %v", cycle, open[0].DueDate, prevDue)
		}
		prevDue = open[0].DueDate
		current = open[0].ID
	}

	got, _ := store.GetContactByID(context.Background(), contact.ID, orgID)
	if got.FollowUpCount != 3 {
		t.Errorf("follow-up count = %d, want 3", got.FollowUpCount)
	}
}

func TestCompleteWithNextTaskTypeSwitchesType(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageRetailProspect)
	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskAssignStatus,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	next := domain.TaskSendQuote
	if _, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{NextTaskType: &next}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	open, _ := store.ListOpenTasks(context.Background(), contact.ID)
	if len(open) != 1 || open[0].Type != domain.TaskSendQuote {
		t.Fatalf("open = %+v, want one SEND_QUOTE", open)
	}

	got, _ := store.GetContactByID(context.Background(), contact.ID, orgID)
	if got.FollowUpCount != 0 {
		t.Errorf("follow-up count = %d, want 0 for non-follow-up successor", got.FollowUpCount)
	}
}

func TestCompleteWithoutSuccessorRunsSafetyNet(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageNewLead)
	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskFirstMessage,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	if _, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// No successor was requested, but a NEW_LEAD contact must never be left
	// without an open task.
	open, _ := store.ListOpenTasks(context.Background(), contact.ID)
	if len(open) != 1 {
		t.Fatalf("open tasks = %d, want 1 from safety net", len(open))
	}
	if open[0].Type != domain.TaskFirstMessage {
		t.Errorf("restored type = %s", open[0].Type)
	}
}

func TestStartMovesPendingToInProgress(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageOpenClaim)
	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskClaimFollowUp,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	started, err := svc.Start(context.Background(), task.ID, orgID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Status != domain.TaskStatusInProgress {
		t.Errorf("status = %s, want IN_PROGRESS", started.Status)
	}

	// Starting again is an error; an in-progress task still completes and
	// still counts as the contact's one open task.
	if _, err := svc.Start(context.Background(), task.ID, orgID); err == nil {
		t.Fatal("second start succeeded, want error")
	}
	if n := store.OpenTaskCount(contact.ID); n != 1 {
		t.Errorf("open tasks = %d, want 1", n)
	}
	if _, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{Reschedule: true}); err != nil {
		t.Fatalf("complete started task: %v", err)
	}
}

func TestCompleteTwiceReturnsNotFound(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageOpenClaim)
	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskClaimFollowUp,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	if _, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{}); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if _, err := svc.Complete(context.Background(), task.ID, orgID, CompleteOptions{}); err == nil {
		t.Fatal("second complete succeeded, want error")
	}
}

func TestRescheduleByOfficeDays(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageOpenClaim)
	task := store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskClaimFollowUp,
		DueDate:        testNow,
	})
	svc := newTestService(t, store)

	moved, err := svc.RescheduleByOfficeDays(context.Background(), task.ID, orgID, 3)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	// Tuesday Jan 7 -> Wed 8, Fri 10, Mon 13.
	want := time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC)
	if !moved.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", moved.DueDate, want)
	}
}

func TestBatchRescheduleReportsPerTaskOutcome(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageOpenClaim)
	open1 := store.AddTask(domain.Task{ContactID: contact.ID, OrganizationID: orgID, Type: domain.TaskClaimFollowUp, DueDate: testNow})
	open2 := store.AddTask(domain.Task{ContactID: contact.ID, OrganizationID: orgID, Type: domain.TaskClaimFollowUp, DueDate: testNow})
	done := store.AddTask(domain.Task{ContactID: contact.ID, OrganizationID: orgID, Type: domain.TaskClaimFollowUp, DueDate: testNow, Status: domain.TaskStatusCompleted})
	svc := newTestService(t, store)

	target := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	result, err := svc.BatchReschedule(context.Background(), []uuid.UUID{open1.ID, open2.ID, done.ID, uuid.New()}, orgID, target)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(result.Updated) != 2 {
		t.Errorf("updated = %d, want 2", len(result.Updated))
	}
	if len(result.Failed) != 2 {
		t.Errorf("failed = %d, want 2", len(result.Failed))
	}

	got, _ := store.GetTaskByID(context.Background(), open1.ID, orgID)
	if !got.DueDate.Equal(target) {
		t.Errorf("due = %v, want %v", got.DueDate, target)
	}
}

func TestBatchRescheduleRejectsEmptyInput(t *testing.T) {
	store := storetest.New()
	svc := newTestService(t, store)
	if _, err := svc.BatchReschedule(context.Background(), nil, uuid.New(), testNow); err == nil {
		t.Fatal("empty batch succeeded, want validation error")
	}
}

func TestListDueFiltersByDeadline(t *testing.T) {
	store := storetest.New()
	orgID, contact := seedFixture(t, store, domain.StageOpenClaim)
	store.AddTask(domain.Task{ContactID: contact.ID, OrganizationID: orgID, Type: domain.TaskClaimFollowUp, DueDate: testNow})
	store.AddTask(domain.Task{ContactID: contact.ID, OrganizationID: orgID, Type: domain.TaskClaimFollowUp, DueDate: testNow.AddDate(0, 0, 7)})
	svc := newTestService(t, store)

	due, err := svc.ListDue(context.Background(), orgID, testNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 {
		t.Errorf("due = %d, want 1", len(due))
	}
}
