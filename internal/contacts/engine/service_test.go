package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/contacts/storetest"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

// Tuesday. Office days default to Mon/Wed/Fri in these tests.
var testNow = time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)

var officeDays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}

func newTestEngine(t *testing.T, store *storetest.Store) *Service {
	t.Helper()
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log).WithClock(func() time.Time { return testNow })
}

func seedOrg(t *testing.T, store *storetest.Store) uuid.UUID {
	t.Helper()
	orgID := uuid.New()
	if err := store.SeedStages(context.Background(), orgID, defaultStages()); err != nil {
		t.Fatalf("seed stages: %v", err)
	}
	store.SetSettings(domain.ScheduleSettings{
		OrganizationID:        orgID,
		OfficeDays:            officeDays,
		SeasonalFollowUpMonth: time.March,
		SeasonalFollowUpDay:   1,
	})
	return orgID
}

func seedContact(t *testing.T, store *storetest.Store, orgID uuid.UUID, stage domain.StageName) domain.Contact {
	t.Helper()
	st, err := store.GetStageByName(context.Background(), orgID, stage)
	if err != nil {
		t.Fatalf("stage %s: %v", stage, err)
	}
	return store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		Address:        "12 Elm St",
		StageID:        st.ID,
		StageName:      st.Name,
		StageOrder:     st.DisplayOrder,
	})
}

func openTask(t *testing.T, store *storetest.Store, contactID uuid.UUID) domain.Task {
	t.Helper()
	open, err := store.ListOpenTasks(context.Background(), contactID)
	if err != nil {
		t.Fatalf("list open tasks: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("open tasks = %d, want 1", len(open))
	}
	return open[0]
}

func kindOf(err error) apperr.Kind {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return apperr.KindUnknown
}

func TestScheduledInspectionCreatesAssignStatusTask(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageNewLead)
	store.AddTask(domain.Task{
		ContactID:      contact.ID,
		OrganizationID: orgID,
		Type:           domain.TaskFirstMessage,
		DueDate:        testNow,
	})
	eng := newTestEngine(t, store)

	appointment := time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)
	updated, err := eng.TransitionToScheduledInspection(context.Background(), orgID, contact.ID, appointment, "metal roof")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	if updated.StageName != domain.StageScheduledInspection {
		t.Errorf("stage = %s", updated.StageName)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}
	if updated.AppointmentTime == nil || !updated.AppointmentTime.Equal(appointment) {
		t.Errorf("appointment time = %v", updated.AppointmentTime)
	}

	task := openTask(t, store, contact.ID)
	if task.Type != domain.TaskAssignStatus {
		t.Errorf("task type = %s, want %s", task.Type, domain.TaskAssignStatus)
	}
	if !task.DueDate.Equal(appointment) {
		t.Errorf("task due = %v, want appointment %v", task.DueDate, appointment)
	}

	var stageNote, apptNote bool
	for _, n := range store.Notes() {
		switch n.Category {
		case domain.NoteStageChange:
			stageNote = true
		case domain.NoteAppointment:
			apptNote = true
		}
	}
	if !stageNote || !apptNote {
		t.Errorf("timeline missing notes: stage=%v appointment=%v", stageNote, apptNote)
	}
}

// racingStore commits a competing transition between the engine's read and
// its write, making the engine the loser of the version race.
type racingStore struct {
	*storetest.Store
	raced bool
}

func (r *racingStore) WithinTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(r)
}

func (r *racingStore) GetContactByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (domain.Contact, error) {
	c, err := r.Store.GetContactByID(ctx, id, organizationID)
	if err == nil && !r.raced {
		r.raced = true
		_, _ = r.Store.UpdateContactStage(ctx, id, organizationID, c.Version, repository.StageUpdate{
			StageID: c.StageID, StageName: c.StageName, StageOrder: c.StageOrder,
		})
	}
	return c, err
}

func TestConcurrentTransitionLosesWithConflict(t *testing.T) {
	inner := storetest.New()
	orgID := seedOrg(t, inner)
	contact := seedContact(t, inner, orgID, domain.StageNewLead)

	store := &racingStore{Store: inner}
	log := logger.New("test")
	eng := New(store, events.NewInMemoryBus(log), log).WithClock(func() time.Time { return testNow })

	_, err := eng.MarkFirstMessageSent(context.Background(), orgID, contact.ID)
	if kindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}

	// The loser must not have created a second open task.
	if n := inner.OpenTaskCount(contact.ID); n > 1 {
		t.Errorf("open tasks after lost race = %d", n)
	}
}

func TestFirstMessageSentQueuesFollowUpNextOfficeDay(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageNewLead)
	eng := newTestEngine(t, store)

	updated, err := eng.MarkFirstMessageSent(context.Background(), orgID, contact.ID)
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	if updated.StageName != domain.StageNewLead {
		t.Errorf("stage = %s, want unchanged NEW_LEAD", updated.StageName)
	}
	if updated.FirstMessageSentAt == nil {
		t.Error("FirstMessageSentAt not set")
	}

	task := openTask(t, store, contact.ID)
	if task.Type != domain.TaskFirstMessageFollowUp {
		t.Errorf("task type = %s", task.Type)
	}
	// Tuesday Jan 7 -> next office day is Wednesday Jan 8.
	wantDue := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	if !task.DueDate.Equal(wantDue) {
		t.Errorf("due = %v, want %v", task.DueDate, wantDue)
	}
}

func TestMarkQuoteSentRequiresRetailProspect(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageClaimProspect)
	eng := newTestEngine(t, store)

	_, err := eng.MarkQuoteSent(context.Background(), orgID, contact.ID, nil)
	if kindOf(err) != apperr.KindPrecondition {
		t.Fatalf("err = %v, want precondition", err)
	}
}

func TestMarkClaimRecSentRequiresCarrierAndDateOfLoss(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageClaimProspect)
	eng := newTestEngine(t, store)

	_, err := eng.MarkClaimRecSent(context.Background(), orgID, contact.ID, ClaimInfo{})
	if kindOf(err) != apperr.KindPrecondition {
		t.Fatalf("err = %v, want precondition", err)
	}

	carrier := "State Farm"
	dol := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
	policy := "HO-4417"
	updated, err := eng.MarkClaimRecSent(context.Background(), orgID, contact.ID, ClaimInfo{
		Carrier:      &carrier,
		DateOfLoss:   &dol,
		PolicyNumber: &policy,
	})
	if err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	if updated.ClaimRecSentAt == nil {
		t.Error("ClaimRecSentAt not set")
	}
	if updated.PolicyNumber == nil || *updated.PolicyNumber != "HO-4417" {
		t.Errorf("policy number = %v", updated.PolicyNumber)
	}
	if task := openTask(t, store, contact.ID); task.Type != domain.TaskClaimRecFollowUp {
		t.Errorf("task type = %s", task.Type)
	}
}

func TestOpenClaimRequiresPADocument(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageClaimProspect)
	eng := newTestEngine(t, store)

	plain, err := store.CreateFile(context.Background(), repository.CreateFileParams{
		ContactID: contact.ID, FileName: "photos.zip", ContentType: "application/zip",
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	if _, err := eng.TransitionToOpenClaim(context.Background(), orgID, contact.ID, plain.ID); kindOf(err) != apperr.KindPrecondition {
		t.Fatalf("err = %v, want precondition", err)
	}

	pa, err := store.CreateFile(context.Background(), repository.CreateFileParams{
		ContactID: contact.ID, FileName: "pa-agreement.pdf", ContentType: "application/pdf", IsPADocument: true,
	})
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	updated, err := eng.TransitionToOpenClaim(context.Background(), orgID, contact.ID, pa.ID)
	if err != nil {
		t.Fatalf("open claim: %v", err)
	}
	if updated.StageName != domain.StageOpenClaim {
		t.Errorf("stage = %s", updated.StageName)
	}
	if task := openTask(t, store, contact.ID); task.Type != domain.TaskClaimFollowUp {
		t.Errorf("task type = %s", task.Type)
	}
}

func TestTerminalSeasonalSetsReminderDate(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageOpenClaim)
	eng := newTestEngine(t, store)

	updated, err := eng.TransitionToTerminal(context.Background(), orgID, contact.ID, TargetSeasonal, "")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	if updated.SeasonalReminderDate == nil {
		t.Fatal("SeasonalReminderDate not set")
	}
	// March 1 2025 is a Saturday; the reminder lands on Monday March 3.
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !updated.SeasonalReminderDate.Equal(want) {
		t.Errorf("reminder = %v, want %v", updated.SeasonalReminderDate, want)
	}

	task := openTask(t, store, contact.ID)
	if task.Type != domain.TaskSeasonalFollowUp {
		t.Errorf("task type = %s", task.Type)
	}
	if task.Priority != domain.PriorityLow {
		t.Errorf("priority = %s, want LOW", task.Priority)
	}
	if !task.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", task.DueDate, want)
	}
}

func TestTerminalApprovedStartsJobScheduled(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageOpenClaim)
	eng := newTestEngine(t, store)

	updated, err := eng.TransitionToTerminal(context.Background(), orgID, contact.ID, TargetApproved, "")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.JobStatus == nil || *updated.JobStatus != domain.JobScheduled {
		t.Errorf("job status = %v, want SCHEDULED", updated.JobStatus)
	}
	if task := openTask(t, store, contact.ID); task.Type != domain.TaskApprovalCheckIn {
		t.Errorf("task type = %s", task.Type)
	}
}

func TestUpdateJobStatusIsForwardOnly(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(t, store)
	contact := seedContact(t, store, orgID, domain.StageApproved)
	inProgress := domain.JobInProgress
	st, _ := store.GetStageByName(context.Background(), orgID, domain.StageApproved)
	_, err := store.UpdateContactStage(context.Background(), contact.ID, orgID, 1, repository.StageUpdate{
		StageID: st.ID, StageName: st.Name, StageOrder: st.DisplayOrder,
		JobStatus: &inProgress,
	})
	if err != nil {
		t.Fatalf("seed job status: %v", err)
	}
	eng := newTestEngine(t, store)

	if _, err := eng.UpdateJobStatus(context.Background(), orgID, contact.ID, domain.JobScheduled, nil); kindOf(err) != apperr.KindPrecondition {
		t.Fatalf("backward move err = %v, want precondition", err)
	}

	updated, err := eng.UpdateJobStatus(context.Background(), orgID, contact.ID, domain.JobCompleted, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.JobStatus == nil || *updated.JobStatus != domain.JobCompleted {
		t.Errorf("job status = %v", updated.JobStatus)
	}
	if task := openTask(t, store, contact.ID); task.Type != domain.TaskInvoiceFollowUp {
		t.Errorf("task type = %s, want %s", task.Type, domain.TaskInvoiceFollowUp)
	}
}

func TestResolveStageSeedsDefaultsForUnprovisionedOrg(t *testing.T) {
	store := storetest.New()
	orgID := uuid.New()
	store.SetSettings(domain.ScheduleSettings{OrganizationID: orgID, OfficeDays: officeDays})
	// Contact exists but the organization has zero stages.
	contact := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Sam Ortiz",
		Phone:          "+15550101",
		StageName:      domain.StageNewLead,
	})
	eng := newTestEngine(t, store)

	if _, err := eng.MarkFirstMessageSent(context.Background(), orgID, contact.ID); err != nil {
		t.Fatalf("transition: %v", err)
	}

	count, err := store.CountStages(context.Background(), orgID)
	if err != nil {
		t.Fatalf("count stages: %v", err)
	}
	if count != len(domain.AllStages) {
		t.Errorf("stages after seeding = %d, want %d", count, len(domain.AllStages))
	}
}

func TestResolveStageDoesNotReseedCorruptPipeline(t *testing.T) {
	store := storetest.New()
	orgID := uuid.New()
	// One stage exists, so the pipeline was provisioned; the target is just
	// missing. Seeding must not run.
	err := store.SeedStages(context.Background(), orgID, []domain.Stage{
		{Name: domain.StageNewLead, Type: domain.StageNewLead.Type(), DisplayOrder: 1},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	contact := seedContact(t, store, orgID, domain.StageNewLead)
	eng := newTestEngine(t, store)

	_, err = eng.TransitionToScheduledInspection(context.Background(), orgID, contact.ID, testNow.AddDate(0, 0, 3), "")
	if kindOf(err) != apperr.KindStageResolution {
		t.Fatalf("err = %v, want stage resolution", err)
	}

	count, _ := store.CountStages(context.Background(), orgID)
	if count != 1 {
		t.Errorf("stage count = %d, want 1 (no reseed)", count)
	}
}
