package reconcile

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

func newTestSweeper(t *testing.T, store *storetest.Store) *Service {
	t.Helper()
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log).WithClock(func() time.Time { return testNow })
}

func seedOrg(store *storetest.Store) uuid.UUID {
	orgID := uuid.New()
	store.SetSettings(domain.ScheduleSettings{OrganizationID: orgID, OfficeDays: officeDays})
	return orgID
}

func TestSweepRestoresMissingTasks(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(store)

	// Bare contact: RETAIL_PROSPECT with a quote already sent, no open task.
	quoteSent := testNow.AddDate(0, 0, -3)
	bare := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      domain.StageRetailProspect,
		QuoteSentAt:    &quoteSent,
	})

	// Healthy contact keeps its open task and must be untouched.
	healthy := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Sam Ortiz",
		Phone:          "+15550101",
		StageName:      domain.StageOpenClaim,
	})
	store.AddTask(domain.Task{
		ContactID:      healthy.ID,
		OrganizationID: orgID,
		Type:           domain.TaskClaimFollowUp,
		DueDate:        testNow,
	})

	sweeper := newTestSweeper(t, store)
	result, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}
	if len(result.Repaired) != 1 {
		t.Fatalf("repaired = %d, want 1", len(result.Repaired))
	}
	fix := result.Repaired[0]
	if fix.ContactID != bare.ID {
		t.Errorf("repaired contact = %s, want %s", fix.ContactID, bare.ID)
	}
	if fix.TaskType != string(domain.TaskQuoteFollowUp) {
		t.Errorf("restored type = %s, want %s", fix.TaskType, domain.TaskQuoteFollowUp)
	}
	// Tuesday Jan 7 -> next office day Wednesday Jan 8.
	wantDue := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	if !fix.DueDate.Equal(wantDue) {
		t.Errorf("due = %v, want %v", fix.DueDate, wantDue)
	}

	if n := store.OpenTaskCount(bare.ID); n != 1 {
		t.Errorf("open tasks = %d, want 1", n)
	}
	if n := store.OpenTaskCount(healthy.ID); n != 1 {
		t.Errorf("healthy contact open tasks = %d, want 1", n)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(store)
	contact := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      domain.StageNewLead,
	})

	sweeper := newTestSweeper(t, store)
	first, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if len(first.Repaired) != 1 {
		t.Fatalf("first sweep repaired = %d, want 1", len(first.Repaired))
	}

	second, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(second.Repaired) != 0 {
		t.Errorf("second sweep repaired = %d, want 0", len(second.Repaired))
	}
	if n := store.OpenTaskCount(contact.ID); n != 1 {
		t.Errorf("open tasks after two sweeps = %d, want 1", n)
	}
}

func TestSweepSeasonalRepairUsesStoredReminderDate(t *testing.T) {
	store := storetest.New()
	orgID := uuid.New()
	// Settings say March 1, but the contact's reminder was fixed at
	// transition time; the repaired task must follow the stored date.
	store.SetSettings(domain.ScheduleSettings{
		OrganizationID:        orgID,
		OfficeDays:            officeDays,
		SeasonalFollowUpMonth: time.March,
		SeasonalFollowUpDay:   1,
	})
	reminder := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC) // Tuesday
	contact := store.AddContact(domain.Contact{
		OrganizationID:       orgID,
		Name:                 "Dana Miller",
		Phone:                "+15550100",
		StageName:            domain.StageSeasonal,
		SeasonalReminderDate: &reminder,
	})

	sweeper := newTestSweeper(t, store)
	result, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(result.Repaired) != 1 {
		t.Fatalf("repaired = %d, want 1", len(result.Repaired))
	}
	fix := result.Repaired[0]
	if fix.ContactID != contact.ID {
		t.Errorf("repaired contact = %s", fix.ContactID)
	}
	// Tuesday April 1 enforced onto an office day: Wednesday April 2.
	wantDue := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	if !fix.DueDate.Equal(wantDue) {
		t.Errorf("due = %v, want stored reminder %v", fix.DueDate, wantDue)
	}
}

func TestSweepSkipsStagesWithoutPrescribedTask(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(store)
	contact := store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      domain.StageName("LEGACY_STAGE"),
	})

	sweeper := newTestSweeper(t, store)
	result, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Processed != 1 || len(result.Repaired) != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want processed without repair", result)
	}
	if n := store.OpenTaskCount(contact.ID); n != 0 {
		t.Errorf("open tasks = %d, want 0", n)
	}
}

func TestSweepCountsFailuresWithoutAborting(t *testing.T) {
	store := storetest.New()
	orgID := seedOrg(store)
	store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      domain.StageNewLead,
	})
	store.AddContact(domain.Contact{
		OrganizationID: orgID,
		Name:           "Sam Ortiz",
		Phone:          "+15550101",
		StageName:      domain.StageOpenClaim,
	})
	store.CreateTaskErr = context.DeadlineExceeded

	sweeper := newTestSweeper(t, store)
	result, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgID)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("processed = %d, want 2", result.Processed)
	}
	if result.Failed != 2 {
		t.Errorf("failed = %d, want 2", result.Failed)
	}
	if len(result.Repaired) != 0 {
		t.Errorf("repaired = %d, want 0", len(result.Repaired))
	}
}

func TestSweepScopedToOrganization(t *testing.T) {
	store := storetest.New()
	orgA := seedOrg(store)
	orgB := seedOrg(store)
	store.AddContact(domain.Contact{
		OrganizationID: orgA,
		Name:           "Dana Miller",
		Phone:          "+15550100",
		StageName:      domain.StageNewLead,
	})
	other := store.AddContact(domain.Contact{
		OrganizationID: orgB,
		Name:           "Sam Ortiz",
		Phone:          "+15550101",
		StageName:      domain.StageNewLead,
	})

	sweeper := newTestSweeper(t, store)
	result, err := sweeper.CheckContactsWithoutTasks(context.Background(), &orgA)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("processed = %d, want 1", result.Processed)
	}
	if n := store.OpenTaskCount(other.ID); n != 0 {
		t.Errorf("other org contact gained %d tasks", n)
	}
}
