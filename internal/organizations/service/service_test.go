package service

import (
	"context"
	"testing"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/internal/organizations/repository"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	orgs     map[uuid.UUID]domain.Organization
	stages   map[uuid.UUID][]domain.Stage
	settings map[uuid.UUID]domain.ScheduleSettings
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orgs:     make(map[uuid.UUID]domain.Organization),
		stages:   make(map[uuid.UUID][]domain.Stage),
		settings: make(map[uuid.UUID]domain.ScheduleSettings),
	}
}

func (f *fakeStore) Create(_ context.Context, name string) (domain.Organization, error) {
	org := domain.Organization{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	f.orgs[org.ID] = org
	return org, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (domain.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return domain.Organization{}, repository.ErrNotFound
	}
	return org, nil
}

func (f *fakeStore) SeedStages(_ context.Context, organizationID uuid.UUID, stages []domain.Stage) error {
	f.stages[organizationID] = append(f.stages[organizationID], stages...)
	return nil
}

func (f *fakeStore) UpsertScheduleSettings(_ context.Context, settings domain.ScheduleSettings) (domain.ScheduleSettings, error) {
	f.settings[settings.OrganizationID] = settings
	return settings, nil
}

func (f *fakeStore) GetScheduleSettings(_ context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error) {
	settings, ok := f.settings[organizationID]
	if !ok {
		return domain.ScheduleSettings{}, repository.ErrNotFound
	}
	return settings, nil
}

func newTestService(store Store) *Service {
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log)
}

func TestProvisionSeedsStagesAndSettings(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	org, err := svc.Provision(context.Background(), "Summit Roofing")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	stages := store.stages[org.ID]
	if len(stages) != len(domain.AllStages) {
		t.Fatalf("seeded stages = %d, want %d", len(stages), len(domain.AllStages))
	}
	seen := make(map[domain.StageName]bool)
	for _, st := range stages {
		seen[st.Name] = true
		if st.Type != st.Name.Type() {
			t.Errorf("stage %s type = %s, want %s", st.Name, st.Type, st.Name.Type())
		}
	}
	for _, name := range domain.AllStages {
		if !seen[name] {
			t.Errorf("stage %s missing from seed", name)
		}
	}

	settings, ok := store.settings[org.ID]
	if !ok {
		t.Fatal("schedule settings not seeded")
	}
	if len(settings.OfficeDays) != 3 {
		t.Errorf("office days = %v", settings.OfficeDays)
	}
	if settings.SeasonalFollowUpMonth != time.March || settings.SeasonalFollowUpDay != 1 {
		t.Errorf("seasonal = %v %d, want March 1", settings.SeasonalFollowUpMonth, settings.SeasonalFollowUpDay)
	}
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	svc := newTestService(newFakeStore())

	orgID := uuid.New()
	settings, err := svc.GetSettings(context.Background(), orgID)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.OrganizationID != orgID {
		t.Errorf("organization id = %s", settings.OrganizationID)
	}
	if len(settings.OfficeDays) == 0 {
		t.Error("fallback has no office days")
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	orgID := uuid.New()

	cases := []struct {
		name   string
		params UpdateSettingsParams
	}{
		{"no office days", UpdateSettingsParams{SeasonalFollowUpMonth: time.March, SeasonalFollowUpDay: 1}},
		{"inspection day outside office days", UpdateSettingsParams{
			OfficeDays:            []time.Weekday{time.Monday},
			InspectionDays:        []time.Weekday{time.Tuesday},
			SeasonalFollowUpMonth: time.March,
			SeasonalFollowUpDay:   1,
		}},
		{"month out of range", UpdateSettingsParams{
			OfficeDays:            []time.Weekday{time.Monday},
			SeasonalFollowUpMonth: 13,
			SeasonalFollowUpDay:   1,
		}},
		{"feb 30", UpdateSettingsParams{
			OfficeDays:            []time.Weekday{time.Monday},
			SeasonalFollowUpMonth: time.February,
			SeasonalFollowUpDay:   30,
		}},
		{"june 31", UpdateSettingsParams{
			OfficeDays:            []time.Weekday{time.Monday},
			SeasonalFollowUpMonth: time.June,
			SeasonalFollowUpDay:   31,
		}},
		{"november 31", UpdateSettingsParams{
			OfficeDays:            []time.Weekday{time.Monday},
			SeasonalFollowUpMonth: time.November,
			SeasonalFollowUpDay:   31,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateSettings(context.Background(), orgID, tc.params); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdateSettingsAllowsFebruary29(t *testing.T) {
	svc := newTestService(newFakeStore())

	settings, err := svc.UpdateSettings(context.Background(), uuid.New(), UpdateSettingsParams{
		OfficeDays:            []time.Weekday{time.Monday, time.Thursday},
		InspectionDays:        []time.Weekday{time.Thursday},
		SeasonalFollowUpMonth: time.February,
		SeasonalFollowUpDay:   29,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if settings.SeasonalFollowUpDay != 29 {
		t.Errorf("day = %d, want 29", settings.SeasonalFollowUpDay)
	}
}
