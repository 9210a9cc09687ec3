// Package service implements organization provisioning. Creating an
// organization seeds its default pipeline stages and schedule settings in the
// same call, so the transition engine's lazy-seed guard stays a rarely-taken
// fallback rather than the normal path.
package service

import (
	"context"
	"errors"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/officeday"
	"rooftrack_backend/internal/events"
	"rooftrack_backend/internal/organizations/repository"
	"rooftrack_backend/platform/apperr"
	"rooftrack_backend/platform/logger"

	"github.com/google/uuid"
)

// DefaultSettings are applied at provisioning time and editable afterwards.
var DefaultSettings = domain.ScheduleSettings{
	OfficeDays:            []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	InspectionDays:        []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	SeasonalFollowUpMonth: time.March,
	SeasonalFollowUpDay:   1,
}

type Store interface {
	Create(ctx context.Context, name string) (domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error)
	SeedStages(ctx context.Context, organizationID uuid.UUID, stages []domain.Stage) error
	UpsertScheduleSettings(ctx context.Context, settings domain.ScheduleSettings) (domain.ScheduleSettings, error)
	GetScheduleSettings(ctx context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error)
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Provision creates an organization with its default stages and schedule
// settings.
func (s *Service) Provision(ctx context.Context, name string) (domain.Organization, error) {
	const op = "organizations.Provision"

	stages, err := DefaultStages()
	if err != nil {
		return domain.Organization{}, apperr.Wrap(apperr.KindInternal, "invalid stage seed data", err).WithOp(op)
	}

	org, err := s.store.Create(ctx, name)
	if err != nil {
		return domain.Organization{}, apperr.Wrap(apperr.KindInternal, "failed to create organization", err).WithOp(op)
	}

	if err := s.store.SeedStages(ctx, org.ID, stages); err != nil {
		return domain.Organization{}, apperr.Wrap(apperr.KindInternal, "failed to seed stages", err).WithOp(op)
	}

	settings := DefaultSettings
	settings.OrganizationID = org.ID
	if _, err := s.store.UpsertScheduleSettings(ctx, settings); err != nil {
		return domain.Organization{}, apperr.Wrap(apperr.KindInternal, "failed to seed schedule settings", err).WithOp(op)
	}

	s.log.Info("organization provisioned", "organization_id", org.ID, "name", org.Name)
	s.bus.Publish(ctx, events.OrganizationProvisioned{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: org.ID,
		Name:           org.Name,
	})
	return org, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	const op = "organizations.Get"
	org, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Organization{}, apperr.NotFound("organization not found").WithOp(op)
	}
	if err != nil {
		return domain.Organization{}, apperr.Wrap(apperr.KindInternal, "failed to load organization", err).WithOp(op)
	}
	return org, nil
}

// GetSettings returns the schedule settings, falling back to defaults when
// none were stored. The fallback mirrors the office-day scheduler's own
// empty-set behavior.
func (s *Service) GetSettings(ctx context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error) {
	const op = "organizations.GetSettings"
	settings, err := s.store.GetScheduleSettings(ctx, organizationID)
	if errors.Is(err, repository.ErrNotFound) {
		fallback := DefaultSettings
		fallback.OrganizationID = organizationID
		return fallback, nil
	}
	if err != nil {
		return domain.ScheduleSettings{}, apperr.Wrap(apperr.KindInternal, "failed to load schedule settings", err).WithOp(op)
	}
	return settings, nil
}

type UpdateSettingsParams struct {
	OfficeDays            []time.Weekday
	InspectionDays        []time.Weekday
	SeasonalFollowUpMonth time.Month
	SeasonalFollowUpDay   int
}

// UpdateSettings validates and stores new schedule settings. Inspection days
// must be a subset of office days; the seasonal date must exist in some year.
func (s *Service) UpdateSettings(ctx context.Context, organizationID uuid.UUID, params UpdateSettingsParams) (domain.ScheduleSettings, error) {
	const op = "organizations.UpdateSettings"

	if len(params.OfficeDays) == 0 {
		return domain.ScheduleSettings{}, apperr.Validation("at least one office day is required").WithOp(op)
	}
	office := make(map[time.Weekday]bool, len(params.OfficeDays))
	for _, d := range params.OfficeDays {
		office[d] = true
	}
	for _, d := range params.InspectionDays {
		if !office[d] {
			return domain.ScheduleSettings{}, apperr.Validation("inspection days must be office days").WithOp(op)
		}
	}
	if params.SeasonalFollowUpMonth < time.January || params.SeasonalFollowUpMonth > time.December {
		return domain.ScheduleSettings{}, apperr.Validation("seasonal follow-up month out of range").WithOp(op)
	}
	// Bound the day by the month's longest possible length. The leap
	// reference year keeps Feb 29 legal; the scheduler clamps it per year.
	maxDay := officeday.DaysInMonth(2024, params.SeasonalFollowUpMonth)
	if params.SeasonalFollowUpDay < 1 || params.SeasonalFollowUpDay > maxDay {
		return domain.ScheduleSettings{}, apperr.Validation("seasonal follow-up day out of range").WithOp(op)
	}

	settings, err := s.store.UpsertScheduleSettings(ctx, domain.ScheduleSettings{
		OrganizationID:        organizationID,
		OfficeDays:            params.OfficeDays,
		InspectionDays:        params.InspectionDays,
		SeasonalFollowUpMonth: params.SeasonalFollowUpMonth,
		SeasonalFollowUpDay:   params.SeasonalFollowUpDay,
	})
	if err != nil {
		return domain.ScheduleSettings{}, apperr.Wrap(apperr.KindInternal, "failed to save schedule settings", err).WithOp(op)
	}
	return settings, nil
}
