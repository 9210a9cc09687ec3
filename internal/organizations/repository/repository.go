package repository

import (
	"context"
	"errors"
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("organization not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, name string) (domain.Organization, error) {
	var org domain.Organization
	err := r.pool.QueryRow(ctx, `
		INSERT INTO organizations (name)
		VALUES ($1)
		RETURNING id, name, created_at, updated_at
	`, name).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	return org, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Organization, error) {
	var org domain.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM organizations WHERE id = $1
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Organization{}, ErrNotFound
	}
	return org, err
}

// SeedStages inserts pipeline stages for a new organization. Existing stages
// are left untouched so provisioning is safe to repeat.
func (r *Repository) SeedStages(ctx context.Context, organizationID uuid.UUID, stages []domain.Stage) error {
	for _, s := range stages {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO stages (organization_id, name, stage_type, display_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (organization_id, name) DO NOTHING
		`, organizationID, s.Name, s.Type, s.DisplayOrder)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpsertScheduleSettings writes the organization's office-day configuration.
func (r *Repository) UpsertScheduleSettings(ctx context.Context, settings domain.ScheduleSettings) (domain.ScheduleSettings, error) {
	officeDays := toInts(settings.OfficeDays)
	inspectionDays := toInts(settings.InspectionDays)

	var out domain.ScheduleSettings
	var outOffice, outInspection []int
	var month int
	err := r.pool.QueryRow(ctx, `
		INSERT INTO organization_schedule_settings
			(organization_id, office_days, inspection_days, seasonal_follow_up_month, seasonal_follow_up_day, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			office_days = EXCLUDED.office_days,
			inspection_days = EXCLUDED.inspection_days,
			seasonal_follow_up_month = EXCLUDED.seasonal_follow_up_month,
			seasonal_follow_up_day = EXCLUDED.seasonal_follow_up_day,
			updated_at = NOW()
		RETURNING organization_id, office_days, inspection_days, seasonal_follow_up_month, seasonal_follow_up_day, updated_at
	`, settings.OrganizationID, officeDays, inspectionDays,
		int(settings.SeasonalFollowUpMonth), settings.SeasonalFollowUpDay,
	).Scan(&out.OrganizationID, &outOffice, &outInspection, &month, &out.SeasonalFollowUpDay, &out.UpdatedAt)
	if err != nil {
		return domain.ScheduleSettings{}, err
	}
	out.SeasonalFollowUpMonth = time.Month(month)
	out.OfficeDays = toWeekdays(outOffice)
	out.InspectionDays = toWeekdays(outInspection)
	return out, nil
}

func (r *Repository) GetScheduleSettings(ctx context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error) {
	var out domain.ScheduleSettings
	var officeDays, inspectionDays []int
	var month int
	err := r.pool.QueryRow(ctx, `
		SELECT organization_id, office_days, inspection_days, seasonal_follow_up_month, seasonal_follow_up_day, updated_at
		FROM organization_schedule_settings
		WHERE organization_id = $1
	`, organizationID).Scan(&out.OrganizationID, &officeDays, &inspectionDays, &month, &out.SeasonalFollowUpDay, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScheduleSettings{}, ErrNotFound
	}
	if err != nil {
		return domain.ScheduleSettings{}, err
	}
	out.SeasonalFollowUpMonth = time.Month(month)
	out.OfficeDays = toWeekdays(officeDays)
	out.InspectionDays = toWeekdays(inspectionDays)
	return out, nil
}

func toInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}

func toWeekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			out = append(out, time.Weekday(d))
		}
	}
	return out
}
