package repository

import (
	"context"
	"errors"
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrStageNotFound = errors.New("stage not found")

func (r *Repository) GetStageByName(ctx context.Context, organizationID uuid.UUID, name domain.StageName) (domain.Stage, error) {
	var s domain.Stage
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, stage_type, display_order, created_at
		FROM stages
		WHERE organization_id = $1 AND name = $2
	`, organizationID, name).Scan(
		&s.ID, &s.OrganizationID, &s.Name, &s.Type, &s.DisplayOrder, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stage{}, ErrStageNotFound
	}
	return s, err
}

func (r *Repository) ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, stage_type, display_order, created_at
		FROM stages
		WHERE organization_id = $1
		ORDER BY display_order ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]domain.Stage, 0)
	for rows.Next() {
		var s domain.Stage
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Type, &s.DisplayOrder, &s.CreatedAt); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// SeedStages inserts the default pipeline stages for an organization,
// skipping any that already exist. Used by explicit provisioning and by the
// engine's lazy-seed guard.
func (r *Repository) SeedStages(ctx context.Context, organizationID uuid.UUID, stages []domain.Stage) error {
	for _, s := range stages {
		_, err := r.db.Exec(ctx, `
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

func (r *Repository) CountStages(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM stages WHERE organization_id = $1
	`, organizationID).Scan(&count)
	return count, err
}

// GetScheduleSettings returns the organization's office-day configuration.
// Weekday columns are stored as integer arrays (Sunday=0).
func (r *Repository) GetScheduleSettings(ctx context.Context, organizationID uuid.UUID) (domain.ScheduleSettings, error) {
	var settings domain.ScheduleSettings
	var officeDays, inspectionDays []int
	var month int
	err := r.db.QueryRow(ctx, `
		SELECT organization_id, office_days, inspection_days, seasonal_follow_up_month, seasonal_follow_up_day, updated_at
		FROM organization_schedule_settings
		WHERE organization_id = $1
	`, organizationID).Scan(
		&settings.OrganizationID, &officeDays, &inspectionDays, &month, &settings.SeasonalFollowUpDay, &settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row is not an error: the scheduler falls back to defaults.
		return domain.ScheduleSettings{OrganizationID: organizationID}, nil
	}
	if err != nil {
		return domain.ScheduleSettings{}, err
	}
	settings.SeasonalFollowUpMonth = time.Month(month)
	settings.OfficeDays = toWeekdays(officeDays)
	settings.InspectionDays = toWeekdays(inspectionDays)
	return settings, nil
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
