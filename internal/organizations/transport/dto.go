// Package transport defines the request and response shapes of the
// organizations API.
package transport

import (
	"time"

	"rooftrack_backend/internal/contacts/domain"

	"github.com/google/uuid"
)

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

type OrganizationResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToOrganizationResponse(org domain.Organization) OrganizationResponse {
	return OrganizationResponse{ID: org.ID, Name: org.Name, CreatedAt: org.CreatedAt}
}

type UpdateSettingsRequest struct {
	OfficeDays            []int `json:"officeDays" validate:"required,min=1,dive,weekday"`
	InspectionDays        []int `json:"inspectionDays" validate:"dive,weekday"`
	SeasonalFollowUpMonth int   `json:"seasonalFollowUpMonth" validate:"required,min=1,max=12"`
	SeasonalFollowUpDay   int   `json:"seasonalFollowUpDay" validate:"required,min=1,max=31"`
}

type SettingsResponse struct {
	OrganizationID        uuid.UUID `json:"organizationId"`
	OfficeDays            []int     `json:"officeDays"`
	InspectionDays        []int     `json:"inspectionDays"`
	SeasonalFollowUpMonth int       `json:"seasonalFollowUpMonth"`
	SeasonalFollowUpDay   int       `json:"seasonalFollowUpDay"`
}

func ToSettingsResponse(s domain.ScheduleSettings) SettingsResponse {
	return SettingsResponse{
		OrganizationID:        s.OrganizationID,
		OfficeDays:            weekdaysToInts(s.OfficeDays),
		InspectionDays:        weekdaysToInts(s.InspectionDays),
		SeasonalFollowUpMonth: int(s.SeasonalFollowUpMonth),
		SeasonalFollowUpDay:   s.SeasonalFollowUpDay,
	}
}

func weekdaysToInts(days []time.Weekday) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		out = append(out, int(d))
	}
	return out
}

// IntsToWeekdays converts wire weekday indices to time.Weekday values.
func IntsToWeekdays(days []int) []time.Weekday {
	out := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, time.Weekday(d))
	}
	return out
}
