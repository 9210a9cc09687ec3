package handler

import (
	"net/http"
	"time"

	"rooftrack_backend/internal/organizations/service"
	"rooftrack_backend/internal/organizations/transport"
	"rooftrack_backend/platform/httpkit"
	"rooftrack_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgMissingOrg       = "organization context is required"
)

// Handler handles HTTP requests for organizations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// orgFromContext pulls the authenticated organization ID set by the auth
// middleware.
func orgFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(httpkit.ContextOrgIDKey)
	if !exists {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return uuid.UUID{}, false
	}
	orgID, ok := value.(uuid.UUID)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, msgMissingOrg, nil)
		return uuid.UUID{}, false
	}
	return orgID, true
}

// Create handles POST /organizations.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	org, err := h.svc.Provision(c.Request.Context(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToOrganizationResponse(org))
}

// Get handles GET /organizations/me.
func (h *Handler) Get(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	org, err := h.svc.Get(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToOrganizationResponse(org))
}

// GetSettings handles GET /organizations/me/schedule-settings.
func (h *Handler) GetSettings(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	settings, err := h.svc.GetSettings(c.Request.Context(), orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSettingsResponse(settings))
}

// UpdateSettings handles PUT /organizations/me/schedule-settings.
func (h *Handler) UpdateSettings(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	var req transport.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	settings, err := h.svc.UpdateSettings(c.Request.Context(), orgID, service.UpdateSettingsParams{
		OfficeDays:            transport.IntsToWeekdays(req.OfficeDays),
		InspectionDays:        transport.IntsToWeekdays(req.InspectionDays),
		SeasonalFollowUpMonth: time.Month(req.SeasonalFollowUpMonth),
		SeasonalFollowUpDay:   req.SeasonalFollowUpDay,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSettingsResponse(settings))
}
