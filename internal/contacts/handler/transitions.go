package handler

import (
	"net/http"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/engine"
	"rooftrack_backend/internal/contacts/service"
	"rooftrack_backend/internal/contacts/transport"
	"rooftrack_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// respondContact reloads the contact so the response carries the fresh open
// task and action hint.
func (h *Handler) respondContact(c *gin.Context, contact domain.Contact) {
	detail, err := h.svc.Get(c.Request.Context(), contact.ID, contact.OrganizationID)
	if err != nil {
		// The transition committed; fall back to the bare contact.
		detail = service.ContactDetail{Contact: contact, Action: domain.ActionNone}
	}
	httpkit.OK(c, transport.ToContactResponse(detail))
}

// ScheduleInspection handles POST /contacts/:id/transitions/schedule-inspection.
func (h *Handler) ScheduleInspection(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.ScheduleInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.eng.TransitionToScheduledInspection(c.Request.Context(), orgID, id, req.AppointmentTime, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// AfterInspection handles POST /contacts/:id/transitions/after-inspection.
func (h *Handler) AfterInspection(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.AfterInspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.eng.TransitionAfterInspection(c.Request.Context(), orgID, id, engine.AfterInspectionParams{
		Outcome:    engine.InspectionOutcome(req.Outcome),
		Notes:      req.Notes,
		QuoteType:  req.QuoteType,
		Carrier:    req.Carrier,
		DateOfLoss: req.DateOfLoss,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// FirstMessageSent handles POST /contacts/:id/transitions/first-message-sent.
func (h *Handler) FirstMessageSent(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	contact, err := h.eng.MarkFirstMessageSent(c.Request.Context(), orgID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// QuoteSent handles POST /contacts/:id/transitions/quote-sent.
func (h *Handler) QuoteSent(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.QuoteSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	contact, err := h.eng.MarkQuoteSent(c.Request.Context(), orgID, id, req.QuoteType)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// ClaimRecSent handles POST /contacts/:id/transitions/claim-rec-sent.
func (h *Handler) ClaimRecSent(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.ClaimRecSentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	contact, err := h.eng.MarkClaimRecSent(c.Request.Context(), orgID, id, engine.ClaimInfo{
		Carrier:      req.Carrier,
		DateOfLoss:   req.DateOfLoss,
		PolicyNumber: req.PolicyNumber,
		ClaimNumber:  req.ClaimNumber,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// PASent handles POST /contacts/:id/transitions/pa-sent.
func (h *Handler) PASent(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	contact, err := h.eng.MarkPASent(c.Request.Context(), orgID, id)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// OpenClaim handles POST /contacts/:id/transitions/open-claim.
func (h *Handler) OpenClaim(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.OpenClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.eng.TransitionToOpenClaim(c.Request.Context(), orgID, id, req.FileID)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// Terminal handles POST /contacts/:id/transitions/terminal.
func (h *Handler) Terminal(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.TerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.eng.TransitionToTerminal(c.Request.Context(), orgID, id, engine.TerminalTarget(req.Target), req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}

// JobStatus handles PATCH /contacts/:id/job-status.
func (h *Handler) JobStatus(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.JobStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	status, _ := domain.ParseJobStatus(req.Status)
	contact, err := h.eng.UpdateJobStatus(c.Request.Context(), orgID, id, status, req.Date)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondContact(c, contact)
}
