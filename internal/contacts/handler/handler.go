package handler

import (
	"net/http"
	"strconv"

	"rooftrack_backend/internal/contacts/compose"
	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/engine"
	"rooftrack_backend/internal/contacts/reconcile"
	"rooftrack_backend/internal/contacts/repository"
	"rooftrack_backend/internal/contacts/service"
	"rooftrack_backend/internal/contacts/tasks"
	"rooftrack_backend/internal/contacts/transport"
	"rooftrack_backend/platform/httpkit"
	"rooftrack_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
	msgMissingOrg       = "organization context is required"
)

// Handler handles HTTP requests for contacts, transitions, and tasks.
type Handler struct {
	svc         *service.Service
	eng         *engine.Service
	tasks       *tasks.Service
	sweeper     *reconcile.Service
	val         *validator.Validator
	companyName string
}

func New(svc *service.Service, eng *engine.Service, taskSvc *tasks.Service, sweeper *reconcile.Service, val *validator.Validator, companyName string) *Handler {
	return &Handler{
		svc:         svc,
		eng:         eng,
		tasks:       taskSvc,
		sweeper:     sweeper,
		val:         val,
		companyName: companyName,
	}
}

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

func idParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

func userFromContext(c *gin.Context) *uuid.UUID {
	value, exists := c.Get(httpkit.ContextUserIDKey)
	if !exists {
		return nil
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &userID
}

// Create handles POST /contacts.
func (h *Handler) Create(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	var req transport.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	detail, err := h.svc.Create(c.Request.Context(), orgID, service.CreateParams{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToContactResponse(detail))
}

// List handles GET /contacts.
func (h *Handler) List(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	params := repository.ListContactsParams{
		OrganizationID: orgID,
		Search:         c.Query("search"),
	}
	if stageRaw := c.Query("stage"); stageRaw != "" {
		stage, ok := domain.ParseStage(stageRaw)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, "unknown stage", nil)
			return
		}
		params.StageName = &stage
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		params.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		params.Offset = offset
	}

	details, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.ListContactsResponse{Total: total, Contacts: make([]transport.ContactResponse, 0, len(details))}
	for _, detail := range details {
		resp.Contacts = append(resp.Contacts, transport.ToContactResponse(detail))
	}
	httpkit.OK(c, resp)
}

// GetByID handles GET /contacts/:id.
func (h *Handler) GetByID(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), id, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToContactResponse(detail))
}

// Delete handles DELETE /contacts/:id.
func (h *Handler) Delete(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id, orgID)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// AddNote handles POST /contacts/:id/notes.
func (h *Handler) AddNote(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	note, err := h.svc.AddNote(c.Request.Context(), id, orgID, userFromContext(c), req.Body)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToNoteResponse(note))
}

// Timeline handles GET /contacts/:id/notes.
func (h *Handler) Timeline(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	notes, err := h.svc.Timeline(c.Request.Context(), id, orgID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, transport.ToNoteResponse(n))
	}
	httpkit.OK(c, resp)
}

// AttachFile handles POST /contacts/:id/files.
func (h *Handler) AttachFile(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.AttachFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	file, err := h.svc.AttachFile(c.Request.Context(), id, orgID, service.AttachFileParams{
		FileName:     req.FileName,
		ContentType:  req.ContentType,
		SizeBytes:    req.SizeBytes,
		IsPADocument: req.IsPADocument,
		UploadedBy:   userFromContext(c),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToFileResponse(file))
}

// ListFiles handles GET /contacts/:id/files.
func (h *Handler) ListFiles(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	files, err := h.svc.ListFiles(c.Request.Context(), id, orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, transport.ToFileResponse(f))
	}
	httpkit.OK(c, resp)
}

// PreviewMessage handles POST /contacts/:id/messages/preview.
func (h *Handler) PreviewMessage(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.PreviewMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), id, orgID)
	if httpkit.HandleError(c, err) {
		return
	}

	text, err := compose.RenderMessage(compose.Category(req.Category), compose.ContextFor(&detail.Contact, h.companyName))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unknown message category", nil)
		return
	}
	httpkit.OK(c, transport.PreviewMessageResponse{Text: text})
}
