package handler

import (
	"net/http"
	"time"

	"rooftrack_backend/internal/contacts/domain"
	"rooftrack_backend/internal/contacts/tasks"
	"rooftrack_backend/internal/contacts/transport"
	"rooftrack_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StartTask handles PATCH /tasks/:id/start.
func (h *Handler) StartTask(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Start(c.Request.Context(), id, orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(task))
}

// CompleteTask handles PATCH /tasks/:id/complete.
func (h *Handler) CompleteTask(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	opts := tasks.CompleteOptions{Reschedule: req.Reschedule}
	if req.NextTaskType != nil {
		taskType, ok := domain.ParseTaskType(*req.NextTaskType)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, "unknown task type", nil)
			return
		}
		opts.NextTaskType = &taskType
	}

	task, err := h.tasks.Complete(c.Request.Context(), id, orgID, opts)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(task))
}

// RescheduleTask handles PATCH /tasks/:id/reschedule. Exactly one of dueDate
// or officeDays selects the target date.
func (h *Handler) RescheduleTask(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req transport.RescheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var (
		task domain.Task
		err  error
	)
	switch {
	case req.DueDate != nil:
		task, err = h.tasks.Reschedule(c.Request.Context(), id, orgID, *req.DueDate)
	case req.OfficeDays != nil:
		task, err = h.tasks.RescheduleByOfficeDays(c.Request.Context(), id, orgID, *req.OfficeDays)
	default:
		httpkit.Error(c, http.StatusBadRequest, "dueDate or officeDays is required", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTaskResponse(task))
}

// BatchReschedule handles POST /tasks/batch-reschedule.
func (h *Handler) BatchReschedule(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	var req transport.BatchRescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var (
		result tasks.BatchResult
		err    error
	)
	switch {
	case req.DueDate != nil:
		result, err = h.tasks.BatchReschedule(c.Request.Context(), req.TaskIDs, orgID, *req.DueDate)
	case req.OfficeDays != nil:
		result, err = h.tasks.BatchRescheduleByOfficeDays(c.Request.Context(), req.TaskIDs, orgID, *req.OfficeDays)
	default:
		httpkit.Error(c, http.StatusBadRequest, "dueDate or officeDays is required", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.BatchRescheduleResponse{
		Updated: emptyIfNil(result.Updated),
		Failed:  emptyIfNil(result.Failed),
	})
}

// ListDueTasks handles GET /tasks/due.
func (h *Handler) ListDueTasks(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	dueBy := time.Now()
	if raw := c.Query("dueBy"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "dueBy must be YYYY-MM-DD", nil)
			return
		}
		dueBy = parsed.AddDate(0, 0, 1).Add(-time.Second)
	}

	list, err := h.tasks.ListDue(c.Request.Context(), orgID, dueBy)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.TaskResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, transport.ToTaskResponse(t))
	}
	httpkit.OK(c, resp)
}

// Reconcile handles POST /workflow/reconcile: an on-demand run of the sweep
// scoped to the caller's organization.
func (h *Handler) Reconcile(c *gin.Context) {
	orgID, ok := orgFromContext(c)
	if !ok {
		return
	}

	result, err := h.sweeper.CheckContactsWithoutTasks(c.Request.Context(), &orgID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func emptyIfNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
