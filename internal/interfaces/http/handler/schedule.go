package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pipelineapp "github.com/seoblog/backend/internal/application/pipeline"
	"github.com/seoblog/backend/internal/domain/pipeline"
	"github.com/seoblog/backend/internal/domain/shared"
)

// ScheduleService manages recurring generations
type ScheduleService interface {
	Create(ctx context.Context, req pipelineapp.CreateScheduleRequest) (*pipelineapp.ScheduleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error)
	List(ctx context.Context, page, pageSize int) (shared.Paginated[pipelineapp.ScheduleResponse], error)
	Enable(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error)
	Disable(ctx context.Context, id uuid.UUID) (*pipelineapp.ScheduleResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Trigger(ctx context.Context, id uuid.UUID) (*pipeline.Run, error)
}

// ListSchedulesQuery pages the schedule listing
type ListSchedulesQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ScheduleHandler handles schedule endpoints
type ScheduleHandler struct {
	BaseHandler
	schedules ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedules ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Create stores an enabled schedule
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req pipelineapp.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	sched, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sched)
}

// List returns a page of schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	var q ListSchedulesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	page, err := h.schedules.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get returns one schedule
func (h *ScheduleHandler) Get(c *gin.Context) {
	h.withID(c, h.schedules.Get)
}

// Enable turns a schedule on
func (h *ScheduleHandler) Enable(c *gin.Context) {
	h.withID(c, h.schedules.Enable)
}

// Disable turns a schedule off
func (h *ScheduleHandler) Disable(c *gin.Context) {
	h.withID(c, h.schedules.Disable)
}

// Delete removes a schedule
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Trigger starts a run from the schedule right away
func (h *ScheduleHandler) Trigger(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	run, err := h.schedules.Trigger(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, pipelineapp.ToRunResponse(run, false))
}

func (h *ScheduleHandler) withID(c *gin.Context, fn func(context.Context, uuid.UUID) (*pipelineapp.ScheduleResponse, error)) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	sched, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sched)
}
