package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Roroshi7/TaskManager/internal/analytics"
	"github.com/Roroshi7/TaskManager/internal/auth"
	dom "github.com/Roroshi7/TaskManager/internal/domain"
	"github.com/Roroshi7/TaskManager/internal/dto"
	"github.com/Roroshi7/TaskManager/internal/metrics"
	"github.com/Roroshi7/TaskManager/internal/service"
	"github.com/Roroshi7/TaskManager/internal/view"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const trendMaxDays = 90

type TaskHandler struct {
	svc *service.TaskService
	met *metrics.Metrics
}

func NewTaskHandler(svc *service.TaskService, met *metrics.Metrics) *TaskHandler {
	return &TaskHandler{svc: svc, met: met}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	owner := auth.OwnerIDFromContext(c)
	t, err := h.svc.Create(c.Request.Context(), owner, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      dom.Status(req.Status),
		Priority:    dom.Priority(req.Priority),
		DueDate:     req.DueDate.Ptr(),
	})
	h.met.ObserveOp("create", err)
	if err != nil {
		h.respondError(c, err, "Error creating task")
		return
	}
	c.JSON(http.StatusCreated, dto.TaskToResponse(t))
}

// List godoc
// @Summary      List tasks
// @Description  Returns all of the caller's tasks, newest first. Optional
// @Description  status/priority filters and sortBy/order are applied in memory
// @Description  over the fetched snapshot.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "Filter by status (or all)"
// @Param        priority  query  string  false  "Filter by priority (or all)"
// @Param        sortBy    query  string  false  "createdAt | dueDate | priority"
// @Param        order     query  string  false  "asc | desc"
// @Success      200  {array}   dto.TaskResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	owner := auth.OwnerIDFromContext(c)
	list, err := h.svc.List(c.Request.Context(), owner)
	h.met.ObserveOp("list", err)
	if err != nil {
		h.respondError(c, err, "Error fetching tasks")
		return
	}

	snap := view.NewSnapshot(list)
	out := snap.Apply(view.Query{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		SortBy:   view.SortKey(c.Query("sortBy")),
		Order:    view.Order(c.Query("order")),
	})
	c.JSON(http.StatusOK, dto.TasksToResponses(out))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	owner := auth.OwnerIDFromContext(c)
	t, err := h.svc.GetByID(c.Request.Context(), owner, id)
	h.met.ObserveOp("get", err)
	if err != nil {
		h.respondError(c, err, "Error fetching task")
		return
	}
	c.JSON(http.StatusOK, dto.TaskToResponse(t))
}

// Update godoc
// @Summary      Update a task
// @Description  Applies only the fields present in the body; id, owner and
// @Description  createdAt never change.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		s := dom.Status(*req.Status)
		in.Status = &s
	}
	if req.Priority != nil {
		p := dom.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.DueDate != nil {
		in.SetDueDate = true
		in.DueDate = req.DueDate.Ptr()
	}

	owner := auth.OwnerIDFromContext(c)
	t, err := h.svc.Update(c.Request.Context(), owner, id, in)
	h.met.ObserveOp("update", err)
	if err != nil {
		h.respondError(c, err, "Error updating task")
		return
	}
	c.JSON(http.StatusOK, dto.TaskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Description  Permanently removes the task; there is no soft delete.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	owner := auth.OwnerIDFromContext(c)
	err := h.svc.Delete(c.Request.Context(), owner, id)
	h.met.ObserveOp("delete", err)
	if err != nil {
		h.respondError(c, err, "Error deleting task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Stats godoc
// @Summary      Task statistics
// @Description  Totals, overdue count, completion rate and status/priority
// @Description  distributions, recomputed from the current task list.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.TaskStatsResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	owner := auth.OwnerIDFromContext(c)
	list, err := h.svc.List(c.Request.Context(), owner)
	h.met.ObserveOp("stats", err)
	if err != nil {
		h.respondError(c, err, "Error fetching tasks")
		return
	}

	sum := analytics.Summarize(list, time.Now())
	c.JSON(http.StatusOK, dto.TaskStatsResponse{
		Total:          sum.Total,
		Completed:      sum.Completed,
		InProgress:     sum.InProgress,
		Todo:           sum.Todo,
		Overdue:        sum.Overdue,
		CompletionRate: sum.CompletionRate,
		ByStatus:       statusCounts(list),
		ByPriority:     priorityCounts(list),
	})
}

// Trend godoc
// @Summary      Completion trend
// @Description  Daily created/completed counts for the last N calendar days,
// @Description  oldest first, ending today. Completion is bucketed by each
// @Description  task's current updatedAt, not a historical log.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        days  query     int  false  "Window size in days (default 7)"
// @Success      200   {object}  dto.TrendResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /tasks/trend [get]
func (h *TaskHandler) Trend(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > trendMaxDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
			return
		}
		days = n
	}

	owner := auth.OwnerIDFromContext(c)
	list, err := h.svc.List(c.Request.Context(), owner)
	h.met.ObserveOp("trend", err)
	if err != nil {
		h.respondError(c, err, "Error fetching tasks")
		return
	}

	tr := analytics.CompletionTrend(list, days, time.Now())
	c.JSON(http.StatusOK, dto.TrendResponse{
		Labels:    tr.Labels,
		Completed: tr.Completed,
		Created:   tr.Created,
	})
}

// respondError maps the service taxonomy to status codes. Anything outside it
// becomes a static 500 so no internal detail leaks to the client.
func (h *TaskHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func statusCounts(list []dom.Task) map[string]int {
	out := make(map[string]int, 3)
	for k, v := range analytics.StatusDistribution(list) {
		out[string(k)] = v
	}
	return out
}

func priorityCounts(list []dom.Task) map[string]int {
	out := make(map[string]int, 3)
	for k, v := range analytics.PriorityDistribution(list) {
		out[string(k)] = v
	}
	return out
}
