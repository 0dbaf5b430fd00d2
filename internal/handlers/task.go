package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	apierrors "github.com/nirmaan-tracker/nirmaan-api/internal/errors"
	"github.com/nirmaan-tracker/nirmaan-api/internal/middleware"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/nirmaan-tracker/nirmaan-api/internal/utils"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *services.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// dateLayouts are the accepted due_date formats, a plain date first.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ListTasks returns the tasks visible to the current user.
// Admins may narrow the list to one participant with user_id.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		Viewer: viewer,
		Search: c.Query("q"),
	}

	if input.UserID, ok = queryID(c, "user_id"); !ok {
		return
	}
	if input.LeadID, ok = queryID(c, "lead_id"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.Valid() {
			apierrors.BadRequest(c, "Invalid priority")
			return
		}
		input.Priority = &priority
	}
	if raw := c.Query("related_to"); raw != "" {
		relation := models.TaskRelation(raw)
		if !relation.Valid() {
			apierrors.BadRequest(c, "Invalid related_to")
			return
		}
		input.RelatedTo = &relation
	}

	params := utils.GetPaginationParams(c)
	input.Page = params.Page
	input.PageSize = params.Limit

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// NextNumber previews the number the next created task will receive
func (h *TaskHandler) NextNumber(c *gin.Context) {
	number, err := h.taskService.NextNumber()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_number": number})
}

type createTaskRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	AssignTo    uint64              `json:"assign_to"`
	DueDate     string              `json:"due_date"`
	RelatedTo   models.TaskRelation `json:"related_to"`
	ProjectName string              `json:"project_name"`
	LeadID      *uint64             `json:"lead_id"`
}

// CreateTask creates a new task assigned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignTo:    req.AssignTo,
		RelatedTo:   req.RelatedTo,
		ProjectName: req.ProjectName,
		LeadID:      req.LeadID,
		Actor:       viewer,
	}
	if req.DueDate != "" {
		due, ok := parseDate(req.DueDate)
		if !ok {
			apierrors.ValidationFailed(c, map[string]string{"due_date": "Due date must be YYYY-MM-DD"})
			return
		}
		input.DueDate = &due
	}

	task, err := h.taskService.CreateTask(input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

type updateTaskRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Status      *models.TaskStatus   `json:"status"`
	Priority    *models.TaskPriority `json:"priority"`
	AssignTo    *uint64              `json:"assign_to"`
	DueDate     *string              `json:"due_date"`
	RelatedTo   *models.TaskRelation `json:"related_to"`
	ProjectName *string              `json:"project_name"`
	LeadID      *uint64              `json:"lead_id"`
}

// UpdateTask applies a partial edit. Only the fields present in the body change.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssignTo:    req.AssignTo,
		RelatedTo:   req.RelatedTo,
		ProjectName: req.ProjectName,
		LeadID:      req.LeadID,
		Actor:       viewer,
	}
	if req.DueDate != nil {
		due, ok := parseDate(*req.DueDate)
		if !ok {
			apierrors.ValidationFailed(c, map[string]string{"due_date": "Due date must be YYYY-MM-DD"})
			return
		}
		input.DueDate = &due
	}

	task, err := h.taskService.UpdateTask(taskID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a finished task. Admin only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	viewer, ok := requireViewer(c)
	if !ok {
		return
	}
	taskID, ok := paramID(c, "id", "task")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID, viewer); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// GenerateTasks turns free-text site notes into task drafts using AI.
// Drafts are returned for review; nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,min=1,max=10000"`
	}

	var req GenerateTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	drafts, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text: req.Text,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
		"count": len(drafts),
	})
}
