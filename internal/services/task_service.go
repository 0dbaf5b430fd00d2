package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/metrics"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrAdminRequired          = errors.New("only an admin can perform this action")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo      repository.TaskRepository
	userRepo      repository.UserRepository
	leadRepo      repository.LeadRepository
	notifications *NotificationService
	events        EventPublisher
	aiService     *AIService
	logger        *zap.Logger
	now           func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	leadRepo repository.LeadRepository,
	notifications *NotificationService,
	events EventPublisher,
	aiService *AIService,
	logger *zap.Logger,
) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		taskRepo:      taskRepo,
		userRepo:      userRepo,
		leadRepo:      leadRepo,
		notifications: notifications,
		events:        events,
		aiService:     aiService,
		logger:        logger,
		now:           time.Now,
	}
}

// SetClock replaces the time source used for due date checks.
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Viewer access.Viewer
	// UserID narrows an admin's list to one participant; other roles always see their own tasks.
	UserID    *uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	RelatedTo *models.TaskRelation
	LeadID    *uint64
	Search    string
	Page      int
	PageSize  int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Name        string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	AssignTo    uint64
	DueDate     *time.Time
	RelatedTo   models.TaskRelation
	ProjectName string
	LeadID      *uint64
	Actor       access.Viewer
}

// UpdateTaskInput represents a partial task edit
type UpdateTaskInput struct {
	Name        *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	AssignTo    *uint64
	DueDate     *time.Time
	RelatedTo   *models.TaskRelation
	ProjectName *string
	LeadID      *uint64
	Actor       access.Viewer
}

// ListTasks returns the tasks visible to the viewer
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:    input.Status,
		Priority:  input.Priority,
		RelatedTo: input.RelatedTo,
		LeadID:    input.LeadID,
		Search:    strings.TrimSpace(input.Search),
		Page:      input.Page,
		PageSize:  input.PageSize,
	}

	if input.Viewer.IsAdmin() {
		filter.ParticipantID = input.UserID
	} else {
		self := input.Viewer.UserID
		filter.ParticipantID = &self
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task the viewer can see. Invisible tasks read as missing.
func (s *TaskService) GetTask(taskID uint64, viewer access.Viewer) (*models.Task, error) {
	task, err := s.findTask(taskID, repository.TaskPreloads...)
	if err != nil {
		return nil, err
	}
	if !access.CanViewTask(viewer, task.AssignTo, task.AssignBy) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// NextNumber previews the number the next created task will receive.
func (s *TaskService) NextNumber() (string, error) {
	n, err := s.taskRepo.PeekNextNumber()
	if err != nil {
		return "", fmt.Errorf("failed to read task sequence: %w", err)
	}
	return repository.FormatTaskNumber(n), nil
}

// CreateTask validates and stores a new task assigned by the actor
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	task := &models.Task{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		AssignTo:    input.AssignTo,
		AssignBy:    input.Actor.UserID,
		RelatedTo:   input.RelatedTo,
		ProjectName: strings.TrimSpace(input.ProjectName),
		LeadID:      input.LeadID,
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}

	if err := s.validateTask(task, true, ""); err != nil {
		return nil, err
	}
	normalizeRelation(task)

	if err := s.taskRepo.CreateWithNumber(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	metrics.TasksCreated.Inc()

	created, err := s.taskRepo.FindByID(task.ID, repository.TaskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifications.Notify(input.Actor.UserID, models.Notification{
		UserID:  created.AssignTo,
		Type:    models.NotificationTaskAssigned,
		Title:   fmt.Sprintf("New task %s", created.TaskNumber),
		Message: fmt.Sprintf("%s assigned you %q", created.Assigner.DisplayName(), created.Name),
		TaskID:  &created.ID,
	})
	s.events.TaskCreated(dto.ToTaskDTO(*created))

	return created, nil
}

// UpdateTask applies a partial edit. Concurrent edits are last write wins.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if !access.CanEditTask(input.Actor, task.AssignTo, task.AssignBy) {
		return nil, ErrTaskPermissionDenied
	}

	previous := *task
	if input.Name != nil {
		task.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.AssignTo != nil {
		task.AssignTo = *input.AssignTo
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.RelatedTo != nil {
		task.RelatedTo = *input.RelatedTo
	}
	if input.ProjectName != nil {
		task.ProjectName = strings.TrimSpace(*input.ProjectName)
	}
	if input.LeadID != nil {
		task.LeadID = input.LeadID
	}

	// Past due dates only fail when the edit moves the date.
	checkDue := input.DueDate != nil && !sameDay(*input.DueDate, previous.DueDate)
	if err := s.validateTask(task, checkDue, previous.Status); err != nil {
		return nil, err
	}
	normalizeRelation(task)

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.FindByID(task.ID, repository.TaskPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notifyUpdate(input.Actor.UserID, previous, *updated)
	s.events.TaskUpdated(dto.ToTaskDTO(*updated), previous.AssignTo)

	return updated, nil
}

// DeleteTask hard deletes a task. Admin only; pending tasks are refused.
func (s *TaskService) DeleteTask(taskID uint64, actor access.Viewer) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	task, err := s.findTask(taskID, "Assignee", "Assigner")
	if err != nil {
		return err
	}
	if guard := TaskGuard(*task); guard != nil {
		return guard
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	notice := func(userID uint64) models.Notification {
		return models.Notification{
			UserID:  userID,
			Type:    models.NotificationTaskDeleted,
			Title:   fmt.Sprintf("Task %s deleted", task.TaskNumber),
			Message: fmt.Sprintf("%q was removed", task.Name),
		}
	}
	s.notifications.Notify(actor.UserID, notice(task.AssignTo), notice(task.AssignBy))
	s.events.TaskDeleted(dto.ToTaskDTO(*task))

	return nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTasks turns free-text site notes into task drafts. Nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	now := s.now()
	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		aiTask.Name = strings.TrimSpace(aiTask.Name)
		if aiTask.Name == "" {
			continue
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}
		if aiTask.DueDate != nil && dueDateInPast(*aiTask.DueDate, now) {
			aiTask.DueDate = nil
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// validateTask checks every field in one pass. previousStatus is empty on create.
func (s *TaskService) validateTask(task *models.Task, checkDue bool, previousStatus models.TaskStatus) error {
	errs := fieldErrors{}

	// Required
	if task.Name == "" {
		errs.add("name", "Task name is required")
	}
	if task.AssignTo == 0 {
		errs.add("assign_to", "Assignee is required")
	}
	switch {
	case task.Status == "":
		errs.add("status", "Status is required")
	case !task.Status.Valid():
		errs.add("status", fmt.Sprintf("Unknown status %q", task.Status))
	case previousStatus != "" && !CanTransition(previousStatus, task.Status):
		errs.add("status", fmt.Sprintf("Cannot move a task from %s to %s", previousStatus, task.Status))
	}
	switch {
	case task.Priority == "":
		errs.add("priority", "Priority is required")
	case !task.Priority.Valid():
		errs.add("priority", fmt.Sprintf("Unknown priority %q", task.Priority))
	}
	if task.DueDate.IsZero() {
		errs.add("due_date", "Due date is required")
	}
	if !task.RelatedTo.Valid() {
		errs.add("related_to", fmt.Sprintf("Unknown relation %q", task.RelatedTo))
	}

	// Conditional
	if !errs.has("assign_to") {
		if msg, err := s.checkAssignee(task.AssignTo); err != nil {
			return err
		} else if msg != "" {
			errs.add("assign_to", msg)
		}
	}
	switch task.RelatedTo {
	case models.TaskRelationProject:
		if task.ProjectName == "" {
			errs.add("project_name", "Project name is required when the task relates to a project")
		}
	case models.TaskRelationLead:
		if task.LeadID == nil || *task.LeadID == 0 {
			errs.add("lead_id", "Lead is required when the task relates to a lead")
		} else if msg, err := s.checkLead(*task.LeadID); err != nil {
			return err
		} else if msg != "" {
			errs.add("lead_id", msg)
		}
	}

	// Date
	if checkDue && !task.DueDate.IsZero() && dueDateInPast(task.DueDate, s.now()) {
		errs.add("due_date", "Due date cannot be in the past")
	}

	return errs.err()
}

func (s *TaskService) checkAssignee(userID uint64) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "Assignee does not exist", nil
		}
		return "", fmt.Errorf("failed to find assignee: %w", err)
	}
	if user.Status != models.UserStatusActive {
		return "Assignee is inactive", nil
	}
	return "", nil
}

func (s *TaskService) checkLead(leadID uint64) (string, error) {
	if _, err := s.leadRepo.FindByID(leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "Lead does not exist", nil
		}
		return "", fmt.Errorf("failed to find lead: %w", err)
	}
	return "", nil
}

// notifyUpdate tells the new assignee about a reassignment and the other party about status changes.
func (s *TaskService) notifyUpdate(actorID uint64, before, after models.Task) {
	var batch []models.Notification
	if before.AssignTo != after.AssignTo {
		batch = append(batch, models.Notification{
			UserID:  after.AssignTo,
			Type:    models.NotificationTaskAssigned,
			Title:   fmt.Sprintf("Task %s assigned to you", after.TaskNumber),
			Message: fmt.Sprintf("%q is now yours", after.Name),
			TaskID:  &after.ID,
		})
	}
	if before.Status != after.Status {
		for _, userID := range []uint64{after.AssignTo, after.AssignBy} {
			batch = append(batch, models.Notification{
				UserID:  userID,
				Type:    models.NotificationTaskUpdated,
				Title:   fmt.Sprintf("Task %s is %s", after.TaskNumber, after.Status),
				Message: fmt.Sprintf("%q moved from %s to %s", after.Name, before.Status, after.Status),
				TaskID:  &after.ID,
			})
		}
	}
	if len(batch) > 0 {
		s.notifications.Notify(actorID, batch...)
	}
}

func (s *TaskService) findTask(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// normalizeRelation drops the reference fields that do not belong to the chosen relation.
func normalizeRelation(task *models.Task) {
	switch task.RelatedTo {
	case models.TaskRelationProject:
		task.LeadID = nil
		task.Lead = nil
	case models.TaskRelationLead:
		task.ProjectName = ""
	default:
		task.ProjectName = ""
		task.LeadID = nil
		task.Lead = nil
	}
}
