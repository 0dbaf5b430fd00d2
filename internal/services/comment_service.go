package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"gorm.io/gorm"
)

// CommentService handles task comments
type CommentService struct {
	commentRepo   repository.CommentRepository
	taskRepo      repository.TaskRepository
	notifications *NotificationService
	events        EventPublisher
	now           func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	notifications *NotificationService,
	events EventPublisher,
) *CommentService {
	if events == nil {
		events = NopPublisher{}
	}
	return &CommentService{
		commentRepo:   commentRepo,
		taskRepo:      taskRepo,
		notifications: notifications,
		events:        events,
		now:           time.Now,
	}
}

// SetClock replaces the time source used for comment timestamps.
func (s *CommentService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateCommentInput represents a new comment on a task
type CreateCommentInput struct {
	TaskID          uint64
	Message         string
	ParentCommentID *uint64
	Actor           access.Viewer
}

// CreateComment stores a comment stamped with the server time
func (s *CommentService) CreateComment(input CreateCommentInput) (*models.Comment, error) {
	task, err := s.visibleTask(input.TaskID, input.Actor)
	if err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		errs.add("message", "Message is required")
	}
	if input.ParentCommentID != nil {
		parent, err := s.commentRepo.FindByID(*input.ParentCommentID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			errs.add("parent_comment_id", "Parent comment does not exist")
		case err != nil:
			return nil, fmt.Errorf("failed to find parent comment: %w", err)
		case parent.TaskID != task.ID:
			errs.add("parent_comment_id", "Parent comment belongs to another task")
		case parent.ParentCommentID != nil:
			errs.add("parent_comment_id", "Replies can only answer a top-level comment")
		}
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:          task.ID,
		UserID:          input.Actor.UserID,
		Message:         message,
		ParentCommentID: input.ParentCommentID,
		CreatedAt:       s.now(),
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.commentRepo.FindByID(comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}

	notice := func(userID uint64) models.Notification {
		return models.Notification{
			UserID:  userID,
			Type:    models.NotificationCommentAdded,
			Title:   fmt.Sprintf("New comment on %s", task.TaskNumber),
			Message: fmt.Sprintf("%s: %s", created.Author.DisplayName(), truncate(created.Message, 140)),
			TaskID:  &task.ID,
		}
	}
	s.notifications.Notify(input.Actor.UserID, notice(task.AssignTo), notice(task.AssignBy))
	s.events.CommentCreated(dto.ToCommentDTO(*created))

	return created, nil
}

// ListComments returns a task's comments in creation order
func (s *CommentService) ListComments(taskID uint64, viewer access.Viewer) ([]models.Comment, error) {
	if _, err := s.visibleTask(taskID, viewer); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) visibleTask(taskID uint64, viewer access.Viewer) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if !access.CanViewTask(viewer, task.AssignTo, task.AssignBy) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
