package repository

import (
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateWithNumber allocates the next task number and inserts the task in one transaction
	CreateWithNumber(task *models.Task) error

	// PeekNextNumber returns the number the next create would receive without reserving it
	PeekNextNumber() (uint64, error)

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update saves every column of a task
	Update(task *models.Task) error

	// Delete hard deletes a task and its comments
	Delete(id uint64) error

	// FindPendingByUser lists non-terminal tasks the user is assigned to or assigned
	FindPendingByUser(userID uint64) ([]models.Task, error)

	// FindPendingByLead lists non-terminal tasks related to a lead
	FindPendingByLead(leadID uint64) ([]models.Task, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// ParticipantID restricts results to tasks where assign_to or assign_by matches
	ParticipantID *uint64
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	RelatedTo     *models.TaskRelation
	LeadID        *uint64
	Search        string
	Page          int
	PageSize      int
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create inserts a comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByTask returns a task's comments ordered by creation time
	ListByTask(taskID uint64) ([]models.Comment, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByLogin finds a user by username or email
	FindByLogin(identifier string) (*models.User, error)

	// ExistsByEmailOrUsername reports whether another user already uses the email or username
	ExistsByEmailOrUsername(email, username string, excludeID uint64) (bool, error)

	// List lists users matching the filter
	List(filter UserFilter) ([]models.User, error)

	// Update saves every column of a user
	Update(user *models.User) error

	// Delete hard deletes a user
	Delete(id uint64) error

	// CountByRole counts users holding a role
	CountByRole(role models.UserRole) (int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Role   *models.UserRole
	Status *models.UserStatus
	Search string
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	Create(lead *models.Lead) error
	FindByID(id uint64) (*models.Lead, error)
	List(filter LeadFilter) ([]models.Lead, int64, error)
	Update(lead *models.Lead) error
	Delete(id uint64) error
}

// LeadFilter holds filtering options for listing leads
type LeadFilter struct {
	Status   *models.LeadStatus
	Search   string
	Page     int
	PageSize int
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// CreateBatch inserts notifications in one statement
	CreateBatch(notifications []models.Notification) error

	// ListByUser returns a user's notifications, newest first
	ListByUser(userID uint64, unreadOnly bool, limit int) ([]models.Notification, error)

	// CountUnread counts a user's unread notifications
	CountUnread(userID uint64) (int64, error)

	// MarkRead marks one notification read; it reports false when the user owns no such notification
	MarkRead(id, userID uint64) (bool, error)

	// MarkAllRead marks every notification of a user read and returns how many changed
	MarkAllRead(userID uint64) (int64, error)
}
