package dto

import (
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
)

// UserSummaryDTO is the minimal user shape embedded in other responses
type UserSummaryDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           uint64            `json:"id"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Username     string            `json:"username"`
	Phone        string            `json:"phone"`
	Role         models.UserRole   `json:"role"`
	Status       models.UserStatus `json:"status"`
	TempPassword bool              `json:"temp_password"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TaskDTO represents a task in API responses and real-time events
type TaskDTO struct {
	ID           uint64              `json:"id"`
	TaskNumber   string              `json:"task_number"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	AssignTo     uint64              `json:"assign_to"`
	AssignBy     uint64              `json:"assign_by"`
	AssignToName string              `json:"assign_to_name,omitempty"`
	AssignByName string              `json:"assign_by_name,omitempty"`
	DueDate      time.Time           `json:"due_date"`
	RelatedTo    models.TaskRelation `json:"related_to"`
	ProjectName  string              `json:"project_name,omitempty"`
	LeadID       *uint64             `json:"lead_id,omitempty"`
	LeadName     string              `json:"lead_name,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// CommentDTO represents a comment in API responses and real-time events
type CommentDTO struct {
	ID              uint64    `json:"id"`
	TaskID          uint64    `json:"task_id"`
	UserID          uint64    `json:"user_id"`
	AuthorName      string    `json:"author_name,omitempty"`
	Message         string    `json:"message"`
	ParentCommentID *uint64   `json:"parent_comment_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Conversion functions

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Name:         user.DisplayName(),
		Email:        user.Email,
		Username:     user.Username,
		Phone:        user.Phone,
		Role:         user.Role,
		Status:       user.Status,
		TempPassword: user.TempPassword,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, u := range users {
		items[i] = ToUserDTO(u)
	}
	return items
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		TaskNumber:  task.TaskNumber,
		Name:        task.Name,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignTo:    task.AssignTo,
		AssignBy:    task.AssignBy,
		DueDate:     task.DueDate,
		RelatedTo:   task.RelatedTo,
		ProjectName: task.ProjectName,
		LeadID:      task.LeadID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include names if preloaded
	if task.Assignee.ID != 0 {
		dto.AssignToName = task.Assignee.DisplayName()
	}
	if task.Assigner.ID != 0 {
		dto.AssignByName = task.Assigner.DisplayName()
	}
	if task.Lead != nil {
		dto.LeadName = task.Lead.Name
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	dto := CommentDTO{
		ID:              comment.ID,
		TaskID:          comment.TaskID,
		UserID:          comment.UserID,
		Message:         comment.Message,
		ParentCommentID: comment.ParentCommentID,
		CreatedAt:       comment.CreatedAt,
	}
	if comment.Author.ID != 0 {
		dto.AuthorName = comment.Author.DisplayName()
	}
	return dto
}

// ToCommentDTOs converts a slice of comments preserving order
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, c := range comments {
		items[i] = ToCommentDTO(c)
	}
	return items
}
