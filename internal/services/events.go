package services

import "github.com/nirmaan-tracker/nirmaan-api/internal/dto"

// EventPublisher receives committed task and comment mutations for real-time delivery.
type EventPublisher interface {
	TaskCreated(task dto.TaskDTO)
	// TaskUpdated also receives the assignee before the edit so a reassigned
	// user hears about the task leaving their list.
	TaskUpdated(task dto.TaskDTO, previousAssignTo uint64)
	TaskDeleted(task dto.TaskDTO)
	CommentCreated(comment dto.CommentDTO)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) TaskCreated(dto.TaskDTO)         {}
func (NopPublisher) TaskUpdated(dto.TaskDTO, uint64) {}
func (NopPublisher) TaskDeleted(dto.TaskDTO)         {}
func (NopPublisher) CommentCreated(dto.CommentDTO)   {}
