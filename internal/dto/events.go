package dto

// Real-time event names. Client to server events are requests, server to
// client events carry the mutated entity.
const (
	EventJoinTaskRoom  = "join-task-room"
	EventLeaveTaskRoom = "leave-task-room"
	EventJoinUserRoom  = "join-user-room"
	EventLeaveUserRoom = "leave-user-room"
	EventTypingStart   = "typing-start"
	EventTypingStop    = "typing-stop"

	EventTaskCreated = "task-created"
	EventTaskUpdated = "task-updated"
	EventTaskDeleted = "task-deleted"
	EventNewComment  = "new-comment"
	EventUserTyping  = "user-typing"
	EventError       = "error"
)

// RoomRequest is the payload of join/leave events.
type RoomRequest struct {
	TaskID uint64 `json:"task_id,omitempty"`
	UserID uint64 `json:"user_id,omitempty"`
}

// TypingRequest is the payload of typing-start and typing-stop.
type TypingRequest struct {
	TaskID uint64 `json:"task_id"`
}

// TaskDeletedPayload identifies a removed task.
type TaskDeletedPayload struct {
	ID         uint64 `json:"id"`
	TaskNumber string `json:"task_number"`
}

// TypingPayload is relayed to a task room.
type TypingPayload struct {
	TaskID   uint64 `json:"task_id"`
	UserID   uint64 `json:"user_id"`
	UserName string `json:"user_name"`
	Typing   bool   `json:"typing"`
}

// ErrorPayload answers a refused socket request.
type ErrorPayload struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}
