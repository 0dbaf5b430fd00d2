package realtime

import (
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"go.uber.org/zap"
)

// Broadcaster routes committed task and comment mutations to their rooms.
type Broadcaster struct {
	emitter Emitter
	logger  *zap.Logger
}

// NewBroadcaster creates a Broadcaster emitting through emitter.
func NewBroadcaster(emitter Emitter, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{emitter: emitter, logger: logger}
}

// TaskCreated tells both parties and admins about a new task.
func (b *Broadcaster) TaskCreated(task dto.TaskDTO) {
	b.emit(dto.EventTaskCreated, task, taskRooms(task, 0)...)
}

// TaskUpdated also reaches the previous assignee so the task can leave their list.
func (b *Broadcaster) TaskUpdated(task dto.TaskDTO, previousAssignTo uint64) {
	b.emit(dto.EventTaskUpdated, task, taskRooms(task, previousAssignTo)...)
}

// TaskDeleted sends only the identity of the removed task.
func (b *Broadcaster) TaskDeleted(task dto.TaskDTO) {
	payload := dto.TaskDeletedPayload{ID: task.ID, TaskNumber: task.TaskNumber}
	b.emit(dto.EventTaskDeleted, payload, taskRooms(task, 0)...)
}

// CommentCreated reaches the viewers of the task.
func (b *Broadcaster) CommentCreated(comment dto.CommentDTO) {
	b.emit(dto.EventNewComment, comment, TaskRoom(comment.TaskID))
}

func (b *Broadcaster) emit(event string, payload any, rooms ...string) {
	if err := b.emitter.Emit(event, payload, rooms...); err != nil {
		b.logger.Warn("failed to emit event", zap.String("event", event), zap.Strings("rooms", rooms), zap.Error(err))
	}
}

func taskRooms(task dto.TaskDTO, previousAssignTo uint64) []string {
	rooms := []string{
		TaskRoom(task.ID),
		UserRoom(task.AssignTo),
		UserRoom(task.AssignBy),
	}
	if previousAssignTo != 0 && previousAssignTo != task.AssignTo && previousAssignTo != task.AssignBy {
		rooms = append(rooms, UserRoom(previousAssignTo))
	}
	return append(rooms, constants.AdminRoom)
}
