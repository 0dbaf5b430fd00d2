package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/realtime"
)

// TypingUser is someone currently typing on a task.
type TypingUser struct {
	UserID   uint64
	UserName string
}

type typingMark struct {
	name string
	at   time.Time
}

// Reducer is the local state of one viewer: the task list, the open detail
// view, loaded comments and typing indicators.
type Reducer struct {
	mu       sync.Mutex
	session  *Session
	tasks    []dto.TaskDTO
	detailID uint64
	comments map[uint64][]dto.CommentDTO
	typing   map[uint64]map[uint64]typingMark
	// hidden holds tasks the viewer lost sight of; their comments and typing are ignored
	hidden map[uint64]struct{}
	now    func() time.Time
}

// NewReducer creates an empty Reducer bound to session.
func NewReducer(session *Session) *Reducer {
	return &Reducer{
		session:  session,
		comments: make(map[uint64][]dto.CommentDTO),
		typing:   make(map[uint64]map[uint64]typingMark),
		hidden:   make(map[uint64]struct{}),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for typing expiry.
func (r *Reducer) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Load replaces the task list with the visible subset of tasks.
func (r *Reducer) Load(tasks []dto.TaskDTO) {
	viewer, ok := r.session.Viewer()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = r.tasks[:0]
	if !ok {
		return
	}
	for _, t := range tasks {
		if access.CanViewTask(viewer, t.AssignTo, t.AssignBy) {
			r.tasks = append(r.tasks, t)
			delete(r.hidden, t.ID)
		} else {
			r.forget(t.ID)
		}
	}
	sortTasks(r.tasks)
}

// Reset drops all local state.
func (r *Reducer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = nil
	r.detailID = 0
	r.comments = make(map[uint64][]dto.CommentDTO)
	r.typing = make(map[uint64]map[uint64]typingMark)
	r.hidden = make(map[uint64]struct{})
}

// Tasks returns a copy of the task list, newest first.
func (r *Reducer) Tasks() []dto.TaskDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dto.TaskDTO(nil), r.tasks...)
}

// Task returns one task from the local list.
func (r *Reducer) Task(id uint64) (dto.TaskDTO, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(id); i >= 0 {
		return r.tasks[i], true
	}
	return dto.TaskDTO{}, false
}

// OpenDetail shows one task and seeds its comments.
func (r *Reducer) OpenDetail(taskID uint64, comments []dto.CommentDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailID = taskID
	delete(r.hidden, taskID)
	r.comments[taskID] = nil
	for _, c := range comments {
		r.insertComment(c)
	}
}

// CloseDetail hides the detail view.
func (r *Reducer) CloseDetail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detailID = 0
}

// Detail returns the open task id, if any.
func (r *Reducer) Detail() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detailID, r.detailID != 0
}

// Comments returns a task's known comments, oldest first.
func (r *Reducer) Comments(taskID uint64) []dto.CommentDTO {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dto.CommentDTO(nil), r.comments[taskID]...)
}

// AddOwnComment records a comment the local user just posted.
func (r *Reducer) AddOwnComment(c dto.CommentDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertComment(c)
}

// ApplyOptimistic shows a local edit before the server confirms it. The
// matching task-updated event overwrites it.
func (r *Reducer) ApplyOptimistic(task dto.TaskDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsert(task)
}

// Typing lists users whose typing indicator on taskID is still fresh.
func (r *Reducer) Typing(taskID uint64) []TypingUser {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var out []TypingUser
	for userID, mark := range r.typing[taskID] {
		if now.Sub(mark.at) < constants.TypingExpiry {
			out = append(out, TypingUser{UserID: userID, UserName: mark.name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Apply merges one server event. Events received without an active session are ignored.
func (r *Reducer) Apply(env realtime.Envelope) error {
	viewer, ok := r.session.Viewer()
	if !ok {
		return nil
	}

	switch env.Event {
	case dto.EventTaskCreated, dto.EventTaskUpdated:
		var task dto.TaskDTO
		if err := env.Decode(&task); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if access.CanViewTask(viewer, task.AssignTo, task.AssignBy) {
			delete(r.hidden, task.ID)
			r.upsert(task)
		} else {
			r.forget(task.ID)
		}

	case dto.EventTaskDeleted:
		var deleted dto.TaskDeletedPayload
		if err := env.Decode(&deleted); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.forget(deleted.ID)

	case dto.EventNewComment:
		var comment dto.CommentDTO
		if err := env.Decode(&comment); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if comment.UserID == viewer.UserID {
			return nil
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, gone := r.hidden[comment.TaskID]; gone {
			return nil
		}
		r.insertComment(comment)

	case dto.EventUserTyping:
		var typing dto.TypingPayload
		if err := env.Decode(&typing); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if typing.UserID == viewer.UserID {
			return nil
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, gone := r.hidden[typing.TaskID]; gone {
			return nil
		}
		r.markTyping(typing)
	}
	return nil
}

// Consume applies events until the channel closes or ctx is done. Malformed
// events are reported to onError and skipped.
func (r *Reducer) Consume(ctx context.Context, events <-chan realtime.Envelope, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-events:
			if !ok {
				return
			}
			if err := r.Apply(env); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

func (r *Reducer) indexOf(id uint64) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Reducer) upsert(task dto.TaskDTO) {
	if i := r.indexOf(task.ID); i >= 0 {
		r.tasks[i] = task
	} else {
		r.tasks = append(r.tasks, task)
	}
	sortTasks(r.tasks)
}

func (r *Reducer) remove(id uint64) {
	if i := r.indexOf(id); i >= 0 {
		r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
	}
}

// forget drops a task the viewer can no longer see, with its comments,
// typing marks and open detail view.
func (r *Reducer) forget(id uint64) {
	r.remove(id)
	delete(r.comments, id)
	delete(r.typing, id)
	if r.detailID == id {
		r.detailID = 0
	}
	r.hidden[id] = struct{}{}
}

func (r *Reducer) insertComment(c dto.CommentDTO) {
	list := r.comments[c.TaskID]
	for _, existing := range list {
		if existing.ID == c.ID {
			return
		}
	}
	list = append(list, c)
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	r.comments[c.TaskID] = list
}

func (r *Reducer) markTyping(p dto.TypingPayload) {
	marks, ok := r.typing[p.TaskID]
	if !ok {
		marks = make(map[uint64]typingMark)
		r.typing[p.TaskID] = marks
	}
	if p.Typing {
		marks[p.UserID] = typingMark{name: p.UserName, at: r.now()}
	} else {
		delete(marks, p.UserID)
	}
}

// sortTasks orders newest first; id breaks ties.
func sortTasks(tasks []dto.TaskDTO) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
