package realtime

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskLookup finds tasks for room authorization.
type TaskLookup interface {
	FindByID(id uint64, preload ...string) (*models.Task, error)
}

// Server upgrades HTTP requests and answers client socket events.
type Server struct {
	hub      *Hub
	emitter  Emitter
	tasks    TaskLookup
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewServer creates a Server. Room broadcasts go through emitter so a relay can
// carry them to other instances; origins lists allowed browser origins, "*" allows all.
func NewServer(hub *Hub, emitter Emitter, tasks TaskLookup, origins []string, logger *zap.Logger) *Server {
	return &Server{
		hub:     hub,
		emitter: emitter,
		tasks:   tasks,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

// Serve upgrades the request and blocks until the connection closes.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, user *models.User) error {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	viewer := access.Viewer{UserID: user.ID, Role: user.Role}
	c := NewConn(ws, viewer, user.DisplayName(), s.logger)
	s.hub.Register(c)
	if viewer.IsAdmin() {
		s.hub.Join(c, constants.AdminRoom)
	}
	c.logger.Info("socket connected")

	go c.writePump()
	c.readPump(s.handle)

	s.hub.Disconnect(c)
	c.logger.Info("socket disconnected")
	return nil
}

// handle dispatches one client event.
func (s *Server) handle(c *Conn, env Envelope) {
	switch env.Event {
	case dto.EventJoinTaskRoom, dto.EventLeaveTaskRoom:
		var req dto.RoomRequest
		if err := env.Decode(&req); err != nil || req.TaskID == 0 {
			s.refuse(c, env.Event, "task_id is required")
			return
		}
		room := TaskRoom(req.TaskID)
		if env.Event == dto.EventLeaveTaskRoom {
			s.hub.Leave(c, room)
			return
		}
		if err := s.authorizeTask(c, req.TaskID); err != nil {
			s.refuse(c, env.Event, err.Error())
			return
		}
		s.hub.Join(c, room)

	case dto.EventJoinUserRoom, dto.EventLeaveUserRoom:
		var req dto.RoomRequest
		if err := env.Decode(&req); err != nil || req.UserID == 0 {
			s.refuse(c, env.Event, "user_id is required")
			return
		}
		room := UserRoom(req.UserID)
		if env.Event == dto.EventLeaveUserRoom {
			s.hub.Leave(c, room)
			return
		}
		if !access.CanJoinUserRoom(c.Viewer, req.UserID) {
			s.refuse(c, env.Event, "you can only join your own user room")
			return
		}
		s.hub.Join(c, room)

	case dto.EventTypingStart, dto.EventTypingStop:
		var req dto.TypingRequest
		if err := env.Decode(&req); err != nil || req.TaskID == 0 {
			s.refuse(c, env.Event, "task_id is required")
			return
		}
		room := TaskRoom(req.TaskID)
		if !s.hub.IsMember(c, room) {
			s.refuse(c, env.Event, "join the task room first")
			return
		}
		payload := dto.TypingPayload{
			TaskID:   req.TaskID,
			UserID:   c.Viewer.UserID,
			UserName: c.Name,
			Typing:   env.Event == dto.EventTypingStart,
		}
		if err := s.emitter.Emit(dto.EventUserTyping, payload, room); err != nil {
			c.logger.Warn("failed to relay typing", zap.Error(err))
		}

	default:
		s.refuse(c, env.Event, "unknown event")
	}
}

var (
	errTaskNotVisible = errors.New("task not found")
	errLookupFailed   = errors.New("could not check task access")
)

func (s *Server) authorizeTask(c *Conn, taskID uint64) error {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errTaskNotVisible
		}
		c.logger.Error("task lookup failed", zap.Uint64("task_id", taskID), zap.Error(err))
		return errLookupFailed
	}
	if !access.CanViewTask(c.Viewer, task.AssignTo, task.AssignBy) {
		return errTaskNotVisible
	}
	return nil
}

func (s *Server) refuse(c *Conn, event, message string) {
	c.reply(dto.EventError, dto.ErrorPayload{Event: event, Message: message})
}

func originChecker(origins []string) func(*http.Request) bool {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
