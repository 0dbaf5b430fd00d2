// Package realtime keeps room membership for WebSocket connections and fans
// task and comment events out to them.
package realtime

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/dto"
	"github.com/nirmaan-tracker/nirmaan-api/internal/metrics"
	"go.uber.org/zap"
)

// Envelope is the JSON frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the envelope data into v.
func (e Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %q has no data", e.Event)
	}
	return json.Unmarshal(e.Data, v)
}

// Emitter delivers an event to every member of the given rooms.
type Emitter interface {
	Emit(event string, payload any, rooms ...string) error
}

// TaskRoom names the room of one task.
func TaskRoom(taskID uint64) string {
	return fmt.Sprintf("task:%d", taskID)
}

// UserRoom names the personal room of one user.
func UserRoom(userID uint64) string {
	return fmt.Sprintf("user:%d", userID)
}

// Hub is the in-process room registry.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Conn]struct{}
	members map[*Conn]map[string]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Conn]struct{}),
		members: make(map[*Conn]map[string]struct{}),
		logger:  logger,
	}
}

// Register tracks a new connection with no rooms.
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[c]; ok {
		return
	}
	h.members[c] = make(map[string]struct{})
	metrics.SocketConnections.Inc()
}

// Join adds c to room. It reports whether the connection was not yet a member.
func (h *Hub) Join(c *Conn, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.members[c]
	if !ok {
		return false
	}
	if _, already := joined[room]; already {
		return false
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Conn]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	joined[room] = struct{}{}

	metrics.RoomJoins.WithLabelValues(roomKind(room)).Inc()
	return true
}

// Leave removes c from room. Leaving a room c is not in does nothing.
func (h *Hub) Leave(c *Conn, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Conn, room string) {
	if joined, ok := h.members[c]; ok {
		delete(joined, room)
	}
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Disconnect removes c from every room and closes its send buffer.
func (h *Hub) Disconnect(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.members[c]
	if !ok {
		return
	}
	for room := range joined {
		h.leaveLocked(c, room)
	}
	delete(h.members, c)
	close(c.send)
	metrics.SocketConnections.Dec()
}

// IsMember reports whether c joined room.
func (h *Hub) IsMember(c *Conn, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.members[c][room]
	return ok
}

// Rooms lists the rooms c joined, sorted.
func (h *Hub) Rooms(c *Conn) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]string, 0, len(h.members[c]))
	for room := range h.members[c] {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Evict removes from room every connection whose viewer keep rejects, and
// returns how many were removed.
func (h *Hub) Evict(room string, keep func(access.Viewer) bool) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var evicted []*Conn
	for c := range h.rooms[room] {
		if !keep(c.Viewer) {
			evicted = append(evicted, c)
		}
	}
	for _, c := range evicted {
		h.leaveLocked(c, room)
		c.logger.Debug("evicted from room", zap.String("room", room))
	}
	return len(evicted)
}

// MemberCount returns the number of connections in room.
func (h *Hub) MemberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast delivers an event to every member of room, the sender included.
func (h *Hub) Broadcast(room, event string, payload any) error {
	return h.Emit(event, payload, room)
}

// Emit delivers an event once to each connection in any of rooms.
func (h *Hub) Emit(event string, payload any, rooms ...string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	h.deliver(event, data, rooms)
	return nil
}

// deliver fans the event out, then drops task room members who can no longer
// see the task. Relayed events take the same path, so every instance evicts.
func (h *Hub) deliver(event string, data json.RawMessage, rooms []string) {
	h.fanOut(event, data, rooms)

	switch event {
	case dto.EventTaskUpdated:
		var task dto.TaskDTO
		if err := json.Unmarshal(data, &task); err != nil || task.ID == 0 {
			return
		}
		h.Evict(TaskRoom(task.ID), func(v access.Viewer) bool {
			return access.CanViewTask(v, task.AssignTo, task.AssignBy)
		})
	case dto.EventTaskDeleted:
		var deleted dto.TaskDeletedPayload
		if err := json.Unmarshal(data, &deleted); err != nil || deleted.ID == 0 {
			return
		}
		h.Evict(TaskRoom(deleted.ID), func(access.Viewer) bool { return false })
	}
}

// fanOut delivers without blocking: a full send buffer drops the event.
func (h *Hub) fanOut(event string, data json.RawMessage, rooms []string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Conn]struct{})
	for _, room := range rooms {
		members := h.rooms[room]
		if len(members) == 0 {
			continue
		}

		frame, err := json.Marshal(Envelope{Event: event, Room: room, Data: data})
		if err != nil {
			h.logger.Error("failed to encode envelope", zap.String("event", event), zap.Error(err))
			return
		}

		for c := range members {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}

			select {
			case c.send <- frame:
				metrics.EventsEmitted.WithLabelValues(event).Inc()
			default:
				metrics.EventsDropped.WithLabelValues(event).Inc()
				h.logger.Warn("dropping event for slow connection",
					zap.String("event", event),
					zap.String("room", room),
					zap.String("conn_id", c.ID),
				)
			}
		}
	}
}

func roomKind(room string) string {
	if i := strings.IndexByte(room, ':'); i > 0 {
		return room[:i]
	}
	return "other"
}
