package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nirmaan-tracker/nirmaan-api/internal/access"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"go.uber.org/zap"
)

// Conn is one authenticated WebSocket connection.
type Conn struct {
	ID     string
	Viewer access.Viewer
	// Name is the display name relayed in typing events
	Name string

	ws     *websocket.Conn
	send   chan []byte
	logger *zap.Logger
}

// NewConn wraps ws for the given viewer. ws may be nil for connections that
// are only read through their send buffer.
func NewConn(ws *websocket.Conn, viewer access.Viewer, name string, logger *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		ID:     id,
		Viewer: viewer,
		Name:   name,
		ws:     ws,
		send:   make(chan []byte, constants.SocketSendBuffer),
		logger: logger.With(zap.String("conn_id", id), zap.Uint64("user_id", viewer.UserID)),
	}
}

// Send returns the buffer of encoded frames waiting to be written.
func (c *Conn) Send() <-chan []byte {
	return c.send
}

// reply queues a frame for this connection only.
func (c *Conn) reply(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to encode reply", zap.String("event", event), zap.Error(err))
		return
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		c.logger.Error("failed to encode reply", zap.String("event", event), zap.Error(err))
		return
	}

	select {
	case c.send <- frame:
	default:
		c.logger.Warn("dropping reply for slow connection", zap.String("event", event))
	}
}

// readPump decodes inbound frames until the socket fails.
func (c *Conn) readPump(handle func(*Conn, Envelope)) {
	c.ws.SetReadLimit(constants.SocketMaxMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(constants.SocketPongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(constants.SocketPongWait))
	})

	for {
		var env Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("socket closed unexpectedly", zap.Error(err))
			}
			return
		}
		handle(c, env)
	}
}

// writePump writes queued frames and pings until the send buffer is closed.
func (c *Conn) writePump() {
	ticker := time.NewTicker(constants.SocketPingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(constants.SocketWriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("socket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(constants.SocketWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
