package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
)

// Client is a WebSocket client speaking the envelope protocol.
type Client struct {
	ws     *websocket.Conn
	events chan Envelope
	writeM sync.Mutex
	done   chan struct{}
	once   sync.Once
}

// Dial connects to url, authenticating with a bearer token when one is given.
func Dial(ctx context.Context, url, token string) (*Client, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		ws:     ws,
		events: make(chan Envelope, constants.SocketSendBuffer),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events yields every frame received. The channel closes when the connection ends.
func (c *Client) Events() <-chan Envelope {
	return c.events
}

// Emit sends one event.
func (c *Client) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.writeM.Lock()
	defer c.writeM.Unlock()
	return c.ws.WriteJSON(Envelope{Event: event, Data: data})
}

// Close ends the connection.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeM.Lock()
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeM.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		var env Envelope
		if err := c.ws.ReadJSON(&env); err != nil {
			return
		}
		select {
		case c.events <- env:
		case <-c.done:
			return
		}
	}
}
