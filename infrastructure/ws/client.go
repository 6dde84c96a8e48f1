package ws

import (
	"chat-hub/domain"
	"chat-hub/domain/event"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one live WebSocket session. It implements contract.EventSink:
// events are JSON-framed into the send queue, and a single writer goroutine
// drains it back to the browser. A slow browser drops events instead of
// stalling the hub.
type Client struct {
	log      *slog.Logger
	conn     *websocket.Conn
	connID   domain.ConnectionID
	identity domain.Identity
	send     chan []byte
}

func NewClient(log *slog.Logger, conn *websocket.Conn, connID domain.ConnectionID, identity domain.Identity, sendQueueSize int) *Client {
	return &Client{
		log:      log,
		conn:     conn,
		connID:   connID,
		identity: identity,
		send:     make(chan []byte, sendQueueSize),
	}
}

// frame is the envelope written to the browser.
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Consume queues one event for the writer goroutine. The send is
// non-blocking: when the queue is full the event is dropped and the client
// catches up through history on the next fetch.
func (c *Client) Consume(_ context.Context, e event.DomainEvent) error {
	bytes, err := json.Marshal(frame{Type: e.EventName(), Payload: e})
	if err != nil {
		return err
	}
	select {
	case c.send <- bytes:
	default:
		c.log.Warn("Dropping event on saturated connection",
			"conn_id", c.connID, "identity", c.identity, "event", e.EventName())
	}
	return nil
}

// WritePump drains the send queue to the socket and keeps the connection
// alive with pings. One goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops the writer goroutine.
func (c *Client) Close() {
	close(c.send)
}
