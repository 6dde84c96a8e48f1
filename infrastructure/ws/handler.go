package ws

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/services"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The HTTP layer already enforces CORS
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket sessions and translates
// incoming frames into chat service calls.
type Handler struct {
	log           *slog.Logger
	chat          services.IChatService
	sendQueueSize int
}

func NewHandler(log *slog.Logger, chat services.IChatService, sendQueueSize int) *Handler {
	return &Handler{log: log, chat: chat, sendQueueSize: sendQueueSize}
}

// inbound is the envelope read from the browser.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sendDirectPayload struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	FileURL   string `json:"file_url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
}

type sendGroupPayload struct {
	Group    string `json:"group"`
	Content  string `json:"content"`
	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

type markSeenPayload struct {
	MessageID string `json:"message_id,omitempty"`
	Group     string `json:"group,omitempty"`
}

// ServeHTTP authenticates the session from the "token" query parameter.
// Browsers cannot set an Authorization header on the WebSocket handshake.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	identity := domain.Identity(claims.Email)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	connID := domain.ConnectionID(uuid.NewString())
	client := NewClient(h.log, conn, connID, identity, h.sendQueueSize)

	h.chat.Connect(identity, connID, client)
	go client.WritePump()
	go h.readPump(conn, client, identity, connID)
}

// readPump consumes browser frames until the socket dies, then tears the
// connection down. One goroutine per connection.
func (h *Handler) readPump(conn *websocket.Conn, client *Client, identity domain.Identity, connID domain.ConnectionID) {
	defer func() {
		h.chat.Disconnect(connID)
		client.Close()
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Unexpected WebSocket close", "conn_id", connID, "error", err)
			}
			return
		}

		var in inbound
		if err = json.Unmarshal(raw, &in); err != nil {
			h.log.Warn("Discarding malformed frame", "conn_id", connID, "error", err)
			continue
		}

		if err = h.handle(conn, identity, in); err != nil {
			h.log.Warn("Frame handling failed", "conn_id", connID, "type", in.Type, "error", err)
		}
	}
}

func (h *Handler) handle(conn *websocket.Conn, identity domain.Identity, in inbound) error {
	ctx := context.Background()
	switch in.Type {
	case "sendDirect":
		var p sendDirectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		_, _, err := h.chat.SendDirect(ctx, domain.SendDirectCommand{
			Sender:    identity,
			Recipient: domain.Identity(p.Recipient),
			Content:   p.Content,
			FileURL:   p.FileURL,
			FileName:  p.FileName,
		})
		return err

	case "sendGroup":
		var p sendGroupPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		_, _, err := h.chat.SendGroup(ctx, domain.SendGroupCommand{
			Sender:   identity,
			Group:    domain.GroupID(p.Group),
			Content:  p.Content,
			FileURL:  p.FileURL,
			FileName: p.FileName,
		})
		return err

	case "markSeen":
		var p markSeenPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		cmd := domain.MarkSeenCommand{
			Identity: identity,
			Group:    domain.GroupID(p.Group),
		}
		if p.MessageID != "" {
			id, err := uuid.Parse(p.MessageID)
			if err != nil {
				return err
			}
			cmd.MessageID = id
		}
		return h.chat.MarkSeen(ctx, cmd)

	case "logout":
		h.chat.Logout(identity)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logged out"),
			time.Now().Add(writeWait))
		return nil

	default:
		h.log.Debug("Unknown frame type", "type", in.Type)
		return nil
	}
}
