package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"codeinterview/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	defaultMaxMessageSize = 1 << 20
	defaultSendBuffer     = 256
)

// EventHandler consumes inbound events of a connection
type EventHandler interface {
	Handle(ctx context.Context, connID string, msg *model.Message)
	Disconnect(ctx context.Context, connID string)
}

// Options tunes the WebSocket transport
type Options struct {
	MaxMessageSize int64
	SendBuffer     int
	// AllowedOrigins limits the Origin header; empty or "*" allows any origin
	AllowedOrigins []string
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	events   EventHandler
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
	opts     Options
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, events EventHandler, logger *zap.SugaredLogger, opts Options) *Handler {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	return &Handler{
		hub:    hub,
		events: events,
		logger: logger,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	conn := &Connection{
		ID:   uuid.NewString(),
		Send: make(chan []byte, h.opts.SendBuffer),
	}
	if err := h.hub.Register(conn); err != nil {
		wsConn.Close()
		return
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// readPump feeds inbound frames to the event handler one at a time, so the
// events of a single connection are processed in arrival order.
func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	ctx := context.Background()
	defer func() {
		h.events.Disconnect(ctx, conn.ID)
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(h.opts.MaxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warnw("websocket read error", "conn", conn.ID, "error", err)
			}
			return
		}

		var msg model.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.Emit([]string{conn.ID}, model.EventError, model.ErrorEvent{
				Type:    model.ErrCodeInvalidPayload,
				Message: "Malformed message",
			})
			continue
		}
		h.events.Handle(ctx, conn.ID, &msg)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
