package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"codeinterview/internal/model"

	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
)

// ErrHubClosed is returned when registering with a closed hub
var ErrHubClosed = errors.New("hub is closed")

// Hub tracks live WebSocket connections and delivers relay events to them
// (implements service.Broadcaster)
type Hub struct {
	conns  map[string]*Connection
	closed bool

	mu sync.RWMutex

	logger *zap.SugaredLogger
	stats  tally.Scope
}

// Connection represents a WebSocket connection. Send is closed by the hub
// once the connection is unregistered.
type Connection struct {
	ID   string
	Send chan []byte
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.SugaredLogger, stats tally.Scope) *Hub {
	return &Hub{
		conns:  make(map[string]*Connection),
		logger: logger,
		stats:  stats,
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.conns[conn.ID] = conn
	h.updateGauge()
	h.logger.Infow("connection opened", "conn", conn.ID)
	return nil
}

// Unregister removes a connection and closes its send queue
func (h *Hub) Unregister(conn *Connection) {
	if h.remove(conn) {
		h.logger.Infow("connection closed", "conn", conn.ID)
	}
}

// Close closes every connection and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, conn := range h.conns {
		delete(h.conns, id)
		close(conn.Send)
	}
	h.updateGauge()
}

// Emit enqueues one envelope for each listed connection that is still
// open. Unknown ids are skipped. A connection whose queue is full is closed
// instead of silently losing the event.
func (h *Hub) Emit(connIDs []string, event model.EventType, payload interface{}) {
	data, err := encode(event, payload)
	if err != nil {
		h.logger.Errorw("failed to encode event", "event", event, "error", err)
		return
	}

	var overflowed []*Connection
	h.mu.RLock()
	for _, id := range connIDs {
		conn, ok := h.conns[id]
		if !ok {
			continue
		}
		select {
		case conn.Send <- data:
		default:
			overflowed = append(overflowed, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range overflowed {
		if h.remove(conn) {
			h.stats.Counter("connections.overflowed").Inc(1)
			h.logger.Warnw("send buffer full, closing connection", "conn", conn.ID, "event", event)
		}
	}
}

// remove reports whether conn was still registered
func (h *Hub) remove(conn *Connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, ok := h.conns[conn.ID]
	if !ok || existing != conn {
		return false
	}
	delete(h.conns, conn.ID)
	close(conn.Send)
	h.updateGauge()
	return true
}

// updateGauge must be called with h.mu held
func (h *Hub) updateGauge() {
	h.stats.Gauge("connections.active").Update(float64(len(h.conns)))
}

// Len returns the number of open connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func encode(event model.EventType, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&model.Message{Type: event, Payload: body})
}
