package relay

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"filedrop/internal/domain/session"
	"filedrop/internal/domain/transfer"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 512 * 1024 // 512 KB
)

// connection is a single attached WebSocket client. The session binding
// is set once at attach time and never reassigned.
type connection struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub is the connection directory and broadcast fan-out for all live
// realtime connections. It also keeps the per-session connection count
// in the registry accurate across attach/detach.
type Hub struct {
	mu          sync.RWMutex
	registry    *session.Registry
	connections map[string]*connection // connectionID -> connection
}

func NewHub(registry *session.Registry) *Hub {
	return &Hub{
		registry:    registry,
		connections: make(map[string]*connection),
	}
}

// Attach binds a raw WebSocket to a session. The session must exist
// and be live; the password check is a prior, separate HTTP step and is
// not repeated here. On success the write pump is running and the
// caller owns the read loop via readPump.
func (h *Hub) Attach(sessionID string, conn *websocket.Conn) (*connection, int, error) {
	count, err := h.registry.AddClient(sessionID)
	if err != nil {
		return nil, 0, err
	}

	c := &connection{
		id:        uuid.New().String(),
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan []byte, 256),
	}

	h.mu.Lock()
	h.connections[c.id] = c
	h.mu.Unlock()

	go h.writePump(c)
	return c, count, nil
}

// detach removes the connection, decrements the session count (the
// session may already be gone; that is not an error) and tells the
// remaining peers.
func (h *Hub) detach(c *connection) {
	h.mu.Lock()
	existing, ok := h.connections[c.id]
	if ok && existing == c {
		delete(h.connections, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	if count, alive := h.registry.RemoveClient(c.sessionID); alive {
		h.BroadcastToSession(c.sessionID, NewClientDisconnectedEvent(c.id, count), "")
	}
}

// BroadcastToSession delivers a message to every currently-attached
// connection of the session except excludeID (if non-empty). Delivery
// is best-effort: a connection with a full send buffer is skipped.
func (h *Hub) BroadcastToSession(sessionID string, msg any, excludeID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		if c.sessionID != sessionID || c.id == excludeID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// client too slow, skip
		}
	}
}

// SendTo delivers a message to exactly one connection. Returns false
// if the connection is unknown or not writable.
func (h *Hub) SendTo(connectionID string, msg any) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.connections[connectionID]
	if !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump consumes client messages until disconnect, then detaches.
// It blocks and must run on the connection's serving goroutine.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		h.relayMessage(c, raw)
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SessionClosed implements session.Broadcaster.
func (h *Hub) SessionClosed(sessionID string) {
	h.BroadcastToSession(sessionID, NewSessionClosedEvent(sessionID), "")
}

// FilesUpdated implements session.Broadcaster.
func (h *Hub) FilesUpdated(sessionID string, files []session.FileInfo) {
	h.BroadcastToSession(sessionID, NewFilesUpdatedEvent(files), "")
}

// DownloadStats implements transfer.StatsBroadcaster.
func (h *Hub) DownloadStats(sessionID, fileID, clientID string, stat transfer.Stat) {
	h.BroadcastToSession(sessionID, NewDownloadStatsEvent(fileID, clientID, stat), "")
}

// DownloadFailed implements transfer.StatsBroadcaster.
func (h *Hub) DownloadFailed(sessionID, fileID, clientID, reason string, stat transfer.Stat) {
	h.BroadcastToSession(sessionID, NewDownloadFailedEvent(fileID, clientID, reason, stat), "")
}
