package relay

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"filedrop/internal/domain/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // allow all origins (configure in prod)
}

// WSHandler accepts realtime connections for a session.
type WSHandler struct {
	hub      *Hub
	registry *session.Registry
}

func NewWSHandler(hub *Hub, registry *session.Registry) *WSHandler {
	return &WSHandler{hub: hub, registry: registry}
}

// HandleWebSocket upgrades the request and attaches it to the session
// named by the sessionId query parameter.
//
// Endpoint: GET /ws?sessionId=TOKEN
//
// An unknown or closed session terminates the socket immediately with
// a policy-violation close code; there are no retries.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	sessionID := c.Query("sessionId")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	wsConn, count, err := h.hub.Attach(sessionID, conn)
	if err != nil {
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown session"), deadline)
		conn.Close()
		return
	}
	log.Printf("connection %s attached to session %s (%d clients)", wsConn.id, sessionID, count)

	// Greet the new connection with its id and a session snapshot, then
	// tell everyone else it arrived.
	if snap, err := h.registry.Get(sessionID); err == nil {
		files, _ := h.registry.Files(sessionID)
		h.hub.SendTo(wsConn.id, NewConnectedEvent(wsConn.id, snap, files))
	}
	h.hub.BroadcastToSession(sessionID, NewClientConnectedEvent(wsConn.id, count), wsConn.id)

	h.hub.readPump(wsConn) // blocks until disconnect
	log.Printf("connection %s detached from session %s", wsConn.id, sessionID)
}
