package relay

import (
	"encoding/json"
	"errors"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"filedrop/internal/domain/session"
)

type wsFixture struct {
	registry *session.Registry
	hub      *Hub
	url      string
}

func setupWS(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := session.NewRegistry()
	hub := NewHub(registry)
	handler := NewWSHandler(hub, registry)

	r := gin.New()
	r.GET("/ws", handler.HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &wsFixture{
		registry: registry,
		hub:      hub,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func (fx *wsFixture) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(fx.url+"?sessionId="+sessionID, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readJSON reads the next text message within the deadline.
func readJSON(t *testing.T, conn *websocket.Conn, timeout time.Duration) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(timeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return msg
}

// expectSilence asserts that nothing arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(window))
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no message, got %s", raw)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

// attach dials, consumes the connected greeting and returns the
// connection plus its assigned id.
func (fx *wsFixture) attach(t *testing.T, sessionID string) (*websocket.Conn, string) {
	t.Helper()
	conn := fx.dial(t, sessionID)
	msg := readJSON(t, conn, 2*time.Second)
	if msg["type"] != EventConnected {
		t.Fatalf("expected connected greeting, got %v", msg)
	}
	payload := msg["payload"].(map[string]any)
	id, _ := payload["connectionId"].(string)
	if id == "" {
		t.Fatal("connected event missing connectionId")
	}
	return conn, id
}

func TestConnect_UnknownSessionClosedWithPolicyViolation(t *testing.T) {
	fx := setupWS(t)
	conn := fx.dial(t, "nope1234")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("expected close error, got %v", err)
	}
	if closeErr.Code != websocket.ClosePolicyViolation {
		t.Fatalf("expected close code %d, got %d", websocket.ClosePolicyViolation, closeErr.Code)
	}
}

func TestConnect_ReceivesSnapshotAndCountsClient(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	conn := fx.dial(t, s.ID)
	msg := readJSON(t, conn, 2*time.Second)
	if msg["type"] != EventConnected {
		t.Fatalf("first event must be connected, got %v", msg["type"])
	}
	payload := msg["payload"].(map[string]any)
	snap := payload["session"].(map[string]any)
	if snap["sessionId"] != s.ID || snap["senderName"] != "alice" {
		t.Fatalf("bad snapshot: %v", snap)
	}
	if snap["connectedClients"] != float64(1) {
		t.Fatalf("snapshot must count the new connection: %v", snap["connectedClients"])
	}

	got, err := fx.registry.Get(s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ConnectedClients != 1 {
		t.Fatalf("registry count = %d, want 1", got.ConnectedClients)
	}
}

func TestAttach_BroadcastsClientConnectedToOthersOnly(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	first, _ := fx.attach(t, s.ID)
	second, secondID := fx.attach(t, s.ID)

	msg := readJSON(t, first, 2*time.Second)
	if msg["type"] != EventClientConnected {
		t.Fatalf("expected client_connected, got %v", msg)
	}
	payload := msg["payload"].(map[string]any)
	if payload["connectionId"] != secondID {
		t.Fatalf("wrong connectionId in client_connected: %v", payload)
	}
	if payload["connectedClients"] != float64(2) {
		t.Fatalf("wrong count: %v", payload)
	}

	// the new connection itself must not hear about its own arrival
	expectSilence(t, second, 300*time.Millisecond)
}

func TestDetach_BroadcastsClientDisconnected(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	first, _ := fx.attach(t, s.ID)
	second, secondID := fx.attach(t, s.ID)
	readJSON(t, first, 2*time.Second) // client_connected for second

	second.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	second.Close()

	msg := readJSON(t, first, 2*time.Second)
	if msg["type"] != EventClientDisconnected {
		t.Fatalf("expected client_disconnected, got %v", msg)
	}
	payload := msg["payload"].(map[string]any)
	if payload["connectionId"] != secondID || payload["connectedClients"] != float64(1) {
		t.Fatalf("bad payload: %v", payload)
	}
}

func TestRelay_DisallowedTypeIsDropped(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	first, _ := fx.attach(t, s.ID)
	second, _ := fx.attach(t, s.ID)
	readJSON(t, first, 2*time.Second) // client_connected for second

	if err := second.WriteJSON(map[string]any{"type": "chat", "text": "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectSilence(t, first, 300*time.Millisecond)

	// garbage is swallowed the same way
	if err := second.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	expectSilence(t, first, 300*time.Millisecond)
}

func TestRelay_BroadcastExcludesSenderAndAttachesSenderID(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	first, _ := fx.attach(t, s.ID)
	second, secondID := fx.attach(t, s.ID)
	readJSON(t, first, 2*time.Second) // client_connected for second

	if err := second.WriteJSON(map[string]any{"type": "offer", "sdp": "v=0"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readJSON(t, first, 2*time.Second)
	if msg["type"] != MsgOffer {
		t.Fatalf("expected relayed offer, got %v", msg)
	}
	if msg["sdp"] != "v=0" {
		t.Fatal("payload content must pass through untouched")
	}
	if msg["senderId"] != secondID {
		t.Fatalf("senderId = %v, want %v", msg["senderId"], secondID)
	}

	expectSilence(t, second, 300*time.Millisecond)
}

func TestRelay_TargetedDelivery(t *testing.T) {
	fx := setupWS(t)
	s := fx.registry.Create("", "alice")

	first, firstID := fx.attach(t, s.ID)
	second, _ := fx.attach(t, s.ID)
	readJSON(t, first, 2*time.Second) // client_connected for second
	third, thirdID := fx.attach(t, s.ID)
	readJSON(t, first, 2*time.Second)  // client_connected for third
	readJSON(t, second, 2*time.Second) // client_connected for third

	if err := third.WriteJSON(map[string]any{
		"type":      "answer",
		"targetId":  firstID,
		"candidate": "xyz",
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	msg := readJSON(t, first, 2*time.Second)
	if msg["type"] != MsgAnswer || msg["senderId"] != thirdID || msg["candidate"] != "xyz" {
		t.Fatalf("bad targeted message: %v", msg)
	}
	expectSilence(t, second, 300*time.Millisecond)
}

func TestBroadcast_DoesNotCrossSessions(t *testing.T) {
	fx := setupWS(t)
	a := fx.registry.Create("", "alice")
	b := fx.registry.Create("", "bob")

	connA, _ := fx.attach(t, a.ID)
	connB, _ := fx.attach(t, b.ID)

	fx.hub.SessionClosed(a.ID)

	msg := readJSON(t, connA, 2*time.Second)
	if msg["type"] != EventSessionClosed {
		t.Fatalf("expected session_closed, got %v", msg)
	}
	expectSilence(t, connB, 300*time.Millisecond)
}

func TestSendTo_UnknownConnection(t *testing.T) {
	fx := setupWS(t)
	if fx.hub.SendTo("missing", Event{Type: "x"}) {
		t.Fatal("SendTo must report false for unknown connection")
	}
}
