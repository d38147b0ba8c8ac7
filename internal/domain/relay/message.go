package relay

import (
	"encoding/json"
	"log"
)

// Client-to-server signaling message types. Anything outside this set
// is dropped without a reply.
const (
	MsgOffer        = "offer"
	MsgAnswer       = "answer"
	MsgICECandidate = "ice-candidate"
	MsgFileMetadata = "file-metadata"
)

type clientMessage struct {
	Type     string `json:"type"`
	TargetID string `json:"targetId"`
}

// relayMessage forwards a signaling message between peers. The relay is
// type-gated but otherwise content-blind: the payload is never
// inspected beyond the type and optional target, and the sender's
// connection id is attached as senderId before delivery. Unparseable or
// disallowed messages are logged and swallowed; the channel is
// fire-and-forget.
func (h *Hub) relayMessage(c *connection, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("relay: dropping unparseable message from connection %s: %v", c.id, err)
		return
	}

	switch msg.Type {
	case MsgOffer, MsgAnswer, MsgICECandidate, MsgFileMetadata:
		// allowed, fall through to forwarding
	default:
		log.Printf("relay: dropping message with disallowed type %q from connection %s", msg.Type, c.id)
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	payload["senderId"] = c.id

	if msg.TargetID != "" {
		h.SendTo(msg.TargetID, payload)
		return
	}
	h.BroadcastToSession(c.sessionID, payload, c.id)
}
